/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package protocol defines the records exchanged between the server and its
// clients: tagged events, the envelopes that carry them, and coded errors.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
)

// Event is an immutable tagged record {type, seq, ...fields}.
//
// On the way in, Seq is the position in the sender's stream. On the way out it
// is overwritten with the position in the recipient's stream. The two counters
// are unrelated.
type Event struct {
	Type   string
	Seq    int64
	Fields map[string]any

	rawSeq json.RawMessage
}

// NewEvent builds an event of the given type. The fields map is copied.
func NewEvent(eventType string, fields map[string]any) Event {
	return Event{Type: eventType, Fields: maps.Clone(fields)}
}

// WithSeq returns a copy of e carrying seq.
func (e Event) WithSeq(seq int64) Event {
	e.Seq = seq
	e.rawSeq = nil
	return e
}

// With returns a copy of e with one field set.
func (e Event) With(key string, value any) Event {
	fields := make(map[string]any, len(e.Fields)+1)
	maps.Copy(fields, e.Fields)
	fields[key] = value
	e.Fields = fields
	return e
}

// SeqText renders seq as the client sent it, for diagnostics.
func (e Event) SeqText() string {
	if e.rawSeq != nil {
		return string(e.rawSeq)
	}
	return strconv.FormatInt(e.Seq, 10)
}

// Decode narrows e into a typed value by round-tripping it through JSON.
func (e Event) Decode(v any) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (e Event) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Fields)+2)
	maps.Copy(out, e.Fields)
	out["type"] = e.Type
	if e.Seq != 0 {
		out["seq"] = e.Seq
	} else {
		delete(out, "seq")
	}
	return json.Marshal(out)
}

func (e *Event) UnmarshalJSON(data []byte) error {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		return err
	}
	if members == nil {
		return errors.New("event must be a JSON object")
	}

	*e = Event{}

	if raw, ok := members["type"]; ok {
		if err := json.Unmarshal(raw, &e.Type); err != nil {
			return fmt.Errorf("event type: %w", err)
		}
		delete(members, "type")
	}

	if raw, ok := members["seq"]; ok {
		e.rawSeq = raw
		e.Seq = parseSeq(raw)
		delete(members, "seq")
	}

	if len(members) > 0 {
		e.Fields = make(map[string]any, len(members))
		for k, v := range members {
			e.Fields[k] = v
		}
	}

	return nil
}

// parseSeq returns 0 for anything that is not a JSON integer, which Inbox
// rejects as an invalid sequence.
func parseSeq(raw json.RawMessage) int64 {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return 0
	}

	n, ok := v.(json.Number)
	if !ok {
		return 0
	}

	i, err := n.Int64()
	if err != nil {
		return 0
	}

	return i
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"slices"

	"github.com/Seednode/screengames/protocol"
)

// DefaultMaxBuffered bounds how many out-of-order events a single sender may
// have parked before it is considered abusive.
const DefaultMaxBuffered = 400

// Inbox delivers one sender's events in strict sequence order despite
// out-of-order arrival. Neither buffered nor missing ever holds more than
// maxBuffered entries.
//
// deliveredUpTo is the highest seq seen so far; every seq at or below it is
// either delivered, buffered, or listed in missing. Nothing is released while
// missing is non-empty.
type Inbox struct {
	maxBuffered   int
	deliveredUpTo int64
	buffered      []protocol.Event
	missing       map[int64]struct{}
	ready         []protocol.Event
}

func NewInbox(maxBuffered int) *Inbox {
	if maxBuffered <= 0 {
		maxBuffered = DefaultMaxBuffered
	}
	return &Inbox{
		maxBuffered: maxBuffered,
		missing:     make(map[int64]struct{}),
	}
}

// Ingest accepts one event. A returned error means the sender's stream is
// broken and its connection should be dropped; the inbox is left untouched.
func (q *Inbox) Ingest(e protocol.Event) error {
	seq := e.Seq
	if seq < 1 {
		return protocol.Errorf(protocol.CodeInvalidSequence, "event seq %s is not an integer >= 1", e.SeqText())
	}

	if len(q.buffered) == 0 && seq == q.deliveredUpTo+1 {
		q.ready = append(q.ready, e)
		q.deliveredUpTo++
		return nil
	}

	_, wasMissing := q.missing[seq]
	if seq <= q.deliveredUpTo && !wasMissing {
		return protocol.Errorf(protocol.CodeDuplicateSequence, "event seq %d was already received", seq)
	}

	var gaps int64
	if seq > q.deliveredUpTo {
		gaps = seq - q.deliveredUpTo - 1
	}

	missing := int64(len(q.missing)) + gaps
	if wasMissing {
		missing--
	}
	if missing > int64(q.maxBuffered) {
		return protocol.Errorf(protocol.CodeQueueOverflow, "event seq %d leaves %d events missing (limit %d)", seq, missing, q.maxBuffered)
	}

	// Only the event that closes the last hole may exceed the buffer limit,
	// since it flushes everything at once.
	if missing > 0 && len(q.buffered)+1 > q.maxBuffered {
		return protocol.Errorf(protocol.CodeQueueOverflow, "more than %d events buffered", q.maxBuffered)
	}

	i, _ := slices.BinarySearchFunc(q.buffered, seq, func(b protocol.Event, s int64) int {
		switch {
		case b.Seq < s:
			return -1
		case b.Seq > s:
			return 1
		}
		return 0
	})
	q.buffered = slices.Insert(q.buffered, i, e)

	for s := q.deliveredUpTo + 1; s < seq; s++ {
		q.missing[s] = struct{}{}
	}
	delete(q.missing, seq)
	q.deliveredUpTo = max(q.deliveredUpTo, seq)

	if len(q.missing) == 0 {
		q.ready = append(q.ready, q.buffered...)
		q.buffered = nil
	}

	return nil
}

// Drain returns everything released so far and forgets it.
func (q *Inbox) Drain() []protocol.Event {
	out := q.ready
	q.ready = nil
	if out == nil {
		return []protocol.Event{}
	}
	return out
}

func (q *Inbox) DeliveredUpTo() int64 {
	return q.deliveredUpTo
}

func (q *Inbox) Buffered() int {
	return len(q.buffered)
}

func (q *Inbox) Missing() int {
	return len(q.missing)
}

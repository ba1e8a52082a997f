/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pictionary

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Seednode/screengames/protocol"
)

const (
	KindAddStroke    = "add_stroke"
	KindAppendStroke = "append_stroke"
	KindRemoveStroke = "remove_stroke"
	KindClearCanvas  = "clear_canvas"
	KindRename       = "rename"
)

const (
	MaxCoordinate   = 1e7
	MaxStrokePoints = 10000
	MaxStrokeIDLen  = 64
	MaxNameLength   = 32
)

var ErrUnknownEvent = errors.New("pictionary: unknown event type")

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) valid() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) &&
		math.Abs(p.X) <= MaxCoordinate && math.Abs(p.Y) <= MaxCoordinate
}

type Stroke struct {
	Owner  string  `json:"owner,omitempty"`
	Points []Point `json:"points"`
}

// State is the full drawing as sent to joining clients.
type State struct {
	Strokes     map[string]Stroke `json:"strokes"`
	StrokeOrder []string          `json:"stroke_order"`
	Bounds      Rect              `json:"bounds"`
	Revision    uint64            `json:"revision"`
}

// Event is the closed set of events this game understands. Only the types in
// this file implement it.
type Event interface {
	pictionaryEvent()
}

type AddStroke struct {
	StrokeID   string
	Point      Point
	IdentityID string
}

type AppendStroke struct {
	StrokeID   string
	Point      Point
	IdentityID string
}

// RemoveStroke undoes one stroke.
type RemoveStroke struct {
	StrokeID   string
	IdentityID string
}

type ClearCanvas struct {
	IdentityID string
}

// Initialize replaces the whole drawing with a server snapshot.
type Initialize struct {
	State State
}

type Rename struct {
	Name       string
	IdentityID string
}

func (AddStroke) pictionaryEvent()    {}
func (AppendStroke) pictionaryEvent() {}
func (RemoveStroke) pictionaryEvent() {}
func (ClearCanvas) pictionaryEvent()  {}
func (Initialize) pictionaryEvent()   {}
func (Rename) pictionaryEvent()       {}

type strokeWire struct {
	StrokeID   string `json:"stroke_id"`
	Point      *Point `json:"point"`
	IdentityID string `json:"identity_id"`
}

func (w strokeWire) check(requirePoint bool) error {
	if w.StrokeID == "" || len(w.StrokeID) > MaxStrokeIDLen {
		return fmt.Errorf("stroke_id must be 1-%d bytes", MaxStrokeIDLen)
	}
	if !requirePoint {
		return nil
	}
	if w.Point == nil {
		return errors.New("point is required")
	}
	if !w.Point.valid() {
		return fmt.Errorf("point (%v, %v) is out of range", w.Point.X, w.Point.Y)
	}
	return nil
}

// Parse narrows a raw event into the game's event union. Unrecognised types
// yield ErrUnknownEvent; recognised but malformed ones yield a descriptive
// error.
func Parse(e protocol.Event) (Event, error) {
	switch e.Type {
	case KindAddStroke, KindAppendStroke:
		var w strokeWire
		if err := e.Decode(&w); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		if err := w.check(true); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		if e.Type == KindAddStroke {
			return AddStroke{StrokeID: w.StrokeID, Point: *w.Point, IdentityID: w.IdentityID}, nil
		}
		return AppendStroke{StrokeID: w.StrokeID, Point: *w.Point, IdentityID: w.IdentityID}, nil

	case KindRemoveStroke:
		var w strokeWire
		if err := e.Decode(&w); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		if err := w.check(false); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		return RemoveStroke{StrokeID: w.StrokeID, IdentityID: w.IdentityID}, nil

	case KindClearCanvas:
		var w strokeWire
		if err := e.Decode(&w); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		return ClearCanvas{IdentityID: w.IdentityID}, nil

	case KindRename:
		var w struct {
			Name       string `json:"name"`
			IdentityID string `json:"identity_id"`
		}
		if err := e.Decode(&w); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		name := strings.TrimSpace(w.Name)
		if name == "" || len([]rune(name)) > MaxNameLength {
			return nil, fmt.Errorf("%s: name must be 1-%d characters", e.Type, MaxNameLength)
		}
		return Rename{Name: name, IdentityID: w.IdentityID}, nil

	case protocol.EventInitialize:
		var w struct {
			State State `json:"state"`
		}
		if err := e.Decode(&w); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Type, err)
		}
		return Initialize{State: w.State}, nil
	}

	return nil, ErrUnknownEvent
}

// Cast is Parse for consumers, which only need to know whether to accept.
func Cast(e protocol.Event) (Event, bool) {
	ev, err := Parse(e)
	return ev, err == nil
}

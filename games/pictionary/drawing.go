/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pictionary

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/protocol"
)

// Drawing holds strokes in the order they were started. It is used both as
// the server's authoritative copy and by clients mirroring it.
type Drawing struct {
	strokes map[string]*Stroke
	order   []string
	log     logrus.FieldLogger
}

func NewDrawing(log logrus.FieldLogger) *Drawing {
	return &Drawing{
		strokes: make(map[string]*Stroke),
		log:     log,
	}
}

func (d *Drawing) CastEvent(e protocol.Event) (Event, bool) {
	ev, ok := Cast(e)
	if !ok {
		return nil, false
	}

	switch ev.(type) {
	case AddStroke, AppendStroke, RemoveStroke, ClearCanvas, Initialize:
		return ev, true
	}

	return nil, false
}

func (d *Drawing) IngestEvent(ev Event) bool {
	switch ev := ev.(type) {
	case AddStroke:
		if _, ok := d.strokes[ev.StrokeID]; ok {
			d.log.WithFields(logrus.Fields{
				"type":      "add_to_existing_stroke",
				"stroke_id": ev.StrokeID,
			}).Warn("add_stroke for a stroke that already exists, appending")
		}
		d.addPoint(ev.StrokeID, ev.IdentityID, ev.Point)
		return true

	case AppendStroke:
		if _, ok := d.strokes[ev.StrokeID]; !ok {
			d.log.WithFields(logrus.Fields{
				"type":      "append_to_unknown_stroke",
				"stroke_id": ev.StrokeID,
			}).Warn("append_stroke for an unknown stroke, starting it")
		}
		d.addPoint(ev.StrokeID, ev.IdentityID, ev.Point)
		return true

	case RemoveStroke:
		if _, ok := d.strokes[ev.StrokeID]; !ok {
			return false
		}
		delete(d.strokes, ev.StrokeID)
		d.order = slices.DeleteFunc(d.order, func(id string) bool {
			return id == ev.StrokeID
		})
		return true

	case ClearCanvas:
		d.strokes = make(map[string]*Stroke)
		d.order = nil
		return true

	case Initialize:
		if len(d.order) > 0 {
			d.log.WithFields(logrus.Fields{
				"type":    "initialize_populated_drawing",
				"strokes": len(d.order),
			}).Warn("initialize over a drawing that already has content, overwriting")
		}
		d.strokes = make(map[string]*Stroke, len(ev.State.Strokes))
		d.order = nil
		for _, id := range ev.State.StrokeOrder {
			stroke, ok := ev.State.Strokes[id]
			if !ok {
				continue
			}
			d.strokes[id] = &Stroke{Owner: stroke.Owner, Points: slices.Clone(stroke.Points)}
			d.order = append(d.order, id)
		}
		return true
	}

	return false
}

func (d *Drawing) addPoint(strokeID, owner string, p Point) {
	stroke, ok := d.strokes[strokeID]
	if !ok {
		stroke = &Stroke{Owner: owner}
		d.strokes[strokeID] = stroke
		d.order = append(d.order, strokeID)
	}
	stroke.Points = append(stroke.Points, p)
}

// Stroke returns a copy of one stroke.
func (d *Drawing) Stroke(id string) (Stroke, bool) {
	stroke, ok := d.strokes[id]
	if !ok {
		return Stroke{}, false
	}
	return Stroke{Owner: stroke.Owner, Points: slices.Clone(stroke.Points)}, true
}

// owner reports who drew a stroke and how many points it has, without
// copying them.
func (d *Drawing) owner(id string) (string, int, bool) {
	stroke, ok := d.strokes[id]
	if !ok {
		return "", 0, false
	}
	return stroke.Owner, len(stroke.Points), true
}

// StrokeOrder is never nil, so an empty board encodes as [].
func (d *Drawing) StrokeOrder() []string {
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Strokes returns a deep copy of every stroke keyed by id.
func (d *Drawing) Strokes() map[string]Stroke {
	out := make(map[string]Stroke, len(d.strokes))
	for id, stroke := range d.strokes {
		out[id] = Stroke{Owner: stroke.Owner, Points: slices.Clone(stroke.Points)}
	}
	return out
}

func (d *Drawing) Len() int {
	return len(d.order)
}

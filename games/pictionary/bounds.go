/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pictionary

import "github.com/Seednode/screengames/protocol"

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var emptyRect = Rect{Width: 1, Height: 1}

// Bounds tracks the box around everything drawn. It only grows, until the
// canvas is cleared or reinitialised.
type Bounds struct {
	rect Rect
}

func NewBounds() *Bounds {
	return &Bounds{rect: emptyRect}
}

func (b *Bounds) CastEvent(e protocol.Event) (Event, bool) {
	ev, ok := Cast(e)
	if !ok {
		return nil, false
	}

	switch ev.(type) {
	case AddStroke, AppendStroke, ClearCanvas, Initialize:
		return ev, true
	}

	return nil, false
}

func (b *Bounds) IngestEvent(ev Event) bool {
	switch ev := ev.(type) {
	case AddStroke:
		b.include(ev.Point)
		return true
	case AppendStroke:
		b.include(ev.Point)
		return true
	case ClearCanvas:
		b.rect = emptyRect
		return true
	case Initialize:
		b.rect = emptyRect
		for _, stroke := range ev.State.Strokes {
			for _, p := range stroke.Points {
				b.include(p)
			}
		}
		return true
	}
	return false
}

func (b *Bounds) include(p Point) {
	r := &b.rect
	x := min(r.X, p.X)
	y := min(r.Y, p.Y)
	r.Width = max(r.Width+(r.X-x), p.X-r.X)
	r.Height = max(r.Height+(r.Y-y), p.Y-r.Y)
	r.X = x
	r.Y = y
}

func (b *Bounds) Rect() Rect {
	return b.rect
}

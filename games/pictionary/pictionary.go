/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package pictionary is a shared drawing board: anyone in the room may draw,
// everyone sees every stroke.
//
// Strokes are independent and append-only per author, so events from
// different senders commute; only the order within one author's stream
// matters, and that order is fixed upstream.
package pictionary

import (
	"errors"
	"fmt"
	"maps"

	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/dispatch"
	"github.com/Seednode/screengames/games"
	"github.com/Seednode/screengames/protocol"
)

const Name = "pictionary"

var errNotOwner = errors.New("stroke belongs to another participant")

type Game struct {
	host       games.Host
	log        logrus.FieldLogger
	drawing    *Drawing
	bounds     *Bounds
	dispatcher *dispatch.Dispatcher
	revision   uint64
}

// New satisfies games.Factory.
func New(host games.Host, log logrus.FieldLogger) games.Controller {
	g := &Game{
		host:    host,
		log:     log,
		drawing: NewDrawing(log),
		bounds:  NewBounds(),
	}

	g.dispatcher = dispatch.New()
	dispatch.AddConsumer[Event](g.dispatcher, g.drawing)
	dispatch.AddConsumer[Event](g.dispatcher, g.bounds)
	g.dispatcher.AddUpdateTrigger(func() {
		g.revision++
	})

	return g
}

func (g *Game) GetState() any {
	return g.State()
}

func (g *Game) State() State {
	return State{
		Strokes:     g.drawing.Strokes(),
		StrokeOrder: g.drawing.StrokeOrder(),
		Bounds:      g.bounds.Rect(),
		Revision:    g.revision,
	}
}

func (g *Game) GetInitialUserData(identityID string) games.Metadata {
	return games.Metadata{
		"color": games.PickColor(identityID),
		"icon":  games.PickIcon(identityID),
	}
}

func (g *Game) ProcessClientEvent(identityID string, e protocol.Event) {
	switch e.Type {
	case KindAddStroke, KindAppendStroke, KindRemoveStroke, KindClearCanvas, KindRename:
	default:
		return
	}

	// The author is always the sender, whatever the client claimed.
	stamped := e.With("identity_id", identityID)

	ev, err := Parse(stamped)
	if err == nil {
		err = g.validate(identityID, ev)
	}
	if err != nil {
		g.log.WithFields(logrus.Fields{
			"type":        "rejected_event",
			"event_type":  e.Type,
			"identity_id": identityID,
		}).Warnf("dropping event: %v", err)
		return
	}

	if rename, ok := ev.(Rename); ok {
		g.rename(identityID, rename.Name)
		return
	}

	g.dispatcher.ConsumeEvent(stamped)
	g.host.Broadcast(stamped, identityID)
}

func (g *Game) validate(identityID string, ev Event) error {
	switch ev := ev.(type) {
	case AddStroke:
		if owner, _, ok := g.drawing.owner(ev.StrokeID); ok && owner != identityID {
			return fmt.Errorf("add_stroke %s: %w", ev.StrokeID, errNotOwner)
		}
	case AppendStroke:
		owner, points, ok := g.drawing.owner(ev.StrokeID)
		if !ok {
			return nil
		}
		if owner != identityID {
			return fmt.Errorf("append_stroke %s: %w", ev.StrokeID, errNotOwner)
		}
		if points >= MaxStrokePoints {
			return fmt.Errorf("append_stroke %s: stroke already has %d points", ev.StrokeID, MaxStrokePoints)
		}
	case RemoveStroke:
		owner, _, ok := g.drawing.owner(ev.StrokeID)
		if !ok {
			return fmt.Errorf("remove_stroke %s: no such stroke", ev.StrokeID)
		}
		if owner != identityID {
			return fmt.Errorf("remove_stroke %s: %w", ev.StrokeID, errNotOwner)
		}
	}
	return nil
}

func (g *Game) rename(identityID, name string) {
	current, _ := g.host.Metadata(identityID)

	updated := maps.Clone(current)
	if updated == nil {
		updated = games.Metadata{}
	}
	updated["name"] = name

	if err := g.host.UpdateMetadata(identityID, updated); err != nil {
		g.log.WithFields(logrus.Fields{
			"type":        "rename_failed",
			"identity_id": identityID,
		}).Warn(err)
	}
}

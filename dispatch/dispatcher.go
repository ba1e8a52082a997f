/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package dispatch applies batches of heterogeneous events to independent
// state holders and coalesces their change notifications.
package dispatch

import "github.com/Seednode/screengames/protocol"

// Consumer declares interest in events by narrowing them. CastEvent returns
// false to decline; IngestEvent reports whether observers must treat the
// consumer's state as changed.
type Consumer[T any] interface {
	CastEvent(protocol.Event) (T, bool)
	IngestEvent(T) bool
}

// Trigger is called at most once per consumed batch.
type Trigger func()

type Dispatcher struct {
	consumers []func(protocol.Event) bool
	triggers  []Trigger
}

func New() *Dispatcher {
	return &Dispatcher{}
}

// AddConsumer registers c after every consumer added so far.
func AddConsumer[T any](d *Dispatcher, c Consumer[T]) *Dispatcher {
	d.consumers = append(d.consumers, func(e protocol.Event) bool {
		typed, ok := c.CastEvent(e)
		if !ok {
			return false
		}
		return c.IngestEvent(typed)
	})
	return d
}

func (d *Dispatcher) AddUpdateTrigger(t Trigger) *Dispatcher {
	d.triggers = append(d.triggers, t)
	return d
}

// ConsumeEvent is ConsumeEvents for a batch of one.
func (d *Dispatcher) ConsumeEvent(e protocol.Event) bool {
	return d.ConsumeEvents([]protocol.Event{e})
}

// ConsumeEvents offers each event, in order, to every consumer in
// registration order. More than one consumer may accept the same event. If
// anything changed, every trigger fires once after the whole batch.
func (d *Dispatcher) ConsumeEvents(events []protocol.Event) bool {
	changed := false
	for _, e := range events {
		for _, consume := range d.consumers {
			if consume(e) {
				changed = true
			}
		}
	}

	if changed {
		for _, trigger := range d.triggers {
			trigger()
		}
	}

	return changed
}

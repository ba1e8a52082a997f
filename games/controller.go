/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package games defines the capability set every game variant implements and
// selects a variant by name.
package games

import (
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/protocol"
)

// Metadata is per-participant data assigned by the game and shared with the
// rest of the room.
type Metadata map[string]any

// Controller is the authoritative state of one room.
//
// ProcessClientEvent validates an event against the current state, applies
// it, and re-broadcasts it to everyone but the sender. Event types the
// variant does not know are dropped silently so mismatched client versions
// cannot crash a room.
type Controller interface {
	GetState() any
	ProcessClientEvent(identityID string, e protocol.Event)
	GetInitialUserData(identityID string) Metadata
}

// Host is the room as seen by its controller.
type Host interface {
	Broadcast(e protocol.Event, exclude ...string)
	UpdateMetadata(identityID string, data Metadata) error
	Metadata(identityID string) (Metadata, bool)
}

// Factory builds a controller bound to one room.
type Factory func(Host, logrus.FieldLogger) Controller

// Catalog maps variant names to factories. It is built by the caller; there
// is no package-level registry.
type Catalog map[string]Factory

// Lookup returns the factory registered under name.
func (c Catalog) Lookup(name string) (Factory, error) {
	f, ok := c[name]
	if !ok {
		return nil, fmt.Errorf("unknown game %q (available: %v)", name, c.Names())
	}
	return f, nil
}

func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

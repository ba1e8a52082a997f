/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package session tracks reconnectable identities and the per-sender
// reordering of their inbound events.
package session

import (
	"time"

	"github.com/Seednode/screengames/protocol"
)

// Handle is one live transport connection.
type Handle interface {
	ID() string
	Send(protocol.Event) error
	Close() error
}

// Identity is a nonce-authenticated party that outlives any single
// connection. The nonce never changes after creation.
type Identity struct {
	ID    string
	Nonce string

	connected      bool
	handle         Handle
	outboundSeq    int64
	inbox          *Inbox
	disconnectedAt time.Time
}

func (i *Identity) Connected() bool {
	return i.connected
}

// Inbox is replaced on every successful connect.
func (i *Identity) Inbox() *Inbox {
	return i.inbox
}

// OutboundSeq is the seq the next delivered event will carry.
func (i *Identity) OutboundSeq() int64 {
	return i.outboundSeq
}

// Send stamps e with the next outbound seq and hands it to the live handle.
// Events for a disconnected identity are dropped without consuming a seq.
func (i *Identity) Send(e protocol.Event) error {
	if !i.connected || i.handle == nil {
		return nil
	}

	seq := i.outboundSeq
	i.outboundSeq++

	return i.handle.Send(e.WithSeq(seq))
}

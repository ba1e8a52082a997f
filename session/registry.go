/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"time"

	"github.com/Seednode/screengames/protocol"
)

// Registry owns every known identity. It is not safe for concurrent use; the
// caller serializes access.
type Registry struct {
	identities  map[string]*Identity
	maxBuffered int
	now         func() time.Time
}

func NewRegistry(maxBuffered int, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		identities:  make(map[string]*Identity),
		maxBuffered: maxBuffered,
		now:         now,
	}
}

// Create registers a disconnected identity.
func (r *Registry) Create(id, nonce string) (*Identity, error) {
	if _, ok := r.identities[id]; ok {
		return nil, protocol.Errorf(protocol.CodeDuplicateIdentity, "identity %s already exists", id)
	}

	identity := &Identity{
		ID:             id,
		Nonce:          nonce,
		disconnectedAt: r.now(),
	}
	r.identities[id] = identity

	return identity, nil
}

// Verify checks credentials without changing any state.
func (r *Registry) Verify(id, nonce string) (*Identity, error) {
	identity, ok := r.identities[id]
	if !ok {
		return nil, protocol.Errorf(protocol.CodeUnknownIdentity, "identity %s is not registered", id)
	}
	if identity.Nonce != nonce {
		return nil, protocol.Errorf(protocol.CodeNonceMismatch, "nonce does not match identity %s", id)
	}
	return identity, nil
}

// Connect binds handle to the identity. The last connect wins: a different
// handle already holding the identity is closed and forgotten.
func (r *Registry) Connect(id, nonce string, handle Handle) (*Identity, error) {
	identity, err := r.Verify(id, nonce)
	if err != nil {
		return nil, err
	}

	if prev := identity.handle; prev != nil && prev != handle {
		_ = prev.Close()
	}

	identity.outboundSeq = 1
	identity.inbox = NewInbox(r.maxBuffered)
	identity.connected = true
	identity.handle = handle
	identity.disconnectedAt = time.Time{}

	return identity, nil
}

// Disconnect marks the identity disconnected. Calling it again is harmless.
func (r *Registry) Disconnect(id string) error {
	identity, ok := r.identities[id]
	if !ok {
		return protocol.Errorf(protocol.CodeUnknownIdentity, "identity %s is not registered", id)
	}

	if identity.connected {
		identity.disconnectedAt = r.now()
	}
	identity.connected = false
	identity.handle = nil

	return nil
}

// Remove forgets the identity for good.
func (r *Registry) Remove(id string) error {
	identity, ok := r.identities[id]
	if !ok {
		return protocol.Errorf(protocol.CodeUnknownIdentity, "identity %s is not registered", id)
	}

	if identity.handle != nil {
		_ = identity.handle.Close()
	}
	identity.connected = false
	identity.handle = nil
	delete(r.identities, id)

	return nil
}

func (r *Registry) Get(id string) (*Identity, bool) {
	identity, ok := r.identities[id]
	return identity, ok
}

func (r *Registry) Has(id string) bool {
	_, ok := r.identities[id]
	return ok
}

// Holds reports whether handle is the identity's current connection.
func (r *Registry) Holds(id string, handle Handle) bool {
	identity, ok := r.identities[id]
	return ok && identity.connected && identity.handle == handle
}

// Stale lists disconnected identities whose disconnect happened before cutoff.
func (r *Registry) Stale(cutoff time.Time) []string {
	var ids []string
	for id, identity := range r.identities {
		if !identity.connected && identity.disconnectedAt.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

func (r *Registry) Len() int {
	return len(r.identities)
}

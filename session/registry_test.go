/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package session

import (
	"errors"
	"testing"
	"time"

	"github.com/Seednode/screengames/protocol"
)

type recorder struct {
	id     string
	events []protocol.Event
	closed int
}

func (r *recorder) ID() string {
	return r.id
}

func (r *recorder) Send(e protocol.Event) error {
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) Close() error {
	r.closed++
	return nil
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func TestRegistryConnectChecksNonce(t *testing.T) {
	reg := NewRegistry(DefaultMaxBuffered, nil)

	if _, err := reg.Create("a", "secret"); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := reg.Connect("a", "wrong", &recorder{id: "c1"}); !errors.Is(err, protocol.ErrNonceMismatch) {
		t.Fatalf("expected nonce mismatch, got %v", err)
	}

	identity, ok := reg.Get("a")
	if !ok {
		t.Fatal("expected identity a to exist")
	}
	if identity.Connected() {
		t.Fatal("failed connect left identity connected")
	}

	if _, err := reg.Connect("a", "secret", &recorder{id: "c1"}); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !identity.Connected() {
		t.Fatal("expected identity to be connected")
	}
}

func TestRegistryRejectsUnknownAndDuplicate(t *testing.T) {
	reg := NewRegistry(DefaultMaxBuffered, nil)

	if _, err := reg.Connect("ghost", "x", &recorder{}); !errors.Is(err, protocol.ErrUnknownIdentity) {
		t.Fatalf("expected unknown identity, got %v", err)
	}

	if _, err := reg.Create("a", "n"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := reg.Create("a", "other"); !errors.Is(err, protocol.ErrDuplicateIdentity) {
		t.Fatalf("expected duplicate identity, got %v", err)
	}

	if err := reg.Disconnect("ghost"); !errors.Is(err, protocol.ErrUnknownIdentity) {
		t.Fatalf("expected unknown identity on disconnect, got %v", err)
	}
}

func TestRegistryLastConnectWins(t *testing.T) {
	reg := NewRegistry(DefaultMaxBuffered, nil)
	if _, err := reg.Create("a", "n"); err != nil {
		t.Fatalf("create: %v", err)
	}

	first := &recorder{id: "first"}
	second := &recorder{id: "second"}

	identity, err := reg.Connect("a", "n", first)
	if err != nil {
		t.Fatalf("connect first: %v", err)
	}
	if err := identity.Send(protocol.NewEvent("x", nil)); err != nil {
		t.Fatalf("send: %v", err)
	}
	firstInbox := identity.Inbox()

	if _, err := reg.Connect("a", "n", second); err != nil {
		t.Fatalf("connect second: %v", err)
	}

	if first.closed != 1 {
		t.Fatalf("expected superseded handle closed once, got %d", first.closed)
	}
	if second.closed != 0 {
		t.Fatal("new handle should stay open")
	}
	if reg.Holds("a", first) || !reg.Holds("a", second) {
		t.Fatal("expected only the second handle to hold the identity")
	}
	if identity.Inbox() == firstInbox {
		t.Fatal("expected a fresh inbox on reconnect")
	}
	if identity.OutboundSeq() != 1 {
		t.Fatalf("expected outbound seq reset to 1, got %d", identity.OutboundSeq())
	}

	if err := identity.Send(protocol.NewEvent("y", nil)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(second.events) != 1 || second.events[0].Seq != 1 {
		t.Fatalf("expected the new handle to receive seq 1, got %+v", second.events)
	}
	if len(first.events) != 1 {
		t.Fatalf("superseded handle received %d events", len(first.events))
	}
}

func TestIdentitySendStampsIncreasingSeq(t *testing.T) {
	reg := NewRegistry(DefaultMaxBuffered, nil)
	if _, err := reg.Create("a", "n"); err != nil {
		t.Fatalf("create: %v", err)
	}

	h := &recorder{}
	identity, err := reg.Connect("a", "n", h)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := identity.Send(protocol.NewEvent("x", nil)); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	for i, e := range h.events {
		if e.Seq != int64(i+1) {
			t.Fatalf("event %d: expected seq %d, got %d", i, i+1, e.Seq)
		}
	}

	if err := reg.Disconnect("a"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if err := identity.Send(protocol.NewEvent("x", nil)); err != nil {
		t.Fatalf("send while disconnected: %v", err)
	}
	if len(h.events) != 3 {
		t.Fatalf("expected send to a disconnected identity to be dropped, got %d events", len(h.events))
	}
	if identity.OutboundSeq() != 4 {
		t.Fatalf("dropped send consumed a seq: %d", identity.OutboundSeq())
	}
}

func TestRegistryStaleAndRemove(t *testing.T) {
	c := &clock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	reg := NewRegistry(DefaultMaxBuffered, c.Now)

	for _, id := range []string{"a", "b"} {
		if _, err := reg.Create(id, "n"); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	h := &recorder{}
	if _, err := reg.Connect("b", "n", h); err != nil {
		t.Fatalf("connect: %v", err)
	}

	c.now = c.now.Add(time.Hour)

	stale := reg.Stale(c.now.Add(-30 * time.Minute))
	if len(stale) != 1 || stale[0] != "a" {
		t.Fatalf("expected only a to be stale, got %v", stale)
	}

	if err := reg.Remove("b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if h.closed != 1 {
		t.Fatalf("expected removed identity's handle closed, got %d", h.closed)
	}
	if reg.Has("b") || reg.Len() != 1 {
		t.Fatalf("expected b forgotten, len=%d", reg.Len())
	}
}

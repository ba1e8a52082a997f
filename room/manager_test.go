/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Seednode/screengames/games/pictionary"
	"github.com/Seednode/screengames/protocol"
)

func TestManagerRoomLifecycle(t *testing.T) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	m := NewManager(pictionary.New, log)

	r := m.Join(f.connect("a"), "r1")
	if !m.Has("r1") {
		t.Fatal("expected r1 to be created on first join")
	}

	a := f.handles["a"]
	if len(a.events) != 1 || a.events[0].Type != protocol.EventInitialize || a.events[0].Seq != 1 {
		t.Fatalf("a: expected snapshot with seq 1, got %+v", a.events)
	}

	if m.Join(f.connect("b"), "r1") != r {
		t.Fatal("expected b to join the existing room")
	}

	b := f.handles["b"]
	if len(b.events) != 1 || b.events[0].Type != protocol.EventInitialize || b.events[0].Seq != 1 {
		t.Fatalf("b: expected snapshot with seq 1, got %+v", b.events)
	}
	if len(a.events) != 2 || a.events[1].Type != protocol.EventAddUser || a.events[1].Seq != 2 {
		t.Fatalf("a: expected add_user with seq 2, got %+v", a.events)
	}

	f.disconnect("a")
	if m.Collect("a") {
		t.Fatal("room was collected while b is still connected")
	}
	if r.IsEmpty() {
		t.Fatal("expected room with b connected to be non-empty")
	}

	f.disconnect("b")
	if !r.IsEmpty() {
		t.Fatal("expected room to be empty once everyone disconnected")
	}
	if !m.Collect("b") {
		t.Fatal("expected the empty room to be collected")
	}
	if m.Has("r1") || m.Len() != 0 {
		t.Fatal("expected r1 removed")
	}
	if _, ok := m.RoomFor("a"); ok {
		t.Fatal("expected a's membership dropped with the room")
	}
}

func TestManagerRejoinRecoversSession(t *testing.T) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	m := NewManager(pictionary.New, log)

	m.Join(f.connect("a"), "r1")
	m.Join(f.connect("b"), "r1")

	aBefore := len(f.handles["a"].events)

	r := m.Join(f.connect("b"), "r1")
	if r.Len() != 2 {
		t.Fatalf("expected rejoin not to add a participant, got %d", r.Len())
	}
	if len(f.handles["a"].events) != aBefore {
		t.Fatal("rejoin announced b again")
	}
	if got := f.handles["b"].types(); len(got) != 1 || got[0] != protocol.EventInitialize {
		t.Fatalf("expected b's new connection to get a snapshot, got %v", got)
	}
}

func TestManagerSwitchingRoomsLeavesTheOld(t *testing.T) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	m := NewManager(pictionary.New, log)

	a := f.connect("a")
	m.Join(a, "r1")
	m.Join(f.connect("b"), "r1")

	m.Join(a, "r2")

	r1, ok := m.Room("r1")
	if !ok {
		t.Fatal("expected r1 to survive while b is connected")
	}
	if r1.Has("a") {
		t.Fatal("expected a to have left r1")
	}

	b := f.handles["b"]
	last := b.events[len(b.events)-1]
	if last.Type != protocol.EventRemoveUser || last.Fields["identity_id"] != "a" {
		t.Fatalf("expected b to see a leave, got %s %v", last.Type, last.Fields)
	}

	if r, _ := m.RoomFor("a"); r == nil || r.ID() != "r2" {
		t.Fatal("expected a to be in r2")
	}
	if ids := m.IDs(); len(ids) != 2 || ids[0] != "r1" || ids[1] != "r2" {
		t.Fatalf("unexpected rooms %v", ids)
	}
}

func TestManagerLeave(t *testing.T) {
	f := newFixture(t)
	log, _ := test.NewNullLogger()
	m := NewManager(pictionary.New, log)

	if err := m.Leave("a"); !errors.Is(err, protocol.ErrNotInRoom) {
		t.Fatalf("expected not in room, got %v", err)
	}

	m.Join(f.connect("a"), "r1")
	if err := m.Leave("a"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if m.Has("r1") {
		t.Fatal("expected the room to be dropped once its last participant left")
	}
}

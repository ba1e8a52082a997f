/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package pictionary

import (
	"encoding/json"
	"maps"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/Seednode/screengames/games"
	"github.com/Seednode/screengames/protocol"
)

type broadcast struct {
	event   protocol.Event
	exclude []string
}

type fakeHost struct {
	broadcasts []broadcast
	metadata   map[string]games.Metadata
}

func newFakeHost() *fakeHost {
	return &fakeHost{metadata: make(map[string]games.Metadata)}
}

func (h *fakeHost) Broadcast(e protocol.Event, exclude ...string) {
	h.broadcasts = append(h.broadcasts, broadcast{event: e, exclude: exclude})
}

func (h *fakeHost) UpdateMetadata(id string, data games.Metadata) error {
	h.metadata[id] = maps.Clone(data)
	return nil
}

func (h *fakeHost) Metadata(id string) (games.Metadata, bool) {
	m, ok := h.metadata[id]
	return maps.Clone(m), ok
}

func newGame(t *testing.T) (*Game, *fakeHost, *test.Hook) {
	t.Helper()

	log, hook := test.NewNullLogger()
	host := newFakeHost()

	return New(host, log).(*Game), host, hook
}

func TestStrokeIsStampedAndRebroadcast(t *testing.T) {
	g, host, _ := newGame(t)

	g.ProcessClientEvent("alice", strokeEvent(KindAddStroke, "s1", 3, 4).With("identity_id", "mallory"))

	if len(host.broadcasts) != 1 {
		t.Fatalf("expected one broadcast, got %d", len(host.broadcasts))
	}

	b := host.broadcasts[0]
	if b.event.Fields["identity_id"] != "alice" {
		t.Fatalf("expected sender stamped as author, got %v", b.event.Fields["identity_id"])
	}
	if len(b.exclude) != 1 || b.exclude[0] != "alice" {
		t.Fatalf("expected sender excluded, got %v", b.exclude)
	}

	state := g.State()
	if state.Strokes["s1"].Owner != "alice" {
		t.Fatalf("expected alice to own s1, got %q", state.Strokes["s1"].Owner)
	}
	if state.Revision != 1 {
		t.Fatalf("expected revision 1, got %d", state.Revision)
	}
	if state.Bounds != (Rect{X: 0, Y: 0, Width: 3, Height: 4}) {
		t.Fatalf("unexpected bounds %+v", state.Bounds)
	}
}

func TestOnlyOwnerMayTouchStroke(t *testing.T) {
	g, host, hook := newGame(t)

	g.ProcessClientEvent("alice", strokeEvent(KindAddStroke, "s1", 1, 1))
	g.ProcessClientEvent("bob", strokeEvent(KindAppendStroke, "s1", 2, 2))
	g.ProcessClientEvent("bob", protocol.NewEvent(KindRemoveStroke, map[string]any{"stroke_id": "s1"}))

	if len(host.broadcasts) != 1 {
		t.Fatalf("expected only alice's stroke broadcast, got %d", len(host.broadcasts))
	}
	if got := len(g.State().Strokes["s1"].Points); got != 1 {
		t.Fatalf("expected s1 untouched, has %d points", got)
	}
	if got := warnings(hook); got != 2 {
		t.Fatalf("expected 2 rejection warnings, got %d", got)
	}

	g.ProcessClientEvent("alice", protocol.NewEvent(KindRemoveStroke, map[string]any{"stroke_id": "s1"}))
	if _, ok := g.State().Strokes["s1"]; ok {
		t.Fatal("expected owner to remove s1")
	}
}

func TestUnknownEventsAreDroppedSilently(t *testing.T) {
	g, host, hook := newGame(t)

	g.ProcessClientEvent("alice", protocol.NewEvent("fly_kite", map[string]any{"height": 9}))
	g.ProcessClientEvent("alice", initializeEvent(map[string]Stroke{"x": {Points: []Point{{1, 1}}}}, []string{"x"}))

	if len(host.broadcasts) != 0 {
		t.Fatalf("expected no broadcasts, got %d", len(host.broadcasts))
	}
	if len(hook.AllEntries()) != 0 {
		t.Fatalf("expected no log output, got %d entries", len(hook.AllEntries()))
	}
	if len(g.State().Strokes) != 0 {
		t.Fatal("client initialize must not touch the authoritative drawing")
	}
}

func TestClearCanvasResetsEverything(t *testing.T) {
	g, host, _ := newGame(t)

	g.ProcessClientEvent("alice", strokeEvent(KindAddStroke, "s1", 50, 50))
	g.ProcessClientEvent("bob", protocol.NewEvent(KindClearCanvas, nil))

	state := g.State()
	if len(state.Strokes) != 0 || len(state.StrokeOrder) != 0 {
		t.Fatalf("expected empty drawing, got %d strokes", len(state.Strokes))
	}
	if state.Bounds != (Rect{Width: 1, Height: 1}) {
		t.Fatalf("expected reset bounds, got %+v", state.Bounds)
	}
	if len(host.broadcasts) != 2 {
		t.Fatalf("expected 2 broadcasts, got %d", len(host.broadcasts))
	}
}

func TestRenameUpdatesMetadata(t *testing.T) {
	g, host, _ := newGame(t)

	host.metadata["alice"] = g.GetInitialUserData("alice")

	g.ProcessClientEvent("alice", protocol.NewEvent(KindRename, map[string]any{"name": "  Alice  "}))

	m := host.metadata["alice"]
	if m["name"] != "Alice" {
		t.Fatalf("expected trimmed name, got %v", m["name"])
	}
	if m["color"] != games.PickColor("alice") {
		t.Fatalf("rename dropped color: %v", m)
	}
	if len(host.broadcasts) != 0 {
		t.Fatal("rename is announced by the room, not rebroadcast raw")
	}
}

func TestInitialUserDataIsStable(t *testing.T) {
	g, _, _ := newGame(t)

	a := g.GetInitialUserData("alice")
	b := g.GetInitialUserData("alice")

	if a["color"] != b["color"] || a["icon"] != b["icon"] {
		t.Fatalf("expected stable picks, got %v and %v", a, b)
	}
}

func TestAppendStopsAtMaxStrokePoints(t *testing.T) {
	g, host, hook := newGame(t)

	g.ProcessClientEvent("alice", strokeEvent(KindAddStroke, "s1", 0, 0))
	for i := 1; i <= MaxStrokePoints; i++ {
		g.ProcessClientEvent("alice", strokeEvent(KindAppendStroke, "s1", float64(i), 0))
	}

	if got := len(g.State().Strokes["s1"].Points); got != MaxStrokePoints {
		t.Fatalf("expected s1 capped at %d points, got %d", MaxStrokePoints, got)
	}
	if len(host.broadcasts) != MaxStrokePoints {
		t.Fatalf("expected %d broadcasts, got %d", MaxStrokePoints, len(host.broadcasts))
	}
	if got := warnings(hook); got != 1 {
		t.Fatalf("expected the overlong append rejected once, got %d warnings", got)
	}
}

func TestEmptyStateEncodesArrays(t *testing.T) {
	g, _, _ := newGame(t)

	check := func(when string) {
		t.Helper()

		data, err := json.Marshal(g.State())
		if err != nil {
			t.Fatalf("%s: marshal: %v", when, err)
		}
		if !strings.Contains(string(data), `"stroke_order":[]`) || !strings.Contains(string(data), `"strokes":{}`) {
			t.Fatalf("%s: expected empty collections, got %s", when, data)
		}
	}

	check("new board")

	g.ProcessClientEvent("alice", strokeEvent(KindAddStroke, "s1", 1, 1))
	g.ProcessClientEvent("alice", protocol.NewEvent(KindClearCanvas, nil))

	check("after clear")
}

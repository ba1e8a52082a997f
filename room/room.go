/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package room groups identities around one authoritative game controller
// and fans events out to them with per-recipient sequence numbers.
package room

import (
	"maps"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/games"
	"github.com/Seednode/screengames/protocol"
	"github.com/Seednode/screengames/session"
)

type Participant struct {
	Identity *session.Identity
	Metadata games.Metadata
}

// Room is not safe for concurrent use; it lives on the hub's goroutine.
type Room struct {
	id           string
	participants map[string]*Participant
	order        []string
	game         games.Controller
	log          logrus.FieldLogger
}

// New builds an empty room running the game produced by newGame.
func New(id string, newGame games.Factory, log logrus.FieldLogger) *Room {
	r := &Room{
		id:           id,
		participants: make(map[string]*Participant),
		log:          log.WithField("room_id", id),
	}
	r.game = newGame(r, r.log)
	return r
}

func (r *Room) ID() string {
	return r.id
}

// AddParticipant stores the identity with game-assigned metadata, sends it a
// snapshot, and announces it to everyone else.
func (r *Room) AddParticipant(identity *session.Identity) {
	metadata := r.game.GetInitialUserData(identity.ID)

	if _, ok := r.participants[identity.ID]; !ok {
		r.order = append(r.order, identity.ID)
	}
	r.participants[identity.ID] = &Participant{Identity: identity, Metadata: metadata}

	r.sendSnapshot(identity)

	r.Broadcast(protocol.NewEvent(protocol.EventAddUser, map[string]any{
		"identity_id": identity.ID,
		"metadata":    maps.Clone(metadata),
	}), identity.ID)
}

// RecoverSession re-sends the snapshot to a participant that reconnected,
// without announcing anything to the others.
func (r *Room) RecoverSession(identity *session.Identity) {
	if p, ok := r.participants[identity.ID]; ok {
		p.Identity = identity
	}
	r.sendSnapshot(identity)
}

func (r *Room) sendSnapshot(identity *session.Identity) {
	participants := make(map[string]games.Metadata, len(r.participants))
	for id, p := range r.participants {
		if id == identity.ID {
			continue
		}
		participants[id] = maps.Clone(p.Metadata)
	}

	err := identity.Send(protocol.NewEvent(protocol.EventInitialize, map[string]any{
		"state":        r.game.GetState(),
		"participants": participants,
	}))
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"type":        "snapshot_failed",
			"identity_id": identity.ID,
		}).Warn(err)
	}
}

func (r *Room) RemoveParticipant(id string) error {
	if _, ok := r.participants[id]; !ok {
		r.log.WithFields(logrus.Fields{
			"type":        "remove_unknown_participant",
			"identity_id": id,
		}).Warn("removing a participant this room does not track")
		return protocol.Errorf(protocol.CodeUnknownParticipant, "%s is not in room %s", id, r.id)
	}

	delete(r.participants, id)
	r.order = slices.DeleteFunc(r.order, func(pid string) bool {
		return pid == id
	})

	r.Broadcast(protocol.NewEvent(protocol.EventRemoveUser, map[string]any{
		"identity_id": id,
	}))

	return nil
}

func (r *Room) UpdateMetadata(id string, data games.Metadata) error {
	p, ok := r.participants[id]
	if !ok {
		r.log.WithFields(logrus.Fields{
			"type":        "update_unknown_participant",
			"identity_id": id,
		}).Warn("updating metadata for a participant this room does not track")
		return protocol.Errorf(protocol.CodeUnknownParticipant, "%s is not in room %s", id, r.id)
	}

	p.Metadata = maps.Clone(data)

	r.Broadcast(protocol.NewEvent(protocol.EventUpdateUser, map[string]any{
		"identity_id": id,
		"metadata":    maps.Clone(data),
	}))

	return nil
}

// Metadata returns a copy of one participant's metadata.
func (r *Room) Metadata(id string) (games.Metadata, bool) {
	p, ok := r.participants[id]
	if !ok {
		return nil, false
	}
	return maps.Clone(p.Metadata), true
}

// IsEmpty is true when no tracked participant is connected. Disconnected
// stragglers do not keep a room alive.
func (r *Room) IsEmpty() bool {
	for _, p := range r.participants {
		if p.Identity.Connected() {
			return false
		}
	}
	return true
}

// ProcessClientEvent hands the event to the game untouched.
func (r *Room) ProcessClientEvent(id string, e protocol.Event) {
	if e.Type == "" {
		r.log.WithFields(logrus.Fields{
			"type":        "typeless_event",
			"identity_id": id,
		}).Warn("dropping event without a type")
		return
	}

	r.game.ProcessClientEvent(id, e)
}

// Broadcast delivers e to every connected participant not in exclude. Each
// recipient stamps its own next outbound seq.
func (r *Room) Broadcast(e protocol.Event, exclude ...string) {
	for _, id := range r.order {
		if slices.Contains(exclude, id) {
			continue
		}

		p := r.participants[id]
		if !p.Identity.Connected() {
			continue
		}

		if err := p.Identity.Send(e); err != nil {
			r.log.WithFields(logrus.Fields{
				"type":        "broadcast_failed",
				"identity_id": id,
				"event_type":  e.Type,
			}).Warn(err)
		}
	}
}

func (r *Room) GetState() any {
	return r.game.GetState()
}

func (r *Room) Has(id string) bool {
	_, ok := r.participants[id]
	return ok
}

// Participants lists participants in join order.
func (r *Room) Participants() []Participant {
	out := make([]Participant, 0, len(r.order))
	for _, id := range r.order {
		p := r.participants[id]
		out = append(out, Participant{Identity: p.Identity, Metadata: maps.Clone(p.Metadata)})
	}
	return out
}

func (r *Room) Len() int {
	return len(r.participants)
}

// Connected counts participants with a live connection.
func (r *Room) Connected() int {
	n := 0
	for _, p := range r.participants {
		if p.Identity.Connected() {
			n++
		}
	}
	return n
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"maps"

	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/games"
	"github.com/Seednode/screengames/protocol"
)

// RosterEvent is one of the participant events rooms emit.
type RosterEvent interface {
	rosterEvent()
}

type rosterInitialize struct {
	Participants map[string]games.Metadata `json:"participants"`
}

type rosterAdd struct {
	IdentityID string         `json:"identity_id"`
	Metadata   games.Metadata `json:"metadata"`
}

type rosterUpdate struct {
	IdentityID string         `json:"identity_id"`
	Metadata   games.Metadata `json:"metadata"`
}

type rosterRemove struct {
	IdentityID string `json:"identity_id"`
}

func (rosterInitialize) rosterEvent() {}
func (rosterAdd) rosterEvent()        {}
func (rosterUpdate) rosterEvent()     {}
func (rosterRemove) rosterEvent()     {}

// Roster mirrors a room's participant metadata from its event stream. It is
// what a client keeps to render the user list.
type Roster struct {
	users map[string]games.Metadata
	log   logrus.FieldLogger
}

func NewRoster(log logrus.FieldLogger) *Roster {
	return &Roster{
		users: make(map[string]games.Metadata),
		log:   log,
	}
}

func (r *Roster) CastEvent(e protocol.Event) (RosterEvent, bool) {
	var ev RosterEvent
	var err error

	switch e.Type {
	case protocol.EventInitialize:
		var v rosterInitialize
		err = e.Decode(&v)
		ev = v
	case protocol.EventAddUser:
		var v rosterAdd
		err = e.Decode(&v)
		ev = v
	case protocol.EventUpdateUser:
		var v rosterUpdate
		err = e.Decode(&v)
		ev = v
	case protocol.EventRemoveUser:
		var v rosterRemove
		err = e.Decode(&v)
		ev = v
	default:
		return nil, false
	}

	if err != nil {
		return nil, false
	}
	return ev, true
}

func (r *Roster) IngestEvent(ev RosterEvent) bool {
	switch ev := ev.(type) {
	case rosterInitialize:
		if len(r.users) > 0 {
			r.log.WithFields(logrus.Fields{
				"type":  "initialize_populated_roster",
				"users": len(r.users),
			}).Warn("initialize over a roster that already has users, overwriting")
		}
		r.users = make(map[string]games.Metadata, len(ev.Participants))
		for id, md := range ev.Participants {
			r.users[id] = md
		}
		return true

	case rosterAdd:
		if ev.IdentityID == "" {
			return false
		}
		r.users[ev.IdentityID] = ev.Metadata
		return true

	case rosterUpdate:
		if ev.IdentityID == "" {
			return false
		}
		if _, ok := r.users[ev.IdentityID]; !ok {
			r.log.WithFields(logrus.Fields{
				"type":        "update_unknown_user",
				"identity_id": ev.IdentityID,
			}).Warn("update_user for an unknown user, adding it")
		}
		r.users[ev.IdentityID] = ev.Metadata
		return true

	case rosterRemove:
		if _, ok := r.users[ev.IdentityID]; !ok {
			return false
		}
		delete(r.users, ev.IdentityID)
		return true
	}

	return false
}

// Users returns a copy of every known participant's metadata.
func (r *Roster) Users() map[string]games.Metadata {
	out := make(map[string]games.Metadata, len(r.users))
	for id, md := range r.users {
		out[id] = maps.Clone(md)
	}
	return out
}

func (r *Roster) Get(id string) (games.Metadata, bool) {
	md, ok := r.users[id]
	return maps.Clone(md), ok
}

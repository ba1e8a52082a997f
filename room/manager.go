/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package room

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/games"
	"github.com/Seednode/screengames/protocol"
	"github.com/Seednode/screengames/session"
)

// Manager holds every live room and which room each identity occupies.
// Rooms are created on first join and deleted as soon as nobody in them is
// connected.
type Manager struct {
	rooms       map[string]*Room
	memberships map[string]string
	newGame     games.Factory
	log         logrus.FieldLogger
}

func NewManager(newGame games.Factory, log logrus.FieldLogger) *Manager {
	return &Manager{
		rooms:       make(map[string]*Room),
		memberships: make(map[string]string),
		newGame:     newGame,
		log:         log,
	}
}

// Join puts identity in roomID. Rejoining the room it already occupies
// recovers the session instead of adding it again; joining a different room
// leaves the old one first.
func (m *Manager) Join(identity *session.Identity, roomID string) *Room {
	if current, ok := m.memberships[identity.ID]; ok {
		if current == roomID {
			room := m.rooms[roomID]
			room.RecoverSession(identity)
			return room
		}
		_ = m.Leave(identity.ID)
	}

	room, ok := m.rooms[roomID]
	if !ok {
		room = New(roomID, m.newGame, m.log)
		m.rooms[roomID] = room
		m.log.WithFields(logrus.Fields{
			"type":    "create_room",
			"room_id": roomID,
		}).Info("created room")
	}

	room.AddParticipant(identity)
	m.memberships[identity.ID] = roomID

	m.log.WithFields(logrus.Fields{
		"type":         "join_room",
		"room_id":      roomID,
		"identity_id":  identity.ID,
		"participants": room.Len(),
	}).Info("identity joined room")

	return room
}

// Leave removes the identity from its room and collects the room if that
// left it empty.
func (m *Manager) Leave(identityID string) error {
	room, ok := m.RoomFor(identityID)
	if !ok {
		return protocol.Errorf(protocol.CodeNotInRoom, "%s is not in a room", identityID)
	}

	delete(m.memberships, identityID)
	if err := room.RemoveParticipant(identityID); err != nil {
		return err
	}

	if room.IsEmpty() {
		m.drop(room)
	}

	return nil
}

// Collect deletes the identity's room if nobody in it is connected any more.
// It reports whether a room was deleted.
func (m *Manager) Collect(identityID string) bool {
	room, ok := m.RoomFor(identityID)
	if !ok || !room.IsEmpty() {
		return false
	}

	m.drop(room)
	return true
}

func (m *Manager) drop(room *Room) {
	for _, p := range room.Participants() {
		if m.memberships[p.Identity.ID] == room.ID() {
			delete(m.memberships, p.Identity.ID)
		}
	}
	delete(m.rooms, room.ID())

	m.log.WithFields(logrus.Fields{
		"type":    "delete_room",
		"room_id": room.ID(),
	}).Info("deleted room since nobody in it is connected")
}

func (m *Manager) RoomFor(identityID string) (*Room, bool) {
	roomID, ok := m.memberships[identityID]
	if !ok {
		return nil, false
	}
	room, ok := m.rooms[roomID]
	return room, ok
}

func (m *Manager) Room(roomID string) (*Room, bool) {
	room, ok := m.rooms[roomID]
	return room, ok
}

func (m *Manager) Has(roomID string) bool {
	_, ok := m.rooms[roomID]
	return ok
}

func (m *Manager) Len() int {
	return len(m.rooms)
}

// IDs lists live rooms, sorted.
func (m *Manager) IDs() []string {
	ids := make([]string, 0, len(m.rooms))
	for id := range m.rooms {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

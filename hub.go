/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/games"
	"github.com/Seednode/screengames/protocol"
	"github.com/Seednode/screengames/room"
	"github.com/Seednode/screengames/session"
)

var (
	errHubStopped = errors.New("hub is not running")
	roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

func validRoomID(id string) bool {
	return roomIDPattern.MatchString(id)
}

type request struct {
	client *Client
	msg    protocol.ClientMessage
}

// Hub is the only goroutine that touches identities and rooms. Connections
// and HTTP handlers talk to it over channels.
type Hub struct {
	cfg      *Config
	log      logrus.FieldLogger
	registry *session.Registry
	rooms    *room.Manager
	clients  map[*Client]bool

	register chan *Client
	unreg    chan *Client
	inbound  chan request
	calls    chan func()
	done     chan struct{}

	now func() time.Time
}

func newHub(cfg *Config, newGame games.Factory, log logrus.FieldLogger) *Hub {
	return &Hub{
		cfg:      cfg,
		log:      log,
		registry: session.NewRegistry(cfg.maxBuffered, time.Now),
		rooms:    room.NewManager(newGame, log),
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		inbound:  make(chan request),
		calls:    make(chan func()),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	var reap <-chan time.Time
	if h.cfg.identityTimeout > 0 {
		ticker := time.NewTicker(max(h.cfg.identityTimeout/2, minIdentityTimeout/2))
		defer ticker.Stop()
		reap = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.clients[c] = true

		case c := <-h.unreg:
			h.handleUnregister(c)

		case req := <-h.inbound:
			h.handle(req.client, req.msg)

		case fn := <-h.calls:
			fn()

		case <-reap:
			h.reap()
		}
	}
}

// exec runs fn on the hub goroutine and waits for it to finish.
func (h *Hub) exec(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	select {
	case h.calls <- func() {
		defer close(finished)
		fn()
	}:
	case <-h.done:
		return errHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-finished
	return nil
}

func (h *Hub) handle(c *Client, msg protocol.ClientMessage) {
	if !h.clients[c] || c.dropped {
		return
	}

	switch msg.Message {
	case protocol.MessageLogIn:
		h.handleLogin(c, msg)
	case protocol.MessageJoinRoom:
		h.handleJoin(c, msg)
	case protocol.MessageEvent:
		h.handleEvent(c, msg)
	default:
		h.drop(c, protocol.Errorf(protocol.CodeMalformedMessage, "unknown message %q", msg.Message))
	}
}

func (h *Hub) handleLogin(c *Client, msg protocol.ClientMessage) {
	if c.identityID != "" {
		h.reject(c, protocol.Errorf(protocol.CodeAlreadyLoggedIn, "connection is already logged in as %s", c.identityID))
		return
	}

	id, nonce := msg.IdentityID, msg.Nonce

	switch {
	case id == "" && nonce == "":
		id, nonce = uuid.NewString(), uuid.NewString()
		if _, err := h.registry.Create(id, nonce); err != nil {
			h.reject(c, err)
			return
		}

	case id == "" || nonce == "":
		h.reject(c, protocol.Errorf(protocol.CodeMalformedMessage, "log_in needs both identity_id and nonce, or neither"))
		return

	case !h.registry.Has(id):
		if _, err := h.registry.Create(id, nonce); err != nil {
			h.reject(c, err)
			return
		}
		h.log.WithFields(logrus.Fields{
			"type":        "login_and_create_user_for_credentials",
			"identity_id": id,
		}).Info("registered identity from client credentials")
	}

	if _, err := h.registry.Connect(id, nonce, c); err != nil {
		h.reject(c, err)
		return
	}
	c.identityID = id

	if err := c.write(protocol.LoginSuccess(id, nonce)); err != nil {
		h.log.WithFields(logrus.Fields{
			"type":        "login_reply_failed",
			"identity_id": id,
		}).Warn(err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"type":        "login",
		"identity_id": id,
		"client_id":   c.id,
	}).Info("identity logged in")
}

func (h *Hub) handleJoin(c *Client, msg protocol.ClientMessage) {
	identity, ok := h.current(c)
	if !ok {
		h.drop(c, protocol.Errorf(protocol.CodeUnknownIdentity, "join_room before log_in"))
		return
	}

	if msg.IdentityID != identity.ID {
		h.drop(c, protocol.Errorf(protocol.CodeNonceMismatch, "join_room for %s on a connection logged in as %s", msg.IdentityID, identity.ID))
		return
	}

	if _, err := h.registry.Verify(msg.IdentityID, msg.Nonce); err != nil {
		h.drop(c, err)
		return
	}

	if !validRoomID(msg.RoomID) {
		h.drop(c, protocol.Errorf(protocol.CodeMalformedMessage, "invalid room id %q", msg.RoomID))
		return
	}

	h.rooms.Join(identity, msg.RoomID)
}

func (h *Hub) handleEvent(c *Client, msg protocol.ClientMessage) {
	identity, ok := h.current(c)
	if !ok {
		h.drop(c, protocol.Errorf(protocol.CodeNotInRoom, "event before log_in"))
		return
	}

	r, ok := h.rooms.RoomFor(identity.ID)
	if !ok {
		h.drop(c, protocol.Errorf(protocol.CodeNotInRoom, "event from %s outside any room", identity.ID))
		return
	}

	if msg.Event == nil {
		h.drop(c, protocol.Errorf(protocol.CodeMalformedMessage, "event message without an event"))
		return
	}

	if err := identity.Inbox().Ingest(*msg.Event); err != nil {
		h.drop(c, err)
		return
	}

	for _, e := range identity.Inbox().Drain() {
		r.ProcessClientEvent(identity.ID, e)
	}
}

func (h *Hub) handleUnregister(c *Client) {
	if !h.clients[c] {
		return
	}

	delete(h.clients, c)
	c.closed = true
	close(c.send)

	id := c.identityID
	if id == "" || !h.registry.Holds(id, c) {
		return
	}

	_ = h.registry.Disconnect(id)
	h.rooms.Collect(id)

	h.log.WithFields(logrus.Fields{
		"type":        "disconnect",
		"identity_id": id,
		"client_id":   c.id,
	}).Info("identity disconnected")
}

// current returns the identity c is logged in as, provided c has not been
// superseded by a newer connection.
func (h *Hub) current(c *Client) (*session.Identity, bool) {
	if c.identityID == "" || !h.registry.Holds(c.identityID, c) {
		return nil, false
	}
	return h.registry.Get(c.identityID)
}

// reject answers a failed log_in and keeps the connection.
func (h *Hub) reject(c *Client, err error) {
	h.log.WithFields(logrus.Fields{
		"type":      "login_failed",
		"client_id": c.id,
	}).Warn(err)

	_ = c.write(protocol.LoginFailed(err))
}

// drop closes a connection that broke the protocol or failed verification.
// Messages the read pump already queued are ignored from here on; the
// identity is still disconnected when the pump unregisters.
func (h *Hub) drop(c *Client, err error) {
	c.dropped = true

	fields := logrus.Fields{
		"client_id":   c.id,
		"identity_id": c.identityID,
	}
	if code, ok := protocol.CodeOf(err); ok {
		fields["type"] = string(code)
		fields["layer"] = code.Layer().String()
	}

	h.log.WithFields(fields).Warnf("closing connection: %v", err)

	_ = c.Close()
}

func (h *Hub) reap() {
	cutoff := h.now().Add(-h.cfg.identityTimeout)

	for _, id := range h.registry.Stale(cutoff) {
		if _, ok := h.rooms.RoomFor(id); ok {
			_ = h.rooms.Leave(id)
		}
		_ = h.registry.Remove(id)

		h.log.WithFields(logrus.Fields{
			"type":        "reap_identity",
			"identity_id": id,
		}).Info("forgot disconnected identity")
	}
}

func (h *Hub) closeAll() {
	for c := range h.clients {
		delete(h.clients, c)
		c.closed = true
		close(c.send)
		_ = c.Close()
	}
}

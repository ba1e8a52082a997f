/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Seednode/screengames/protocol"
)

const (
	maxMessageSize int64 = 64 * 1024
	writeWait            = timeout
)

var (
	errClientClosed = errors.New("client connection is closed")
	errSlowClient   = errors.New("client is not keeping up, dropping it")
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. It implements session.Handle.
//
// identityID, dropped and closed belong to the hub goroutine; the pumps
// never touch them.
type Client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	closeOnce sync.Once

	identityID string
	dropped    bool
	closed     bool
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, buffer),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Send(e protocol.Event) error {
	return c.write(protocol.Deliver(e))
}

// write encodes immediately, so later mutations by the hub never race with
// the writer goroutine.
func (c *Client) write(msg protocol.ServerMessage) error {
	if c.closed {
		return errClientClosed
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		_ = c.Close()
		return errSlowClient
	}
}

// Close drops the connection. The read pump notices and unregisters.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.conn.Close()
	})
	return err
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.done:
		}
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg protocol.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.log.WithFields(logrus.Fields{
				"type":      string(protocol.CodeMalformedMessage),
				"client_id": c.id,
			}).Warnf("dropping client after malformed message: %v", err)
			return
		}

		select {
		case h.inbound <- request{client: c, msg: msg}:
		case <-h.done:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.Close()

	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/screengames/protocol"
)

const qrSize = 320

type roomStatus struct {
	RoomID       string `json:"room_id"`
	Exists       bool   `json:"exists"`
	Participants int    `json:"participants"`
	Connected    int    `json:"connected"`
}

// newRoomID generates a crypto-random room ID that no live room uses yet.
func (h *Hub) newRoomID(r *http.Request) (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		var exists bool
		if err := h.exec(r.Context(), func() {
			exists = h.rooms.Has(id)
		}); err != nil {
			return "", err
		}

		if !exists {
			return id, nil
		}
	}
}

func redirectNewRoom(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		roomID, err := h.newRoomID(r)
		if err != nil {
			http.Error(w, "unable to allocate room", http.StatusServiceUnavailable)
			return
		}

		logf(cfg, "ROOMS: Sending %s to new room %s", realIP(r), roomID)

		http.Redirect(w, r, cfg.prefix+"/r/"+roomID, http.StatusTemporaryRedirect)
	}
}

func serveRoomPage(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		roomID := p.ByName("roomid")
		if !validRoomID(roomID) {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)

		var body strings.Builder
		body.WriteString(fmt.Sprintf(`<main id="room" data-room-id="%s" data-socket="%s" data-game="%s"></main>`,
			html.EscapeString(roomID),
			html.EscapeString(cfg.prefix+"/ws"),
			html.EscapeString(cfg.game),
		))
		body.WriteString(fmt.Sprintf(`<img id="share" src="%s" alt="Scan to join">`,
			html.EscapeString(cfg.prefix+"/r/"+roomID+"/qr"),
		))
		if cfg.assetsDir != "" {
			body.WriteString(fmt.Sprintf(`<script src="%s"></script>`, html.EscapeString(cfg.prefix+"/assets/app.js")))
		}

		written, err := io.WriteString(w, newPage("screengames: "+roomID, body.String()))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room page %s (%s) to %s in %s",
			roomID,
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveRoomStatus(cfg *Config, h *Hub, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		roomID := p.ByName("roomid")
		if !validRoomID(roomID) {
			http.NotFound(w, r)
			return
		}

		status := roomStatus{RoomID: roomID}
		err := h.exec(r.Context(), func() {
			room, ok := h.rooms.Room(roomID)
			if !ok {
				return
			}
			status.Exists = true
			status.Participants = room.Len()
			status.Connected = room.Connected()
		})
		if err != nil {
			http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if err := json.NewEncoder(w).Encode(status); err != nil {
			errs <- err
		}
	}
}

func serveQRCode(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		if !validRoomID(p.ByName("roomid")) {
			http.NotFound(w, r)
			return
		}

		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)
		_, _ = w.Write(png)
	}
}

func serveSchema(cfg *Config, errs chan<- error) httprouter.Handle {
	schemas := protocol.Schemas()

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/schema+json")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(schemas); err != nil {
			errs <- err
		}
	}
}

func serveWebsocket(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.WithField("type", "upgrade_failed").Warn(err)
			return
		}

		c := newClient(conn, cfg.sendBuffer)

		select {
		case h.register <- c:
		case <-h.done:
			_ = conn.Close()
			return
		}

		logf(cfg, "SOCKET: Client %s connected from %s", c.id, realIP(r))

		go c.writePump()
		c.readPump(h)
	}
}

func registerRooms(cfg *Config, h *Hub, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/r", redirectNewRoom(cfg, h))
	mux.GET(cfg.prefix+"/r/:roomid", serveRoomPage(cfg, errs))
	mux.GET(cfg.prefix+"/r/:roomid/qr", serveQRCode(cfg))
	mux.GET(cfg.prefix+"/r/:roomid/status", serveRoomStatus(cfg, h, errs))
	mux.GET(cfg.prefix+"/schema", serveSchema(cfg, errs))
	mux.GET(cfg.prefix+"/ws", serveWebsocket(cfg, h))
}

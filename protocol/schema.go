/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package protocol

import "github.com/invopop/jsonschema"

// JSONSchema describes the open shape of an event; the reflector cannot see
// through the custom JSON encoding.
func (Event) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "Tagged event {type, seq, ...fields}. seq is per-sender inbound or per-recipient outbound.",
		Required:    []string{"type"},
	}
}

// Schemas returns JSON schemas for both directions of the socket protocol,
// keyed by direction.
func Schemas() map[string]*jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}

	client := r.Reflect(&ClientMessage{})
	client.Title = "Client message"
	client.Description = "Sent by a browser client over the websocket."

	server := r.Reflect(&ServerMessage{})
	server.Title = "Server message"
	server.Description = "Sent by the server over the websocket."

	return map[string]*jsonschema.Schema{
		"client": client,
		"server": server,
	}
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package protocol

// Envelope names carried in the "message" member.
const (
	MessageLogIn        = "log_in"
	MessageJoinRoom     = "join_room"
	MessageEvent        = "event"
	MessageLoginSuccess = "login_success"
	MessageLoginFailed  = "login_failed"
)

// Event types produced by rooms themselves, independent of any game.
const (
	EventInitialize = "initialize"
	EventAddUser    = "add_user"
	EventRemoveUser = "remove_user"
	EventUpdateUser = "update_user"
)

// ClientMessage is everything a client may send over the socket.
type ClientMessage struct {
	Message    string `json:"message" jsonschema:"enum=log_in,enum=join_room,enum=event"`
	IdentityID string `json:"identity_id,omitempty"` // log_in / join_room
	Nonce      string `json:"nonce,omitempty"`       // log_in / join_room
	RoomID     string `json:"room_id,omitempty"`     // join_room
	Event      *Event `json:"event,omitempty"`       // event
}

// ServerMessage is everything the server sends over the socket.
type ServerMessage struct {
	Message    string `json:"message" jsonschema:"enum=login_success,enum=login_failed,enum=event"`
	IdentityID string `json:"identity_id,omitempty"` // login_success
	Nonce      string `json:"nonce,omitempty"`       // login_success
	Error      *Error `json:"error,omitempty"`       // login_failed
	Event      *Event `json:"event,omitempty"`       // event
}

func LoginSuccess(identityID, nonce string) ServerMessage {
	return ServerMessage{Message: MessageLoginSuccess, IdentityID: identityID, Nonce: nonce}
}

func LoginFailed(err error) ServerMessage {
	return ServerMessage{Message: MessageLoginFailed, Error: AsError(err)}
}

func Deliver(e Event) ServerMessage {
	return ServerMessage{Message: MessageEvent, Event: &e}
}

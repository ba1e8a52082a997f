/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package protocol

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind independently of its message, so callers can
// branch on it and clients can receive it over the wire.
type Code string

const (
	CodeInvalidSequence    Code = "invalid_sequence"
	CodeDuplicateSequence  Code = "duplicate_sequence"
	CodeQueueOverflow      Code = "queue_overflow"
	CodeDuplicateIdentity  Code = "duplicate_identity"
	CodeUnknownIdentity    Code = "unknown_identity"
	CodeNonceMismatch      Code = "nonce_mismatch"
	CodeUnknownParticipant Code = "unknown_participant"
	CodeNotInRoom          Code = "not_in_room"
	CodeAlreadyLoggedIn    Code = "already_logged_in"
	CodeMalformedMessage   Code = "malformed_message"
)

// Layer groups codes by who is expected to react to them.
type Layer int

const (
	// LayerProtocol failures mean the sender's stream can no longer be trusted
	// and its connection must be dropped.
	LayerProtocol Layer = iota
	// LayerIdentity failures are reported to the client as login_failed or a
	// forced disconnect.
	LayerIdentity
	// LayerInvariant failures are logged; the transport may choose to
	// disconnect the offending connection.
	LayerInvariant
)

func (l Layer) String() string {
	switch l {
	case LayerProtocol:
		return "protocol"
	case LayerIdentity:
		return "identity"
	default:
		return "invariant"
	}
}

func (c Code) Layer() Layer {
	switch c {
	case CodeInvalidSequence, CodeDuplicateSequence, CodeQueueOverflow,
		CodeNotInRoom, CodeAlreadyLoggedIn, CodeMalformedMessage:
		return LayerProtocol
	case CodeDuplicateIdentity, CodeUnknownIdentity, CodeNonceMismatch:
		return LayerIdentity
	default:
		return LayerInvariant
	}
}

// Error is a coded failure. Two errors match under errors.Is when their codes
// are equal, regardless of message.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf builds a coded error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code of the first *Error in err's chain.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

// AsError converts any error to a wire-safe *Error. Uncoded errors keep only
// their message.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Code: "internal", Message: err.Error()}
}

var (
	ErrInvalidSequence    = &Error{Code: CodeInvalidSequence}
	ErrDuplicateSequence  = &Error{Code: CodeDuplicateSequence}
	ErrQueueOverflow      = &Error{Code: CodeQueueOverflow}
	ErrDuplicateIdentity  = &Error{Code: CodeDuplicateIdentity}
	ErrUnknownIdentity    = &Error{Code: CodeUnknownIdentity}
	ErrNonceMismatch      = &Error{Code: CodeNonceMismatch}
	ErrUnknownParticipant = &Error{Code: CodeUnknownParticipant}
	ErrNotInRoom          = &Error{Code: CodeNotInRoom}
	ErrAlreadyLoggedIn    = &Error{Code: CodeAlreadyLoggedIn}
	ErrMalformedMessage   = &Error{Code: CodeMalformedMessage}
)

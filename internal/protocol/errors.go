package protocol

import (
	"errors"

	"github.com/cwrk-planet/bowling-server/internal/domain"
)

var (
	ErrMalformed    = errors.New("malformed message")
	ErrUnknownEvent = errors.New("unknown event")
)

type ErrorCode string

const (
	CodeRoomNotFound   ErrorCode = "room_not_found"
	CodeRoomFull       ErrorCode = "room_full"
	CodeAlreadyInRoom  ErrorCode = "already_in_room"
	CodeRoomNotReady   ErrorCode = "room_not_ready"
	CodeAlreadyStarted ErrorCode = "already_started"
	CodeInvalidPayload ErrorCode = "invalid_payload"
	CodeUnknownEvent   ErrorCode = "unknown_event"
	CodeInternal       ErrorCode = "internal"
)

// joinFailed keeps the text older clients show for any rejected join.
const joinFailed = "Room full or not found"

// ErrorFor maps a handler error to the payload sent back to the requester.
func ErrorFor(err error) ErrorPayload {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return ErrorPayload{Code: CodeRoomNotFound, Message: joinFailed}
	case errors.Is(err, domain.ErrRoomFull):
		return ErrorPayload{Code: CodeRoomFull, Message: joinFailed}
	case errors.Is(err, domain.ErrAlreadyInRoom):
		return ErrorPayload{Code: CodeAlreadyInRoom, Message: err.Error()}
	case errors.Is(err, domain.ErrRoomNotReady):
		return ErrorPayload{Code: CodeRoomNotReady, Message: err.Error()}
	case errors.Is(err, domain.ErrAlreadyStarted):
		return ErrorPayload{Code: CodeAlreadyStarted, Message: err.Error()}
	case errors.Is(err, ErrMalformed):
		return ErrorPayload{Code: CodeInvalidPayload, Message: err.Error()}
	case errors.Is(err, ErrUnknownEvent):
		return ErrorPayload{Code: CodeUnknownEvent, Message: err.Error()}
	default:
		return ErrorPayload{Code: CodeInternal, Message: "internal error"}
	}
}

// Silent reports errors that are dropped without telling the requester:
// permission denials and events aimed at rooms the sender cannot act on.
func Silent(err error) bool {
	return errors.Is(err, domain.ErrNotHost) ||
		errors.Is(err, domain.ErrUnknownRoom) ||
		errors.Is(err, domain.ErrNotMember) ||
		errors.Is(err, domain.ErrNotStarted)
}

package domain

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyInRoom = errors.New("connection already joined a room")

	ErrNotHost        = errors.New("only the host can start the game")
	ErrNotMember      = errors.New("connection is not in the room")
	ErrUnknownRoom    = errors.New("unknown room")
	ErrRoomNotReady   = errors.New("room needs two players")
	ErrAlreadyStarted = errors.New("game already started")
	ErrNotStarted     = errors.New("game not started")

	ErrCodeSpaceExhausted = errors.New("no free room code")
)

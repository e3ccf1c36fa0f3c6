package domain

import "time"

type EventKind string

const (
	EventRoomCreated  EventKind = "room_created"
	EventPlayerJoined EventKind = "player_joined"
	EventGameStarted  EventKind = "game_started"
	EventTurnSwitched EventKind = "turn_switched"
	EventPlayerLeft   EventKind = "player_left"
	EventRoomClosed   EventKind = "room_closed"
)

// RoomEvent is one authoritative room transition, as written to the journal.
// Relay traffic is never journaled.
type RoomEvent struct {
	ID         int64
	RoomCode   RoomCode
	Kind       EventKind
	ConnID     ConnID
	PlayerName string
	Round      int
	TurnID     ConnID
	At         time.Time
}

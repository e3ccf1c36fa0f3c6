package domain

import "time"

// MaxPlayers is the seat count of every room.
const MaxPlayers = 2

// ConnID identifies one live transport session. It carries no meaning beyond equality.
type ConnID string

// RoomCode is the short public identifier of a room.
type RoomCode string

type Player struct {
	ID    ConnID
	Name  string
	Score int
}

type RoomState string

const (
	StateEmpty      RoomState = "empty"
	StateWaiting    RoomState = "waiting_for_opponent"
	StateReady      RoomState = "ready"
	StateInProgress RoomState = "in_progress"
)

// TurnState is what game_started and turn_switched announce.
type TurnState struct {
	CurrentTurn ConnID
	Round       int
}

// Room is not safe for concurrent use; the room store serializes access per room.
type Room struct {
	Code      RoomCode
	HostID    ConnID
	Players   []Player
	Round     int
	TurnIndex int
	Started   bool
	CreatedAt time.Time
}

func NewRoom(code RoomCode, host Player, now time.Time) *Room {
	return &Room{
		Code:      code,
		HostID:    host.ID,
		Players:   []Player{host},
		Round:     1,
		TurnIndex: 0,
		CreatedAt: now,
	}
}

func (r *Room) IsFull() bool { return len(r.Players) >= MaxPlayers }

func (r *Room) IndexOf(id ConnID) int {
	for i, p := range r.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (r *Room) IsMember(id ConnID) bool { return r.IndexOf(id) >= 0 }

// CanAdmit reports why id could not take a seat, or nil if it can.
func (r *Room) CanAdmit(id ConnID) error {
	if r.IsMember(id) {
		return ErrAlreadyInRoom
	}
	if r.IsFull() {
		return ErrRoomFull
	}
	return nil
}

func (r *Room) AddPlayer(p Player) error {
	if err := r.CanAdmit(p.ID); err != nil {
		return err
	}
	r.Players = append(r.Players, p)
	return nil
}

// RemovePlayer drops id from the seats. The host seat is never reassigned and the
// turn pointer goes back to the first seat.
func (r *Room) RemovePlayer(id ConnID) (Player, bool) {
	i := r.IndexOf(id)
	if i < 0 {
		return Player{}, false
	}
	p := r.Players[i]
	r.Players = append(r.Players[:i:i], r.Players[i+1:]...)
	r.TurnIndex = 0
	return p, true
}

// Start begins play. Only the host may call it, once, with both seats taken.
func (r *Room) Start(requester ConnID) (TurnState, error) {
	if requester != r.HostID {
		return TurnState{}, ErrNotHost
	}
	if r.Started {
		return TurnState{}, ErrAlreadyStarted
	}
	if !r.IsFull() {
		return TurnState{}, ErrRoomNotReady
	}
	r.Started = true
	r.TurnIndex = 0
	r.Round = 1
	return r.Turn(), nil
}

// AdvanceTurn flips between the two seats and counts a new round each time the
// first seat is back on turn.
func (r *Room) AdvanceTurn() (TurnState, error) {
	if !r.Started {
		return TurnState{}, ErrNotStarted
	}
	if !r.IsFull() {
		return TurnState{}, ErrRoomNotReady
	}
	r.TurnIndex = 1 - r.TurnIndex
	if r.TurnIndex == 0 {
		r.Round++
	}
	return r.Turn(), nil
}

func (r *Room) Turn() TurnState {
	ts := TurnState{Round: r.Round}
	if r.TurnIndex < len(r.Players) {
		ts.CurrentTurn = r.Players[r.TurnIndex].ID
	}
	return ts
}

func (r *Room) State() RoomState {
	switch {
	case len(r.Players) == 0:
		return StateEmpty
	case r.Started:
		return StateInProgress
	case r.IsFull():
		return StateReady
	default:
		return StateWaiting
	}
}

// Clone returns a copy that shares no memory with r.
func (r *Room) Clone() Room {
	c := *r
	c.Players = r.PlayersCopy()
	return c
}

func (r *Room) PlayersCopy() []Player {
	out := make([]Player, len(r.Players))
	copy(out, r.Players)
	return out
}

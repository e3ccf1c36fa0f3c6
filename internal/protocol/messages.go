package protocol

import (
	"encoding/json"

	"github.com/cwrk-planet/bowling-server/internal/domain"
)

// Inbound event types
const (
	TypeCreateRoom  = "create_room"
	TypeJoinRoom    = "join_room"
	TypeStartGame   = "start_game"
	TypeFinishTurn  = "finish_turn"
	TypeRemoteInput = "remote_input"
	TypeSendPeerID  = "send_peer_id"
	TypeSendEmoji   = "send_emoji"
)

// Outbound event types
const (
	TypeConnected     = "connected"
	TypeRoomCreated   = "room_created"
	TypePlayerJoined  = "player_joined"
	TypeUserJoined    = "user_joined"
	TypeGameStarted   = "game_started"
	TypeTurnSwitched  = "turn_switched"
	TypeMimicInput    = "mimic_input"
	TypeReceivePeerID = "receive_peer_id"
	TypeReceiveEmoji  = "receive_emoji"
	TypePlayerLeft    = "player_left"
	TypeRoomClosed    = "room_closed"
	TypeError         = "error"
)

// Message is the frame envelope in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func PlayersFrom(ps []domain.Player) []Player {
	out := make([]Player, 0, len(ps))
	for _, p := range ps {
		out = append(out, Player{ID: string(p.ID), Name: p.Name, Score: p.Score})
	}
	return out
}

type ConnectedPayload struct {
	ID string `json:"id"`
}

type RoomCreatedPayload struct {
	RoomID  string   `json:"roomId"`
	IsHost  bool     `json:"isHost"`
	Players []Player `json:"players"`
}

type PlayerJoinedPayload struct {
	Players []Player `json:"players"`
}

// UserJoinedPayload goes to members already seated; the id keys the peer handshake.
type UserJoinedPayload struct {
	ID string `json:"id"`
}

// TurnPayload is shared by game_started and turn_switched.
type TurnPayload struct {
	CurrentTurnID string `json:"currentTurnId"`
	Round         int    `json:"round"`
}

func TurnFrom(ts domain.TurnState) TurnPayload {
	return TurnPayload{CurrentTurnID: string(ts.CurrentTurn), Round: ts.Round}
}

// PlayerLeftPayload carries the turn only once the game has started, since the
// turn falls back to the host when a seat empties.
type PlayerLeftPayload struct {
	ID            string   `json:"id"`
	Players       []Player `json:"players"`
	CurrentTurnID string   `json:"currentTurnId,omitempty"`
	Round         int      `json:"round,omitempty"`
}

type RoomClosedPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

const ReasonHostLeft = "host_left"

type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

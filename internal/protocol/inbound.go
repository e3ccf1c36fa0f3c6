package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cwrk-planet/bowling-server/internal/domain"
)

const MaxNameLen = 32

// Inbound is one decoded client event. The concrete type tells which event it was.
type Inbound interface {
	inbound()
}

type CreateRoom struct {
	PlayerName string
}

type JoinRoom struct {
	RoomID     domain.RoomCode
	PlayerName string
}

type StartGame struct {
	RoomID domain.RoomCode
}

type FinishTurn struct {
	RoomID domain.RoomCode
}

// Relay carries an opaque payload that is forwarded exactly as received.
type Relay struct {
	Kind   RelayKind
	RoomID domain.RoomCode
	Raw    json.RawMessage
}

func (CreateRoom) inbound() {}
func (JoinRoom) inbound()   {}
func (StartGame) inbound()  {}
func (FinishTurn) inbound() {}
func (Relay) inbound()      {}

type RelayKind int

const (
	RelayRemoteInput RelayKind = iota + 1
	RelayPeerID
	RelayEmoji
)

func (k RelayKind) String() string {
	switch k {
	case RelayRemoteInput:
		return TypeRemoteInput
	case RelayPeerID:
		return TypeSendPeerID
	case RelayEmoji:
		return TypeSendEmoji
	default:
		return fmt.Sprintf("relay(%d)", int(k))
	}
}

// Outbound is the event type receivers see.
func (k RelayKind) Outbound() string {
	switch k {
	case RelayRemoteInput:
		return TypeMimicInput
	case RelayPeerID:
		return TypeReceivePeerID
	case RelayEmoji:
		return TypeReceiveEmoji
	default:
		return ""
	}
}

var relayKinds = map[string]RelayKind{
	TypeRemoteInput: RelayRemoteInput,
	TypeSendPeerID:  RelayPeerID,
	TypeSendEmoji:   RelayEmoji,
}

type roomRef struct {
	RoomID string `json:"roomId"`
}

type namedRoomRef struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
}

// Decode parses one client frame. Errors wrap ErrMalformed or ErrUnknownEvent.
func Decode(data []byte) (Inbound, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch msg.Type {
	case TypeCreateRoom:
		var p namedRoomRef
		if err := decodeObject(msg.Payload, &p); err != nil {
			return nil, err
		}
		name, err := normalizeName(p.PlayerName)
		if err != nil {
			return nil, err
		}
		return CreateRoom{PlayerName: name}, nil

	case TypeJoinRoom:
		var p namedRoomRef
		if err := decodeObject(msg.Payload, &p); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(p.RoomID)
		if err != nil {
			return nil, err
		}
		name, err := normalizeName(p.PlayerName)
		if err != nil {
			return nil, err
		}
		return JoinRoom{RoomID: code, PlayerName: name}, nil

	case TypeStartGame, TypeFinishTurn:
		var p roomRef
		if err := decodeObject(msg.Payload, &p); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(p.RoomID)
		if err != nil {
			return nil, err
		}
		if msg.Type == TypeStartGame {
			return StartGame{RoomID: code}, nil
		}
		return FinishTurn{RoomID: code}, nil
	}

	if kind, ok := relayKinds[msg.Type]; ok {
		var p roomRef
		if err := decodeObject(msg.Payload, &p); err != nil {
			return nil, err
		}
		code, err := NormalizeRoomCode(p.RoomID)
		if err != nil {
			return nil, err
		}
		return Relay{Kind: kind, RoomID: code, Raw: msg.Payload}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
}

func decodeObject(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: payload must be an object", ErrMalformed)
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// NormalizeRoomCode trims and upper-cases a client supplied room id.
func NormalizeRoomCode(s string) (domain.RoomCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("%w: missing roomId", ErrMalformed)
	}
	return domain.RoomCode(s), nil
}

func normalizeName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: missing playerName", ErrMalformed)
	}
	if utf8.RuneCountInString(s) > MaxNameLen {
		return "", fmt.Errorf("%w: playerName longer than %d", ErrMalformed, MaxNameLen)
	}
	return s, nil
}

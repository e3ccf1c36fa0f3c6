package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type PlayerItem struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type RoomItem struct {
	Code          string       `json:"code"`
	State         string       `json:"state"`
	HostID        string       `json:"hostId"`
	Players       []PlayerItem `json:"players"`
	Started       bool         `json:"started"`
	Round         int          `json:"round"`
	CurrentTurnID string       `json:"currentTurnId,omitempty"`
	CreatedAt     time.Time    `json:"createdAt"`
}

type RoomsListResponse struct {
	Items []RoomItem `json:"items"`
	Total int        `json:"total"`
}

type EventItem struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	ConnID     string    `json:"connId,omitempty"`
	PlayerName string    `json:"playerName,omitempty"`
	Round      int       `json:"round"`
	TurnID     string    `json:"turnId,omitempty"`
	At         time.Time `json:"at"`
}

type EventsResponse struct {
	Items      []EventItem `json:"items"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

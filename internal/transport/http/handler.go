package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/postgres"
	"github.com/cwrk-planet/bowling-server/internal/protocol"

	"github.com/go-chi/chi/v5"
)

type RoomReader interface {
	GetRoom(code domain.RoomCode) (domain.Room, error)
	ListRooms() []domain.Room
}

type EventHistory interface {
	History(ctx context.Context, code domain.RoomCode, after string, limit int) ([]domain.RoomEvent, string, error)
}

type Handler struct {
	rooms  RoomReader
	events EventHistory
}

// NewHandler accepts a nil events reader when the journal is disabled.
func NewHandler(rooms RoomReader, events EventHistory) *Handler {
	return &Handler{rooms: rooms, events: events}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json response failed", slog.Any("err", err))
	}
}

func queryInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// GET /rooms?state=&limit=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	limit := queryInt(r, "limit", 0)

	rooms := h.rooms.ListRooms()
	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms))}
	for i := range rooms {
		if state != "" && string(rooms[i].State()) != state {
			continue
		}
		resp.Total++
		if limit > 0 && len(resp.Items) >= limit {
			continue
		}
		resp.Items = append(resp.Items, roomItem(&rooms[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{code}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code, err := protocol.NormalizeRoomCode(chi.URLParam(r, "code"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid room code"})
		return
	}

	room, err := h.rooms.GetRoom(code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
			return
		}
		slog.ErrorContext(r.Context(), "handler.GetRoom", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, roomItem(&room))
}

// GET /rooms/{code}/events?after=&limit=
func (h *Handler) GetRoomEvents(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "journal disabled"})
		return
	}
	code, err := protocol.NormalizeRoomCode(chi.URLParam(r, "code"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid room code"})
		return
	}

	items, next, err := h.events.History(r.Context(), code, r.URL.Query().Get("after"), queryInt(r, "limit", 0))
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		slog.ErrorContext(r.Context(), "handler.GetRoomEvents", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	resp := EventsResponse{Items: make([]EventItem, 0, len(items)), NextCursor: next}
	for _, e := range items {
		resp.Items = append(resp.Items, EventItem{
			ID:         e.ID,
			Kind:       string(e.Kind),
			ConnID:     string(e.ConnID),
			PlayerName: e.PlayerName,
			Round:      e.Round,
			TurnID:     string(e.TurnID),
			At:         e.At,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func roomItem(r *domain.Room) RoomItem {
	item := RoomItem{
		Code:      string(r.Code),
		State:     string(r.State()),
		HostID:    string(r.HostID),
		Players:   make([]PlayerItem, 0, len(r.Players)),
		Started:   r.Started,
		Round:     r.Round,
		CreatedAt: r.CreatedAt,
	}
	for _, p := range r.Players {
		item.Players = append(item.Players, PlayerItem{ID: string(p.ID), Name: p.Name, Score: p.Score})
	}
	if r.Started && len(r.Players) > 0 {
		item.CurrentTurnID = string(r.Turn().CurrentTurn)
	}
	return item
}

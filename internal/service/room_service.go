package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"
)

type RoomService struct {
	store    *RoomStore
	registry *Registry
	out      notifier
	journal  Journal
	now      func() time.Time
}

func NewRoomService(store *RoomStore, registry *Registry, sender Sender, journal Journal) *RoomService {
	if journal == nil {
		journal = NopJournal{}
	}
	return &RoomService{
		store:    store,
		registry: registry,
		out:      notifier{sender: sender},
		journal:  journal,
		now:      time.Now,
	}
}

// CreateRoom opens a room with conn as host and only player and answers with room_created.
func (s *RoomService) CreateRoom(ctx context.Context, conn domain.ConnID, name string) (domain.RoomCode, error) {
	host := domain.Player{ID: conn, Name: name}

	code, err := s.store.Create(host, func(r *domain.Room) error {
		if err := s.registry.Bind(conn, r.Code); err != nil {
			return err
		}
		s.out.send(ctx, conn, protocol.TypeRoomCreated, protocol.RoomCreatedPayload{
			RoomID:  string(r.Code),
			IsHost:  true,
			Players: protocol.PlayersFrom(r.Players),
		})
		s.journal.Record(domain.RoomEvent{
			RoomCode:   r.Code,
			Kind:       domain.EventRoomCreated,
			ConnID:     conn,
			PlayerName: name,
			Round:      r.Round,
			At:         s.now(),
		})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}

	slog.InfoContext(ctx, "room created", "room", code, "host", conn)
	return code, nil
}

// JoinRoom seats conn in the room. Everyone gets player_joined; members that were
// already seated also get user_joined with the newcomer's id. A seat freed in a
// started game is refilled mid-play: the newcomer gets game_started and the others
// turn_switched, both carrying the current turn.
func (s *RoomService) JoinRoom(ctx context.Context, code domain.RoomCode, conn domain.ConnID, name string) ([]domain.Player, error) {
	var players []domain.Player

	err := s.store.Update(code, func(tx *RoomTx) error {
		r := tx.Room
		if err := r.CanAdmit(conn); err != nil {
			return err
		}
		if err := s.registry.Bind(conn, code); err != nil {
			return err
		}

		prior := r.PlayersCopy()
		if err := r.AddPlayer(domain.Player{ID: conn, Name: name}); err != nil {
			s.registry.UnbindFrom(conn, code)
			return err
		}
		players = r.PlayersCopy()

		s.out.broadcast(ctx, players, "", protocol.TypePlayerJoined, protocol.PlayerJoinedPayload{
			Players: protocol.PlayersFrom(players),
		})
		s.out.broadcast(ctx, prior, "", protocol.TypeUserJoined, protocol.UserJoinedPayload{
			ID: string(conn),
		})
		if r.Started {
			turn := protocol.TurnFrom(r.Turn())
			s.out.send(ctx, conn, protocol.TypeGameStarted, turn)
			s.out.broadcast(ctx, prior, "", protocol.TypeTurnSwitched, turn)
		}
		s.journal.Record(domain.RoomEvent{
			RoomCode:   code,
			Kind:       domain.EventPlayerJoined,
			ConnID:     conn,
			PlayerName: name,
			Round:      r.Round,
			At:         s.now(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("join room %s: %w", code, err)
	}

	slog.InfoContext(ctx, "player joined", "room", code, "conn", conn, "players", len(players))
	return players, nil
}

func (s *RoomService) FindRoomForConnection(conn domain.ConnID) (domain.RoomCode, bool) {
	return s.registry.Lookup(conn)
}

// GetRoom returns a snapshot of the room.
func (s *RoomService) GetRoom(code domain.RoomCode) (domain.Room, error) {
	r, ok := s.store.Snapshot(code)
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return r, nil
}

// ListRooms returns snapshots of every live room, oldest first.
func (s *RoomService) ListRooms() []domain.Room {
	return s.store.Snapshots()
}

// unknownRoom turns a missing room into the error turn and relay events report.
func unknownRoom(err error) error {
	if errors.Is(err, domain.ErrRoomNotFound) {
		return domain.ErrUnknownRoom
	}
	return err
}

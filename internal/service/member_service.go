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

// DisconnectPolicy decides what a dropped connection does to its room.
type DisconnectPolicy string

const (
	// PolicyCleanup frees the seat and tells the remaining player. A leaving host
	// closes the room since hosts are never reassigned.
	PolicyCleanup DisconnectPolicy = "cleanup"
	// PolicyRetain leaves the room untouched: the seat stays taken by a player who
	// will never come back.
	PolicyRetain DisconnectPolicy = "retain"
)

func ParseDisconnectPolicy(s string) (DisconnectPolicy, error) {
	switch p := DisconnectPolicy(s); p {
	case PolicyCleanup, PolicyRetain:
		return p, nil
	case "":
		return PolicyCleanup, nil
	default:
		return "", fmt.Errorf("unknown disconnect policy %q", s)
	}
}

// MemberService handles connection lifecycle: connect and disconnect.
type MemberService struct {
	store    *RoomStore
	registry *Registry
	out      notifier
	journal  Journal
	policy   DisconnectPolicy
	now      func() time.Time
}

func NewMemberService(store *RoomStore, registry *Registry, sender Sender, journal Journal, policy DisconnectPolicy) *MemberService {
	if journal == nil {
		journal = NopJournal{}
	}
	if policy == "" {
		policy = PolicyCleanup
	}
	return &MemberService{
		store:    store,
		registry: registry,
		out:      notifier{sender: sender},
		journal:  journal,
		policy:   policy,
		now:      time.Now,
	}
}

// Connect creates no room state; it only tells the client its connection id.
func (s *MemberService) Connect(ctx context.Context, conn domain.ConnID) {
	s.out.send(ctx, conn, protocol.TypeConnected, protocol.ConnectedPayload{ID: string(conn)})
	slog.DebugContext(ctx, "connection opened", "conn", conn)
}

// Disconnect releases conn. What happens to its room depends on the policy.
func (s *MemberService) Disconnect(ctx context.Context, conn domain.ConnID) {
	code, ok := s.registry.Lookup(conn)
	if !ok {
		slog.DebugContext(ctx, "connection closed", "conn", conn)
		return
	}
	defer s.registry.UnbindFrom(conn, code)

	if s.policy == PolicyRetain {
		slog.InfoContext(ctx, "connection closed, seat retained", "conn", conn, "room", code)
		return
	}

	err := s.store.Update(code, func(tx *RoomTx) error {
		r := tx.Room
		if conn == r.HostID {
			s.closeRoom(ctx, tx, conn)
			return nil
		}
		if _, ok := r.RemovePlayer(conn); !ok {
			return domain.ErrNotMember
		}
		rest := r.PlayersCopy()
		left := protocol.PlayerLeftPayload{
			ID:      string(conn),
			Players: protocol.PlayersFrom(rest),
		}
		if r.Started {
			turn := protocol.TurnFrom(r.Turn())
			left.CurrentTurnID, left.Round = turn.CurrentTurnID, turn.Round
		}
		s.out.broadcast(ctx, rest, "", protocol.TypePlayerLeft, left)
		s.journal.Record(domain.RoomEvent{
			RoomCode: code,
			Kind:     domain.EventPlayerLeft,
			ConnID:   conn,
			Round:    r.Round,
			At:       s.now(),
		})
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		slog.WarnContext(ctx, "disconnect cleanup failed", "conn", conn, "room", code, "err", err)
		return
	}
	slog.InfoContext(ctx, "connection closed, seat released", "conn", conn, "room", code)
}

func (s *MemberService) closeRoom(ctx context.Context, tx *RoomTx, host domain.ConnID) {
	r := tx.Room
	for _, p := range r.Players {
		if p.ID == host {
			continue
		}
		s.registry.UnbindFrom(p.ID, r.Code)
		s.out.send(ctx, p.ID, protocol.TypeRoomClosed, protocol.RoomClosedPayload{
			RoomID: string(r.Code),
			Reason: protocol.ReasonHostLeft,
		})
	}
	tx.Drop()
	s.journal.Record(domain.RoomEvent{
		RoomCode: r.Code,
		Kind:     domain.EventRoomClosed,
		ConnID:   host,
		Round:    r.Round,
		At:       s.now(),
	})
}

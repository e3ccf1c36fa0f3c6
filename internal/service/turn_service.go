package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"
)

// TurnService owns turn order: who is on turn and which round it is.
type TurnService struct {
	store   *RoomStore
	out     notifier
	journal Journal
	now     func() time.Time
}

func NewTurnService(store *RoomStore, sender Sender, journal Journal) *TurnService {
	if journal == nil {
		journal = NopJournal{}
	}
	return &TurnService{
		store:   store,
		out:     notifier{sender: sender},
		journal: journal,
		now:     time.Now,
	}
}

// StartGame is honoured only for the host. Any other requester gets ErrNotHost and
// nothing is broadcast.
func (s *TurnService) StartGame(ctx context.Context, code domain.RoomCode, requester domain.ConnID) (domain.TurnState, error) {
	var ts domain.TurnState
	err := s.store.Update(code, func(tx *RoomTx) error {
		var err error
		ts, err = tx.Room.Start(requester)
		if err != nil {
			return err
		}
		s.announce(ctx, tx.Room, protocol.TypeGameStarted, domain.EventGameStarted, ts)
		return nil
	})
	if err != nil {
		return domain.TurnState{}, fmt.Errorf("start game %s: %w", code, unknownRoom(err))
	}

	slog.InfoContext(ctx, "game started", "room", code, "turn", ts.CurrentTurn)
	return ts, nil
}

// FinishTurn hands the turn to the other seat. Only members of a started room may call it.
func (s *TurnService) FinishTurn(ctx context.Context, code domain.RoomCode, requester domain.ConnID) (domain.TurnState, error) {
	var ts domain.TurnState
	err := s.store.Update(code, func(tx *RoomTx) error {
		if !tx.Room.IsMember(requester) {
			return domain.ErrNotMember
		}
		var err error
		ts, err = tx.Room.AdvanceTurn()
		if err != nil {
			return err
		}
		s.announce(ctx, tx.Room, protocol.TypeTurnSwitched, domain.EventTurnSwitched, ts)
		return nil
	})
	if err != nil {
		return domain.TurnState{}, fmt.Errorf("finish turn %s: %w", code, unknownRoom(err))
	}

	slog.DebugContext(ctx, "turn switched", "room", code, "turn", ts.CurrentTurn, "round", ts.Round)
	return ts, nil
}

func (s *TurnService) announce(ctx context.Context, r *domain.Room, typ string, kind domain.EventKind, ts domain.TurnState) {
	s.out.broadcast(ctx, r.Players, "", typ, protocol.TurnFrom(ts))
	s.journal.Record(domain.RoomEvent{
		RoomCode: r.Code,
		Kind:     kind,
		Round:    ts.Round,
		TurnID:   ts.CurrentTurn,
		At:       s.now(),
	})
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"
)

// RelayService forwards ephemeral traffic (input mirroring, peer handshake, emoji)
// to the other members of a room. Nothing is stored and nothing is acknowledged.
type RelayService struct {
	store *RoomStore
	out   notifier
}

func NewRelayService(store *RoomStore, sender Sender) *RelayService {
	return &RelayService{store: store, out: notifier{sender: sender}}
}

// Relay sends raw, unchanged, to every member of code except from and returns how many
// connections accepted it. The sender must be a member of the room.
func (s *RelayService) Relay(ctx context.Context, kind protocol.RelayKind, code domain.RoomCode, from domain.ConnID, raw json.RawMessage) (int, error) {
	typ := kind.Outbound()
	if typ == "" {
		return 0, fmt.Errorf("relay: %w: %s", protocol.ErrUnknownEvent, kind)
	}

	delivered := 0
	err := s.store.Update(code, func(tx *RoomTx) error {
		if !tx.Room.IsMember(from) {
			return domain.ErrNotMember
		}
		delivered = s.out.broadcast(ctx, tx.Room.Players, from, typ, raw)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("relay %s to %s: %w", kind, code, unknownRoom(err))
	}
	return delivered, nil
}

package service

import (
	"context"
	"log/slog"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"
)

// Sender delivers one encoded frame to a live connection without blocking.
// It reports false when the connection is gone or its buffer is full.
type Sender interface {
	Send(to domain.ConnID, frame []byte) bool
}

type notifier struct {
	sender Sender
}

func (n notifier) send(ctx context.Context, to domain.ConnID, typ string, payload any) bool {
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		slog.ErrorContext(ctx, "encode outbound", "type", typ, "err", err)
		return false
	}
	return n.deliver(ctx, to, typ, frame)
}

// broadcast encodes once and sends to every player in ps except skip.
// It returns how many receivers accepted the frame.
func (n notifier) broadcast(ctx context.Context, ps []domain.Player, skip domain.ConnID, typ string, payload any) int {
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		slog.ErrorContext(ctx, "encode outbound", "type", typ, "err", err)
		return 0
	}
	delivered := 0
	for _, p := range ps {
		if p.ID == skip {
			continue
		}
		if n.deliver(ctx, p.ID, typ, frame) {
			delivered++
		}
	}
	return delivered
}

func (n notifier) deliver(ctx context.Context, to domain.ConnID, typ string, frame []byte) bool {
	if n.sender == nil {
		return false
	}
	if !n.sender.Send(to, frame) {
		slog.DebugContext(ctx, "outbound dropped", "to", to, "type", typ)
		return false
	}
	return true
}

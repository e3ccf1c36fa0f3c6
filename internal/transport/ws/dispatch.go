package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"
)

var errHandlerPanic = errors.New("handler panic")

// dispatch runs one inbound frame. A bad frame or a panicking handler fails only
// this event; the connection and the room stay usable.
func (s *Server) dispatch(ctx context.Context, c *wsConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "ws handler panic",
				"conn", c.id,
				"panic", r,
				"stack", string(debug.Stack()))
			s.replyError(ctx, c, errHandlerPanic)
		}
	}()

	in, err := protocol.Decode(data)
	if err != nil {
		slog.WarnContext(ctx, "ws message rejected", "conn", c.id, "err", err)
		s.replyError(ctx, c, err)
		return
	}

	if err := s.handle(ctx, c.id, in); err != nil {
		if protocol.Silent(err) {
			slog.DebugContext(ctx, "ws event dropped", "conn", c.id, "event", fmt.Sprintf("%T", in), "err", err)
			return
		}
		slog.InfoContext(ctx, "ws event failed", "conn", c.id, "event", fmt.Sprintf("%T", in), "err", err)
		s.replyError(ctx, c, err)
	}
}

func (s *Server) handle(ctx context.Context, from domain.ConnID, in protocol.Inbound) error {
	switch m := in.(type) {
	case protocol.CreateRoom:
		_, err := s.svc.Rooms.CreateRoom(ctx, from, m.PlayerName)
		return err
	case protocol.JoinRoom:
		_, err := s.svc.Rooms.JoinRoom(ctx, m.RoomID, from, m.PlayerName)
		return err
	case protocol.StartGame:
		_, err := s.svc.Turns.StartGame(ctx, m.RoomID, from)
		return err
	case protocol.FinishTurn:
		_, err := s.svc.Turns.FinishTurn(ctx, m.RoomID, from)
		return err
	case protocol.Relay:
		_, err := s.svc.Relay.Relay(ctx, m.Kind, m.RoomID, from, m.Raw)
		return err
	default:
		return fmt.Errorf("%w: %T", protocol.ErrUnknownEvent, in)
	}
}

func (s *Server) replyError(ctx context.Context, c *wsConn, err error) {
	frame, encErr := protocol.Encode(protocol.TypeError, protocol.ErrorFor(err))
	if encErr != nil {
		slog.ErrorContext(ctx, "encode error reply", "err", encErr)
		return
	}
	c.Send(frame)
}

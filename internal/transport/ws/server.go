package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type RoomSvc interface {
	CreateRoom(ctx context.Context, conn domain.ConnID, name string) (domain.RoomCode, error)
	JoinRoom(ctx context.Context, code domain.RoomCode, conn domain.ConnID, name string) ([]domain.Player, error)
}

type TurnSvc interface {
	StartGame(ctx context.Context, code domain.RoomCode, requester domain.ConnID) (domain.TurnState, error)
	FinishTurn(ctx context.Context, code domain.RoomCode, requester domain.ConnID) (domain.TurnState, error)
}

type RelaySvc interface {
	Relay(ctx context.Context, kind protocol.RelayKind, code domain.RoomCode, from domain.ConnID, raw json.RawMessage) (int, error)
}

type MemberSvc interface {
	Connect(ctx context.Context, conn domain.ConnID)
	Disconnect(ctx context.Context, conn domain.ConnID)
}

type Services struct {
	Rooms   RoomSvc
	Turns   TurnSvc
	Relay   RelaySvc
	Members MemberSvc
}

type Options struct {
	PingEvery    time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
	SendBuffer   int
	// AllowedOrigins limits browser origins; empty or "*" accepts any.
	AllowedOrigins []string
}

func (o Options) withDefaults() Options {
	if o.PingEvery <= 0 {
		o.PingEvery = 15 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.ReadLimit <= 0 {
		o.ReadLimit = 64 << 10
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	return o
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	svc      Services
	opts     Options
}

func NewServer(hub *Hub, svc Services, opts Options) *Server {
	opts = opts.withDefaults()
	return &Server{
		hub:  hub,
		svc:  svc,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}

// WS endpoint: GET /ws
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		slog.Warn("ws upgrade failed", "err", err, "origin", r.Header.Get("Origin"))
		return
	}

	c := newWsConn(conn, domain.ConnID(uuid.NewString()), s.opts.SendBuffer)
	ctx := r.Context()
	s.hub.Add(c)
	s.svc.Members.Connect(ctx, c.id)

	go s.writeLoop(c)
	s.readLoop(ctx, c)

	s.hub.Remove(c)
	s.svc.Members.Disconnect(ctx, c.id)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.id, "err", err)
	}
}

func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(s.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("ws read failed", "conn", c.id, "err", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.opts.PingEvery))
		s.dispatch(ctx, c, data)
	}
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.opts.PingEvery)
	defer ticker.Stop()

	for {
		select {
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				slog.Debug("ws write failed", "conn", c.id, "err", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.opts.WriteTimeout)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		}
	}
}

// --- connection ---

type wsConn struct {
	conn      *websocket.Conn
	id        domain.ConnID
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, id domain.ConnID, buffer int) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		send:   make(chan []byte, buffer),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		slog.Warn("ws send buffer full, frame dropped", "conn", c.id)
		return false
	}
}

func (c *wsConn) Close() error {
	err := error(nil)
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}

func (c *wsConn) ID() domain.ConnID { return c.id }

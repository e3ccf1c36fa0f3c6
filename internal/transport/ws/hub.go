package ws

import (
	"sync"

	"github.com/cwrk-planet/bowling-server/internal/domain"
)

type Conn interface {
	// Send queues a frame without blocking and reports whether it was accepted.
	Send(frame []byte) bool
	Close() error
	ID() domain.ConnID
}

// Hub tracks live connections by id. Room membership lives in the services.
type Hub struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[domain.ConnID]Conn)}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if cur, ok := h.conns[c.ID()]; ok && cur == c {
		delete(h.conns, c.ID())
	}
}

// Send is best-effort: unknown ids and full buffers both report false.
func (h *Hub) Send(to domain.ConnID, frame []byte) bool {
	h.mu.RLock()
	c, ok := h.conns[to]
	h.mu.RUnlock()

	if !ok {
		return false
	}
	return c.Send(frame)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// CloseAll closes every live connection, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	conns := make([]Conn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

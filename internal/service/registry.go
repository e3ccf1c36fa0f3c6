package service

import (
	"sync"

	"github.com/cwrk-planet/bowling-server/internal/domain"
)

// Registry maps a connection to the room it sits in. A connection sits in at most one room.
// All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.ConnID]domain.RoomCode
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.ConnID]domain.RoomCode)}
}

// Bind records conn as a member of code. It fails with ErrAlreadyInRoom if conn is
// bound anywhere already.
func (r *Registry) Bind(conn domain.ConnID, code domain.RoomCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[conn]; ok {
		return domain.ErrAlreadyInRoom
	}
	r.rooms[conn] = code
	return nil
}

func (r *Registry) Lookup(conn domain.ConnID) (domain.RoomCode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code, ok := r.rooms[conn]
	return code, ok
}

// UnbindFrom removes conn only while it is still bound to code.
func (r *Registry) UnbindFrom(conn domain.ConnID, code domain.RoomCode) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[conn] == code {
		delete(r.rooms, conn)
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

package service

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/cwrk-planet/bowling-server/internal/domain"
)

const (
	CodeLength   = 5
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	defaultCodeAttempts = 16
)

type CodeGenerator interface {
	NewCode() domain.RoomCode
}

// RandomCodes draws uniformly from 36^5 uppercase alphanumeric codes.
type RandomCodes struct{}

func (RandomCodes) NewCode() domain.RoomCode {
	b := make([]byte, CodeLength)
	for i := range b {
		b[i] = codeAlphabet[rand.IntN(len(codeAlphabet))]
	}
	return domain.RoomCode(b)
}

type roomEntry struct {
	mu     sync.Mutex
	room   *domain.Room
	closed bool
}

// RoomTx is the locked view of one room handed to RoomStore.Update callbacks.
type RoomTx struct {
	Room *domain.Room
	drop bool
}

// Drop removes the room from the store once the callback returns.
func (tx *RoomTx) Drop() { tx.drop = true }

// RoomStore owns every live room. Each room has its own lock, so work on one room
// never waits for another. Lock order is room, then store.
type RoomStore struct {
	mu       sync.RWMutex
	rooms    map[domain.RoomCode]*roomEntry
	codes    CodeGenerator
	attempts int
	now      func() time.Time
}

func NewRoomStore(codes CodeGenerator, attempts int) *RoomStore {
	if codes == nil {
		codes = RandomCodes{}
	}
	if attempts <= 0 {
		attempts = defaultCodeAttempts
	}
	return &RoomStore{
		rooms:    make(map[domain.RoomCode]*roomEntry),
		codes:    codes,
		attempts: attempts,
		now:      time.Now,
	}
}

// Create registers a new room with host in the first seat and runs fn with the room
// locked before anyone else can reach it. If fn fails the room is discarded.
func (s *RoomStore) Create(host domain.Player, fn func(*domain.Room) error) (domain.RoomCode, error) {
	e := &roomEntry{}
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	code, ok := s.freeCodeLocked()
	if !ok {
		s.mu.Unlock()
		return "", domain.ErrCodeSpaceExhausted
	}
	e.room = domain.NewRoom(code, host, s.now())
	s.rooms[code] = e
	s.mu.Unlock()

	if fn != nil {
		if err := fn(e.room); err != nil {
			s.dropLocked(e)
			return "", err
		}
	}
	return code, nil
}

func (s *RoomStore) freeCodeLocked() (domain.RoomCode, bool) {
	for i := 0; i < s.attempts; i++ {
		code := s.codes.NewCode()
		if _, taken := s.rooms[code]; !taken {
			return code, true
		}
	}
	return "", false
}

// Update runs fn with the room locked. The room is removed afterwards when fn dropped
// it or left it without players.
func (s *RoomStore) Update(code domain.RoomCode, fn func(tx *RoomTx) error) error {
	e := s.entry(code)
	if e == nil {
		return domain.ErrRoomNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.ErrRoomNotFound
	}

	tx := &RoomTx{Room: e.room}
	err := fn(tx)
	if tx.drop || len(e.room.Players) == 0 {
		s.dropLocked(e)
	}
	return err
}

// dropLocked requires e.mu held.
func (s *RoomStore) dropLocked(e *roomEntry) {
	e.closed = true
	s.mu.Lock()
	if s.rooms[e.room.Code] == e {
		delete(s.rooms, e.room.Code)
	}
	s.mu.Unlock()
}

func (s *RoomStore) entry(code domain.RoomCode) *roomEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[code]
}

// Snapshot returns a copy of the room as it is right now.
func (s *RoomStore) Snapshot(code domain.RoomCode) (domain.Room, bool) {
	e := s.entry(code)
	if e == nil {
		return domain.Room{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return domain.Room{}, false
	}
	return e.room.Clone(), true
}

// Snapshots returns copies of all live rooms, oldest first.
func (s *RoomStore) Snapshots() []domain.Room {
	s.mu.RLock()
	entries := make([]*roomEntry, 0, len(s.rooms))
	for _, e := range s.rooms {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]domain.Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			out = append(out, e.room.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *RoomStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

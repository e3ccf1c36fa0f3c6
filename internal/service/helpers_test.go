package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"

	"github.com/stretchr/testify/require"
)

// recorder is a Sender that keeps every frame per receiver.
type recorder struct {
	mu      sync.Mutex
	frames  map[domain.ConnID][][]byte
	offline map[domain.ConnID]bool
}

func newRecorder() *recorder {
	return &recorder{
		frames:  make(map[domain.ConnID][][]byte),
		offline: make(map[domain.ConnID]bool),
	}
}

func (r *recorder) Send(to domain.ConnID, frame []byte) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.offline[to] {
		return false
	}
	r.frames[to] = append(r.frames[to], append([]byte(nil), frame...))
	return true
}

func (r *recorder) setOffline(id domain.ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.offline[id] = true
}

func (r *recorder) raw(to domain.ConnID) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames[to]...)
}

func (r *recorder) messages(t *testing.T, to domain.ConnID) []protocol.Message {
	t.Helper()
	var out []protocol.Message
	for _, f := range r.raw(to) {
		var m protocol.Message
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (r *recorder) types(t *testing.T, to domain.ConnID) []string {
	t.Helper()
	var out []string
	for _, m := range r.messages(t, to) {
		out = append(out, m.Type)
	}
	return out
}

// last decodes the payload of the newest frame of type typ sent to to.
func (r *recorder) last(t *testing.T, to domain.ConnID, typ string, dst any) bool {
	t.Helper()
	msgs := r.messages(t, to)
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Type == typ {
			require.NoError(t, json.Unmarshal(msgs[i].Payload, dst))
			return true
		}
	}
	return false
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = make(map[domain.ConnID][][]byte)
}

type memJournal struct {
	mu     sync.Mutex
	events []domain.RoomEvent
}

func (j *memJournal) Record(e domain.RoomEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
}

func (j *memJournal) Save(_ context.Context, e domain.RoomEvent) error {
	j.Record(e)
	return nil
}

func (j *memJournal) kinds() []domain.EventKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.EventKind, 0, len(j.events))
	for _, e := range j.events {
		out = append(out, e.Kind)
	}
	return out
}

// sequenceCodes hands out codes in order and repeats the last one forever.
type sequenceCodes struct {
	mu    sync.Mutex
	codes []domain.RoomCode
}

func (s *sequenceCodes) NewCode() domain.RoomCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.codes[0]
	if len(s.codes) > 1 {
		s.codes = s.codes[1:]
	}
	return c
}

type env struct {
	store    *RoomStore
	registry *Registry
	out      *recorder
	journal  *memJournal
	rooms    *RoomService
	turns    *TurnService
	relay    *RelayService
	members  *MemberService
}

func newEnv(policy DisconnectPolicy) *env {
	return newEnvWithStore(NewRoomStore(nil, 0), policy)
}

func newEnvWithStore(store *RoomStore, policy DisconnectPolicy) *env {
	e := &env{
		store:    store,
		registry: NewRegistry(),
		out:      newRecorder(),
		journal:  &memJournal{},
	}
	e.rooms = NewRoomService(e.store, e.registry, e.out, e.journal)
	e.turns = NewTurnService(e.store, e.out, e.journal)
	e.relay = NewRelayService(e.store, e.out)
	e.members = NewMemberService(e.store, e.registry, e.out, e.journal, policy)
	return e
}

// readyRoom creates a room hosted by alice and seats bob.
func (e *env) readyRoom(t *testing.T) domain.RoomCode {
	t.Helper()
	ctx := context.Background()
	code, err := e.rooms.CreateRoom(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = e.rooms.JoinRoom(ctx, code, "bob", "Bob")
	require.NoError(t, err)
	return code
}

// startedRoom is readyRoom plus start_game by the host, with frames cleared.
func (e *env) startedRoom(t *testing.T) domain.RoomCode {
	t.Helper()
	code := e.readyRoom(t)
	_, err := e.turns.StartGame(context.Background(), code, "alice")
	require.NoError(t, err)
	e.out.reset()
	return code
}

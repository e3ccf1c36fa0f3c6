package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestStartGame_NonHostIsIgnored(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.readyRoom(t)
	e.out.reset()

	_, err := e.turns.StartGame(context.Background(), code, "bob")
	assert.ErrorIs(t, err, domain.ErrNotHost)
	assert.True(t, protocol.Silent(err))

	room, err := e.rooms.GetRoom(code)
	require.NoError(t, err)
	assert.False(t, room.Started)
	assert.NotContains(t, e.out.types(t, "alice"), protocol.TypeGameStarted)
	assert.NotContains(t, e.out.types(t, "bob"), protocol.TypeGameStarted)
}

func TestStartGame_Preconditions(t *testing.T) {
	e := newEnv(PolicyCleanup)
	ctx := context.Background()

	_, err := e.turns.StartGame(ctx, "NOPE1", "alice")
	assert.ErrorIs(t, err, domain.ErrUnknownRoom)

	code, err := e.rooms.CreateRoom(ctx, "alice", "Alice")
	require.NoError(t, err)
	_, err = e.turns.StartGame(ctx, code, "alice")
	assert.ErrorIs(t, err, domain.ErrRoomNotReady)

	_, err = e.rooms.JoinRoom(ctx, code, "bob", "Bob")
	require.NoError(t, err)
	ts, err := e.turns.StartGame(ctx, code, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.TurnState{CurrentTurn: "alice", Round: 1}, ts)

	_, err = e.turns.StartGame(ctx, code, "alice")
	assert.ErrorIs(t, err, domain.ErrAlreadyStarted)
}

func TestFinishTurn_RequiresStartedGame(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.readyRoom(t)
	e.out.reset()

	_, err := e.turns.FinishTurn(context.Background(), code, "alice")
	assert.ErrorIs(t, err, domain.ErrNotStarted)

	room, err := e.rooms.GetRoom(code)
	require.NoError(t, err)
	assert.Equal(t, 0, room.TurnIndex)
	assert.Equal(t, 1, room.Round)
	assert.Empty(t, e.out.raw("alice"))
}

func TestFinishTurn_DroppedForStrangersAndUnknownRooms(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.startedRoom(t)
	ctx := context.Background()

	_, err := e.turns.FinishTurn(ctx, code, "mallory")
	assert.ErrorIs(t, err, domain.ErrNotMember)

	_, err = e.turns.FinishTurn(ctx, "NOPE1", "alice")
	assert.ErrorIs(t, err, domain.ErrUnknownRoom)

	room, err := e.rooms.GetRoom(code)
	require.NoError(t, err)
	assert.Equal(t, 0, room.TurnIndex)
	assert.Empty(t, e.out.raw("alice"))
}

func TestFinishTurn_BroadcastsToWholeRoom(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.startedRoom(t)

	_, err := e.turns.FinishTurn(context.Background(), code, "bob")
	require.NoError(t, err)

	for _, who := range []domain.ConnID{"alice", "bob"} {
		assert.Equal(t, []string{protocol.TypeTurnSwitched}, e.out.types(t, who))
	}
}

func TestFinishTurn_ConcurrentCallsAreLinearizable(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.startedRoom(t)

	const n = 101
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			who := domain.ConnID("alice")
			if i%2 == 1 {
				who = "bob"
			}
			_, err := e.turns.FinishTurn(context.Background(), code, who)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	room, err := e.rooms.GetRoom(code)
	require.NoError(t, err)
	assert.Equal(t, n%2, room.TurnIndex)
	assert.Equal(t, 1+n/2, room.Round)

	// Every broadcast carries a distinct, gap-free position in the sequence.
	var seen []protocol.TurnPayload
	for _, m := range e.out.messages(t, "alice") {
		var tp protocol.TurnPayload
		require.NoError(t, json.Unmarshal(m.Payload, &tp))
		seen = append(seen, tp)
	}
	require.Len(t, seen, n)
	for i, tp := range seen {
		k := i + 1
		assert.Equal(t, 1+k/2, tp.Round, fmt.Sprintf("broadcast %d", k))
	}
}

func TestPropertyTurnBroadcastsAlternate(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := newEnv(PolicyCleanup)
		ctx := context.Background()
		code, err := e.rooms.CreateRoom(ctx, "alice", "Alice")
		if err != nil {
			rt.Fatalf("create: %v", err)
		}
		if _, err := e.rooms.JoinRoom(ctx, code, "bob", "Bob"); err != nil {
			rt.Fatalf("join: %v", err)
		}
		if _, err := e.turns.StartGame(ctx, code, "alice"); err != nil {
			rt.Fatalf("start: %v", err)
		}

		n := rapid.IntRange(1, 60).Draw(rt, "finish_turns")
		for i := 1; i <= n; i++ {
			who := rapid.SampledFrom([]domain.ConnID{"alice", "bob"}).Draw(rt, "who")
			ts, err := e.turns.FinishTurn(ctx, code, who)
			if err != nil {
				rt.Fatalf("finish %d: %v", i, err)
			}
			wantTurn := domain.ConnID("alice")
			if i%2 == 1 {
				wantTurn = "bob"
			}
			if ts.CurrentTurn != wantTurn || ts.Round != 1+i/2 {
				rt.Fatalf("after %d turns got %+v", i, ts)
			}
		}
	})
}

package service

import (
	"context"
	"testing"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDisconnectPolicy(t *testing.T) {
	p, err := ParseDisconnectPolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyCleanup, p)

	p, err = ParseDisconnectPolicy("retain")
	require.NoError(t, err)
	assert.Equal(t, PolicyRetain, p)

	_, err = ParseDisconnectPolicy("migrate")
	assert.Error(t, err)
}

func TestConnect_SendsOwnID(t *testing.T) {
	e := newEnv(PolicyCleanup)
	e.members.Connect(context.Background(), "alice")

	var p protocol.ConnectedPayload
	require.True(t, e.out.last(t, "alice", protocol.TypeConnected, &p))
	assert.Equal(t, "alice", p.ID)
	assert.Equal(t, 0, e.store.Len())
	assert.Equal(t, 0, e.registry.Len())
}

func TestDisconnect_UnseatedConnectionIsNoop(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.readyRoom(t)
	e.out.reset()

	e.members.Disconnect(context.Background(), "stranger")

	room, err := e.rooms.GetRoom(code)
	require.NoError(t, err)
	assert.Len(t, room.Players, 2)
	assert.Empty(t, e.out.raw("alice"))
}

func TestDisconnect_CleanupGuestReopensSeat(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.startedRoom(t)
	ctx := context.Background()
	_, err := e.turns.FinishTurn(ctx, code, "alice")
	require.NoError(t, err)
	e.out.reset()

	e.members.Disconnect(ctx, "bob")

	var left protocol.PlayerLeftPayload
	require.True(t, e.out.last(t, "alice", protocol.TypePlayerLeft, &left))
	assert.Equal(t, "bob", left.ID)
	assert.Equal(t, []protocol.Player{{ID: "alice", Name: "Alice"}}, left.Players)

	room, err := e.rooms.GetRoom(code)
	require.NoError(t, err)
	assert.Equal(t, domain.ConnID("alice"), room.HostID)
	assert.Len(t, room.Players, 1)
	assert.True(t, room.Started)
	assert.Equal(t, 0, room.TurnIndex)
	_, bound := e.registry.Lookup("bob")
	assert.False(t, bound)

	_, err = e.turns.FinishTurn(ctx, code, "alice")
	assert.ErrorIs(t, err, domain.ErrRoomNotReady)

	_, err = e.rooms.JoinRoom(ctx, code, "carol", "Carol")
	require.NoError(t, err, "the freed seat can be taken again")
	ts, err := e.turns.FinishTurn(ctx, code, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.ConnID("carol"), ts.CurrentTurn)

	assert.Contains(t, e.journal.kinds(), domain.EventPlayerLeft)
}

func TestDisconnect_CleanupGuestMidGameHandsTurnToNewcomer(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.startedRoom(t)
	ctx := context.Background()
	_, err := e.turns.FinishTurn(ctx, code, "alice")
	require.NoError(t, err)
	e.out.reset()

	// bob leaves while on turn; the turn falls back to the host
	e.members.Disconnect(ctx, "bob")

	var left protocol.PlayerLeftPayload
	require.True(t, e.out.last(t, "alice", protocol.TypePlayerLeft, &left))
	assert.Equal(t, "alice", left.CurrentTurnID)
	assert.Equal(t, 1, left.Round)
	e.out.reset()

	_, err = e.rooms.JoinRoom(ctx, code, "carol", "Carol")
	require.NoError(t, err)

	want := protocol.TurnPayload{CurrentTurnID: "alice", Round: 1}
	assert.Equal(t, []string{protocol.TypePlayerJoined, protocol.TypeGameStarted}, e.out.types(t, "carol"))
	var turn protocol.TurnPayload
	require.True(t, e.out.last(t, "carol", protocol.TypeGameStarted, &turn))
	assert.Equal(t, want, turn)

	assert.Equal(t, []string{protocol.TypePlayerJoined, protocol.TypeUserJoined, protocol.TypeTurnSwitched}, e.out.types(t, "alice"))
	require.True(t, e.out.last(t, "alice", protocol.TypeTurnSwitched, &turn))
	assert.Equal(t, want, turn)

	ts, err := e.turns.FinishTurn(ctx, code, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.TurnState{CurrentTurn: "carol", Round: 1}, ts)
}

func TestDisconnect_CleanupGuestBeforeStartOmitsTurn(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.readyRoom(t)
	e.out.reset()
	ctx := context.Background()

	e.members.Disconnect(ctx, "bob")

	var left protocol.PlayerLeftPayload
	require.True(t, e.out.last(t, "alice", protocol.TypePlayerLeft, &left))
	assert.Empty(t, left.CurrentTurnID)
	assert.Zero(t, left.Round)
	e.out.reset()

	_, err := e.rooms.JoinRoom(ctx, code, "carol", "Carol")
	require.NoError(t, err)
	assert.Equal(t, []string{protocol.TypePlayerJoined}, e.out.types(t, "carol"))
	assert.Equal(t, []string{protocol.TypePlayerJoined, protocol.TypeUserJoined}, e.out.types(t, "alice"))
}

func TestDisconnect_CleanupHostClosesRoom(t *testing.T) {
	e := newEnv(PolicyCleanup)
	code := e.readyRoom(t)
	e.out.reset()
	ctx := context.Background()

	e.members.Disconnect(ctx, "alice")

	var closed protocol.RoomClosedPayload
	require.True(t, e.out.last(t, "bob", protocol.TypeRoomClosed, &closed))
	assert.Equal(t, protocol.RoomClosedPayload{RoomID: string(code), Reason: protocol.ReasonHostLeft}, closed)

	_, err := e.rooms.GetRoom(code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, 0, e.registry.Len())

	_, err = e.rooms.CreateRoom(ctx, "bob", "Bob")
	assert.NoError(t, err, "bob is free to open a new room")
	assert.Contains(t, e.journal.kinds(), domain.EventRoomClosed)
}

func TestDisconnect_CleanupLastPlayerDeletesRoom(t *testing.T) {
	e := newEnv(PolicyCleanup)
	ctx := context.Background()
	code, err := e.rooms.CreateRoom(ctx, "alice", "Alice")
	require.NoError(t, err)

	e.members.Disconnect(ctx, "alice")

	_, err = e.rooms.GetRoom(code)
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	_, err = e.rooms.JoinRoom(ctx, code, "bob", "Bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, 0, e.store.Len())
}

func TestDisconnect_RetainKeepsPhantomSeat(t *testing.T) {
	e := newEnv(PolicyRetain)
	code := e.readyRoom(t)
	e.out.reset()
	ctx := context.Background()

	e.members.Disconnect(ctx, "bob")

	assert.Empty(t, e.out.raw("alice"), "nothing is announced")
	room, err := e.rooms.GetRoom(code)
	require.NoError(t, err)
	assert.Len(t, room.Players, 2)

	_, err = e.rooms.JoinRoom(ctx, code, "carol", "Carol")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	_, bound := e.registry.Lookup("bob")
	assert.False(t, bound)
}

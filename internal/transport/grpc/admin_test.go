package grpcx

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/cwrk-planet/bowling-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeRooms struct {
	rooms []domain.Room
}

func (f fakeRooms) GetRoom(code domain.RoomCode) (domain.Room, error) {
	for _, r := range f.rooms {
		if r.Code == code {
			return r, nil
		}
	}
	return domain.Room{}, fmt.Errorf("get room %s: %w", code, domain.ErrRoomNotFound)
}

func (f fakeRooms) ListRooms() []domain.Room { return f.rooms }

func fixtureRooms() fakeRooms {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	waiting := domain.NewRoom("WAIT1", domain.Player{ID: "carol", Name: "Carol"}, at)
	playing := domain.NewRoom("PLAY1", domain.Player{ID: "alice", Name: "Alice"}, at)
	_ = playing.AddPlayer(domain.Player{ID: "bob", Name: "Bob"})
	_, _ = playing.Start("alice")
	return fakeRooms{rooms: []domain.Room{waiting.Clone(), playing.Clone()}}
}

// panicky wraps an AdminServer and panics on Stats.
type panicky struct {
	AdminServer
}

func (panicky) Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	panic("stats exploded")
}

func startAdmin(t *testing.T, srv AdminServer) *AdminClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(UnaryServerInterceptor(time.Second)))
	Register(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewAdminClient(conn, time.Second)
}

func TestAdmin_ListRooms(t *testing.T) {
	c := startAdmin(t, NewAdmin(fixtureRooms(), Counters{}))

	out, err := c.ListRooms(context.Background(), "req-1")
	require.NoError(t, err)

	rooms := out.GetFields()["rooms"].GetListValue().GetValues()
	require.Len(t, rooms, 2)
	first := rooms[0].GetStructValue().GetFields()
	assert.Equal(t, "WAIT1", first["code"].GetStringValue())
	assert.Equal(t, string(domain.StateWaiting), first["state"].GetStringValue())
	_, hasTurn := first["currentTurnId"]
	assert.False(t, hasTurn)
}

func TestAdmin_GetRoom(t *testing.T) {
	c := startAdmin(t, NewAdmin(fixtureRooms(), Counters{}))

	out, err := c.GetRoom(context.Background(), "", " play1 ")
	require.NoError(t, err)
	f := out.GetFields()
	assert.Equal(t, "PLAY1", f["code"].GetStringValue())
	assert.Equal(t, "alice", f["currentTurnId"].GetStringValue())
	assert.Equal(t, float64(1), f["round"].GetNumberValue())
	assert.True(t, f["started"].GetBoolValue())
	assert.Len(t, f["players"].GetListValue().GetValues(), 2)

	_, err = c.GetRoom(context.Background(), "", "NOPE1")
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = c.GetRoom(context.Background(), "", "  ")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAdmin_Stats(t *testing.T) {
	c := startAdmin(t, NewAdmin(fixtureRooms(), Counters{
		Connections:    func() int { return 5 },
		Seated:         func() int { return 3 },
		JournalDropped: func() int64 { return 2 },
	}))

	out, err := c.Stats(context.Background(), "")
	require.NoError(t, err)
	f := out.GetFields()
	assert.Equal(t, float64(2), f["rooms"].GetNumberValue())
	assert.Equal(t, float64(5), f["connections"].GetNumberValue())
	assert.Equal(t, float64(3), f["seated"].GetNumberValue())
	assert.Equal(t, float64(2), f["journalDropped"].GetNumberValue())

	byState := f["roomsByState"].GetStructValue().GetFields()
	assert.Equal(t, float64(1), byState[string(domain.StateWaiting)].GetNumberValue())
	assert.Equal(t, float64(1), byState[string(domain.StateInProgress)].GetNumberValue())
}

func TestAdmin_PanicBecomesInternal(t *testing.T) {
	c := startAdmin(t, panicky{AdminServer: NewAdmin(fixtureRooms(), Counters{})})

	_, err := c.Stats(context.Background(), "")
	assert.Equal(t, codes.Internal, status.Code(err))

	_, err = c.ListRooms(context.Background(), "")
	assert.NoError(t, err, "server keeps serving after a panic")
}

func TestDial_EmptyTarget(t *testing.T) {
	_, err := Dial("")
	assert.Error(t, err)
}

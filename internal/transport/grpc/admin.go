package grpcx

import (
	"context"
	"errors"
	"time"

	"github.com/cwrk-planet/bowling-server/internal/domain"
	"github.com/cwrk-planet/bowling-server/internal/protocol"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The admin API is read-only and uses well-known types only, so it needs no
// generated code.
const adminServiceName = "bowling.admin.v1.RoomAdmin"

const (
	methodListRooms = "/" + adminServiceName + "/ListRooms"
	methodGetRoom   = "/" + adminServiceName + "/GetRoom"
	methodStats     = "/" + adminServiceName + "/Stats"
)

type AdminServer interface {
	ListRooms(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetRoom(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Stats(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

type RoomReader interface {
	GetRoom(code domain.RoomCode) (domain.Room, error)
	ListRooms() []domain.Room
}

// Counters feeds Stats. Nil funcs report zero.
type Counters struct {
	Connections    func() int
	Seated         func() int
	JournalDropped func() int64
}

type Admin struct {
	rooms    RoomReader
	counters Counters
}

func NewAdmin(rooms RoomReader, counters Counters) *Admin {
	return &Admin{rooms: rooms, counters: counters}
}

func Register(s grpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&AdminServiceDesc, srv)
}

func (a *Admin) ListRooms(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	rooms := a.rooms.ListRooms()
	items := make([]any, 0, len(rooms))
	for i := range rooms {
		items = append(items, roomMap(&rooms[i]))
	}
	return newStruct(map[string]any{"rooms": items})
}

func (a *Admin) GetRoom(_ context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	code, err := protocol.NormalizeRoomCode(in.GetValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "room code is required")
	}
	room, err := a.rooms.GetRoom(code)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, status.Errorf(codes.NotFound, "room %s not found", code)
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return newStruct(roomMap(&room))
}

func (a *Admin) Stats(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	rooms := a.rooms.ListRooms()
	byState := map[string]any{}
	for i := range rooms {
		st := string(rooms[i].State())
		n, _ := byState[st].(int)
		byState[st] = n + 1
	}

	stats := map[string]any{
		"rooms":          len(rooms),
		"roomsByState":   byState,
		"connections":    0,
		"seated":         0,
		"journalDropped": int64(0),
	}
	if a.counters.Connections != nil {
		stats["connections"] = a.counters.Connections()
	}
	if a.counters.Seated != nil {
		stats["seated"] = a.counters.Seated()
	}
	if a.counters.JournalDropped != nil {
		stats["journalDropped"] = a.counters.JournalDropped()
	}
	return newStruct(stats)
}

func roomMap(r *domain.Room) map[string]any {
	players := make([]any, 0, len(r.Players))
	for _, p := range r.Players {
		players = append(players, map[string]any{
			"id":    string(p.ID),
			"name":  p.Name,
			"score": p.Score,
		})
	}
	m := map[string]any{
		"code":      string(r.Code),
		"state":     string(r.State()),
		"hostId":    string(r.HostID),
		"players":   players,
		"started":   r.Started,
		"round":     r.Round,
		"createdAt": r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if r.Started && len(r.Players) > 0 {
		m["currentTurnId"] = string(r.Turn().CurrentTurn)
	}
	return m
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

// -------- service descriptor --------

var AdminServiceDesc = grpc.ServiceDesc{
	ServiceName: adminServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRooms", Handler: listRoomsHandler},
		{MethodName: "GetRoom", Handler: getRoomHandler},
		{MethodName: "Stats", Handler: statsHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func listRoomsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).ListRooms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListRooms}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).ListRooms(ctx, req.(*emptypb.Empty))
	})
}

func getRoomHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).GetRoom(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetRoom}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).GetRoom(ctx, req.(*wrapperspb.StringValue))
	})
}

func statsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AdminServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodStats}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(AdminServer).Stats(ctx, req.(*emptypb.Empty))
	})
}

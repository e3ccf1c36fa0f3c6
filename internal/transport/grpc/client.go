package grpcx

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type AdminClient struct {
	cc      grpc.ClientConnInterface
	timeout time.Duration
}

func NewAdminClient(cc grpc.ClientConnInterface, timeout time.Duration) *AdminClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &AdminClient{cc: cc, timeout: timeout}
}

// Dial opens a plaintext connection; the admin port is meant for internal networks.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if target == "" {
		return nil, fmt.Errorf("admin client: empty target")
	}
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("admin client: new client failed: %w", err)
	}
	return conn, nil
}

func (c *AdminClient) ListRooms(ctx context.Context, requestID string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, requestID, methodListRooms, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) GetRoom(ctx context.Context, requestID, code string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, requestID, methodGetRoom, wrapperspb.String(code), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) Stats(ctx context.Context, requestID string) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, requestID, methodStats, &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) invoke(ctx context.Context, requestID, method string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, mdRequestID, requestID)
	}
	return c.cc.Invoke(ctx, method, in, out)
}

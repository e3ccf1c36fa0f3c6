// Command bowlingctl queries the admin gRPC API of a running bowling-server.
//
//	bowlingctl [--addr host:port] rooms
//	bowlingctl [--addr host:port] room CODE
//	bowlingctl [--addr host:port] stats
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	grpcx "github.com/cwrk-planet/bowling-server/internal/transport/grpc"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

func main() {
	addr := pflag.String("addr", "127.0.0.1:9090", "admin gRPC address")
	timeout := pflag.Duration("timeout", 5*time.Second, "per-call timeout")
	pflag.Parse()

	if err := run(*addr, *timeout, pflag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "bowlingctl:", err)
		os.Exit(1)
	}
}

func run(addr string, timeout time.Duration, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: bowlingctl [--addr host:port] rooms | room CODE | stats")
	}

	conn, err := grpcx.Dial(addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client := grpcx.NewAdminClient(conn, timeout)
	ctx := context.Background()
	reqID := uuid.NewString()

	var out *structpb.Struct
	switch args[0] {
	case "rooms":
		out, err = client.ListRooms(ctx, reqID)
	case "room":
		if len(args) < 2 {
			return fmt.Errorf("room: missing CODE")
		}
		out, err = client.GetRoom(ctx, reqID, args[1])
	case "stats":
		out, err = client.Stats(ctx, reqID)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		return err
	}

	b, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(out)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(b))
	return nil
}

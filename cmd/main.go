package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/cwrk-planet/bowling-server/config"
	"github.com/cwrk-planet/bowling-server/internal/logger"
	"github.com/cwrk-planet/bowling-server/internal/postgres"
	"github.com/cwrk-planet/bowling-server/internal/service"
	grpcx "github.com/cwrk-planet/bowling-server/internal/transport/grpc"
	httpx "github.com/cwrk-planet/bowling-server/internal/transport/http"
	"github.com/cwrk-planet/bowling-server/internal/transport/ws"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("logging.level: %v", err)
	}
	policy, err := service.ParseDisconnectPolicy(cfg.Rooms.DisconnectPolicy)
	if err != nil {
		log.Fatalf("rooms.disconnectPolicy: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.ParseEnv(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		Level:     level,
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
		Static:    []slog.Attr{
			slog.String("disconnect_policy", string(policy)),
		},
	})
	slog.Info("starting bowling-server", "env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- journal (optional) ---
	var (
		journal        service.Journal = service.NopJournal{}
		history        httpx.EventHistory
		journalDropped func() int64
		journalDone    = make(chan struct{})
	)
	journalCtx, stopJournal := context.WithCancel(context.Background())
	defer stopJournal()

	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        cfg.Postgres.MaxConns,
			ApplicationName: cfg.Logging.Service,
		})
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		defer pool.Close()

		repo := postgres.NewJournalRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("postgres: %v", err)
		}
		async := service.NewAsyncJournal(repo, cfg.Journal.Buffer)
		go func() {
			defer close(journalDone)
			async.Run(journalCtx)
		}()

		journal = async
		history = repo
		journalDropped = async.Dropped
		slog.Info("room journal enabled", "buffer", cfg.Journal.Buffer)
	} else {
		close(journalDone)
	}

	// --- services ---
	store := service.NewRoomStore(service.RandomCodes{}, cfg.Rooms.CodeAttempts)
	registry := service.NewRegistry()
	hub := ws.NewHub()

	roomSvc := service.NewRoomService(store, registry, hub, journal)
	turnSvc := service.NewTurnService(store, hub, journal)
	relaySvc := service.NewRelayService(store, hub)
	memberSvc := service.NewMemberService(store, registry, hub, journal, policy)

	// --- WS ---
	wsServer := ws.NewServer(hub, ws.Services{
		Rooms:   roomSvc,
		Turns:   turnSvc,
		Relay:   relaySvc,
		Members: memberSvc,
	}, ws.Options{
		PingEvery:      cfg.WS.PingEvery,
		WriteTimeout:   cfg.WS.WriteTimeout,
		ReadLimit:      cfg.WS.ReadLimit,
		SendBuffer:     cfg.WS.SendBuffer,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	// --- HTTP ---
	router := httpx.NewRouter(httpx.Deps{
		Handler:        httpx.NewHandler(roomSvc, history),
		WS:             wsServer.HandleWS,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})
	httpSrv := httpx.NewServer(httpx.ServerConfig{
		Addr:            cfg.HTTP.Addr,
		ReadTimeout:     cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:     cfg.HTTP.IdleTimeout,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
	}, router)
	httpSrv.RegisterOnShutdown(hub.CloseAll)

	// --- run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		return httpSrv.Run(gctx)
	})

	if cfg.GRPC.Addr != "" {
		grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcx.UnaryServerInterceptor(10 * time.Second)))
		grpcx.Register(grpcServer, grpcx.NewAdmin(roomSvc, grpcx.Counters{
			Connections:    hub.Len,
			Seated:         registry.Len,
			JournalDropped: journalDropped,
		}))

		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		g.Go(func() error {
			slog.Info("grpc listen", "addr", cfg.GRPC.Addr)
			return grpcServer.Serve(lis)
		})
		g.Go(func() error {
			<-gctx.Done()
			grpcServer.GracefulStop()
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		slog.Error("server error", "err", err)
	}

	// let queued journal events reach the database
	stopJournal()
	<-journalDone
	slog.Info("stopped", "rooms", store.Len(), "connections", hub.Len())
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lucas-remigio/graocerto.pt/config"
	"github.com/lucas-remigio/graocerto.pt/internal/postgres"
	"github.com/lucas-remigio/graocerto.pt/internal/relay"
	httpserver "github.com/lucas-remigio/graocerto.pt/internal/server/http"
	"github.com/lucas-remigio/graocerto.pt/internal/service"
	grpcx "github.com/lucas-remigio/graocerto.pt/internal/transport/grpc"
	httpx "github.com/lucas-remigio/graocerto.pt/internal/transport/http"
	"github.com/lucas-remigio/graocerto.pt/internal/transport/ws"
	"github.com/lucas-remigio/graocerto.pt/pkg/logger"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("load .env: %v", err)
	}

	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	instanceID := hostname() + "-" + uuid.NewString()[:8]
	logger.Init(logger.Config{
		Env:        logger.ParseEnv(cfg.Logging.Env),
		Service:    cfg.Logging.Service,
		Version:    cfg.Logging.Version,
		InstanceID: instanceID,
		Backend:    logger.Backend(cfg.Logging.Backend),
		Level:      logger.ParseLevel(cfg.Logging.Level),
		AddSource:  cfg.Logging.AddSource,
		Debug:      cfg.Logging.Debug,
	})
	slog.Info("starting relay", "env", cfg.Logging.Env, "version", cfg.Logging.Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- hub & ws ---
	hub := relay.NewHub()
	wsServer := ws.NewServer(hub, ws.Options{
		PingInterval:   cfg.WS.PingInterval,
		WriteWait:      cfg.WS.WriteWait,
		SendQueue:      cfg.WS.SendQueue,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		AllowedOrigins: cfg.HTTP.AllowOrigins,
	})

	// --- http ---
	router := httpx.NewRouter(httpx.RouterConfig{
		WSPath:         cfg.WS.Path,
		AllowedOrigins: cfg.HTTP.AllowOrigins,
		Debug:          cfg.HTTP.Debug,
	}, httpx.NewHandler(hub), wsServer.HandleWS)

	httpSrv := httpserver.New(httpserver.Config{
		Addr:        cfg.HTTP.Addr,
		ReadTimeout: cfg.HTTP.ReadTimeout,
		IdleTimeout: cfg.HTTP.IdleTimeout,
	}, router)
	httpSrv.OnShutdown = wsServer.Shutdown

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpSrv.Run(gctx) })

	// --- grpc health ---
	if cfg.GRPC.Addr != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Addr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv := grpcx.NewServer()
		g.Go(func() error { return grpcSrv.Serve(gctx, lis) })
	}

	// --- postgres snapshots ---
	if cfg.Postgres.DSN != "" {
		db, err := postgres.New(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        2,
			ApplicationName: cfg.Logging.Service,
		})
		if err != nil {
			// snapshots are optional, the relay keeps running without them
			slog.Error("postgres unavailable, snapshots disabled", "err", err)
		} else {
			defer db.Close()
			repo := postgres.NewSnapshotRepository(db.Pool)
			if snap := newSnapshotService(ctx, repo, hub, instanceID, cfg.Postgres.SnapshotInterval); snap != nil {
				g.Go(func() error { return snap.Run(gctx) })
			}
		}
	}

	if err := g.Wait(); err != nil {
		slog.Error("relay stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("relay stopped")
}

type snapshotStore interface {
	service.SnapshotWriter
	EnsureSchema(ctx context.Context) error
}

// newSnapshotService returns nil when the schema cannot be created; the relay runs without snapshots.
func newSnapshotService(ctx context.Context, store snapshotStore, source service.HealthSource, instanceID string, interval time.Duration) *service.SnapshotService {
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("postgres schema failed, snapshots disabled", "err", err)
		return nil
	}
	return service.NewSnapshotService(source, store, instanceID, interval)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "relay"
	}
	return h
}

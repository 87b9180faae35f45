// Package main provides the HTTP server for chatroom.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/chatroom-go/internal/classify"
	"github.com/raphaelgruber/chatroom-go/internal/config"
	"github.com/raphaelgruber/chatroom-go/internal/db"
	"github.com/raphaelgruber/chatroom-go/internal/db/mongo"
	"github.com/raphaelgruber/chatroom-go/internal/metrics"
	"github.com/raphaelgruber/chatroom-go/internal/server"
	"github.com/raphaelgruber/chatroom-go/internal/service"
	"github.com/raphaelgruber/chatroom-go/internal/store"
)

// Version is set at build time.
var Version = "0.1.0"

// backend is a RoomStore with a lifecycle.
type backend struct {
	store.RoomStore
	wipe  func(context.Context) error
	close func(context.Context) error
}

func main() {
	// Parse flags
	wipeDB := flag.Bool("wipe", false, "wipe all rooms on startup (testing only)")
	flag.Parse()

	if err := run(*wipeDB); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(wipe bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("starting chatroom-server", "version", Version, "port", cfg.Port, "store", cfg.StoreBackend, "classifier", cfg.ClassifierProvider)

	collector := metrics.NewCollector()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	rooms, err := openStore(ctx, cfg, logger, collector)
	cancel()
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer func() {
		if err := rooms.close(context.Background()); err != nil {
			logger.Error("failed to close store", "error", err)
		}
	}()

	// Wipe database if requested (via flag or env var)
	if wipe || os.Getenv("CHATROOM_WIPE_DB") == "true" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := rooms.wipe(ctx)
		cancel()
		if err != nil {
			return fmt.Errorf("wipe store: %w", err)
		}
		logger.Warn("store wiped")
	}

	classifier, err := classify.New(cfg, collector)
	if err != nil {
		// Sends still succeed with the default label
		logger.Warn("classifier unavailable, messages will be stored as neutral", "error", err)
		classifier = classify.NewTimed(classify.Disabled{}, collector)
	}

	svc := service.NewRoomService(rooms, classifier, logger,
		service.WithCollector(collector),
		service.WithModerateOnSend(cfg.ModerateOnSend),
	)

	srv := server.New(svc, collector, logger, server.Options{
		Version:    Version,
		CORSOrigin: cfg.CORSOrigin,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
	})
	defer srv.Close()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(sigCtx, ":"+cfg.Port); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger, collector *metrics.Collector) (*backend, error) {
	switch cfg.StoreBackend {
	case config.StoreSurreal:
		client, err := db.NewClient(ctx, db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}, logger, collector)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(ctx); err != nil {
			_ = client.Close(ctx)
			return nil, fmt.Errorf("initialize schema: %w", err)
		}
		return &backend{RoomStore: client, wipe: client.WipeData, close: client.Close}, nil

	case config.StoreMongo:
		s, err := mongo.NewStore(ctx, mongo.Config{URL: cfg.MongoURL, Database: cfg.MongoDatabase}, logger, collector)
		if err != nil {
			return nil, err
		}
		return &backend{RoomStore: s, wipe: s.WipeData, close: s.Close}, nil

	case config.StoreMemory:
		m := store.NewMemory()
		noop := func(context.Context) error { return nil }
		return &backend{RoomStore: m, wipe: noop, close: noop}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

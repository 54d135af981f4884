package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terra-clan/grid-test-engine/internal/api"
	"github.com/terra-clan/grid-test-engine/internal/catalog"
	"github.com/terra-clan/grid-test-engine/internal/config"
	"github.com/terra-clan/grid-test-engine/internal/generator"
	"github.com/terra-clan/grid-test-engine/internal/health"
	"github.com/terra-clan/grid-test-engine/internal/storage"
)

func main() {
	// Setup structured logging
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	level.Set(cfg.Log.Level)

	slog.Info("starting grid-test-engine",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Backend,
		"sequence", cfg.Sequence.Backend,
	)

	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer initCancel()

	// Build the topic catalog; without it nothing can be served
	loader := catalog.NewLoader(cfg.Catalog.Dir)
	if err := loader.Initialize(initCtx); err != nil {
		slog.Error("failed to initialize catalog", "dir", cfg.Catalog.Dir, "error", err)
		os.Exit(1)
	}

	checks := health.NewRegistry()

	repo, err := newRepository(initCtx, cfg)
	if err != nil {
		slog.Error("failed to create repository", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	checks.Register("storage", health.CheckerFunc(repo.Ping))

	var sequence generator.Sequence
	switch cfg.Sequence.Backend {
	case config.SequenceRedis:
		client, err := storage.NewRedisClient(initCtx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			slog.Error("failed to connect to redis", "address", cfg.Redis.Address, "error", err)
			os.Exit(1)
		}
		redisSeq := storage.NewRedisSequence(client, cfg.Redis.Key, repo)
		defer redisSeq.Close()
		checks.Register("redis", redisSeq)
		sequence = redisSeq
		slog.Info("redis sequence connected", "address", cfg.Redis.Address, "key", cfg.Redis.Key)
	default:
		sequence = storage.NewScanSequence(repo)
	}

	feed := api.NewFeed()
	defer feed.Close()

	gen := generator.New(loader, repo, sequence, generator.Options{
		TopicsPerTest: cfg.Generator.TopicsPerTest,
		Publisher:     feed,
	})

	// Setup HTTP server
	server := api.NewServer(cfg, loader, gen, repo, checks, feed)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("grid-test-engine stopped")
}

func newRepository(ctx context.Context, cfg *config.Config) (storage.Repository, error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
			DSN:         cfg.Database.DSN,
			MaxConns:    int32(cfg.Database.MaxConns),
			MinConns:    int32(cfg.Database.MinConns),
			MaxLifetime: cfg.Database.MaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		slog.Info("database connected successfully")
		return repo, nil
	default:
		slog.Info("storing generated tests on disk", "dir", cfg.Storage.GeneratedDir)
		return storage.NewFileRepository(cfg.Storage.GeneratedDir), nil
	}
}

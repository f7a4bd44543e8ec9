package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/saumyabaranwal/campus-connect/internal/api"
	"github.com/saumyabaranwal/campus-connect/internal/chat"
	"github.com/saumyabaranwal/campus-connect/internal/config"
	"github.com/saumyabaranwal/campus-connect/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the data store
	ds, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("store initialization failed")
	}
	defer ds.Close()
	logger.Info().Str("backend", cfg.StoreBackend).Msg("store ready")

	// Seed the demo account and sample listings on first run
	if err := store.Seed(ctx, ds); err != nil {
		logger.Fatal().Err(err).Msg("seeding failed")
	}

	// Initialize Redis (optional: enables rate limiting)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Start the chat hub
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	hub := chat.NewHub(ds, logger)
	go hub.Run(hubCtx)

	// Create router
	router := api.NewRouter(logger, ds, redisStore, hub, cfg)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting Campus Connect server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// Stop the hub after the listener drains so in-flight sends finish
	stopHub()

	logger.Info().Msg("server stopped")
}

// openStore constructs the configured persistence backend.
func openStore(ctx context.Context, cfg *config.Config) (store.DataStore, error) {
	switch cfg.StoreBackend {
	case "sqlite":
		return store.NewSQLiteStore(ctx, cfg.SQLitePath)
	case "postgres":
		return store.NewPostgresStore(ctx, cfg.DatabaseURL)
	case "badger":
		return store.NewBadgerStore(ctx, cfg.BadgerPath)
	default:
		return store.NewFileStore(cfg.DataDir)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arcade-leaderboard/internal/config"
	"github.com/arcade-leaderboard/internal/handler"
	"github.com/arcade-leaderboard/internal/remote"
	"github.com/arcade-leaderboard/internal/service"
	"github.com/arcade-leaderboard/internal/store"
	"github.com/arcade-leaderboard/internal/websocket"
	"github.com/arcade-leaderboard/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	playerName := flag.String("player", "", "Display name for the current player (overrides $PLAYER_NAME)")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize local leaderboard store
	localStore := store.New(cfg.Store.Path, logger)
	logger.Info("local leaderboard store ready", "path", cfg.Store.Path)

	// Initialize hosted leaderboard client
	remoteClient, err := remote.NewClient(&cfg.Remote, logger)
	if err != nil {
		logger.Error("failed to create remote leaderboard client", "error", err)
		os.Exit(1)
	}
	if cfg.Remote.RelayURL != "" {
		logger.Info("remote submissions routed through relay", "relay", cfg.Remote.RelayURL)
	}

	// Resolve the display name once; the identity provider is the
	// environment here.
	name := *playerName
	if name == "" {
		name = os.Getenv("PLAYER_NAME")
	}
	names := service.NameProviderFunc(func() string { return name })

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize the submission orchestrator
	orchestrator := service.NewOrchestrator(
		localStore,
		remoteClient,
		names,
		&cfg.Leaderboard,
		logger,
	)
	orchestrator.SetHub(wsHub)

	// Initialize retention worker
	retentionWorker := worker.NewRetentionWorker(localStore, &cfg.Retention, logger)
	if cfg.Retention.Enabled {
		if err := retentionWorker.Start(ctx); err != nil {
			logger.Error("failed to start retention worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(orchestrator, wsHub, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop retention worker
	if cfg.Retention.Enabled {
		if err := retentionWorker.Stop(); err != nil {
			logger.Error("failed to stop retention worker", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}

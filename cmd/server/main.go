// recall-relay - meeting-bot webhook relay server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/meetsync/recall-relay/internal/api"
	"github.com/meetsync/recall-relay/internal/config"
	"github.com/meetsync/recall-relay/internal/feed"
	"github.com/meetsync/recall-relay/internal/middleware"
	"github.com/meetsync/recall-relay/internal/privacy"
	"github.com/meetsync/recall-relay/internal/recall"
	"github.com/meetsync/recall-relay/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize the session store.
	var sessions store.SessionStore
	if cfg.DBPath != "" {
		sessions, err = store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		slog.Info("Using SQLite session store", "path", cfg.DBPath)
	} else {
		sessions = store.NewMemory()
		slog.Info("Using in-memory session store")
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Failed to close session store", "error", closeErr)
		}
	}()

	if err := sessions.Ping(context.Background()); err != nil {
		slog.Error("Session store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Session store ready")

	// Initialize the outbound platform client and the orchestrator.
	botAPI, err := recall.NewClient(recall.ClientConfig{
		APIBase: cfg.RecallAPIBase,
		Token:   cfg.RecallAPIToken,
		Timeout: cfg.RecallTimeout,
	})
	if err != nil {
		slog.Error("Failed to initialize bot platform client", "error", err)
		os.Exit(1)
	}
	orchestrator := privacy.NewOrchestrator(botAPI, cfg.PauseDuration)

	// A background workflow spans the pause window plus four outbound calls.
	runTimeout := cfg.PauseDuration + 4*cfg.RecallTimeout

	// Initialize handlers.
	hub := feed.NewHub()
	baseHandler := api.NewHandler(sessions, hub)
	webhookHandler := api.NewWebhookHandler(baseHandler, orchestrator, cfg.WebhookSecret, runTimeout)
	sessionHandler := api.NewSessionHandler(baseHandler)
	feedHandler := api.NewFeedHandler(baseHandler, cfg.FrontendURL, cfg.IsDevelopment())
	healthHandler := api.NewHealthHandler(sessions)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	corsOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		corsOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(corsOrigins))

	healthHandler.RegisterHealth(r)
	webhookHandler.RegisterRoutes(r)
	sessionHandler.RegisterRoutes(r)
	feedHandler.RegisterRoutes(r)

	// Create server. No WriteTimeout: the transcript feed holds connections
	// open indefinitely.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start session retention sweeper.
	store.StartRetentionWorker(ctx, sessions, cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

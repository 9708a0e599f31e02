package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/saturnino-fabrica-de-software/vigia/internal/api"
	"github.com/saturnino-fabrica-de-software/vigia/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/vigia/internal/bootstrap"
	"github.com/saturnino-fabrica-de-software/vigia/internal/config"
	"github.com/saturnino-fabrica-de-software/vigia/internal/service"
	"github.com/saturnino-fabrica-de-software/vigia/internal/session"
	"github.com/saturnino-fabrica-de-software/vigia/internal/webhook"
	"github.com/saturnino-fabrica-de-software/vigia/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Local development keeps settings in .env; in containers the file is absent
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Vigia API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("store", cfg.Store),
		slog.String("provider", cfg.ProviderType),
	)

	if cfg.APIKey == "" {
		logger.Warn("API_KEY is empty, authentication is disabled")
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer components.Store.Close()

	// Event hub
	hub := ws.NewHub(logger)
	hubCtx, cancelHub := context.WithCancel(context.Background())
	defer cancelHub()
	go hub.Run(hubCtx)

	events := service.Publishers{hub}

	// Webhook notifications
	if cfg.WebhookURL != "" {
		whCfg := webhook.DefaultConfig(cfg.WebhookURL, cfg.WebhookSecret)
		whCfg.Events = cfg.WebhookEvents
		whCfg.MaxAttempts = cfg.WebhookMaxAttempts
		notifier := webhook.NewNotifier(whCfg, logger)
		go notifier.Run(hubCtx)
		events = append(events, notifier)
	}

	components.Enrollment.WithEvents(events)

	// Sessions, evicted when idle
	var recognition *service.RecognitionService
	sessions := session.NewRegistry(components.Engine, session.Config{
		MaxSessions: cfg.MaxSessions,
		IdleTimeout: cfg.SessionIdleTimeout,
		OnEvict: func(id string) {
			recognition.SessionEvicted(id)
		},
	}, logger)
	recognition = service.NewRecognitionService(components.Engine, sessions, components.Snapshots, logger).
		WithEvents(events)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go sessions.Run(sweepCtx)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Enrollment:  components.Enrollment,
		Recognition: recognition,
		Hub:         hub,
		APIKey:      cfg.APIKey,
		RateLimit: middleware.RateLimiterConfig{
			Max:         cfg.RateLimitMax,
			Window:      cfg.RateLimitWindow,
			PerEndpoint: middleware.EnrollmentRateLimits(),
		},
		MaxImageBytes:   int64(cfg.MaxImageBytes),
		MaxEnrollImages: cfg.MaxEnrollImages,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("shutting down server...")
		if err := router.Shutdown(); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	cancelSweep()
	cancelHub()
	logger.Info("server stopped",
		slog.Int("open_sessions", recognition.ActiveSessions()),
	)

	return nil
}

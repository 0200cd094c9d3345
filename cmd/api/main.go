package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floorwatch/floorwatch/internal/alert"
	"github.com/floorwatch/floorwatch/internal/api"
	"github.com/floorwatch/floorwatch/internal/config"
	"github.com/floorwatch/floorwatch/internal/domain"
	"github.com/floorwatch/floorwatch/internal/feed"
	"github.com/floorwatch/floorwatch/internal/normalize"
	"github.com/floorwatch/floorwatch/internal/repository"
	"github.com/floorwatch/floorwatch/internal/service"
	"github.com/floorwatch/floorwatch/internal/sim"
	"github.com/floorwatch/floorwatch/internal/store"
	"github.com/floorwatch/floorwatch/internal/webhook"
	"github.com/floorwatch/floorwatch/internal/world"
	"github.com/floorwatch/floorwatch/internal/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting FloorWatch API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Static world geometry; a broken floor plan aborts startup
	zoneMap, err := world.LoadZoneMapFile(cfg.ZoneMapPath)
	if err != nil {
		return fmt.Errorf("failed to load zone map: %w", err)
	}

	var calibration *world.CalibrationFile
	if cfg.CalibrationPath != "" {
		calibration, err = world.LoadCalibrationFile(cfg.CalibrationPath)
		if err != nil {
			return fmt.Errorf("failed to load calibration: %w", err)
		}
	}

	w, err := world.New(zoneMap, calibration, world.Options{
		HolePadding: cfg.HolePadding,
		EdgePadding: cfg.EdgePadding,
	})
	if err != nil {
		return fmt.Errorf("failed to build world: %w", err)
	}

	logger.Info("world loaded",
		slog.Int("zones", len(w.Zones())),
		slog.Int("cameras", w.CameraCount()),
	)

	// In-memory event set and normalization
	eventStore := store.NewEventStore()
	adapter := normalize.NewAdapter(w)

	ingest := service.NewIngestService(adapter, eventStore, logger, normalize.FeedOptions{
		MaxEvents:       cfg.MaxFeedEvents,
		FallbackStoreID: cfg.StoreID,
	})

	// WebSocket hub
	hub := ws.NewHub()
	go hub.Run()
	ingest.SetHub(hub)

	// Optional incident alerting over signed webhooks
	var notifier *alert.Notifier
	if cfg.AlertingEnabled() {
		webhookService := webhook.NewService()
		engine := alert.NewEngine([]alert.Rule{{
			Name:        "high-severity",
			MinSeverity: cfg.AlertMinSeverity,
			Cooldown:    cfg.AlertCooldown,
		}})
		endpoints := []webhook.Endpoint{{
			Name:    "primary",
			URL:     cfg.WebhookURL,
			Secret:  cfg.WebhookSecret,
			Enabled: true,
		}}
		notifier = alert.NewNotifier(webhookService, endpoints, engine, logger)
		ingest.SetAlerter(notifier)
		go webhook.NewWorker(webhookService, logger).Run(ctx)
		logger.Info("incident alerting enabled", slog.Int("min_severity", cfg.AlertMinSeverity))
	}

	// Optional Postgres event archive
	var (
		pool    *pgxpool.Pool
		archive repository.EventArchiveInterface
	)
	deps := &api.Dependencies{
		World:   w,
		Store:   eventStore,
		Ingest:  ingest,
		Hub:     hub,
		StoreID: cfg.StoreID,
	}
	if cfg.ArchiveEnabled() {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to create database pool: %w", err)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("failed to ping database: %w", err)
		}

		archive = repository.NewEventArchive(pool)
		ingest.SetArchive(archive)
		deps.Archive = archive
		deps.DB = pool
		logger.Info("event archive enabled")
	}

	// Patrol simulation
	simulator := sim.New(w, eventStore, logger, sim.Config{
		AgentCount:     cfg.AgentCount,
		TickPeriod:     cfg.TickPeriod,
		LivenessWindow: cfg.LivenessWindow,
	})
	simulator.OnTick(func(agents []domain.Agent) {
		hub.BroadcastToStore(cfg.StoreID, ws.EventAgentsTick, agents)
	})
	go simulator.Run(ctx)
	deps.Simulator = simulator

	// Optional Kafka detection feed
	if cfg.KafkaEnabled() {
		consumer, err := feed.NewConsumer(feed.Config{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			GroupID: cfg.KafkaGroupID,
			Normalize: normalize.Options{
				FallbackStoreID: cfg.StoreID,
				DefaultSource:   domain.SourceCamera,
			},
		}, adapter, eventStore, logger)
		if err != nil {
			return fmt.Errorf("failed to create kafka consumer: %w", err)
		}
		defer func() { _ = consumer.Close() }()

		consumer.OnEvent = func(event *domain.Event) {
			hub.BroadcastToStore(event.StoreID, ws.EventIngested, event)
			if notifier != nil {
				if err := notifier.Dispatch(ctx, event); err != nil {
					logger.Warn("failed to dispatch alert", slog.Any("error", err))
				}
			}
		}

		go func() {
			if err := consumer.Run(ctx); err != nil {
				logger.Error("kafka consumer stopped", slog.Any("error", err))
			}
		}()
	}

	// Setup router
	router := api.NewRouter(logger, deps)
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

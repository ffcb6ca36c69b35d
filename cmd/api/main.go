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

	"github.com/saturnino-fabrica-de-software/facegate/internal/api"
	"github.com/saturnino-fabrica-de-software/facegate/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/facegate/internal/audit"
	"github.com/saturnino-fabrica-de-software/facegate/internal/config"
	"github.com/saturnino-fabrica-de-software/facegate/internal/database"
	"github.com/saturnino-fabrica-de-software/facegate/internal/face"
	"github.com/saturnino-fabrica-de-software/facegate/internal/metrics"
	"github.com/saturnino-fabrica-de-software/facegate/internal/pixel"
	"github.com/saturnino-fabrica-de-software/facegate/internal/quality"
	"github.com/saturnino-fabrica-de-software/facegate/internal/service"
	"github.com/saturnino-fabrica-de-software/facegate/internal/similarity"
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

	logger.Info("starting Facegate API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("engine", cfg.EmbeddingEngine),
		slog.String("model", cfg.ModelName),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Embedding engine, constructed on first use
	engine, err := face.NewEngine(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure engine: %w", err)
	}

	manager := metrics.NewManager()

	locator := face.NewLocator(engine, quality.NewScorer(), face.LocatorConfig{
		MinConfidence:    cfg.DetectionConfidence,
		MinFaceSize:      cfg.MinFaceSize,
		QualityThreshold: cfg.QualityThreshold,
	}, logger)

	pipeline := service.NewPipeline(
		pixel.NewValidator(cfg.MinImageSize, cfg.MaxImageSize),
		locator,
		face.NewExtractor(engine),
		similarity.NewComparator(cfg.EmbeddingDimension, cfg.VerificationThreshold),
		logger,
		service.WithRecorder(manager),
		service.WithTimeout(cfg.RequestTimeout),
	)

	probes := map[string]handler.Probe{
		"engine": engine.Ping,
	}

	// Audit trail: structured log always, Postgres when enabled
	var auditor audit.Logger = audit.NewSlogLogger(logger)
	var pool *pgxpool.Pool
	if cfg.AuditDBEnabled {
		if err := database.MigrateUp(ctx, cfg.DatabaseURL, logger); err != nil {
			return fmt.Errorf("failed to migrate audit database: %w", err)
		}

		pool, err = database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("failed to connect to audit database: %w", err)
		}
		defer pool.Close()

		auditor = audit.NewMultiLogger(auditor, audit.NewPostgresLogger(pool, audit.DefaultWriteTimeout))
		probes["database"] = func(ctx context.Context) error {
			return database.HealthCheck(ctx, pool)
		}
		logger.Info("audit database enabled")
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Pipeline: pipeline,
		Auditor:  auditor,
		Metrics:  manager,
		Probes:   probes,
	}, api.Options{
		BodyLimit: cfg.MaxUploadBytes,
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

	logger.Info("shutting down server...")
	done := make(chan error, 1)
	go func() {
		done <- router.Shutdown()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out, in-flight requests dropped")
	}

	logger.Info("server stopped")

	return nil
}

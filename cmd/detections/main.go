package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/threatforge/detection-platform/internal/cache"
	"github.com/threatforge/detection-platform/internal/config"
	"github.com/threatforge/detection-platform/internal/events"
	"github.com/threatforge/detection-platform/internal/handlers"
	"github.com/threatforge/detection-platform/internal/logging"
	"github.com/threatforge/detection-platform/internal/repository"
	"github.com/threatforge/detection-platform/internal/server"
	"github.com/threatforge/detection-platform/internal/service"
	"github.com/threatforge/detection-platform/internal/validation"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "detections",
		Short: "Detection validation and management service",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the detection service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	slog.SetDefault(logger)

	connString := cfg.Database.Postgres.ConnString()

	logger.Info("running database migrations")
	m, err := migrate.New("file://migrations", connString)
	if err != nil {
		return fmt.Errorf("initialize migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewPostgresRepository(ctx, connString, logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer repo.Close()

	var validationCache cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer client.Close()
		validationCache = cache.NewRedis(client, cfg.Cache.TTL, logger)
		logger.Info("validation cache backend", "backend", "redis", "addr", cfg.Cache.Redis.Addr)
	default:
		validationCache = cache.NewMemory()
		logger.Info("validation cache backend", "backend", "memory")
	}

	var publisher service.EventPublisher
	if cfg.Events.Enabled {
		p, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer p.Close()
		publisher = p
		logger.Info("event publishing enabled", "subject", cfg.Events.Subject)
	}

	validator := validation.NewValidator(validation.NewRegistry(), validationCache)
	svc := service.New(repo, validator, publisher, logger,
		cfg.Validation.MinQualityScore, cfg.Validation.DefaultTimeout)
	handler := handlers.NewHandler(svc)

	go repo.RunRetentionSweeper(ctx,
		cfg.Validation.RetentionSweepInterval, cfg.Validation.RetentionWindow)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("detection service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	portsrepo "github.com/SscSPs/mining_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/mining_ledger/internal/core/services"
	"github.com/SscSPs/mining_ledger/internal/handlers"
	"github.com/SscSPs/mining_ledger/internal/middleware"
	"github.com/SscSPs/mining_ledger/internal/platform/config"
	"github.com/SscSPs/mining_ledger/internal/platform/lock"
	"github.com/SscSPs/mining_ledger/internal/platform/metrics"
	"github.com/SscSPs/mining_ledger/internal/platform/notify"
	"github.com/SscSPs/mining_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/mining_ledger/internal/repositories/memory"
	"github.com/SscSPs/mining_ledger/internal/scheduler"
	"github.com/SscSPs/mining_ledger/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	notifyQueueSize = 1024
	accrualTimeout  = 30 * time.Minute
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.IsProduction {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sender, closeSender, err := newSender(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSender()
	dispatcher := notify.NewDispatcher(sender, cfg.NotifyWorkers, notifyQueueSize, logger)

	svc := services.NewServiceContainer(cfg, repos, services.WithNotifier(dispatcher))

	var accrual *scheduler.AccrualScheduler
	if cfg.AccrualEnabled {
		locker, closeLocker, err := newLocker(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeLocker()

		accrual, err = scheduler.NewAccrualScheduler(svc.Accrual, scheduler.Options{
			Schedule: cfg.AccrualSchedule,
			Timeout:  accrualTimeout,
			Locker:   locker,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create accrual scheduler: %w", err)
		}
		accrual.Start()
	} else {
		logger.Info("Profit accrual scheduler disabled.")
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	if err := handlers.RegisterRoutes(r, cfg, svc); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received.")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
	}
	if accrual != nil {
		if err := accrual.Stop(); err != nil {
			logger.Error("Accrual scheduler shutdown failed", slog.String("error", err.Error()))
		}
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		logger.Warn("Notification queue not fully drained", slog.String("error", err.Error()))
	}
	logger.Info("Server stopped.")
	return nil
}

// openStore connects to PostgreSQL when configured, falling back to the
// in-memory store for local runs.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("Using the in-memory store; data is lost on restart.")
		return memory.New().Provider(), func() {}, nil
	}

	pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{
		MaxConns:       cfg.DBMaxConns,
		ConnectTimeout: 10 * time.Second,
	}, logger)
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}
	closePool := func() { database.ClosePgxPool(pool, logger) }

	if cfg.RunMigrations {
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			closePool()
			return portsrepo.RepositoryProvider{}, nil, err
		}
	}
	return pgsql.NewRepositoryProvider(pool), closePool, nil
}

// runMigrations applies every pending "up" migration under ./migrations.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return fmt.Errorf("migration close failed: %w", errors.Join(sourceErr, dbErr))
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func newSender(cfg *config.Config, logger *slog.Logger) (notify.Sender, func(), error) {
	if cfg.NATSURL == "" {
		return notify.LogSender{Logger: logger}, func() {}, nil
	}
	sender, err := notify.NewNATSSender(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return sender, func() {
		if err := sender.Close(); err != nil {
			logger.Error("Error draining NATS connection", slog.String("error", err.Error()))
		}
	}, nil
}

// newLocker returns a Redis-backed job lock when REDIS_URL is set, nil otherwise.
func newLocker(ctx context.Context, cfg *config.Config, logger *slog.Logger) (gocron.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return nil, func() {}, nil
	}
	client, err := lock.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Accrual job lock backed by redis.")
	return lock.NewRedisLocker(client, accrualTimeout), func() {
		if err := client.Close(); err != nil {
			logger.Error("Error closing redis client", slog.String("error", err.Error()))
		}
	}, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spmiller41/saleset-v2-sub000/internal/appointments"
	"github.com/spmiller41/saleset-v2-sub000/internal/crm"
	"github.com/spmiller41/saleset-v2-sub000/internal/eventcache"
	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	apphttp "github.com/spmiller41/saleset-v2-sub000/internal/http"
	"github.com/spmiller41/saleset-v2-sub000/internal/http/router"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/intake"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/service"
	"github.com/spmiller41/saleset-v2-sub000/internal/scheduler"
	"github.com/spmiller41/saleset-v2-sub000/internal/shortener"
	"github.com/spmiller41/saleset-v2-sub000/internal/webhook"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/db"
	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
	"github.com/spmiller41/saleset-v2-sub000/platform/validator"
)

const (
	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg, "saleset-api")
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	// In-process bus: CRM sync listens for created leads
	eventBus := events.NewInMemoryBus(log)

	val := validator.New()

	dedup, closeDedup := initEventDedup(cfg, log)
	if closeDedup != nil {
		defer closeDedup()
	}

	taskClient, closeTasks := initTaskClient(cfg, log)
	if closeTasks != nil {
		defer closeTasks()
	}

	// ========================================================================
	// Modules
	// ========================================================================

	if taskClient != nil && cfg.IsCRMEnabled() {
		crm.RegisterHandlers(eventBus, taskClient, log)
		log.Info("crm sync enabled")
	}

	var linkShortener intake.Shortener
	if client := shortener.NewClient(cfg, log); client != nil {
		linkShortener = client
	}

	leadsModule := leads.NewModule(pool, eventBus, val, cfg, linkShortener, dedup, log)
	appointmentsModule := appointments.NewModule(pool, eventBus, val, log)

	modules := []apphttp.Module{leadsModule, appointmentsModule}
	if webhookModule := webhook.NewModule(cfg, leadsModule.Submitter(), log); webhookModule != nil {
		modules = append(modules, webhookModule)
		log.Info("google lead webhook enabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	intakeLimiter := httpkit.NewIntakeRateLimiter(log)
	go intakeLimiter.Run(ctx, limiterSweepInterval, limiterIdleTTL)

	app := &apphttp.App{
		Config:        cfg,
		Logger:        log,
		Health:        pool,
		IntakeLimiter: intakeLimiter,
		Modules:       modules,
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
		eventBus.Wait()
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initEventDedup(cfg *config.Config, log *logger.Logger) (service.Deduplicator, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; interaction events are not deduplicated")
		return nil, nil
	}

	rdb, err := eventcache.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize event dedup client", "error", err)
		return nil, nil
	}

	return eventcache.New(rdb, cfg.GetEventDedupWindow()), func() {
		_ = rdb.Close()
	}
}

func initTaskClient(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; crm sync disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

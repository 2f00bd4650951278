package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/spmiller41/saleset-v2-sub000/internal/crm"
	"github.com/spmiller41/saleset-v2-sub000/internal/email"
	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/engagement"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/followup"
	leadrepo "github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/internal/notification"
	"github.com/spmiller41/saleset-v2-sub000/internal/scheduler"
	"github.com/spmiller41/saleset-v2-sub000/internal/sms"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/db"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "window", cfg.GetFollowUpWindow(), "interval", cfg.GetScanInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg, "saleset-scheduler")
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

	eventBus := events.NewInMemoryBus(log)
	repo := leadrepo.New(pool)
	engine := engagement.NewEngine(cfg.GetLocation())

	processor := followup.NewProcessor(repo, newNotifier(cfg, log), engine, cfg.GetEngagementRules(), eventBus, log)

	var syncer scheduler.LeadSyncer
	if client := crm.NewClient(cfg, log); client != nil {
		syncer = crm.NewSyncer(repo, client)
	}

	taskClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		panic("failed to initialize task client: " + err.Error())
	}
	defer func() { _ = taskClient.Close() }()

	worker, err := scheduler.NewWorker(cfg, processor, syncer, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	scanner := followup.NewScanner(repo, taskClient, cfg.GetFollowUpWindow(), cfg.GetScanInterval(), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		scanner.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("scheduler stopped", "error", err)
	}
	eventBus.Wait()
	log.Info("scheduler stopped")
}

func newNotifier(cfg *config.Config, log *logger.Logger) *notification.Notifier {
	var smsSender notification.SMSSender
	if client := sms.NewClient(cfg, log); client != nil {
		smsSender = client
	} else {
		log.Warn("SMS gateway not configured; follow-ups go out by email only")
	}

	var emailSender email.Sender
	if sender := email.NewSMTPSender(cfg); sender != nil {
		emailSender = sender
	} else {
		log.Warn("SMTP not configured; follow-ups go out by SMS only")
	}

	return notification.New(smsSender, emailSender, cfg.GetTrackingBaseURL(), log)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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

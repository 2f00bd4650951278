package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/followup"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// FollowUpProcessor delivers one due follow-up.
type FollowUpProcessor interface {
	Process(ctx context.Context, leadID uuid.UUID, dueAt time.Time) (domain.Lead, error)
}

// LeadSyncer pushes one lead to the CRM.
type LeadSyncer interface {
	Sync(ctx context.Context, leadID uuid.UUID) error
}

type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	followUps FollowUpProcessor
	syncer    LeadSyncer
	log       *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, followUps FollowUpProcessor, syncer LeadSyncer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:    server,
		followUps: followUps,
		syncer:    syncer,
		log:       log,
	}
	w.mux = w.routes()

	return w, nil
}

func (w *Worker) routes() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFollowUpDue, w.handleFollowUpDue)
	mux.HandleFunc(TaskCRMSyncLead, w.handleCRMSyncLead)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleFollowUpDue(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpDuePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	_, err = w.followUps.Process(ctx, leadID, payload.DueAt)
	if errors.Is(err, followup.ErrStale) {
		w.log.TaskSkipped(TaskFollowUpDue, "superseded", "lead_id", leadID, "due_at", payload.DueAt)
		return nil
	}
	if errors.Is(err, followup.ErrUndelivered) {
		w.log.Warn("follow-up not delivered", "lead_id", leadID, "error", err)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return err
}

func (w *Worker) handleCRMSyncLead(ctx context.Context, task *asynq.Task) error {
	if w.syncer == nil {
		return nil
	}

	payload, err := ParseCRMSyncLeadPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	return w.syncer.Sync(ctx, leadID)
}

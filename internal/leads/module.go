// Package leads assembles the lead intake, tracking and stage override endpoints.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	apphttp "github.com/spmiller41/saleset-v2-sub000/internal/http"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/engagement"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/handler"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/intake"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/repository"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/service"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
	"github.com/spmiller41/saleset-v2-sub000/platform/validator"
)

// Module implements http.Module for the leads bounded context.
type Module struct {
	handler *handler.Handler
}

// NewModule wires the intake pipeline and the tracking and admin endpoints. shortener
// and dedup may be nil.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg *config.Config, shortener intake.Shortener, dedup service.Deduplicator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	engine := engagement.NewEngine(cfg.GetLocation())

	links := intake.NewLinkBuilder(cfg.GetBookingBaseURL(), cfg.GetTrackingBaseURL(), shortener)
	pipeline := intake.NewPipeline(repo, engine, links, eventBus, log, cfg.GetFollowUpWindow())
	svc := service.New(repo, dedup, eventBus, log, cfg.GetLocation())

	return &Module{
		handler: handler.New(pipeline, svc, val, cfg.GetPhoneDefaultRegion(), log),
	}
}

func (m *Module) Name() string {
	return "leads"
}

// Submitter validates and submits leads arriving from other channels.
func (m *Module) Submitter() *handler.Handler {
	return m.handler
}

// RegisterRoutes mounts the public intake routes behind the intake rate limiter and
// the stage override under the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("", ctx.IntakeRateLimiter.RateLimit())
	m.handler.RegisterRoutes(public)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)

// Package appointments books appointments against a lead's tracking token.
package appointments

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/handler"
	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/repository"
	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/service"
	"github.com/spmiller41/saleset-v2-sub000/internal/events"
	apphttp "github.com/spmiller41/saleset-v2-sub000/internal/http"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
	"github.com/spmiller41/saleset-v2-sub000/platform/validator"
)

// Module implements http.Module for appointment booking.
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), eventBus, log)
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

func (m *Module) Name() string {
	return "appointments"
}

// RegisterRoutes registers the booking route under /api/v1/appointments and the
// listing under the admin group.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/appointments", ctx.IntakeRateLimiter.RateLimit()))
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

var _ apphttp.Module = (*Module)(nil)

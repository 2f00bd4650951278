// Package webhook accepts leads pushed by ad platforms and feeds them into intake.
package webhook

import (
	apphttp "github.com/spmiller41/saleset-v2-sub000/internal/http"
	"github.com/spmiller41/saleset-v2-sub000/platform/config"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// Module mounts the ad platform lead webhooks.
type Module struct {
	handler *Handler
}

// NewModule returns nil when no webhook key is configured.
func NewModule(cfg config.WebhookConfig, submitter LeadSubmitter, log *logger.Logger) *Module {
	if cfg.GetGoogleWebhookKey() == "" {
		return nil
	}
	return &Module{handler: NewHandler(submitter, cfg.GetGoogleWebhookKey(), log)}
}

func (m *Module) Name() string {
	return "webhook"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Payload-authenticated, so no JWT and no intake rate limit: Google retries on 429.
	ctx.V1.POST("/webhook/google-leads", m.handler.HandleGoogleLeadWebhook)
}

var _ apphttp.Module = (*Module)(nil)

package webhook

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/intake"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/transport"
	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
)

// LeadSubmitter runs a lead from an external channel through intake.
type LeadSubmitter interface {
	Submit(ctx context.Context, req transport.SubmitLeadRequest) intake.Result
}

// Handler receives lead form pushes.
type Handler struct {
	submitter LeadSubmitter
	googleKey string
	log       *logger.Logger
}

func NewHandler(submitter LeadSubmitter, googleKey string, log *logger.Logger) *Handler {
	return &Handler{submitter: submitter, googleKey: googleKey, log: log}
}

// GoogleLeadWebhookResponse echoes the Google lead id with the intake outcome.
type GoogleLeadWebhookResponse struct {
	LeadID  string `json:"leadId"`
	Outcome string `json:"outcome"`
}

// HandleGoogleLeadWebhook authenticates the push by its shared key and submits the
// lead. Intake outcomes never change the status: Google only needs a 200.
func (h *Handler) HandleGoogleLeadWebhook(c *gin.Context) {
	var payload GoogleLeadPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	if payload.GoogleKey == "" {
		httpkit.Error(c, http.StatusUnauthorized, "missing google_key", nil)
		return
	}
	if subtle.ConstantTimeCompare([]byte(payload.GoogleKey), []byte(h.googleKey)) != 1 {
		httpkit.Error(c, http.StatusUnauthorized, "invalid google_key", nil)
		return
	}

	// Google expects 200 for test leads sent from the ads console.
	if payload.IsTest {
		h.log.Info("google test lead received", "google_lead_id", payload.LeadID, "form_id", payload.FormID)
		c.JSON(http.StatusOK, GoogleLeadWebhookResponse{LeadID: payload.LeadID, Outcome: "test"})
		return
	}

	result := h.submitter.Submit(c.Request.Context(), ToSubmitLeadRequest(payload))
	h.log.Info("google lead processed", "google_lead_id", payload.LeadID, "campaign_id", payload.CampaignID, "outcome", result.Outcome)

	c.JSON(http.StatusOK, GoogleLeadWebhookResponse{
		LeadID:  payload.LeadID,
		Outcome: string(result.Outcome),
	})
}

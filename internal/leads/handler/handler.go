package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/intake"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/service"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/transport"
	"github.com/spmiller41/saleset-v2-sub000/platform/apperr"
	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
	"github.com/spmiller41/saleset-v2-sub000/platform/logger"
	"github.com/spmiller41/saleset-v2-sub000/platform/phone"
	"github.com/spmiller41/saleset-v2-sub000/platform/sanitize"
	"github.com/spmiller41/saleset-v2-sub000/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"

	statusAccepted = "accepted"
)

// transparentPixel is a 1x1 transparent GIF.
var transparentPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00,
	0xff, 0xff, 0xff, 0x21, 0xf9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// IntakePipeline applies a lead submission to the record store.
type IntakePipeline interface {
	ManageLead(ctx context.Context, sub intake.Submission) intake.Result
}

type Handler struct {
	intake IntakePipeline
	svc    *service.Service
	val    *validator.Validator
	region string
	log    *logger.Logger
}

func New(pipeline IntakePipeline, svc *service.Service, val *validator.Validator, region string, log *logger.Logger) *Handler {
	return &Handler{intake: pipeline, svc: svc, val: val, region: region, log: log}
}

// RegisterRoutes mounts the public intake and tracking endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/leads", h.SubmitLead)
	rg.POST("/events", h.RecordEvent)
	rg.GET("/t/:token/click", h.TrackClick)
	rg.GET("/t/:token/open", h.TrackOpen)
}

// RegisterAdminRoutes mounts the operator endpoints.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.PATCH("/leads/:token/stage", h.UpdateStage)
}

// SubmitLead accepts a lead form post. The caller always gets 202: rejections and
// store failures are logged, never reported back.
func (h *Handler) SubmitLead(c *gin.Context) {
	log := h.log.WithContext(c.Request.Context())

	var req transport.SubmitLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.SubmissionRejected("lead", "malformed body", "error", err)
		httpkit.JSON(c, http.StatusAccepted, transport.AcceptedResponse{Status: statusAccepted})
		return
	}

	h.Submit(c.Request.Context(), req)
	httpkit.JSON(c, http.StatusAccepted, transport.AcceptedResponse{Status: statusAccepted})
}

// Submit validates a lead from any source and runs it through intake.
func (h *Handler) Submit(ctx context.Context, req transport.SubmitLeadRequest) intake.Result {
	if err := h.val.Struct(req); err != nil {
		h.log.WithContext(ctx).SubmissionRejected("lead", msgValidationFailed, "error", err)
		return intake.Result{Outcome: intake.OutcomeRejected}
	}
	return h.intake.ManageLead(ctx, h.toSubmission(req))
}

func (h *Handler) toSubmission(req transport.SubmitLeadRequest) intake.Submission {
	pair, _ := phone.ValidatePair(req.Phone, req.SecondaryPhone, h.region)
	return intake.Submission{
		FirstName: sanitize.Name(req.FirstName),
		LastName:  sanitize.Name(req.LastName),
		Email:     sanitize.Email(req.Email),
		Phones:    pair,
		Address: domain.AddressInput{
			Street:     sanitize.TextPtr(req.Street),
			City:       sanitize.TextPtr(req.City),
			State:      sanitize.TextPtr(req.State),
			PostalCode: sanitize.TextPtr(req.PostalCode),
		},
		Source:    sanitize.TextPtr(req.Source),
		SubSource: sanitize.TextPtr(req.SubSource),
	}
}

func (h *Handler) RecordEvent(c *gin.Context) {
	var req transport.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	_, recorded, err := h.svc.RecordEvent(c.Request.Context(), req.LeadToken, domain.EventType(req.EventType))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.RecordEventResponse{Recorded: recorded})
}

// TrackClick records a click and forwards to the booking page.
func (h *Handler) TrackClick(c *gin.Context) {
	lead, _, err := h.svc.RecordEvent(c.Request.Context(), c.Param("token"), domain.EventTypeClick)
	if apperr.Is(err, apperr.KindNotFound) || lead.BookingURL == "" {
		httpkit.Error(c, http.StatusNotFound, "link expired or invalid", nil)
		return
	}
	if err != nil {
		h.log.Error("click not recorded", "lead_id", lead.ID, "error", err)
	}
	c.Redirect(http.StatusFound, lead.BookingURL)
}

// TrackOpen records an email open. The pixel is served whatever the outcome.
func (h *Handler) TrackOpen(c *gin.Context) {
	if _, _, err := h.svc.RecordEvent(c.Request.Context(), c.Param("token"), domain.EventTypeOpen); err != nil && !apperr.Is(err, apperr.KindNotFound) {
		h.log.Error("open not recorded", "error", err)
	}
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
	c.Data(http.StatusOK, "image/gif", transparentPixel)
}

func (h *Handler) UpdateStage(c *gin.Context) {
	op, ok := httpkit.MustGetOperator(c)
	if !ok {
		return
	}

	var req transport.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	lead, err := h.svc.OverrideStage(c.Request.Context(), c.Param("token"), domain.Stage(req.Stage), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	h.log.Info("lead stage overridden", "lead_id", lead.ID, "stage", lead.Stage, "actor", op.ID)
	httpkit.OK(c, toLeadResponse(lead))
}

func toLeadResponse(lead domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:               lead.ID.String(),
		TrackingToken:    lead.TrackingToken,
		Stage:            string(lead.Stage),
		OriginalStage:    string(lead.OriginalStage),
		StageUpdatedAt:   lead.StageUpdatedAt,
		NextFollowUp:     lead.NextFollowUp,
		PreviousFollowUp: lead.PreviousFollowUp,
		BookingURL:       lead.BookingURL,
		TrackingURL:      lead.TrackingURL,
		UpdatedAt:        lead.UpdatedAt,
	}
}

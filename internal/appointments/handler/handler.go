package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/service"
	"github.com/spmiller41/saleset-v2-sub000/internal/appointments/transport"
	"github.com/spmiller41/saleset-v2-sub000/internal/leads/domain"
	"github.com/spmiller41/saleset-v2-sub000/platform/httpkit"
	"github.com/spmiller41/saleset-v2-sub000/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc *service.Service
	val *validator.Validator
}

func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the public booking route.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Book)
}

// RegisterAdminRoutes registers operator routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads/:leadId/appointments", h.ListByLead)
}

func (h *Handler) Book(c *gin.Context) {
	var req transport.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	appt, err := h.svc.Book(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toResponse(appt))
}

func (h *Handler) ListByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	items, err := h.svc.ListByLead(c.Request.Context(), leadID)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]transport.AppointmentResponse, 0, len(items))
	for _, a := range items {
		resp = append(resp, toResponse(a))
	}
	httpkit.OK(c, gin.H{"items": resp})
}

func toResponse(a domain.Appointment) transport.AppointmentResponse {
	return transport.AppointmentResponse{
		ID:        a.ID.String(),
		LeadID:    a.LeadID.String(),
		Type:      a.Type,
		StartTime: a.StartTime,
		EndTime:   a.EndTime,
		CreatedAt: a.CreatedAt,
	}
}

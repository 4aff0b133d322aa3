package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// InboundRequest is the gateway's webhook payload.
type InboundRequest struct {
	Type string `json:"type"`
	Data struct {
		Message string `json:"message"`
		Phone   string `json:"phone"`
	} `json:"data"`
}

// Handler handles inbound webhook HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new webhook handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleInbound processes an inbound WhatsApp delivery.
// POST /api/v1/webhook/whatsapp
//
// The response is always 200: the gateway treats anything else as a delivery
// failure and retries, and application-level failures must not trigger that.
func (h *Handler) HandleInbound(c *gin.Context) {
	var req InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusOK, string(ResultOK))
		return
	}

	result := h.service.Process(c.Request.Context(), InboundEvent{
		Type:    req.Type,
		Message: req.Data.Message,
		Phone:   req.Data.Phone,
	})

	c.String(http.StatusOK, string(result))
}

// Package handler exposes the public lead verification endpoint.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/juanctr3/b2b/internal/leads/service"
	"github.com/juanctr3/b2b/platform/httpkit"
	"github.com/juanctr3/b2b/platform/validator"
)

// Handler handles lead HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// New creates a new leads handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// VerifyRequest is the payload for confirming a client's phone code.
type VerifyRequest struct {
	Phone string `json:"phone" validate:"required,min=7"`
	Code  string `json:"code" validate:"required,min=4,max=10"`
}

// Verify confirms the code a client received by WhatsApp or email and marks
// their pending quotation as verified.
func (h *Handler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.VerifyCode(c.Request.Context(), req.Phone, req.Code); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	httpkit.OK(c, gin.H{"verified": true})
}

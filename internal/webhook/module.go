package webhook

import (
	apphttp "github.com/juanctr3/b2b/internal/http"
	"github.com/juanctr3/b2b/platform/logger"
)

// Module is the inbound gateway webhook module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
}

// NewModule wires the webhook dispatcher to the account and lead flows.
func NewModule(guard Guard, accounts AccountVerifier, leads LeadFlows, log *logger.Logger) *Module {
	svc := NewService(guard, accounts, leads, log)
	return &Module{
		handler: NewHandler(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts the inbound gateway callback.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhook.POST("/whatsapp", m.handler.HandleInbound)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

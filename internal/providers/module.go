// Package providers manages provider accounts: phone verification, the
// one-time welcome bonus and eligibility lookups for lead broadcasts.
package providers

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/internal/providers/service"
	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/events"
	"github.com/juanctr3/b2b/platform/logger"
)

// Module is the providers bounded context. It has no HTTP surface; providers
// interact through the inbound WhatsApp webhook.
type Module struct {
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the providers module.
func NewModule(pool *pgxpool.Pool, sender service.MessageSender, bus events.Bus, cfg config.MarketplaceConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, sender, bus, cfg, log)

	return &Module{
		service: svc,
		repo:    repo,
	}
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// Package leads provides the lead marketplace bounded context: the purchase
// ledger, the credit wallet debits and the client verification flows.
package leads

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "github.com/juanctr3/b2b/internal/http"
	"github.com/juanctr3/b2b/internal/leads/handler"
	"github.com/juanctr3/b2b/internal/leads/repository"
	"github.com/juanctr3/b2b/internal/leads/service"
	providersrepo "github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/platform/events"
	"github.com/juanctr3/b2b/platform/logger"
	"github.com/juanctr3/b2b/platform/validator"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	providers providersrepo.Repository,
	sender service.MessageSender,
	email service.EmailSender,
	cooldown service.Cooldown,
	val *validator.Validator,
	bus events.Bus,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, providers, sender, email, cooldown, val, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts lead routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/leads/verify", ctx.RateLimiter.RateLimit(), m.handler.Verify)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

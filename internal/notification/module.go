package notification

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanctr3/b2b/internal/events"
	apphttp "github.com/juanctr3/b2b/internal/http"
	leadsrepo "github.com/juanctr3/b2b/internal/leads/repository"
	"github.com/juanctr3/b2b/internal/notification/outbox"
	providersrepo "github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/logger"
)

// Module is the notification bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	service *Service
	outbox  *outbox.Repository
}

// NewModule creates and initializes the notification module.
func NewModule(
	pool *pgxpool.Pool,
	leads leadsrepo.Repository,
	providers providersrepo.Repository,
	cfg config.MarketplaceConfig,
	log *logger.Logger,
) *Module {
	ob := outbox.New(pool)
	svc := New(leads, providers, ob, cfg, log)

	return &Module{
		handler: NewHandler(svc),
		service: svc,
		outbox:  ob,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "notification"
}

// Service returns the broadcast service for external use.
func (m *Module) Service() *Service {
	return m.service
}

// Outbox returns the outbox repository for the delivery worker.
func (m *Module) Outbox() *outbox.Repository {
	return m.outbox
}

// RegisterRoutes mounts the internal broadcast trigger.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/notifications/leads/:id", ctx.InternalAuth, m.handler.Notify)
}

// RegisterHandlers subscribes to domain events from other modules.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadApproved{}.EventName(), events.HandlerFunc(m.service.HandleLeadApproved))
	bus.Subscribe(events.LeadUnlocked{}.EventName(), events.HandlerFunc(m.service.HandleLeadUnlocked))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

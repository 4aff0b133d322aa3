// Package notification broadcasts new lead alerts to every eligible provider.
// Messages are staged in the outbox and delivered asynchronously by the worker.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/juanctr3/b2b/internal/events"
	leadsrepo "github.com/juanctr3/b2b/internal/leads/repository"
	"github.com/juanctr3/b2b/internal/notification/outbox"
	providersrepo "github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/logger"
)

const (
	msgLeadAlert = "🔔 *Nueva Cotización #%d*\n\n📍 %s\n📝 %s\n\n💳 Tu Saldo: *%d cr* | Costo: *%d cr*\n\n👉 Responde *ACEPTO %d* para comprar ya.\n👉 O mira detalles aquí: %s"

	msgLeadAlertNoBalance = "🔔 *Nueva Cotización #%d*\n\n⚠ *Saldo Insuficiente* (Tienes %d cr, requieres %d cr).\n📝 %s\n\n👉 Recarga aquí: %s"

	requirementPreviewLen = 150
)

// WhatsAppPayload is the outbox payload for a WhatsApp delivery.
type WhatsAppPayload struct {
	Message string `json:"message"`
}

// EmailPayload is the outbox payload for a backup email delivery.
type EmailPayload struct {
	LeadID      int64  `json:"leadId"`
	City        string `json:"city"`
	Requirement string `json:"requirement"`
	Link        string `json:"link"`
}

// Outbox is the subset of the outbox repository the broadcaster needs.
type Outbox interface {
	Insert(ctx context.Context, p outbox.InsertParams) (uuid.UUID, error)
}

// Service composes and stages lead alerts.
type Service struct {
	leads     leadsrepo.Repository
	providers providersrepo.Repository
	outbox    Outbox
	cfg       config.MarketplaceConfig
	log       *logger.Logger
}

// New creates the broadcast service.
func New(leads leadsrepo.Repository, providers providersrepo.Repository, ob Outbox, cfg config.MarketplaceConfig, log *logger.Logger) *Service {
	return &Service{
		leads:     leads,
		providers: providers,
		outbox:    ob,
		cfg:       cfg,
		log:       log,
	}
}

// Broadcast stages one WhatsApp alert, plus a backup email when the provider
// has one on file, for every verified provider approved for the lead's
// service. Providers below the lead's cost get a recharge teaser instead of
// the purchase prompt. Returns the number of providers notified.
func (s *Service) Broadcast(ctx context.Context, leadID int64) (int, error) {
	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		return 0, fmt.Errorf("load lead %d: %w", leadID, err)
	}

	targets, err := s.providers.ListNotifiable(ctx, lead.ServiceID)
	if err != nil {
		return 0, fmt.Errorf("list providers for service %d: %w", lead.ServiceID, err)
	}
	if len(targets) == 0 {
		s.log.Info("lead broadcast: no eligible providers", "lead_id", leadID, "service_id", lead.ServiceID)
		return 0, nil
	}

	link := fmt.Sprintf("%s?lid=%d", s.cfg.GetOpportunityURL(), lead.ID)
	preview := trimRequirement(lead.Requirement)
	now := time.Now().UTC()

	notified := 0
	for _, p := range targets {
		var msg string
		if p.WalletBalance >= lead.CostCredits {
			msg = fmt.Sprintf(msgLeadAlert, lead.ID, lead.City, preview, p.WalletBalance, lead.CostCredits, lead.ID, link)
		} else {
			msg = fmt.Sprintf(msgLeadAlertNoBalance, lead.ID, p.WalletBalance, lead.CostCredits, preview, s.cfg.GetShopURL())
		}

		if _, err := s.outbox.Insert(ctx, outbox.InsertParams{
			Kind:      outbox.KindWhatsApp,
			Recipient: p.Phone,
			Payload:   WhatsAppPayload{Message: msg},
			RunAt:     now,
		}); err != nil {
			s.log.Error("lead broadcast: stage whatsapp", "lead_id", leadID, "provider_id", p.ID, "error", err)
			continue
		}
		notified++

		if p.Email == "" {
			continue
		}
		if _, err := s.outbox.Insert(ctx, outbox.InsertParams{
			Kind:      outbox.KindEmail,
			Recipient: p.Email,
			Payload: EmailPayload{
				LeadID:      lead.ID,
				City:        lead.City,
				Requirement: preview,
				Link:        link,
			},
			RunAt: now,
		}); err != nil {
			s.log.Error("lead broadcast: stage email", "lead_id", leadID, "provider_id", p.ID, "error", err)
		}
	}

	s.log.Info("lead broadcast staged", "lead_id", leadID, "providers", notified)
	return notified, nil
}

// HandleLeadApproved reacts to lead approval events from other modules.
func (s *Service) HandleLeadApproved(ctx context.Context, event events.Event) error {
	approved, ok := event.(events.LeadApproved)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	_, err := s.Broadcast(ctx, approved.LeadID)
	return err
}

// HandleLeadUnlocked writes the purchase audit trail.
func (s *Service) HandleLeadUnlocked(_ context.Context, event events.Event) error {
	unlocked, ok := event.(events.LeadUnlocked)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}
	s.log.Info("lead unlocked",
		"lead_id", unlocked.LeadID,
		"provider_id", unlocked.ProviderID,
		"cost", unlocked.Cost,
		"new_balance", unlocked.NewBalance,
	)
	return nil
}

func trimRequirement(req string) string {
	runes := []rune(req)
	if len(runes) <= requirementPreviewLen {
		return req
	}
	return string(runes[:requirementPreviewLen]) + "..."
}

// Package service implements provider account verification over WhatsApp.
// A provider replies "ACEPTO" to the onboarding message; the reply marks the
// phone verified and grants the one-time welcome bonus when configured.
package service

import (
	"context"
	"fmt"

	"github.com/juanctr3/b2b/internal/events"
	"github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/platform/apperr"
	"github.com/juanctr3/b2b/platform/config"
	"github.com/juanctr3/b2b/platform/logger"
)

const (
	msgVerifiedWithBonus = "✅ ¡Cuenta Verificada!\n🎁 *Regalo:* Te cargamos *%d créditos* gratis."
	msgVerified          = "✅ ¡Cuenta Verificada! Ahora recibirás alertas."
)

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	Send(ctx context.Context, to, message string) error
}

// Service handles the account verification flow.
type Service struct {
	repo   repository.Repository
	sender MessageSender
	bus    events.Bus
	cfg    config.MarketplaceConfig
	log    *logger.Logger
}

// New creates the verification service.
func New(repo repository.Repository, sender MessageSender, bus events.Bus, cfg config.MarketplaceConfig, log *logger.Logger) *Service {
	return &Service{repo: repo, sender: sender, bus: bus, cfg: cfg, log: log}
}

// Verify marks the sender's provider account as phone-verified and grants the
// welcome bonus at most once. Unknown and ambiguous senders are dropped
// silently: the webhook must not leak account existence to arbitrary numbers.
func (s *Service) Verify(ctx context.Context, senderDigits string) error {
	provider, err := s.repo.FindByPhone(ctx, senderDigits)
	if err != nil {
		switch apperr.GetKind(err) {
		case apperr.KindNotFound:
			s.log.Debug("verification from unknown number", "sender", senderDigits)
			return nil
		case apperr.KindConflict:
			s.log.Warn("verification from ambiguous number", "sender", senderDigits)
			return nil
		}
		return err
	}

	if err := s.repo.MarkPhoneVerified(ctx, provider.ID); err != nil {
		return err
	}

	granted := false
	if bonus := s.cfg.GetWelcomeBonus(); bonus > 0 {
		granted, err = s.repo.GrantWelcomeBonus(ctx, provider.ID, bonus)
		if err != nil {
			return err
		}
	}

	// Replies go out only after the status and bonus writes committed.
	reply := msgVerified
	if granted {
		reply = fmt.Sprintf(msgVerifiedWithBonus, s.cfg.GetWelcomeBonus())
	}
	if err := s.sender.Send(ctx, senderDigits, reply); err != nil {
		s.log.GatewayError(senderDigits, err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ProviderVerified{
			BaseEvent:    events.NewBaseEvent(),
			ProviderID:   provider.ID,
			BonusGranted: granted,
		})
	}

	return nil
}

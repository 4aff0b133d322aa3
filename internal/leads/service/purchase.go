package service

import (
	"context"
	"fmt"

	"github.com/juanctr3/b2b/internal/events"
	leadrepo "github.com/juanctr3/b2b/internal/leads/repository"
	"github.com/juanctr3/b2b/platform/apperr"
)

// Accept processes "ACEPTO <id>" from a provider. Every gate is hard:
//
//  1. unknown or ambiguous sender: silent drop
//  2. missing lead or non-approved service: shared rejection reply
//  3. existing unlock: contact details re-sent, wallet untouched
//  4. otherwise: conditional debit + unlock in one transaction
//
// Replies are sent only after the ledger write has committed; a failed reply
// is logged, never rolled back.
func (s *Service) Accept(ctx context.Context, senderDigits string, leadID int64) error {
	provider, err := s.providers.FindByPhone(ctx, senderDigits)
	if err != nil {
		switch apperr.GetKind(err) {
		case apperr.KindNotFound:
			s.log.Debug("purchase from unknown number", "sender", senderDigits, "lead_id", leadID)
			return nil
		case apperr.KindConflict:
			s.log.Warn("purchase from ambiguous number", "sender", senderDigits, "lead_id", leadID)
			return nil
		}
		return err
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.reply(ctx, senderDigits, msgNotAuthorized)
			return nil
		}
		return err
	}

	approved, err := s.providers.IsServiceApproved(ctx, provider.ID, lead.ServiceID)
	if err != nil {
		return err
	}
	if !approved {
		s.reply(ctx, senderDigits, msgNotAuthorized)
		return nil
	}

	outcome, newBalance, err := s.leads.Purchase(ctx, lead.ID, provider.ID, lead.CostCredits)
	if err != nil {
		return err
	}

	switch outcome {
	case leadrepo.OutcomeAlreadyUnlocked:
		s.reply(ctx, senderDigits, fmt.Sprintf(msgContactDetails,
			lead.ClientName, lead.ClientPhone, lead.ClientEmail))

	case leadrepo.OutcomeInsufficientBalance:
		s.reply(ctx, senderDigits, msgInsufficientBalance)

	case leadrepo.OutcomePurchased:
		company := lead.ClientCompany
		if company == "" {
			company = companyFallback
		}
		s.reply(ctx, senderDigits, fmt.Sprintf(msgPurchaseSuccess,
			newBalance, company, lead.ClientName, lead.ClientPhone, lead.ClientEmail, lead.Requirement))

		if s.bus != nil {
			s.bus.Publish(ctx, events.LeadUnlocked{
				BaseEvent:  events.NewBaseEvent(),
				LeadID:     lead.ID,
				ProviderID: provider.ID,
				Cost:       lead.CostCredits,
				NewBalance: newBalance,
			})
		}
	}

	return nil
}

func (s *Service) reply(ctx context.Context, to, message string) {
	if err := s.sender.Send(ctx, to, message); err != nil {
		s.log.GatewayError(to, err)
	}
}

package service

import (
	"context"
	"fmt"

	"github.com/juanctr3/b2b/internal/dedup"
	"github.com/juanctr3/b2b/platform/apperr"
)

// SendPhoneCode replies with the verification code of the sender's most
// recent pending lead. Misses and cooldown hits are silent; the sender is an
// end client, not a provider, and gets no error replies.
func (s *Service) SendPhoneCode(ctx context.Context, senderDigits string) error {
	lead, err := s.leads.FindPendingByClientPhone(ctx, senderDigits)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.Debug("no pending lead for otp request", "sender", senderDigits)
			return nil
		}
		return err
	}

	if !s.cooldown.TryAcquire(ctx, dedup.OTPKey(senderDigits), dedup.OTPTTL) {
		s.log.Debug("otp send rate limited", "sender", senderDigits)
		return nil
	}

	s.reply(ctx, senderDigits, fmt.Sprintf(msgVerificationCode, lead.VerificationCode))
	return nil
}

// SendEmailCode mails the verification code of the sender's most recent
// pending lead and confirms delivery over the message channel. Requires a
// syntactically valid address; its cooldown is independent of SendPhoneCode.
func (s *Service) SendEmailCode(ctx context.Context, senderDigits string) error {
	lead, err := s.leads.FindPendingByClientPhone(ctx, senderDigits)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			s.log.Debug("no pending lead for email otp request", "sender", senderDigits)
			return nil
		}
		return err
	}

	if s.val.Var(lead.ClientEmail, "required,email") != nil {
		s.log.Debug("lead has no valid email for otp", "lead_id", lead.ID)
		return nil
	}

	if !s.cooldown.TryAcquire(ctx, dedup.EmailOTPKey(senderDigits), dedup.EmailOTPTTL) {
		s.log.Debug("email otp send rate limited", "sender", senderDigits)
		return nil
	}

	if err := s.email.SendVerificationCode(ctx, lead.ClientEmail, lead.VerificationCode); err != nil {
		s.log.Error("email otp delivery failed", "lead_id", lead.ID, "error", err)
		return nil
	}

	s.reply(ctx, senderDigits, msgEmailCodeSent)
	return nil
}

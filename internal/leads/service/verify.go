package service

import (
	"context"

	"github.com/juanctr3/b2b/platform/apperr"
	"github.com/juanctr3/b2b/platform/phone"
)

const (
	errCodeMismatch = "invalid verification code"
	errNoPending    = "no pending verification"
)

// VerifyCode confirms client ownership of a phone number: the client submits
// the code they received over WhatsApp or email, and the matching pending
// lead is marked verified.
func (s *Service) VerifyCode(ctx context.Context, clientPhone, code string) error {
	digits := phone.Digits(clientPhone)

	lead, err := s.leads.FindPendingByClientPhone(ctx, digits)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound(errNoPending)
		}
		return err
	}

	if code == "" || code != lead.VerificationCode {
		return apperr.Forbidden(errCodeMismatch)
	}

	return s.leads.MarkVerified(ctx, lead.ID)
}

// Package service implements the lead purchase ledger and the client OTP
// flows triggered by inbound WhatsApp messages.
package service

import (
	"context"
	"time"

	"github.com/juanctr3/b2b/internal/events"
	leadrepo "github.com/juanctr3/b2b/internal/leads/repository"
	providerrepo "github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/platform/logger"
	"github.com/juanctr3/b2b/platform/validator"
)

// MessageSender delivers a text message to a phone number.
type MessageSender interface {
	Send(ctx context.Context, to, message string) error
}

// EmailSender delivers the client verification code by email.
type EmailSender interface {
	SendVerificationCode(ctx context.Context, to, code string) error
}

// Cooldown gates repeated sends behind a TTL key.
type Cooldown interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) bool
}

// Service handles lead purchases and client verification codes.
type Service struct {
	leads     leadrepo.Repository
	providers providerrepo.Repository
	sender    MessageSender
	email     EmailSender
	cooldown  Cooldown
	val       *validator.Validator
	bus       events.Bus
	log       *logger.Logger
}

// New creates the leads service.
func New(
	leads leadrepo.Repository,
	providers providerrepo.Repository,
	sender MessageSender,
	email EmailSender,
	cooldown Cooldown,
	val *validator.Validator,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		leads:     leads,
		providers: providers,
		sender:    sender,
		email:     email,
		cooldown:  cooldown,
		val:       val,
		bus:       bus,
		log:       log,
	}
}

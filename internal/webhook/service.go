// Package webhook receives inbound WhatsApp messages from the gateway and
// dispatches them to the marketplace flows: account verification, lead
// purchase, and client verification codes.
package webhook

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/juanctr3/b2b/internal/dedup"
	"github.com/juanctr3/b2b/platform/logger"
	"github.com/juanctr3/b2b/platform/phone"
)

// Result is the acknowledgment body returned to the calling gateway.
type Result string

const (
	// ResultOK acknowledges a processed (or deliberately ignored) delivery.
	ResultOK Result = "OK"
	// ResultIgnored acknowledges a suppressed duplicate delivery.
	ResultIgnored Result = "Ignored"
)

// eventTypeWhatsApp is the only inbound event type this service processes.
const eventTypeWhatsApp = "whatsapp"

// acceptPattern matches a purchase command after the body was uppercased:
// "ACEPTO" followed by whitespace and a lead id.
var acceptPattern = regexp.MustCompile(`^ACEPTO\s+(\d+)`)

// InboundEvent is a normalized inbound delivery.
type InboundEvent struct {
	Type    string
	Message string
	Phone   string
}

// AccountVerifier handles a provider's bare "ACEPTO" verification reply.
type AccountVerifier interface {
	Verify(ctx context.Context, senderDigits string) error
}

// LeadFlows handles purchases and client code requests.
type LeadFlows interface {
	Accept(ctx context.Context, senderDigits string, leadID int64) error
	SendPhoneCode(ctx context.Context, senderDigits string) error
	SendEmailCode(ctx context.Context, senderDigits string) error
}

// Guard suppresses duplicate deliveries within a TTL window.
type Guard interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) bool
}

// Service classifies inbound messages and routes them to a handler.
type Service struct {
	guard    Guard
	accounts AccountVerifier
	leads    LeadFlows
	log      *logger.Logger
}

// NewService creates the dispatcher.
func NewService(guard Guard, accounts AccountVerifier, leads LeadFlows, log *logger.Logger) *Service {
	return &Service{guard: guard, accounts: accounts, leads: leads, log: log}
}

// Process handles one inbound delivery. It never returns an error to the
// transport layer: handler failures are logged and the gateway still receives
// a success acknowledgment, otherwise it would retry-storm the endpoint.
func (s *Service) Process(ctx context.Context, event InboundEvent) Result {
	if event.Type != eventTypeWhatsApp {
		return ResultOK
	}

	body := strings.ToUpper(strings.TrimSpace(event.Message))
	sender := phone.Digits(event.Phone)
	if body == "" || sender == "" {
		return ResultOK
	}

	if !s.guard.TryAcquire(ctx, dedup.MessageKey(sender, body), dedup.MessageTTL) {
		s.log.DedupHit(sender)
		return ResultIgnored
	}

	intent, leadID := classify(body)
	s.log.InboundMessage(sender, string(intent))

	var err error
	switch intent {
	case intentVerify:
		err = s.accounts.Verify(ctx, sender)
	case intentPurchase:
		err = s.leads.Accept(ctx, sender, leadID)
	case intentPhoneCode:
		err = s.leads.SendPhoneCode(ctx, sender)
	case intentEmailCode:
		err = s.leads.SendEmailCode(ctx, sender)
	}
	if err != nil {
		s.log.Error("inbound handler failed", "intent", string(intent), "sender", sender, "error", err)
	}

	return ResultOK
}

type intent string

const (
	intentVerify    intent = "verify_account"
	intentPurchase  intent = "purchase_lead"
	intentPhoneCode intent = "client_phone_code"
	intentEmailCode intent = "client_email_code"
	intentNone      intent = "none"
)

// classify maps a normalized body to an intent, first match wins.
func classify(body string) (intent, int64) {
	if body == "ACEPTO" {
		return intentVerify, 0
	}
	if m := acceptPattern.FindStringSubmatch(body); m != nil {
		id, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			// Overflowing digits cannot name an existing lead; the
			// purchase flow turns id 0 into the not-found reply.
			id = 0
		}
		return intentPurchase, id
	}
	if strings.Contains(body, "WHATSAPP") {
		return intentPhoneCode, 0
	}
	if strings.Contains(body, "EMAIL") {
		return intentEmailCode, 0
	}
	return intentNone, 0
}

package notification

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	leadsrepo "github.com/juanctr3/b2b/internal/leads/repository"
	"github.com/juanctr3/b2b/internal/notification/outbox"
	providersrepo "github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/platform/apperr"
	"github.com/juanctr3/b2b/platform/logger"
)

type fakeLeads struct {
	lead leadsrepo.Lead
}

func (f *fakeLeads) GetByID(_ context.Context, id int64) (leadsrepo.Lead, error) {
	if id != f.lead.ID {
		return leadsrepo.Lead{}, apperr.NotFound("lead not found")
	}
	return f.lead, nil
}

func (f *fakeLeads) FindPendingByClientPhone(context.Context, string) (leadsrepo.Lead, error) {
	return leadsrepo.Lead{}, apperr.NotFound("lead not found")
}

func (f *fakeLeads) MarkVerified(context.Context, int64) error { return nil }

func (f *fakeLeads) Purchase(context.Context, int64, int64, int) (leadsrepo.PurchaseOutcome, int, error) {
	return leadsrepo.OutcomeInsufficientBalance, 0, nil
}

func (f *fakeLeads) IsUnlocked(context.Context, int64, int64) (bool, error) { return false, nil }

type fakeProviders struct {
	notifiable []providersrepo.Provider
}

func (f *fakeProviders) FindByPhone(context.Context, string) (providersrepo.Provider, error) {
	return providersrepo.Provider{}, apperr.NotFound("provider not found")
}

func (f *fakeProviders) GetByID(context.Context, int64) (providersrepo.Provider, error) {
	return providersrepo.Provider{}, apperr.NotFound("provider not found")
}

func (f *fakeProviders) MarkPhoneVerified(context.Context, int64) error { return nil }

func (f *fakeProviders) GrantWelcomeBonus(context.Context, int64, int) (bool, error) {
	return false, nil
}

func (f *fakeProviders) IsServiceApproved(context.Context, int64, int64) (bool, error) {
	return true, nil
}

func (f *fakeProviders) ListNotifiable(context.Context, int64) ([]providersrepo.Provider, error) {
	return f.notifiable, nil
}

type fakeOutbox struct {
	inserted []outbox.InsertParams
}

func (f *fakeOutbox) Insert(_ context.Context, p outbox.InsertParams) (uuid.UUID, error) {
	f.inserted = append(f.inserted, p)
	return uuid.New(), nil
}

type marketplaceConfig struct{}

func (marketplaceConfig) GetWelcomeBonus() int       { return 0 }
func (marketplaceConfig) GetOpportunityURL() string  { return "https://example.com/oportunidad" }
func (marketplaceConfig) GetShopURL() string         { return "https://example.com/recargas" }
func (marketplaceConfig) GetNotifyAPIKey() string    { return "k" }

func testLead() leadsrepo.Lead {
	return leadsrepo.Lead{
		ID:          7,
		City:        "Bogotá",
		Requirement: "Instalación de red eléctrica trifásica",
		CostCredits: 40,
		ServiceID:   3,
		CreatedAt:   time.Now(),
	}
}

func newBroadcastService(lead leadsrepo.Lead, targets []providersrepo.Provider) (*Service, *fakeOutbox) {
	ob := &fakeOutbox{}
	svc := New(&fakeLeads{lead: lead}, &fakeProviders{notifiable: targets}, ob, marketplaceConfig{}, logger.New("test"))
	return svc, ob
}

func whatsappMessage(t *testing.T, p outbox.InsertParams) string {
	t.Helper()
	payload, ok := p.Payload.(WhatsAppPayload)
	if !ok {
		t.Fatalf("payload is %T, want WhatsAppPayload", p.Payload)
	}
	return payload.Message
}

func TestBroadcastStagesAlertAndBackupEmail(t *testing.T) {
	svc, ob := newBroadcastService(testLead(), []providersrepo.Provider{
		{ID: 1, Phone: "573001112233", Email: "prov@example.com", WalletBalance: 100, PhoneStatus: providersrepo.PhoneStatusVerified},
	})

	notified, err := svc.Broadcast(context.Background(), 7)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if notified != 1 {
		t.Fatalf("notified = %d, want 1", notified)
	}
	if len(ob.inserted) != 2 {
		t.Fatalf("staged %d rows, want 2", len(ob.inserted))
	}

	wa := ob.inserted[0]
	if wa.Kind != outbox.KindWhatsApp || wa.Recipient != "573001112233" {
		t.Fatalf("unexpected whatsapp row: %+v", wa)
	}
	msg := whatsappMessage(t, wa)
	for _, want := range []string{"Nueva Cotización #7", "Bogotá", "ACEPTO 7", "Tu Saldo: *100 cr*", "Costo: *40 cr*", "?lid=7"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	mail := ob.inserted[1]
	if mail.Kind != outbox.KindEmail || mail.Recipient != "prov@example.com" {
		t.Fatalf("unexpected email row: %+v", mail)
	}
	payload, ok := mail.Payload.(EmailPayload)
	if !ok {
		t.Fatalf("email payload is %T", mail.Payload)
	}
	if payload.LeadID != 7 || payload.City != "Bogotá" {
		t.Errorf("unexpected email payload: %+v", payload)
	}
}

func TestBroadcastLowBalanceGetsRechargeTeaser(t *testing.T) {
	svc, ob := newBroadcastService(testLead(), []providersrepo.Provider{
		{ID: 2, Phone: "573004445566", WalletBalance: 10, PhoneStatus: providersrepo.PhoneStatusVerified},
	})

	if _, err := svc.Broadcast(context.Background(), 7); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if len(ob.inserted) != 1 {
		t.Fatalf("staged %d rows, want 1 (no email on file)", len(ob.inserted))
	}

	msg := whatsappMessage(t, ob.inserted[0])
	if !strings.Contains(msg, "Saldo Insuficiente") {
		t.Errorf("expected teaser, got:\n%s", msg)
	}
	if !strings.Contains(msg, "https://example.com/recargas") {
		t.Errorf("expected shop link, got:\n%s", msg)
	}
	if strings.Contains(msg, "ACEPTO") {
		t.Errorf("teaser must not invite a purchase:\n%s", msg)
	}
}

func TestBroadcastTrimsLongRequirement(t *testing.T) {
	lead := testLead()
	lead.Requirement = strings.Repeat("á", 200)
	svc, ob := newBroadcastService(lead, []providersrepo.Provider{
		{ID: 3, Phone: "573007778899", WalletBalance: 100, PhoneStatus: providersrepo.PhoneStatusVerified},
	})

	if _, err := svc.Broadcast(context.Background(), 7); err != nil {
		t.Fatalf("Broadcast: %v", err)
	}

	msg := whatsappMessage(t, ob.inserted[0])
	want := strings.Repeat("á", 150) + "..."
	if !strings.Contains(msg, want) {
		t.Errorf("requirement not trimmed to 150 runes")
	}
	if strings.Contains(msg, strings.Repeat("á", 151)) {
		t.Errorf("untrimmed requirement leaked into the message")
	}
}

func TestBroadcastNoEligibleProviders(t *testing.T) {
	svc, ob := newBroadcastService(testLead(), nil)

	notified, err := svc.Broadcast(context.Background(), 7)
	if err != nil {
		t.Fatalf("Broadcast: %v", err)
	}
	if notified != 0 {
		t.Errorf("notified = %d, want 0", notified)
	}
	if len(ob.inserted) != 0 {
		t.Errorf("staged %d rows, want none", len(ob.inserted))
	}
}

func TestBroadcastUnknownLead(t *testing.T) {
	svc, _ := newBroadcastService(testLead(), nil)

	if _, err := svc.Broadcast(context.Background(), 99); err == nil {
		t.Fatal("expected error for unknown lead")
	}
}

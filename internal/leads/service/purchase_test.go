package service

import (
	"context"
	"strings"
	"testing"
	"time"

	leadrepo "github.com/juanctr3/b2b/internal/leads/repository"
	providerrepo "github.com/juanctr3/b2b/internal/providers/repository"
	"github.com/juanctr3/b2b/platform/apperr"
	"github.com/juanctr3/b2b/platform/logger"
	"github.com/juanctr3/b2b/platform/validator"
)

// fakeLeadsRepo mirrors the transactional purchase semantics of the real
// repository: one unlock per pair, debit only when the balance covers it.
type fakeLeadsRepo struct {
	lead     leadrepo.Lead
	leadErr  error
	balance  int
	unlocked map[[2]int64]bool
	verified []int64
	debits   int
}

func (f *fakeLeadsRepo) GetByID(_ context.Context, id int64) (leadrepo.Lead, error) {
	if f.leadErr != nil {
		return leadrepo.Lead{}, f.leadErr
	}
	if id != f.lead.ID {
		return leadrepo.Lead{}, apperr.NotFound("lead not found")
	}
	return f.lead, nil
}

func (f *fakeLeadsRepo) FindPendingByClientPhone(_ context.Context, digits string) (leadrepo.Lead, error) {
	if f.lead.IsVerified || !strings.HasSuffix(f.lead.ClientPhone, digits) {
		return leadrepo.Lead{}, apperr.NotFound("lead not found")
	}
	return f.lead, nil
}

func (f *fakeLeadsRepo) MarkVerified(_ context.Context, id int64) error {
	f.verified = append(f.verified, id)
	return nil
}

func (f *fakeLeadsRepo) Purchase(_ context.Context, leadID, providerID int64, cost int) (leadrepo.PurchaseOutcome, int, error) {
	if f.unlocked == nil {
		f.unlocked = make(map[[2]int64]bool)
	}
	key := [2]int64{leadID, providerID}
	if f.unlocked[key] {
		return leadrepo.OutcomeAlreadyUnlocked, 0, nil
	}
	if f.balance < cost {
		return leadrepo.OutcomeInsufficientBalance, 0, nil
	}
	f.balance -= cost
	f.debits++
	f.unlocked[key] = true
	return leadrepo.OutcomePurchased, f.balance, nil
}

func (f *fakeLeadsRepo) IsUnlocked(_ context.Context, leadID, providerID int64) (bool, error) {
	return f.unlocked[[2]int64{leadID, providerID}], nil
}

type fakeProvidersRepo struct {
	provider providerrepo.Provider
	findErr  error
	approved bool
}

func (f *fakeProvidersRepo) FindByPhone(_ context.Context, _ string) (providerrepo.Provider, error) {
	if f.findErr != nil {
		return providerrepo.Provider{}, f.findErr
	}
	return f.provider, nil
}

func (f *fakeProvidersRepo) GetByID(_ context.Context, _ int64) (providerrepo.Provider, error) {
	return f.provider, nil
}

func (f *fakeProvidersRepo) MarkPhoneVerified(_ context.Context, _ int64) error { return nil }

func (f *fakeProvidersRepo) GrantWelcomeBonus(_ context.Context, _ int64, _ int) (bool, error) {
	return false, nil
}

func (f *fakeProvidersRepo) IsServiceApproved(_ context.Context, _, _ int64) (bool, error) {
	return f.approved, nil
}

func (f *fakeProvidersRepo) ListNotifiable(_ context.Context, _ int64) ([]providerrepo.Provider, error) {
	return nil, nil
}

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Send(_ context.Context, _, message string) error {
	f.sent = append(f.sent, message)
	return nil
}

type fakeEmail struct {
	codes []string
	to    []string
}

func (f *fakeEmail) SendVerificationCode(_ context.Context, to, code string) error {
	f.to = append(f.to, to)
	f.codes = append(f.codes, code)
	return nil
}

type fakeCooldown struct {
	held map[string]bool
}

func (f *fakeCooldown) TryAcquire(_ context.Context, key string, _ time.Duration) bool {
	if f.held == nil {
		f.held = make(map[string]bool)
	}
	if f.held[key] {
		return false
	}
	f.held[key] = true
	return true
}

func testLead() leadrepo.Lead {
	return leadrepo.Lead{
		ID:               7,
		City:             "Bogotá",
		Requirement:      "Remodelación de cocina",
		CostCredits:      40,
		ServiceID:        3,
		ClientName:       "Ana Gómez",
		ClientPhone:      "573009998877",
		ClientEmail:      "ana@example.com",
		VerificationCode: "482913",
	}
}

func newPurchaseService(leads *fakeLeadsRepo, providers *fakeProvidersRepo, sender *fakeSender) *Service {
	return New(leads, providers, sender, &fakeEmail{}, &fakeCooldown{}, validator.New(), nil, logger.New("development"))
}

func TestAcceptDebitsOnceAndRefetchesAfter(t *testing.T) {
	leads := &fakeLeadsRepo{lead: testLead(), balance: 100}
	providers := &fakeProvidersRepo{provider: providerrepo.Provider{ID: 21}, approved: true}
	sender := &fakeSender{}
	svc := newPurchaseService(leads, providers, sender)

	if err := svc.Accept(context.Background(), "573001112233", 7); err != nil {
		t.Fatalf("first accept: %v", err)
	}
	if leads.balance != 60 {
		t.Fatalf("balance = %d, want 60", leads.balance)
	}
	if !strings.Contains(sender.sent[0], "Compra Exitosa") || !strings.Contains(sender.sent[0], "60") {
		t.Fatalf("expected success reply with new balance, got %q", sender.sent[0])
	}
	if !strings.Contains(sender.sent[0], "Particular") {
		t.Errorf("empty company must render as fallback: %q", sender.sent[0])
	}

	// Repeat purchase must re-send contact details without a second debit.
	if err := svc.Accept(context.Background(), "573001112233", 7); err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if leads.balance != 60 || leads.debits != 1 {
		t.Fatalf("second accept must not debit again: balance=%d debits=%d", leads.balance, leads.debits)
	}
	if !strings.Contains(sender.sent[1], "Datos del Cliente") || !strings.Contains(sender.sent[1], "Ana Gómez") {
		t.Fatalf("expected contact re-fetch reply, got %q", sender.sent[1])
	}
}

func TestAcceptInsufficientBalance(t *testing.T) {
	leads := &fakeLeadsRepo{lead: testLead(), balance: 10}
	providers := &fakeProvidersRepo{provider: providerrepo.Provider{ID: 21}, approved: true}
	sender := &fakeSender{}
	svc := newPurchaseService(leads, providers, sender)

	if err := svc.Accept(context.Background(), "573001112233", 7); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if leads.balance != 10 {
		t.Fatalf("balance must be untouched, got %d", leads.balance)
	}
	if len(leads.unlocked) != 0 {
		t.Fatal("no unlock row may exist after an insufficient-balance attempt")
	}
	if len(sender.sent) != 1 || sender.sent[0] != msgInsufficientBalance {
		t.Fatalf("expected insufficient-balance reply, got %v", sender.sent)
	}
}

func TestAcceptMissingLeadAndUnapprovedServiceShareReply(t *testing.T) {
	providers := &fakeProvidersRepo{provider: providerrepo.Provider{ID: 21}, approved: true}

	// Missing lead.
	leads := &fakeLeadsRepo{lead: testLead(), balance: 100}
	sender := &fakeSender{}
	svc := newPurchaseService(leads, providers, sender)
	if err := svc.Accept(context.Background(), "573001112233", 999); err != nil {
		t.Fatalf("accept missing lead: %v", err)
	}

	// Service not approved.
	leads2 := &fakeLeadsRepo{lead: testLead(), balance: 100}
	sender2 := &fakeSender{}
	svc2 := newPurchaseService(leads2, &fakeProvidersRepo{provider: providerrepo.Provider{ID: 21}}, sender2)
	if err := svc2.Accept(context.Background(), "573001112233", 7); err != nil {
		t.Fatalf("accept unapproved: %v", err)
	}

	if sender.sent[0] != sender2.sent[0] || sender.sent[0] != msgNotAuthorized {
		t.Fatalf("both rejections must share one reply: %q vs %q", sender.sent[0], sender2.sent[0])
	}
	if leads.balance != 100 || leads2.balance != 100 {
		t.Fatal("rejections must not mutate state")
	}
}

func TestAcceptUnknownSenderIsSilent(t *testing.T) {
	leads := &fakeLeadsRepo{lead: testLead(), balance: 100}
	providers := &fakeProvidersRepo{findErr: apperr.NotFound("provider not found")}
	sender := &fakeSender{}
	svc := newPurchaseService(leads, providers, sender)

	if err := svc.Accept(context.Background(), "570000000000", 7); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("unknown sender must not receive a reply")
	}
}

func TestAcceptAmbiguousSenderIsSilent(t *testing.T) {
	leads := &fakeLeadsRepo{lead: testLead(), balance: 100}
	providers := &fakeProvidersRepo{findErr: apperr.Conflict("phone matches more than one provider")}
	sender := &fakeSender{}
	svc := newPurchaseService(leads, providers, sender)

	if err := svc.Accept(context.Background(), "3001112233", 7); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if len(sender.sent) != 0 || leads.balance != 100 {
		t.Fatal("ambiguous sender must cause no reply and no mutation")
	}
}

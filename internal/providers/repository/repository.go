package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/juanctr3/b2b/platform/apperr"
)

const (
	providerNotFoundMessage  = "provider not found"
	providerAmbiguousMessage = "phone matches more than one provider"
)

// Provider is a marketplace provider with a prepaid credit wallet.
type Provider struct {
	ID            int64
	Name          string
	Phone         string
	Email         string
	WalletBalance int
	PhoneStatus   string
	BonusGranted  bool
	CreatedAt     time.Time
}

// Phone verification states.
const (
	PhoneStatusUnverified = "unverified"
	PhoneStatusVerified   = "verified"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new providers repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// FindByPhone resolves a provider whose stored phone contains the given digit
// string. Stored phones may carry formatting, so matching is tolerant. A miss
// returns a NotFound error; more than one match returns a Conflict error
// instead of silently picking the first row.
func (r *Repo) FindByPhone(ctx context.Context, digits string) (Provider, error) {
	if digits == "" {
		return Provider{}, apperr.NotFound(providerNotFoundMessage)
	}

	query := `
		SELECT id, name, phone, email, wallet_balance, phone_status, bonus_granted, created_at
		FROM providers
		WHERE phone LIKE '%' || $1 || '%'
		LIMIT 2`

	rows, err := r.pool.Query(ctx, query, digits)
	if err != nil {
		return Provider{}, fmt.Errorf("find provider by phone: %w", err)
	}
	defer rows.Close()

	var matches []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.WalletBalance, &p.PhoneStatus, &p.BonusGranted, &p.CreatedAt); err != nil {
			return Provider{}, fmt.Errorf("scan provider: %w", err)
		}
		matches = append(matches, p)
	}
	if rows.Err() != nil {
		return Provider{}, fmt.Errorf("find provider by phone: %w", rows.Err())
	}

	switch len(matches) {
	case 0:
		return Provider{}, apperr.NotFound(providerNotFoundMessage)
	case 1:
		return matches[0], nil
	default:
		return Provider{}, apperr.Conflict(providerAmbiguousMessage)
	}
}

// GetByID retrieves a provider by its identifier.
func (r *Repo) GetByID(ctx context.Context, id int64) (Provider, error) {
	query := `
		SELECT id, name, phone, email, wallet_balance, phone_status, bonus_granted, created_at
		FROM providers
		WHERE id = $1`

	var p Provider
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Phone, &p.Email, &p.WalletBalance, &p.PhoneStatus, &p.BonusGranted, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provider{}, apperr.NotFound(providerNotFoundMessage)
		}
		return Provider{}, fmt.Errorf("get provider by id: %w", err)
	}

	return p, nil
}

// MarkPhoneVerified sets the provider's phone status to verified.
// Repeating the update is harmless.
func (r *Repo) MarkPhoneVerified(ctx context.Context, id int64) error {
	query := `UPDATE providers SET phone_status = $2, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, PhoneStatusVerified)
	if err != nil {
		return fmt.Errorf("mark phone verified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(providerNotFoundMessage)
	}

	return nil
}

// GrantWelcomeBonus credits the one-time signup bonus. The conditional update
// makes the grant atomic: a concurrent duplicate observes bonus_granted = TRUE
// and affects zero rows.
func (r *Repo) GrantWelcomeBonus(ctx context.Context, id int64, amount int) (bool, error) {
	query := `
		UPDATE providers
		SET wallet_balance = wallet_balance + $2, bonus_granted = TRUE, updated_at = now()
		WHERE id = $1 AND NOT bonus_granted`

	result, err := r.pool.Exec(ctx, query, id, amount)
	if err != nil {
		return false, fmt.Errorf("grant welcome bonus: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// IsServiceApproved reports whether the admin approved the given service
// category for this provider.
func (r *Repo) IsServiceApproved(ctx context.Context, providerID, serviceID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM provider_services WHERE provider_id = $1 AND service_id = $2)`

	var approved bool
	if err := r.pool.QueryRow(ctx, query, providerID, serviceID).Scan(&approved); err != nil {
		return false, fmt.Errorf("check service approval: %w", err)
	}

	return approved, nil
}

// ListNotifiable returns verified providers approved for the given service,
// the audience of a new-lead broadcast.
func (r *Repo) ListNotifiable(ctx context.Context, serviceID int64) ([]Provider, error) {
	query := `
		SELECT p.id, p.name, p.phone, p.email, p.wallet_balance, p.phone_status, p.bonus_granted, p.created_at
		FROM providers p
		JOIN provider_services ps ON ps.provider_id = p.id
		WHERE ps.service_id = $1 AND p.phone_status = $2 AND p.phone <> ''
		ORDER BY p.id`

	rows, err := r.pool.Query(ctx, query, serviceID, PhoneStatusVerified)
	if err != nil {
		return nil, fmt.Errorf("list notifiable providers: %w", err)
	}
	defer rows.Close()

	var providers []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.WalletBalance, &p.PhoneStatus, &p.BonusGranted, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("list notifiable providers: %w", rows.Err())
	}

	return providers, nil
}

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

const leadNotFoundMessage = "lead not found"

// Lead is a client's service request offered for purchase to providers.
// Leads are created by the intake process; this service reads them and flips
// the verified flag once the client confirms ownership of their contact data.
type Lead struct {
	ID               int64
	City             string
	Requirement      string
	CostCredits      int
	ServiceID        int64
	ClientName       string
	ClientPhone      string
	ClientEmail      string
	ClientCompany    string
	VerificationCode string
	IsVerified       bool
	CreatedAt        time.Time
}

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const leadColumns = `id, city, requirement, cost_credits, service_id,
	client_name, client_phone, client_email, client_company,
	verification_code, is_verified, created_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.City, &l.Requirement, &l.CostCredits, &l.ServiceID,
		&l.ClientName, &l.ClientPhone, &l.ClientEmail, &l.ClientCompany,
		&l.VerificationCode, &l.IsVerified, &l.CreatedAt,
	)
	return l, err
}

// GetByID retrieves a lead by its identifier.
func (r *Repo) GetByID(ctx context.Context, id int64) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	l, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}

	return l, nil
}

// FindPendingByClientPhone returns the most recent unverified lead whose
// client phone ends with the given digits. The inbound sender already lost
// its '+' and country formatting, so a suffix match is the tolerant option.
func (r *Repo) FindPendingByClientPhone(ctx context.Context, digits string) (Lead, error) {
	if digits == "" {
		return Lead{}, apperr.NotFound(leadNotFoundMessage)
	}

	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE client_phone LIKE '%' || $1 AND is_verified = FALSE
		ORDER BY created_at DESC
		LIMIT 1`

	l, err := scanLead(r.pool.QueryRow(ctx, query, digits))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("find pending lead by client phone: %w", err)
	}

	return l, nil
}

// MarkVerified flips the lead's verified flag after a successful code check.
func (r *Repo) MarkVerified(ctx context.Context, id int64) error {
	query := `UPDATE leads SET is_verified = TRUE, updated_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("mark lead verified: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMessage)
	}

	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PurchaseOutcome is the result of an unlock attempt.
type PurchaseOutcome int

const (
	// OutcomePurchased means the wallet was debited and an unlock recorded.
	OutcomePurchased PurchaseOutcome = iota
	// OutcomeAlreadyUnlocked means this provider already holds the unlock;
	// no debit happened.
	OutcomeAlreadyUnlocked
	// OutcomeInsufficientBalance means the wallet could not cover the cost;
	// nothing was written.
	OutcomeInsufficientBalance
)

// Purchase atomically records an unlock for (lead, provider) and debits the
// provider's wallet by cost. Both writes happen in one transaction:
//
//   - the unique (lead_id, provider_id) index serializes concurrent duplicate
//     attempts, the loser observes the conflict and takes the re-fetch path;
//   - the debit is conditional on wallet_balance >= cost, so the balance can
//     never go negative no matter the interleaving.
//
// It returns the new balance on OutcomePurchased.
func (r *Repo) Purchase(ctx context.Context, leadID, providerID int64, cost int) (PurchaseOutcome, int, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, 0, fmt.Errorf("begin purchase: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result, err := tx.Exec(ctx,
		`INSERT INTO lead_unlocks (lead_id, provider_id)
		 VALUES ($1, $2)
		 ON CONFLICT (lead_id, provider_id) DO NOTHING`,
		leadID, providerID,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("insert unlock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return OutcomeAlreadyUnlocked, 0, nil
	}

	var newBalance int
	err = tx.QueryRow(ctx,
		`UPDATE providers
		 SET wallet_balance = wallet_balance - $2, updated_at = now()
		 WHERE id = $1 AND wallet_balance >= $2
		 RETURNING wallet_balance`,
		providerID, cost,
	).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Insufficient funds: roll the unlock back too.
			return OutcomeInsufficientBalance, 0, nil
		}
		return 0, 0, fmt.Errorf("debit wallet: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("commit purchase: %w", err)
	}

	return OutcomePurchased, newBalance, nil
}

// IsUnlocked reports whether the provider already purchased this lead.
func (r *Repo) IsUnlocked(ctx context.Context, leadID, providerID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM lead_unlocks WHERE lead_id = $1 AND provider_id = $2)`

	var unlocked bool
	if err := r.pool.QueryRow(ctx, query, leadID, providerID).Scan(&unlocked); err != nil {
		return false, fmt.Errorf("check unlock: %w", err)
	}

	return unlocked, nil
}

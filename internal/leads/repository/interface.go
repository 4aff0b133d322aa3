package repository

import "context"

// Repository defines lead and unlock-ledger store access for the service layer.
type Repository interface {
	GetByID(ctx context.Context, id int64) (Lead, error)
	FindPendingByClientPhone(ctx context.Context, digits string) (Lead, error)
	MarkVerified(ctx context.Context, id int64) error
	Purchase(ctx context.Context, leadID, providerID int64, cost int) (PurchaseOutcome, int, error)
	IsUnlocked(ctx context.Context, leadID, providerID int64) (bool, error)
}

package repository

import "context"

// Repository defines provider store access for the service layer.
type Repository interface {
	FindByPhone(ctx context.Context, digits string) (Provider, error)
	GetByID(ctx context.Context, id int64) (Provider, error)
	MarkPhoneVerified(ctx context.Context, id int64) error
	GrantWelcomeBonus(ctx context.Context, id int64, amount int) (bool, error)
	IsServiceApproved(ctx context.Context, providerID, serviceID int64) (bool, error)
	ListNotifiable(ctx context.Context, serviceID int64) ([]Provider, error)
}

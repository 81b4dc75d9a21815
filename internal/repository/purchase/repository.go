package purchase

import (
	"context"

	"lms-commerce/internal/domain"
)

type Repository interface {
	// Grant records ownership. An already active row for the same item yields domain.ErrAlreadyExists;
	// an inactive one is reactivated.
	Grant(ctx context.Context, p domain.UserPurchase) (*domain.UserPurchase, error)
	// Owned returns the subset of refs the user holds an active purchase for.
	Owned(ctx context.Context, userID string, refs []domain.ItemRef) ([]domain.ItemRef, error)
	ListActive(ctx context.Context, userID string, itemType domain.ItemType) ([]domain.UserPurchase, error)
}

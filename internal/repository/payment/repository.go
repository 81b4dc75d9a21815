package payment

import (
	"context"

	"lms-commerce/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, p domain.Payment) (*domain.Payment, error)
	GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	// ListByOrders returns payments keyed by internal order id.
	ListByOrders(ctx context.Context, orderIDs []string) (map[string]domain.Payment, error)
}

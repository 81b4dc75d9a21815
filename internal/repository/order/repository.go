package order

import (
	"context"
	"time"

	"lms-commerce/internal/domain"
)

// CompleteInput carries the fields stamped on an order when it reaches completed.
type CompleteInput struct {
	GatewayPaymentID *string
	GatewaySignature *string
	PaymentID        *string
	CompletedAt      time.Time
}

type Repository interface {
	// Create inserts the order. A clash on the human order id yields domain.ErrAlreadyExists.
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	GetByOrderID(ctx context.Context, userID, orderID string) (*domain.Order, error)
	// LockByOrderID is GetByOrderID with a row lock held until the transaction ends.
	LockByOrderID(ctx context.Context, userID, orderID string) (*domain.Order, error)
	// GetByRef matches either the human order id or the internal id.
	GetByRef(ctx context.Context, userID, ref string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error
	MarkCompleted(ctx context.Context, id string, in CompleteInput) (*domain.Order, error)
}

package user

import (
	"context"
	"time"

	"lms-commerce/internal/domain"
)

type Repository interface {
	Create(ctx context.Context, u domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// RecordPurchase bumps the aggregate purchase counter.
	RecordPurchase(ctx context.Context, id string, at time.Time) error
}

package enrollment

import (
	"context"
	"time"

	"lms-commerce/internal/domain"
)

// GrantInput stamps purchase metadata on an enrollment.
type GrantInput struct {
	UserID      string
	CourseID    string
	OrderID     string
	PurchasedAt time.Time
}

type Repository interface {
	// Upsert creates the enrollment or stamps purchase metadata on the existing one, leaving progress alone.
	// created is true only when a new row was inserted.
	Upsert(ctx context.Context, in GrantInput) (e *domain.Enrollment, created bool, err error)
	Get(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
	GetByID(ctx context.Context, id string) (*domain.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
	UpdateProgress(ctx context.Context, id string, completed []string, progress int) (*domain.Enrollment, error)
}

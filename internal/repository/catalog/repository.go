package catalog

import (
	"context"
	"time"

	"lms-commerce/internal/domain"
)

type Repository interface {
	ListCourses(ctx context.Context) ([]domain.Course, error)
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	UpsertCourse(ctx context.Context, c domain.Course) (*domain.Course, error)
	ListLectures(ctx context.Context, courseID string) ([]domain.Lecture, error)
	CountLectures(ctx context.Context, courseID string) (int, error)
	UpsertLecture(ctx context.Context, l domain.Lecture) (*domain.Lecture, error)

	ListStoreItems(ctx context.Context) ([]domain.StoreItem, error)
	GetStoreItem(ctx context.Context, id string) (*domain.StoreItem, error)
	UpsertStoreItem(ctx context.Context, s domain.StoreItem) (*domain.StoreItem, error)

	// GetItem resolves a course or store item into its type-independent view.
	GetItem(ctx context.Context, ref domain.ItemRef) (*domain.CatalogItem, error)
	// IncrementEnrolled bumps the course's denormalized enrollment counter.
	IncrementEnrolled(ctx context.Context, courseID string) error
	// RecordStoreSale bumps the store item's purchase counter and last purchase time.
	RecordStoreSale(ctx context.Context, itemID string, at time.Time) error
}

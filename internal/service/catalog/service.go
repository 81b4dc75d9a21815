package catalog

import (
	"context"
	"errors"

	"lms-commerce/internal/domain"
	catalogrepo "lms-commerce/internal/repository/catalog"
)

type purchaseReader interface {
	Owned(ctx context.Context, userID string, refs []domain.ItemRef) ([]domain.ItemRef, error)
	ListActive(ctx context.Context, userID string, itemType domain.ItemType) ([]domain.UserPurchase, error)
}

type Service struct {
	repo      catalogrepo.Repository
	purchases purchaseReader
}

func New(repo catalogrepo.Repository, purchases purchaseReader) *Service {
	return &Service{repo: repo, purchases: purchases}
}

func (s *Service) ListCourses(ctx context.Context) ([]domain.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if courses == nil && err == nil {
		courses = []domain.Course{}
	}
	return courses, err
}

func (s *Service) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	if !domain.IsID(id) {
		return nil, domain.NotFound("Course not found")
	}
	c, err := s.repo.GetCourse(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Course not found")
	}
	return c, err
}

func (s *Service) ListLectures(ctx context.Context, courseID string) ([]domain.Lecture, error) {
	if _, err := s.GetCourse(ctx, courseID); err != nil {
		return nil, err
	}
	lectures, err := s.repo.ListLectures(ctx, courseID)
	if lectures == nil && err == nil {
		lectures = []domain.Lecture{}
	}
	return lectures, err
}

func (s *Service) ListStoreItems(ctx context.Context) ([]domain.StoreItem, error) {
	items, err := s.repo.ListStoreItems(ctx)
	if items == nil && err == nil {
		items = []domain.StoreItem{}
	}
	return items, err
}

func (s *Service) GetStoreItem(ctx context.Context, id string) (*domain.StoreItem, error) {
	if !domain.IsID(id) {
		return nil, domain.NotFound("Store item not found")
	}
	item, err := s.repo.GetStoreItem(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Store item not found")
	}
	return item, err
}

// IsPurchased reports whether userID holds an active purchase of ref. An empty userID is never an owner.
func (s *Service) IsPurchased(ctx context.Context, userID string, ref domain.ItemRef) (bool, error) {
	if userID == "" {
		return false, nil
	}
	owned, err := s.purchases.Owned(ctx, userID, []domain.ItemRef{ref})
	if err != nil {
		return false, err
	}
	return len(owned) > 0, nil
}

// PurchasedStoreItem pairs an ownership row with the current store item, which may have been deleted.
type PurchasedStoreItem struct {
	Purchase domain.UserPurchase `json:"purchase"`
	Item     *domain.StoreItem   `json:"item"`
}

func (s *Service) MyStorePurchases(ctx context.Context, userID string) ([]PurchasedStoreItem, error) {
	purchases, err := s.purchases.ListActive(ctx, userID, domain.ItemTypeStoreItem)
	if err != nil {
		return nil, err
	}
	res := make([]PurchasedStoreItem, 0, len(purchases))
	for _, p := range purchases {
		item, err := s.repo.GetStoreItem(ctx, p.ItemID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		res = append(res, PurchasedStoreItem{Purchase: p, Item: item})
	}
	return res, nil
}

package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lms-commerce/internal/domain"
)

type cartRepo interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error)
	AddItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, cartID, itemID string) error
	Clear(ctx context.Context, cartID string) error
}

type itemLookup interface {
	GetItem(ctx context.Context, ref domain.ItemRef) (*domain.CatalogItem, error)
}

type ownership interface {
	Owned(ctx context.Context, userID string, refs []domain.ItemRef) ([]domain.ItemRef, error)
}

type Service struct {
	repo      cartRepo
	catalog   itemLookup
	purchases ownership
}

func New(repo cartRepo, catalog itemLookup, purchases ownership) *Service {
	return &Service{repo: repo, catalog: catalog, purchases: purchases}
}

// Line is a cart item together with the live catalog item, nil when the item has been removed from the catalog.
type Line struct {
	domain.CartItem
	Item *domain.CatalogItem `json:"item"`
}

type View struct {
	Cart       domain.Cart
	Items      []Line
	TotalMinor int64
	ItemCount  int
}

type AddInput struct {
	ItemType domain.ItemType `json:"itemType"`
	ItemID   string          `json:"itemId"`
}

// Get returns the user's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, userID string) (*View, error) {
	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, *cart)
}

func (s *Service) view(ctx context.Context, cart domain.Cart) (*View, error) {
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		current, err := s.catalog.GetItem(ctx, it.Ref())
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		lines = append(lines, Line{CartItem: it, Item: current})
	}
	return &View{
		Cart:       cart,
		Items:      lines,
		TotalMinor: domain.CartTotal(items),
		ItemCount:  len(items),
	}, nil
}

// AddItem puts one unit of a catalog item in the cart, capturing its price and a display snapshot.
func (s *Service) AddItem(ctx context.Context, userID string, in AddInput) (*View, error) {
	in.ItemID = strings.TrimSpace(in.ItemID)
	if in.ItemType == "" || in.ItemID == "" {
		return nil, domain.Invalid("Item type and ID are required")
	}
	if !in.ItemType.Valid() {
		return nil, domain.Invalid(`Invalid item type. Must be "course" or "storeItem"`)
	}
	ref := domain.ItemRef{Type: in.ItemType, ID: in.ItemID}
	if !domain.IsID(ref.ID) {
		return nil, domain.NotFound(ref.Type.NotFoundMessage())
	}

	owned, err := s.purchases.Owned(ctx, userID, []domain.ItemRef{ref})
	if err != nil {
		return nil, err
	}
	if len(owned) > 0 {
		return nil, domain.Invalid(fmt.Sprintf("You already own this %s", ref.Type.Noun()))
	}

	item, err := s.catalog.GetItem(ctx, ref)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(ref.Type.NotFoundMessage())
		}
		return nil, err
	}

	cart, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	_, err = s.repo.AddItem(ctx, domain.CartItem{
		CartID:     cart.ID,
		ItemType:   item.Type,
		ItemID:     item.ID,
		PriceMinor: item.PriceMinor,
		Quantity:   1,
		Snapshot:   snapshotOf(*item),
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.Invalid("Item is already in your cart")
		}
		return nil, err
	}
	return s.view(ctx, *cart)
}

func (s *Service) RemoveItem(ctx context.Context, userID, cartItemID string) (*View, error) {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !domain.IsID(cartItemID) {
		return nil, domain.NotFound("Cart item not found")
	}
	if err := s.repo.RemoveItem(ctx, cart.ID, cartItemID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Cart item not found")
		}
		return nil, err
	}
	return s.view(ctx, *cart)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return err
	}
	return s.repo.Clear(ctx, cart.ID)
}

// Total returns the cart total and item count. A user without a cart has an empty one.
func (s *Service) Total(ctx context.Context, userID string) (int64, int, error) {
	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	items, err := s.repo.ListItems(ctx, cart.ID)
	if err != nil {
		return 0, 0, err
	}
	return domain.CartTotal(items), len(items), nil
}

func (s *Service) existing(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.NotFound("Cart not found")
	}
	return cart, err
}

func snapshotOf(item domain.CatalogItem) domain.ItemSnapshot {
	return domain.ItemSnapshot{
		Name:        item.Name,
		Thumbnail:   item.Thumbnail,
		Description: item.Description,
	}
}

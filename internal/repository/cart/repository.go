package cart

import (
	"context"

	"lms-commerce/internal/domain"
)

type Repository interface {
	// GetOrCreate returns the user's cart, creating it on first access.
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error)
	// AddItem returns domain.ErrAlreadyExists when the (cart, type, item) line exists.
	AddItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, cartID, itemID string) error
	UpdateItemPrice(ctx context.Context, itemID string, priceMinor int64) error
	Clear(ctx context.Context, cartID string) error
	ClearByUser(ctx context.Context, userID string) error
}

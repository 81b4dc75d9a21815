package cart

import (
	"context"
	"encoding/json"
	"errors"

	"lms-commerce/internal/db"
	"lms-commerce/internal/domain"
	"lms-commerce/internal/logging"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

type postgresRepo struct {
	q      db.DBTX
	logger logrus.FieldLogger
}

func NewPostgres(q db.DBTX, logger logrus.FieldLogger) Repository {
	return &postgresRepo{q: q, logger: logging.OrDiscard(logger).WithField("repo", "cart")}
}

func (r *postgresRepo) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const q = `
INSERT INTO carts (user_id)
VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id::text, user_id::text, created_at, updated_at
`
	var c domain.Cart
	if err := r.q.QueryRow(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("get or create cart")
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) GetByUser(ctx context.Context, userID string) (*domain.Cart, error) {
	const q = `
SELECT id::text, user_id::text, created_at, updated_at
FROM carts
WHERE user_id = $1
`
	var c domain.Cart
	if err := r.q.QueryRow(ctx, q, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *postgresRepo) ListItems(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	const q = `
SELECT id::text, cart_id::text, item_type, item_id::text, price_minor, quantity, snapshot, added_at
FROM cart_items
WHERE cart_id = $1
ORDER BY added_at, id
`
	rows, err := r.q.Query(ctx, q, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		var (
			it       domain.CartItem
			itemType string
			snapshot []byte
		)
		if err := rows.Scan(&it.ID, &it.CartID, &itemType, &it.ItemID, &it.PriceMinor, &it.Quantity, &snapshot, &it.AddedAt); err != nil {
			return nil, err
		}
		it.ItemType = domain.ItemType(itemType)
		if len(snapshot) > 0 {
			if err := json.Unmarshal(snapshot, &it.Snapshot); err != nil {
				return nil, err
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *postgresRepo) AddItem(ctx context.Context, item domain.CartItem) (*domain.CartItem, error) {
	snapshot, err := json.Marshal(item.Snapshot)
	if err != nil {
		return nil, err
	}
	qty := item.Quantity
	if qty <= 0 {
		qty = 1
	}
	// DO NOTHING keeps a concurrent duplicate from aborting an enclosing transaction.
	const q = `
INSERT INTO cart_items (cart_id, item_type, item_id, price_minor, quantity, snapshot)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (cart_id, item_type, item_id) DO NOTHING
RETURNING id::text, added_at
`
	res := item
	res.Quantity = qty
	err = r.q.QueryRow(ctx, q, item.CartID, string(item.ItemType), item.ItemID, item.PriceMinor, qty, snapshot).Scan(&res.ID, &res.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).WithField("cart_id", item.CartID).Error("add cart item")
		return nil, err
	}
	if _, err := r.q.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, item.CartID); err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *postgresRepo) RemoveItem(ctx context.Context, cartID, itemID string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		if db.IsInvalidText(err) {
			return domain.ErrNotFound
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	_, err = r.q.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
	return err
}

func (r *postgresRepo) UpdateItemPrice(ctx context.Context, itemID string, priceMinor int64) error {
	cmd, err := r.q.Exec(ctx, `UPDATE cart_items SET price_minor = $2 WHERE id = $1`, itemID, priceMinor)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Clear(ctx context.Context, cartID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	_, err := r.q.Exec(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID)
	return err
}

func (r *postgresRepo) ClearByUser(ctx context.Context, userID string) error {
	_, err := r.q.Exec(ctx, `
DELETE FROM cart_items
USING carts
WHERE cart_items.cart_id = carts.id AND carts.user_id = $1
`, userID)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("clear cart")
	}
	return err
}

package purchase

import (
	"context"
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
	return &postgresRepo{q: q, logger: logging.OrDiscard(logger).WithField("repo", "purchase")}
}

const purchaseColumns = `id::text, user_id::text, item_type, item_id::text, order_id::text, purchased_at, is_active, expires_at`

func (r *postgresRepo) Grant(ctx context.Context, p domain.UserPurchase) (*domain.UserPurchase, error) {
	// The WHERE on the conflict branch leaves active rows untouched, so RETURNING is empty for them.
	q := `
INSERT INTO user_purchases (user_id, item_type, item_id, order_id, purchased_at, is_active, expires_at)
VALUES ($1, $2, $3, $4, $5, TRUE, $6)
ON CONFLICT (user_id, item_id, item_type) DO UPDATE SET
    order_id = EXCLUDED.order_id,
    purchased_at = EXCLUDED.purchased_at,
    is_active = TRUE,
    expires_at = EXCLUDED.expires_at
WHERE user_purchases.is_active = FALSE
RETURNING ` + purchaseColumns
	res, err := scan(r.q.QueryRow(ctx, q, p.UserID, string(p.ItemType), p.ItemID, p.OrderID, p.PurchasedAt, p.ExpiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithFields(logrus.Fields{"user_id": p.UserID, "item_id": p.ItemID}).Warn("purchase already active")
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	return res, nil
}

func (r *postgresRepo) Owned(ctx context.Context, userID string, refs []domain.ItemRef) ([]domain.ItemRef, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	types := make([]string, len(refs))
	ids := make([]string, len(refs))
	for i, ref := range refs {
		types[i] = string(ref.Type)
		ids[i] = ref.ID
	}
	rows, err := r.q.Query(ctx, `
SELECT p.item_type, p.item_id::text
FROM user_purchases p
JOIN unnest($2::text[], $3::text[]) AS want(item_type, item_id)
  ON p.item_type = want.item_type AND p.item_id::text = want.item_id
WHERE p.user_id = $1 AND p.is_active
`, userID, types, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owned []domain.ItemRef
	for rows.Next() {
		var ref domain.ItemRef
		var itemType string
		if err := rows.Scan(&itemType, &ref.ID); err != nil {
			return nil, err
		}
		ref.Type = domain.ItemType(itemType)
		owned = append(owned, ref)
	}
	return owned, rows.Err()
}

func (r *postgresRepo) ListActive(ctx context.Context, userID string, itemType domain.ItemType) ([]domain.UserPurchase, error) {
	rows, err := r.q.Query(ctx, `
SELECT `+purchaseColumns+`
FROM user_purchases
WHERE user_id = $1 AND is_active AND ($2 = '' OR item_type = $2)
ORDER BY purchased_at DESC
`, userID, string(itemType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.UserPurchase{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

func scan(row pgx.Row) (*domain.UserPurchase, error) {
	var p domain.UserPurchase
	var itemType string
	if err := row.Scan(&p.ID, &p.UserID, &itemType, &p.ItemID, &p.OrderID, &p.PurchasedAt, &p.IsActive, &p.ExpiresAt); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	p.ItemType = domain.ItemType(itemType)
	return &p, nil
}

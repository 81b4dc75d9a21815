package order

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
	return &postgresRepo{q: q, logger: logging.OrDiscard(logger).WithField("repo", "order")}
}

const orderColumns = `id::text, order_id, user_id::text, items, total_minor, currency, payment_status, payment_method,
       gateway_order_id, gateway_payment_id, gateway_signature, payment_id::text, failure_reason,
       created_at, updated_at, completed_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, err
	}
	q := `
INSERT INTO orders (order_id, user_id, items, total_minor, currency, payment_status, payment_method, gateway_order_id, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (order_id) DO NOTHING
RETURNING ` + orderColumns
	res, err := r.scan(r.q.QueryRow(ctx, q,
		o.OrderID,
		o.UserID,
		items,
		o.TotalMinor,
		o.Currency,
		string(o.PaymentStatus),
		string(o.PaymentMethod),
		o.GatewayOrderID,
		o.CompletedAt,
	))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAlreadyExists
	}
	return res, err
}

func (r *postgresRepo) GetByOrderID(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return r.scan(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1 AND user_id = $2`, orderID, userID))
}

func (r *postgresRepo) LockByOrderID(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	return r.scan(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1 AND user_id = $2 FOR UPDATE`, orderID, userID))
}

func (r *postgresRepo) GetByRef(ctx context.Context, userID, ref string) (*domain.Order, error) {
	return r.scan(r.q.QueryRow(ctx, `
SELECT `+orderColumns+`
FROM orders
WHERE user_id = $1 AND (order_id = $2 OR id::text = $2)
LIMIT 1
`, userID, ref))
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.q.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("list orders")
		return nil, err
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		o, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) SetGatewayOrder(ctx context.Context, id, gatewayOrderID string) error {
	cmd, err := r.q.Exec(ctx, `
UPDATE orders
SET gateway_order_id = $2, updated_at = NOW()
WHERE id = $1 AND payment_status = 'pending'
`, id, gatewayOrderID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) MarkCompleted(ctx context.Context, id string, in CompleteInput) (*domain.Order, error) {
	q := `
UPDATE orders
SET payment_status = 'completed',
    gateway_payment_id = COALESCE($2, gateway_payment_id),
    gateway_signature = COALESCE($3, gateway_signature),
    payment_id = COALESCE($4::uuid, payment_id),
    completed_at = $5,
    updated_at = NOW()
WHERE id = $1 AND payment_status = 'pending'
RETURNING ` + orderColumns
	o, err := r.scan(r.q.QueryRow(ctx, q, id, in.GatewayPaymentID, in.GatewaySignature, in.PaymentID, in.CompletedAt))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}
	r.logger.WithField("order_id", o.OrderID).Info("order completed")
	return o, nil
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		items  []byte
		status string
		method string
	)
	err := row.Scan(
		&o.ID,
		&o.OrderID,
		&o.UserID,
		&items,
		&o.TotalMinor,
		&o.Currency,
		&status,
		&method,
		&o.GatewayOrderID,
		&o.GatewayPaymentID,
		&o.GatewaySignature,
		&o.PaymentID,
		&o.FailureReason,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		if !db.IsUniqueViolation(err) {
			r.logger.WithError(err).Error("scan order")
		}
		return nil, err
	}
	o.PaymentStatus = domain.PaymentStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, err
	}
	return &o, nil
}

package payment

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
	return &postgresRepo{q: q, logger: logging.OrDiscard(logger).WithField("repo", "payment")}
}

const paymentColumns = `id::text, order_id::text, user_id::text, amount_minor, currency, status, method,
       gateway_order_id, gateway_payment_id, gateway_signature, gateway_response, attempt_number,
       failure_reason, completed_at, created_at`

func (r *postgresRepo) Create(ctx context.Context, p domain.Payment) (*domain.Payment, error) {
	resp := p.GatewayResponse
	if resp == nil {
		resp = map[string]interface{}{}
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	attempt := p.AttemptNumber
	if attempt <= 0 {
		attempt = 1
	}
	q := `
INSERT INTO payments (order_id, user_id, amount_minor, currency, status, method, gateway_order_id,
                      gateway_payment_id, gateway_signature, gateway_response, attempt_number, failure_reason, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING ` + paymentColumns
	return r.scan(r.q.QueryRow(ctx, q,
		p.OrderID,
		p.UserID,
		p.AmountMinor,
		p.Currency,
		string(p.Status),
		string(p.Method),
		p.GatewayOrderID,
		p.GatewayPaymentID,
		p.GatewaySignature,
		raw,
		attempt,
		p.FailureReason,
		p.CompletedAt,
	))
}

func (r *postgresRepo) GetByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.scan(r.q.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
}

func (r *postgresRepo) ListByOrders(ctx context.Context, orderIDs []string) (map[string]domain.Payment, error) {
	res := make(map[string]domain.Payment, len(orderIDs))
	if len(orderIDs) == 0 {
		return res, nil
	}
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id::text = ANY($1)`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		res[p.OrderID] = *p
	}
	return res, rows.Err()
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.Payment, error) {
	var (
		p      domain.Payment
		status string
		method string
		raw    []byte
	)
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.UserID,
		&p.AmountMinor,
		&p.Currency,
		&status,
		&method,
		&p.GatewayOrderID,
		&p.GatewayPaymentID,
		&p.GatewaySignature,
		&raw,
		&p.AttemptNumber,
		&p.FailureReason,
		&p.CompletedAt,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).Error("scan payment")
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	p.Method = domain.PaymentMethod(method)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p.GatewayResponse); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

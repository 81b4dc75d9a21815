package payment

import (
	"context"
	"os"
	"testing"
	"time"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/migrate"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgres_CreateAndListByOrders(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, migrate.Apply(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE payments, orders, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	var userID, paidOrder, freeOrder string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ('Asha', 'asha@example.com', 'x') RETURNING id::text`).Scan(&userID))
	for ref, dst := range map[string]*string{"ORD-1-AAAAAA": &paidOrder, "ORD-2-BBBBBB": &freeOrder} {
		require.NoError(t, pool.QueryRow(ctx, `
INSERT INTO orders (order_id, user_id, items, total_minor, currency, payment_status, payment_method)
VALUES ($1, $2, '[]', 50000, 'INR', 'pending', 'razorpay')
RETURNING id::text`, ref, userID).Scan(dst))
	}

	repo := NewPostgres(pool, nil)
	now := time.Now()
	p, err := repo.Create(ctx, domain.Payment{
		OrderID:          paidOrder,
		UserID:           userID,
		AmountMinor:      50000,
		Currency:         "INR",
		Status:           domain.PaymentCompleted,
		Method:           domain.MethodRazorpay,
		GatewayOrderID:   "order_gw1",
		GatewayPaymentID: "pay_1",
		GatewaySignature: "sig",
		CompletedAt:      &now,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, p.AttemptNumber)

	got, err := repo.GetByOrder(ctx, paidOrder)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	_, err = repo.GetByOrder(ctx, freeOrder)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byOrder, err := repo.ListByOrders(ctx, []string{paidOrder, freeOrder, uuid.NewString()})
	require.NoError(t, err)
	require.Len(t, byOrder, 1)
	assert.Equal(t, "pay_1", byOrder[paidOrder].GatewayPaymentID)

	empty, err := repo.ListByOrders(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

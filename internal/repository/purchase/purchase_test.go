package purchase

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

func TestPostgres_GrantIsExclusive(t *testing.T) {
	ctx := context.Background()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	require.NoError(t, migrate.Apply(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE user_purchases, orders, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	var userID, orderID string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash) VALUES ('Asha', 'asha@example.com', 'x') RETURNING id::text`).Scan(&userID))
	require.NoError(t, pool.QueryRow(ctx, `
INSERT INTO orders (order_id, user_id, items, total_minor, currency, payment_status, payment_method)
VALUES ('ORD-1-ABCDEF', $1, '[]', 0, 'INR', 'completed', 'free')
RETURNING id::text`, userID).Scan(&orderID))

	repo := NewPostgres(pool, nil)
	course := domain.ItemRef{Type: domain.ItemTypeCourse, ID: uuid.NewString()}
	grant := domain.UserPurchase{UserID: userID, ItemType: course.Type, ItemID: course.ID, OrderID: orderID, PurchasedAt: time.Now()}

	p, err := repo.Grant(ctx, grant)
	require.NoError(t, err)
	assert.True(t, p.IsActive)

	_, err = repo.Grant(ctx, grant)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	other := domain.ItemRef{Type: domain.ItemTypeStoreItem, ID: uuid.NewString()}
	owned, err := repo.Owned(ctx, userID, []domain.ItemRef{course, other})
	require.NoError(t, err)
	assert.Equal(t, []domain.ItemRef{course}, owned)

	_, err = pool.Exec(ctx, `UPDATE user_purchases SET is_active = FALSE`)
	require.NoError(t, err)
	_, err = repo.Grant(ctx, grant)
	require.NoError(t, err, "inactive purchase is reactivated")

	list, err := repo.ListActive(ctx, userID, domain.ItemTypeStoreItem)
	require.NoError(t, err)
	assert.Empty(t, list)
	list, err = repo.ListActive(ctx, userID, "")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

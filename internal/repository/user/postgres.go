package user

import (
	"context"
	"errors"
	"strings"
	"time"

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

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(q db.DBTX, logger logrus.FieldLogger) Repository {
	return &postgresRepo{q: q, logger: logging.OrDiscard(logger).WithField("repo", "user")}
}

const userColumns = `id::text, name, email, password_hash, is_admin, phone_number, email_verified, purchase_count, last_purchase_at, created_at`

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
INSERT INTO users (name, email, password_hash, is_admin, phone_number, email_verified)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns
	return r.scan(r.q.QueryRow(ctx, q,
		u.Name,
		strings.ToLower(u.Email),
		u.PasswordHash,
		u.IsAdmin,
		u.PhoneNumber,
		u.EmailVerified,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.scan(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scan(r.q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) LIMIT 1`, email))
}

func (r *postgresRepo) RecordPurchase(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `
UPDATE users
SET purchase_count = purchase_count + 1,
    last_purchase_at = $2
WHERE id = $1
`, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scan(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.IsAdmin,
		&u.PhoneNumber,
		&u.EmailVerified,
		&u.PurchaseCount,
		&u.LastPurchaseAt,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		if db.IsUniqueViolation(err) {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.WithError(err).Error("scan user")
		return nil, err
	}
	return &u, nil
}

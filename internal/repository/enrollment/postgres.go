package enrollment

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
	return &postgresRepo{q: q, logger: logging.OrDiscard(logger).WithField("repo", "enrollment")}
}

const enrollmentColumns = `id::text, user_id::text, course_id::text, enrolled_at, progress, completed_lectures, order_id::text, is_paid, purchased_at`

func (r *postgresRepo) Upsert(ctx context.Context, in GrantInput) (*domain.Enrollment, bool, error) {
	// xmax is zero only for a freshly inserted tuple.
	q := `
INSERT INTO enrollments (user_id, course_id, enrolled_at, order_id, is_paid, purchased_at)
VALUES ($1, $2, $4, $3, TRUE, $4)
ON CONFLICT (user_id, course_id) DO UPDATE SET
    order_id = EXCLUDED.order_id,
    is_paid = TRUE,
    purchased_at = EXCLUDED.purchased_at
RETURNING ` + enrollmentColumns + `, (xmax = 0) AS inserted`
	var (
		e        domain.Enrollment
		inserted bool
	)
	err := r.q.QueryRow(ctx, q, in.UserID, in.CourseID, in.OrderID, in.PurchasedAt).Scan(
		&e.ID,
		&e.UserID,
		&e.CourseID,
		&e.EnrolledAt,
		&e.Progress,
		&e.CompletedLectures,
		&e.OrderID,
		&e.IsPaid,
		&e.PurchasedAt,
		&inserted,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{"user_id": in.UserID, "course_id": in.CourseID}).Error("upsert enrollment")
		return nil, false, err
	}
	return &e, inserted, nil
}

func (r *postgresRepo) Get(ctx context.Context, userID, courseID string) (*domain.Enrollment, error) {
	return scan(r.q.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1 AND course_id = $2`, userID, courseID))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Enrollment, error) {
	return scan(r.q.QueryRow(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id))
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE user_id = $1 ORDER BY enrolled_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []domain.Enrollment{}
	for rows.Next() {
		e, err := scan(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *e)
	}
	return res, rows.Err()
}

func (r *postgresRepo) UpdateProgress(ctx context.Context, id string, completed []string, progress int) (*domain.Enrollment, error) {
	if completed == nil {
		completed = []string{}
	}
	return scan(r.q.QueryRow(ctx, `
UPDATE enrollments
SET completed_lectures = $2, progress = $3
WHERE id = $1
RETURNING `+enrollmentColumns, id, completed, progress))
}

func scan(row pgx.Row) (*domain.Enrollment, error) {
	var e domain.Enrollment
	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.CourseID,
		&e.EnrolledAt,
		&e.Progress,
		&e.CompletedLectures,
		&e.OrderID,
		&e.IsPaid,
		&e.PurchasedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

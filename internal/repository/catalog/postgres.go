package catalog

import (
	"context"
	"errors"
	"fmt"
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
	return &postgresRepo{q: q, logger: logging.OrDiscard(logger).WithField("repo", "catalog")}
}

const courseColumns = `id::text, slug, title, description, instructor, price_minor, is_free, category, thumbnail, duration, level, enrolled_count, rating::float8, created_at`

func (r *postgresRepo) ListCourses(ctx context.Context) ([]domain.Course, error) {
	rows, err := r.q.Query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
	if err != nil {
		r.logger.WithError(err).Error("list courses")
		return nil, err
	}
	defer rows.Close()

	var result []domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.WithField("count", len(result)).Debug("list courses")
	return result, nil
}

func (r *postgresRepo) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	c, err := scanCourse(r.q.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if err != nil {
		return nil, r.lookupErr(err, "get course", id)
	}
	return c, nil
}

func (r *postgresRepo) UpsertCourse(ctx context.Context, c domain.Course) (*domain.Course, error) {
	q := `
INSERT INTO courses (slug, title, description, instructor, price_minor, is_free, category, thumbnail, duration, level)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (slug) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    instructor = EXCLUDED.instructor,
    price_minor = EXCLUDED.price_minor,
    is_free = EXCLUDED.is_free,
    category = EXCLUDED.category,
    thumbnail = EXCLUDED.thumbnail,
    duration = EXCLUDED.duration,
    level = EXCLUDED.level
RETURNING ` + courseColumns
	res, err := scanCourse(r.q.QueryRow(ctx, q,
		c.Slug,
		c.Title,
		c.Description,
		c.Instructor,
		c.PriceMinor,
		c.IsFree || c.PriceMinor == 0,
		c.Category,
		c.Thumbnail,
		c.Duration,
		levelOrDefault(c.Level),
	))
	if err != nil {
		r.logger.WithError(err).WithField("slug", c.Slug).Error("upsert course")
		return nil, err
	}
	return res, nil
}

func (r *postgresRepo) ListLectures(ctx context.Context, courseID string) ([]domain.Lecture, error) {
	rows, err := r.q.Query(ctx, `
SELECT id::text, course_id::text, title, video_url, position, duration_seconds
FROM lectures
WHERE course_id = $1
ORDER BY position
`, courseID)
	if err != nil {
		if db.IsInvalidText(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	defer rows.Close()

	var result []domain.Lecture
	for rows.Next() {
		var l domain.Lecture
		if err := rows.Scan(&l.ID, &l.CourseID, &l.Title, &l.VideoURL, &l.Position, &l.DurationSeconds); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

func (r *postgresRepo) CountLectures(ctx context.Context, courseID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM lectures WHERE course_id = $1`, courseID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *postgresRepo) UpsertLecture(ctx context.Context, l domain.Lecture) (*domain.Lecture, error) {
	const q = `
INSERT INTO lectures (course_id, title, video_url, position, duration_seconds)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (course_id, position) DO UPDATE SET
    title = EXCLUDED.title,
    video_url = EXCLUDED.video_url,
    duration_seconds = EXCLUDED.duration_seconds
RETURNING id::text
`
	res := l
	if err := r.q.QueryRow(ctx, q, l.CourseID, l.Title, l.VideoURL, l.Position, l.DurationSeconds).Scan(&res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

const storeColumns = `id::text, slug, name, description, price_minor, file_url, category, type, thumbnail, purchase_count, last_purchased_at, created_at`

func (r *postgresRepo) ListStoreItems(ctx context.Context) ([]domain.StoreItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+storeColumns+` FROM store_items ORDER BY created_at DESC`)
	if err != nil {
		r.logger.WithError(err).Error("list store items")
		return nil, err
	}
	defer rows.Close()

	var result []domain.StoreItem
	for rows.Next() {
		s, err := scanStoreItem(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *postgresRepo) GetStoreItem(ctx context.Context, id string) (*domain.StoreItem, error) {
	s, err := scanStoreItem(r.q.QueryRow(ctx, `SELECT `+storeColumns+` FROM store_items WHERE id = $1`, id))
	if err != nil {
		return nil, r.lookupErr(err, "get store item", id)
	}
	return s, nil
}

func (r *postgresRepo) UpsertStoreItem(ctx context.Context, s domain.StoreItem) (*domain.StoreItem, error) {
	itemType := s.Type
	if itemType == "" {
		itemType = domain.StoreItemOther
	}
	q := `
INSERT INTO store_items (slug, name, description, price_minor, file_url, category, type, thumbnail)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price_minor = EXCLUDED.price_minor,
    file_url = EXCLUDED.file_url,
    category = EXCLUDED.category,
    type = EXCLUDED.type,
    thumbnail = EXCLUDED.thumbnail
RETURNING ` + storeColumns
	res, err := scanStoreItem(r.q.QueryRow(ctx, q,
		s.Slug,
		s.Name,
		s.Description,
		s.PriceMinor,
		s.FileURL,
		s.Category,
		string(itemType),
		s.Thumbnail,
	))
	if err != nil {
		r.logger.WithError(err).WithField("slug", s.Slug).Error("upsert store item")
		return nil, err
	}
	return res, nil
}

func (r *postgresRepo) GetItem(ctx context.Context, ref domain.ItemRef) (*domain.CatalogItem, error) {
	switch ref.Type {
	case domain.ItemTypeCourse:
		c, err := r.GetCourse(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		item := c.AsItem()
		return &item, nil
	case domain.ItemTypeStoreItem:
		s, err := r.GetStoreItem(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		item := s.AsItem()
		return &item, nil
	default:
		return nil, fmt.Errorf("catalog repo: unknown item type %q", ref.Type)
	}
}

func (r *postgresRepo) IncrementEnrolled(ctx context.Context, courseID string) error {
	cmd, err := r.q.Exec(ctx, `UPDATE courses SET enrolled_count = enrolled_count + 1 WHERE id = $1`, courseID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) RecordStoreSale(ctx context.Context, itemID string, at time.Time) error {
	cmd, err := r.q.Exec(ctx, `
UPDATE store_items
SET purchase_count = purchase_count + 1,
    last_purchased_at = $2
WHERE id = $1
`, itemID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) lookupErr(err error, op, id string) error {
	if errors.Is(err, pgx.ErrNoRows) || db.IsInvalidText(err) {
		r.logger.WithField("id", id).Debug(op + ": not found")
		return domain.ErrNotFound
	}
	r.logger.WithError(err).WithField("id", id).Error(op)
	return err
}

func scanCourse(row pgx.Row) (*domain.Course, error) {
	var c domain.Course
	err := row.Scan(
		&c.ID,
		&c.Slug,
		&c.Title,
		&c.Description,
		&c.Instructor,
		&c.PriceMinor,
		&c.IsFree,
		&c.Category,
		&c.Thumbnail,
		&c.Duration,
		&c.Level,
		&c.EnrolledCount,
		&c.Rating,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanStoreItem(row pgx.Row) (*domain.StoreItem, error) {
	var s domain.StoreItem
	var itemType string
	err := row.Scan(
		&s.ID,
		&s.Slug,
		&s.Name,
		&s.Description,
		&s.PriceMinor,
		&s.FileURL,
		&s.Category,
		&itemType,
		&s.Thumbnail,
		&s.PurchaseCount,
		&s.LastPurchasedAt,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Type = domain.StoreItemType(itemType)
	return &s, nil
}

func levelOrDefault(level string) string {
	if level == "" {
		return "beginner"
	}
	return level
}

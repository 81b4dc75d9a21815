package seed

import (
	"context"
	"errors"

	"lms-commerce/internal/db"
	"lms-commerce/internal/domain"
	"lms-commerce/internal/logging"
	catalogrepo "lms-commerce/internal/repository/catalog"
	userrepo "lms-commerce/internal/repository/user"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	DemoEmail    = "demo@example.com"
	DemoPassword = "password123"
)

type courseSeed struct {
	course   domain.Course
	lectures []domain.Lecture
}

var courses = []courseSeed{
	{
		course: domain.Course{
			Slug:        "go-for-backend-engineers",
			Title:       "Go for Backend Engineers",
			Description: "Build HTTP services, work with Postgres and ship to production.",
			Instructor:  "Meera Iyer",
			PriceMinor:  50000,
			Category:    "programming",
			Duration:    "6h",
			Level:       "intermediate",
		},
		lectures: []domain.Lecture{
			{Title: "Setting up the toolchain", DurationSeconds: 420},
			{Title: "Handlers and routing", DurationSeconds: 900},
			{Title: "Talking to Postgres", DurationSeconds: 1200},
		},
	},
	{
		course: domain.Course{
			Slug:        "intro-to-sql",
			Title:       "Intro to SQL",
			Description: "Select, join and aggregate without fear.",
			Instructor:  "Arjun Rao",
			IsFree:      true,
			Category:    "databases",
			Duration:    "2h",
			Level:       "beginner",
		},
		lectures: []domain.Lecture{
			{Title: "Tables and rows", DurationSeconds: 600},
			{Title: "Joins", DurationSeconds: 840},
		},
	},
}

var storeItems = []domain.StoreItem{
	{
		Slug:        "go-cheatsheet",
		Name:        "Go Cheatsheet",
		Description: "Two pages of syntax and idioms.",
		FileURL:     "https://cdn.example.com/store/go-cheatsheet.pdf",
		Category:    "programming",
		Type:        domain.StoreItemPDF,
	},
	{
		Slug:        "interview-prep-bundle",
		Name:        "Interview Prep Bundle",
		Description: "Question bank, mock interview recordings and solutions.",
		PriceMinor:  99900,
		FileURL:     "https://cdn.example.com/store/interview-prep.zip",
		Category:    "career",
		Type:        domain.StoreItemBundle,
	},
}

// Apply inserts demo catalog data and a demo user. It is idempotent: catalog
// rows are upserted by slug and an existing demo user is left alone.
func Apply(ctx context.Context, q db.DBTX, logger logrus.FieldLogger) error {
	logger = logging.OrDiscard(logger)
	catalog := catalogrepo.NewPostgres(q, logger)
	for _, s := range courses {
		c, err := catalog.UpsertCourse(ctx, s.course)
		if err != nil {
			return pkgerrors.Wrapf(err, "upsert course %s", s.course.Slug)
		}
		for i, l := range s.lectures {
			l.CourseID = c.ID
			l.Position = i + 1
			if _, err := catalog.UpsertLecture(ctx, l); err != nil {
				return pkgerrors.Wrapf(err, "upsert lecture %d of %s", l.Position, c.Slug)
			}
		}
	}
	for _, it := range storeItems {
		if _, err := catalog.UpsertStoreItem(ctx, it); err != nil {
			return pkgerrors.Wrapf(err, "upsert store item %s", it.Slug)
		}
	}

	if err := ensureDemoUser(ctx, userrepo.NewPostgres(q, logger)); err != nil {
		return pkgerrors.Wrap(err, "ensure demo user")
	}
	logger.WithFields(logrus.Fields{
		"courses":     len(courses),
		"store_items": len(storeItems),
		"user":        DemoEmail,
	}).Info("seed applied")
	return nil
}

func ensureDemoUser(ctx context.Context, users userrepo.Repository) error {
	if _, err := users.GetByEmail(ctx, DemoEmail); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = users.Create(ctx, domain.User{Name: "Demo Learner", Email: DemoEmail, PasswordHash: string(hash)})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil
	}
	return err
}

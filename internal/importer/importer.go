package importer

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"lms-commerce/internal/domain"
	"lms-commerce/internal/logging"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const rowTypeLecture = "lecture"

type CatalogWriter interface {
	UpsertCourse(ctx context.Context, c domain.Course) (*domain.Course, error)
	UpsertLecture(ctx context.Context, l domain.Lecture) (*domain.Lecture, error)
	UpsertStoreItem(ctx context.Context, s domain.StoreItem) (*domain.StoreItem, error)
}

// CSVImporter reads catalog CSV files and upserts courses and store items by slug.
// Lecture rows belong to the course row above them.
type CSVImporter struct {
	reader *csv.Reader
	repo   CatalogWriter
	logger logrus.FieldLogger
}

func NewCSVImporter(r io.Reader, repo CatalogWriter, logger logrus.FieldLogger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader: csvr,
		repo:   repo,
		logger: logging.OrDiscard(logger).WithField("component", "importer"),
	}
}

// Result counts what a run wrote.
type Result struct {
	Courses    int
	Lectures   int
	StoreItems int
}

// Imported is the number of catalog items, lectures excluded.
func (r Result) Imported() int {
	return r.Courses + r.StoreItems
}

// Run imports rows until EOF and stops on the first invalid row.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result
	headers, err := i.reader.Read()
	if err != nil {
		return res, errors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)
	if _, ok := index["type"]; !ok {
		return res, errors.New("missing required column \"type\"")
	}

	var (
		course   *domain.Course
		position int
		line     = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, errors.Wrapf(err, "read line %d", line)
		}
		row := parseRow(record, index)
		if row.empty() {
			continue
		}

		switch row.Type {
		case string(domain.ItemTypeCourse):
			c, err := row.course()
			if err != nil {
				return res, errors.Wrapf(err, "line %d (%s)", line, row.Slug)
			}
			course, err = i.repo.UpsertCourse(ctx, c)
			if err != nil {
				return res, errors.Wrapf(err, "upsert course %q", row.Slug)
			}
			position = 0
			res.Courses++
		case string(domain.ItemTypeStoreItem):
			s, err := row.storeItem()
			if err != nil {
				return res, errors.Wrapf(err, "line %d (%s)", line, row.Slug)
			}
			if _, err := i.repo.UpsertStoreItem(ctx, s); err != nil {
				return res, errors.Wrapf(err, "upsert store item %q", row.Slug)
			}
			course = nil
			res.StoreItems++
		case rowTypeLecture:
			if course == nil {
				return res, errors.Errorf("line %d: lecture %q does not follow a course", line, row.Title)
			}
			position++
			l, err := row.lecture(course.ID, position)
			if err != nil {
				return res, errors.Wrapf(err, "line %d (%s)", line, row.Title)
			}
			if _, err := i.repo.UpsertLecture(ctx, l); err != nil {
				return res, errors.Wrapf(err, "upsert lecture %d of %q", position, course.Slug)
			}
			res.Lectures++
		default:
			return res, errors.Errorf("line %d (%s): unknown type %q", line, row.Slug, row.Type)
		}
	}

	i.logger.WithFields(logrus.Fields{
		"courses":     res.Courses,
		"lectures":    res.Lectures,
		"store_items": res.StoreItems,
	}).Info("import finished")
	return res, nil
}

type csvRow struct {
	Type        string
	Slug        string
	Title       string
	Description string
	Price       string
	Category    string
	Thumbnail   string
	Instructor  string
	Level       string
	Duration    string
	FileURL     string
	ItemKind    string
}

func (r csvRow) empty() bool {
	return r.Type == "" && r.Slug == "" && r.Title == ""
}

func (r csvRow) course() (domain.Course, error) {
	if r.Slug == "" || r.Title == "" {
		return domain.Course{}, errors.New("slug and title are required")
	}
	price, err := ParsePrice(r.Price)
	if err != nil {
		return domain.Course{}, err
	}
	return domain.Course{
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Instructor:  r.Instructor,
		PriceMinor:  price,
		IsFree:      price == 0,
		Category:    r.Category,
		Thumbnail:   r.Thumbnail,
		Duration:    r.Duration,
		Level:       r.Level,
	}, nil
}

func (r csvRow) storeItem() (domain.StoreItem, error) {
	if r.Slug == "" || r.Title == "" {
		return domain.StoreItem{}, errors.New("slug and title are required")
	}
	price, err := ParsePrice(r.Price)
	if err != nil {
		return domain.StoreItem{}, err
	}
	kind := domain.StoreItemType(strings.ToLower(r.ItemKind))
	switch kind {
	case "":
		kind = domain.StoreItemOther
	case domain.StoreItemPDF, domain.StoreItemVideo, domain.StoreItemBundle, domain.StoreItemOther:
	default:
		return domain.StoreItem{}, errors.Errorf("unknown item_kind %q", r.ItemKind)
	}
	return domain.StoreItem{
		Slug:        r.Slug,
		Name:        r.Title,
		Description: r.Description,
		PriceMinor:  price,
		FileURL:     r.FileURL,
		Category:    r.Category,
		Type:        kind,
		Thumbnail:   r.Thumbnail,
	}, nil
}

func (r csvRow) lecture(courseID string, position int) (domain.Lecture, error) {
	if r.Title == "" {
		return domain.Lecture{}, errors.New("title is required")
	}
	var seconds int
	if r.Duration != "" {
		n, err := strconv.Atoi(r.Duration)
		if err != nil || n < 0 {
			return domain.Lecture{}, errors.Errorf("lecture duration must be whole seconds, got %q", r.Duration)
		}
		seconds = n
	}
	return domain.Lecture{
		CourseID:        courseID,
		Title:           r.Title,
		VideoURL:        r.FileURL,
		Position:        position,
		DurationSeconds: seconds,
	}, nil
}

// ParsePrice converts a major-unit amount such as "499.50" to minor units.
// Empty means free. More than two decimal places is rejected.
func ParsePrice(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return 0, errors.Errorf("price %q is negative", s)
	}
	minor := d.Shift(2)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, errors.Errorf("price %q has more than two decimal places", s)
	}
	return minor.IntPart(), nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) csvRow {
	return csvRow{
		Type:        pick(record, index, "type"),
		Slug:        pick(record, index, "slug"),
		Title:       pick(record, index, "title"),
		Description: pick(record, index, "description"),
		Price:       pick(record, index, "price"),
		Category:    pick(record, index, "category"),
		Thumbnail:   pick(record, index, "thumbnail"),
		Instructor:  pick(record, index, "instructor"),
		Level:       pick(record, index, "level"),
		Duration:    pick(record, index, "duration"),
		FileURL:     pick(record, index, "file_url"),
		ItemKind:    pick(record, index, "item_kind"),
	}
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

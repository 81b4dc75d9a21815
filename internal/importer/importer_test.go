package importer

import (
	"context"
	"strings"
	"testing"

	"lms-commerce/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	courses    []domain.Course
	lectures   []domain.Lecture
	storeItems []domain.StoreItem
}

func (s *stubCatalog) UpsertCourse(_ context.Context, c domain.Course) (*domain.Course, error) {
	c.ID = "course-" + c.Slug
	s.courses = append(s.courses, c)
	return &c, nil
}

func (s *stubCatalog) UpsertLecture(_ context.Context, l domain.Lecture) (*domain.Lecture, error) {
	s.lectures = append(s.lectures, l)
	return &l, nil
}

func (s *stubCatalog) UpsertStoreItem(_ context.Context, it domain.StoreItem) (*domain.StoreItem, error) {
	s.storeItems = append(s.storeItems, it)
	return &it, nil
}

const header = "type,slug,title,description,price,category,thumbnail,instructor,level,duration,file_url,item_kind\n"

func TestCSVImporterRun(t *testing.T) {
	data := header +
		"course,go-basics,Go Basics,Learn Go,500,programming,go.png,Ravi,beginner,6h,,\n" +
		"lecture,,Intro,,,,,,,300,https://cdn.example.com/intro.mp4,\n" +
		"lecture,,Types,,,,,,,420,https://cdn.example.com/types.mp4,\n" +
		",,,,,,,,,,,\n" +
		"storeItem,cheatsheet,Go Cheatsheet,One page,,reference,,,,,https://cdn.example.com/go.pdf,PDF\n" +
		"course,free-intro,Free Intro,,0,,,,,,,\n"

	repo := &stubCatalog{}
	res, err := NewCSVImporter(strings.NewReader(data), repo, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Courses: 2, Lectures: 2, StoreItems: 1}, res)
	assert.Equal(t, 3, res.Imported())

	require.Len(t, repo.courses, 2)
	assert.Equal(t, int64(50000), repo.courses[0].PriceMinor)
	assert.False(t, repo.courses[0].IsFree)
	assert.Equal(t, "Ravi", repo.courses[0].Instructor)
	assert.True(t, repo.courses[1].IsFree)

	require.Len(t, repo.lectures, 2)
	assert.Equal(t, "course-go-basics", repo.lectures[1].CourseID)
	assert.Equal(t, 2, repo.lectures[1].Position)
	assert.Equal(t, 420, repo.lectures[1].DurationSeconds)

	require.Len(t, repo.storeItems, 1)
	assert.Equal(t, domain.StoreItemPDF, repo.storeItems[0].Type)
	assert.Zero(t, repo.storeItems[0].PriceMinor)
	assert.Equal(t, "https://cdn.example.com/go.pdf", repo.storeItems[0].FileURL)
}

func TestCSVImporterStopsOnInvalidRow(t *testing.T) {
	cases := map[string]string{
		"bad price":       "course,c1,C1,,12.345,,,,,,,\n",
		"negative price":  "storeItem,s1,S1,,-1,,,,,,,\n",
		"unknown type":    "ebook,e1,E1,,1,,,,,,,\n",
		"unknown kind":    "storeItem,s1,S1,,1,,,,,,,zip\n",
		"orphan lecture":  "lecture,,Intro,,,,,,,60,,\n",
		"missing title":   "course,c1,,,1,,,,,,,\n",
		"lecture seconds": "course,c1,C1,,1,,,,,,,\nlecture,,L1,,,,,,,ten,,\n",
	}
	for name, rows := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewCSVImporter(strings.NewReader(header+rows), &stubCatalog{}, nil).Run(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestCSVImporterRequiresTypeColumn(t *testing.T) {
	_, err := NewCSVImporter(strings.NewReader("slug,title\nx,y\n"), &stubCatalog{}, nil).Run(context.Background())
	assert.ErrorContains(t, err, `"type"`)
}

func TestParsePrice(t *testing.T) {
	cases := map[string]int64{
		"":       0,
		"0":      0,
		"500":    50000,
		"499.5":  49950,
		"499.50": 49950,
		"0.01":   1,
	}
	for in, want := range cases {
		got, err := ParsePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"abc", "1.001", "-5"} {
		_, err := ParsePrice(in)
		assert.Error(t, err, in)
	}
}

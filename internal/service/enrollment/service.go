// Package enrollment exposes a learner's courses and tracks lecture progress.
package enrollment

import (
	"context"
	"errors"
	"slices"
	"strings"

	"lms-commerce/internal/domain"
)

type enrollmentRepo interface {
	Get(ctx context.Context, userID, courseID string) (*domain.Enrollment, error)
	GetByID(ctx context.Context, id string) (*domain.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Enrollment, error)
	UpdateProgress(ctx context.Context, id string, completed []string, progress int) (*domain.Enrollment, error)
}

type courseReader interface {
	GetCourse(ctx context.Context, id string) (*domain.Course, error)
	CountLectures(ctx context.Context, courseID string) (int, error)
}

type Service struct {
	repo    enrollmentRepo
	courses courseReader
}

func New(repo enrollmentRepo, courses courseReader) *Service {
	return &Service{repo: repo, courses: courses}
}

// EnrolledCourse is an enrollment joined with its course. Course is nil if it was deleted.
type EnrolledCourse struct {
	domain.Enrollment
	Course *domain.Course `json:"course"`
}

func (s *Service) MyCourses(ctx context.Context, userID string) ([]EnrolledCourse, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]EnrolledCourse, 0, len(list))
	for _, e := range list {
		course, err := s.courses.GetCourse(ctx, e.CourseID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		total, err := s.courses.CountLectures(ctx, e.CourseID)
		if err != nil {
			return nil, err
		}
		e.Progress = domain.Progress(len(e.CompletedLectures), total)
		res = append(res, EnrolledCourse{Enrollment: e, Course: course})
	}
	return res, nil
}

// Check reports whether the user is enrolled in the course and returns the enrollment if so.
func (s *Service) Check(ctx context.Context, userID, courseID string) (bool, *domain.Enrollment, error) {
	if !domain.IsID(courseID) {
		return false, nil, nil
	}
	e, err := s.repo.Get(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return true, e, nil
}

// CompleteLecture marks a lecture done and recomputes progress. Marking it twice is a no-op for the list.
func (s *Service) CompleteLecture(ctx context.Context, userID, enrollmentID, lectureID string) (*domain.Enrollment, error) {
	lectureID = strings.TrimSpace(lectureID)
	if lectureID == "" {
		return nil, domain.Invalid("Lecture ID is required")
	}
	if !domain.IsID(enrollmentID) {
		return nil, domain.NotFound("Enrollment not found")
	}
	e, err := s.repo.GetByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound("Enrollment not found")
		}
		return nil, err
	}
	if e.UserID != userID {
		return nil, domain.Forbidden("Not authorized")
	}

	completed := e.CompletedLectures
	if !slices.Contains(completed, lectureID) {
		completed = append(slices.Clone(completed), lectureID)
	}
	total, err := s.courses.CountLectures(ctx, e.CourseID)
	if err != nil {
		return nil, err
	}
	return s.repo.UpdateProgress(ctx, e.ID, completed, domain.Progress(len(completed), total))
}

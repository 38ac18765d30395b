package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
	"github.com/rs/zerolog"
)

// EnrollmentService covers everything a student does: joining and leaving
// classes and reading their own coursework.
type EnrollmentService struct {
	store repository.Store
	log   zerolog.Logger
}

func NewEnrollmentService(store repository.Store, log zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store: store,
		log:   log.With().Str("component", "enrollment_service").Logger(),
	}
}

// FindClass resolves a join code without enrolling anyone. Tools use it to
// check a code before creating accounts for it.
func (s *EnrollmentService) FindClass(ctx context.Context, joinCode string) (*model.Class, error) {
	code := strings.TrimSpace(joinCode)
	if code == "" {
		return nil, invalid("join_code", "must not be empty")
	}
	var class *model.Class
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		class, err = tx.Classes().GetByJoinCode(ctx, code)
		return err
	})
	if err != nil {
		return nil, notFound("find class", err)
	}
	return class, nil
}

// Join enrolls the calling student in the class identified by req.JoinCode.
func (s *EnrollmentService) Join(ctx context.Context, p model.Principal, req model.JoinClassRequest) (*model.Class, error) {
	if err := RequireRole(p, model.RoleStudent); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.JoinCode)
	if code == "" {
		return nil, invalid("join_code", "must not be empty")
	}

	var class *model.Class
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		class, err = tx.Classes().GetByJoinCode(ctx, code)
		if err != nil {
			return err
		}
		exists, err := tx.Enrollments().Exists(ctx, p.UserID, class.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrAlreadyEnrolled
		}
		return tx.Enrollments().Create(ctx, &model.Enrollment{StudentID: p.UserID, ClassID: class.ID})
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyEnrolled), errors.Is(err, repository.ErrDuplicate):
		// A concurrent join of the same pair loses on the primary key.
		return nil, ErrAlreadyEnrolled
	default:
		return nil, notFound("join class", err)
	}

	s.log.Info().Int("class_id", class.ID).Int("student_id", p.UserID).Msg("Student joined class")
	return class, nil
}

// ListClasses returns the classes the calling student is enrolled in.
func (s *EnrollmentService) ListClasses(ctx context.Context, p model.Principal) ([]model.Class, error) {
	if err := RequireRole(p, model.RoleStudent); err != nil {
		return nil, err
	}
	var classes []model.Class
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		classes, err = tx.Classes().ListByStudent(ctx, p.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list enrolled classes: %w", err)
	}
	if classes == nil {
		classes = []model.Class{}
	}
	return classes, nil
}

// Leave drops the calling student's enrollment. Grades already recorded
// are kept.
func (s *EnrollmentService) Leave(ctx context.Context, p model.Principal, classID int) error {
	if err := RequireRole(p, model.RoleStudent); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Enrollments().Delete(ctx, p.UserID, classID)
	})
	if err != nil {
		return notFound("leave class", err)
	}
	s.log.Info().Int("class_id", classID).Int("student_id", p.UserID).Msg("Student left class")
	return nil
}

// ListAssignments returns the assignments of every class the student is
// enrolled in.
func (s *EnrollmentService) ListAssignments(ctx context.Context, p model.Principal) ([]model.Assignment, error) {
	if err := RequireRole(p, model.RoleStudent); err != nil {
		return nil, err
	}
	var out []model.Assignment
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.Assignments().ListForStudent(ctx, p.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list student assignments: %w", err)
	}
	if out == nil {
		out = []model.Assignment{}
	}
	return out, nil
}

// ListTimetable returns the timetable entries of the student's classes.
func (s *EnrollmentService) ListTimetable(ctx context.Context, p model.Principal) ([]model.TimetableEntry, error) {
	if err := RequireRole(p, model.RoleStudent); err != nil {
		return nil, err
	}
	var out []model.TimetableEntry
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.Timetable().ListForStudent(ctx, p.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list student timetable: %w", err)
	}
	if out == nil {
		out = []model.TimetableEntry{}
	}
	return out, nil
}

// ListGrades returns the grades recorded for the calling student.
func (s *EnrollmentService) ListGrades(ctx context.Context, p model.Principal) ([]model.Grade, error) {
	if err := RequireRole(p, model.RoleStudent); err != nil {
		return nil, err
	}
	var out []model.Grade
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		out, err = tx.Grades().ListForStudent(ctx, p.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	if out == nil {
		out = []model.Grade{}
	}
	return out, nil
}

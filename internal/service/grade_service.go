package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
	"github.com/rs/zerolog"
)

const (
	minScore          = 0
	maxScore          = 100
	maxFeedbackLength = 5000
)

// GradeService manages grades on assignments owned by the caller.
type GradeService struct {
	store             repository.Store
	requireEnrollment bool
	log               zerolog.Logger
}

// NewGradeService creates a GradeService. When requireEnrollment is set, a
// grade can only be recorded for a student enrolled in the assignment's class.
func NewGradeService(store repository.Store, requireEnrollment bool, log zerolog.Logger) *GradeService {
	return &GradeService{
		store:             store,
		requireEnrollment: requireEnrollment,
		log:               log.With().Str("component", "grade_service").Logger(),
	}
}

func validateGrade(g *model.Grade) error {
	fe := fieldErrors{}
	if math.IsNaN(g.Score) || g.Score < minScore || g.Score > maxScore {
		fe.add("score", fmt.Sprintf("must be between %d and %d", minScore, maxScore))
	}
	if g.Feedback != nil && utf8.RuneCountInString(*g.Feedback) > maxFeedbackLength {
		fe.add("feedback", fmt.Sprintf("must be at most %d characters", maxFeedbackLength))
	}
	return fe.err()
}

// Create records a grade for a student on an assignment owned by the caller.
func (s *GradeService) Create(ctx context.Context, p model.Principal, req model.CreateGradeRequest) (*model.Grade, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	if req.Score == nil {
		return nil, invalid("score", "is required")
	}
	g := &model.Grade{
		AssignmentID: req.AssignmentID,
		StudentID:    req.StudentID,
		Score:        *req.Score,
		Feedback:     req.Feedback,
	}
	if err := validateGrade(g); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		a, err := tx.Assignments().GetOwned(ctx, g.AssignmentID, p.UserID)
		if err != nil {
			return err
		}
		student, err := tx.Users().GetByID(ctx, g.StudentID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && student.Role != model.RoleStudent) {
			return invalid("student_id", "must reference a student")
		}
		if err != nil {
			return err
		}
		if s.requireEnrollment {
			enrolled, err := tx.Enrollments().Exists(ctx, g.StudentID, a.ClassID)
			if err != nil {
				return err
			}
			if !enrolled {
				return invalid("student_id", "student is not enrolled in the assignment's class")
			}
		}
		return tx.Grades().Create(ctx, g)
	})
	if errors.Is(err, repository.ErrReference) {
		return nil, invalid("student_id", "must reference a student")
	}
	if err != nil {
		return nil, notFound("create grade", err)
	}
	return g, nil
}

// List returns grades on assignments of the caller's classes. A filter on an
// assignment the caller does not own is ErrNotFound.
func (s *GradeService) List(ctx context.Context, p model.Principal, f model.GradeFilter) ([]model.Grade, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var out []model.Grade
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if f.AssignmentID != nil {
			if _, err := tx.Assignments().GetOwned(ctx, *f.AssignmentID, p.UserID); err != nil {
				return err
			}
		}
		var err error
		out, err = tx.Grades().ListOwned(ctx, p.UserID, f)
		return err
	})
	if err != nil {
		return nil, notFound("list grades", err)
	}
	if out == nil {
		out = []model.Grade{}
	}
	return out, nil
}

func (s *GradeService) Get(ctx context.Context, p model.Principal, id int) (*model.Grade, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var g *model.Grade
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		g, err = tx.Grades().GetOwned(ctx, id, p.UserID)
		return err
	})
	if err != nil {
		return nil, notFound("get grade", err)
	}
	return g, nil
}

// Update changes score and/or feedback. An explicit null clears feedback.
func (s *GradeService) Update(ctx context.Context, p model.Principal, id int, req model.UpdateGradeRequest) (*model.Grade, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	if req.Score.Set && req.Score.Null {
		return nil, invalid("score", "must not be null")
	}

	var g *model.Grade
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		g, err = tx.Grades().GetOwned(ctx, id, p.UserID)
		if err != nil {
			return err
		}
		if req.Score.Set {
			g.Score = req.Score.Value
		}
		if req.Feedback.Set {
			g.Feedback = req.Feedback.Ptr()
		}
		if err := validateGrade(g); err != nil {
			return err
		}
		return tx.Grades().UpdateOwned(ctx, g, p.UserID)
	})
	if err != nil {
		return nil, notFound("update grade", err)
	}
	return g, nil
}

func (s *GradeService) Delete(ctx context.Context, p model.Principal, id int) error {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Grades().DeleteOwned(ctx, id, p.UserID)
	})
	if err != nil {
		return notFound("delete grade", err)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
	"github.com/rs/zerolog"
)

const (
	maxAssignmentTitleLength       = 200
	maxAssignmentDescriptionLength = 5000
)

// AssignmentService manages assignments of classes owned by the caller.
type AssignmentService struct {
	store repository.Store
	log   zerolog.Logger
}

func NewAssignmentService(store repository.Store, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{
		store: store,
		log:   log.With().Str("component", "assignment_service").Logger(),
	}
}

func validateAssignment(a *model.Assignment) error {
	fe := fieldErrors{}
	a.Title = strings.TrimSpace(a.Title)
	switch n := utf8.RuneCountInString(a.Title); {
	case n == 0:
		fe.add("title", "must not be empty")
	case n > maxAssignmentTitleLength:
		fe.add("title", fmt.Sprintf("must be at most %d characters", maxAssignmentTitleLength))
	}
	if a.Description != nil && utf8.RuneCountInString(*a.Description) > maxAssignmentDescriptionLength {
		fe.add("description", fmt.Sprintf("must be at most %d characters", maxAssignmentDescriptionLength))
	}
	return fe.err()
}

// Create adds an assignment to a class owned by the calling teacher.
func (s *AssignmentService) Create(ctx context.Context, p model.Principal, req model.CreateAssignmentRequest) (*model.Assignment, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	a := &model.Assignment{
		ClassID:     req.ClassID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	}
	if err := validateAssignment(a); err != nil {
		return nil, err
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Classes().GetOwned(ctx, a.ClassID, p.UserID); err != nil {
			return err
		}
		return tx.Assignments().Create(ctx, a)
	})
	if err != nil {
		return nil, notFound("create assignment", err)
	}
	return a, nil
}

// List returns assignments of the caller's classes, optionally limited to
// classID. A classID the caller does not own is ErrNotFound.
func (s *AssignmentService) List(ctx context.Context, p model.Principal, classID *int) ([]model.Assignment, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var out []model.Assignment
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if classID != nil {
			if _, err := tx.Classes().GetOwned(ctx, *classID, p.UserID); err != nil {
				return err
			}
		}
		var err error
		out, err = tx.Assignments().ListOwned(ctx, p.UserID, classID)
		return err
	})
	if err != nil {
		return nil, notFound("list assignments", err)
	}
	if out == nil {
		out = []model.Assignment{}
	}
	return out, nil
}

func (s *AssignmentService) Get(ctx context.Context, p model.Principal, id int) (*model.Assignment, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var a *model.Assignment
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		a, err = tx.Assignments().GetOwned(ctx, id, p.UserID)
		return err
	})
	if err != nil {
		return nil, notFound("get assignment", err)
	}
	return a, nil
}

// Update applies the fields present in req. Title cannot be cleared; an
// explicit null clears description or due date.
func (s *AssignmentService) Update(ctx context.Context, p model.Principal, id int, req model.UpdateAssignmentRequest) (*model.Assignment, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	if req.Title.Set && req.Title.Null {
		return nil, invalid("title", "must not be null")
	}

	var a *model.Assignment
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		a, err = tx.Assignments().GetOwned(ctx, id, p.UserID)
		if err != nil {
			return err
		}
		if req.Title.Set {
			a.Title = req.Title.Value
		}
		if req.Description.Set {
			a.Description = req.Description.Ptr()
		}
		if req.DueDate.Set {
			a.DueDate = req.DueDate.Ptr()
		}
		if err := validateAssignment(a); err != nil {
			return err
		}
		return tx.Assignments().UpdateOwned(ctx, a, p.UserID)
	})
	if err != nil {
		return nil, notFound("update assignment", err)
	}
	return a, nil
}

// Delete removes an assignment and its grades.
func (s *AssignmentService) Delete(ctx context.Context, p model.Principal, id int) error {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Assignments().DeleteOwned(ctx, id, p.UserID)
	})
	if err != nil {
		return notFound("delete assignment", err)
	}
	s.log.Info().Int("assignment_id", id).Int("teacher_id", p.UserID).Msg("Assignment deleted")
	return nil
}

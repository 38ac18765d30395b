package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
	"github.com/rs/zerolog"
)

const maxClassNameLength = 100

// GenerateJoinCode returns n random bytes encoded as URL-safe base64 without
// padding.
func GenerateJoinCode(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ClassService manages classes from the owning teacher's side.
type ClassService struct {
	store    repository.Store
	joinCode func() (string, error)
	log      zerolog.Logger
}

// NewClassService creates a ClassService whose join codes carry
// joinCodeBytes bytes of entropy.
func NewClassService(store repository.Store, joinCodeBytes int, log zerolog.Logger) *ClassService {
	return &ClassService{
		store: store,
		joinCode: func() (string, error) {
			return GenerateJoinCode(joinCodeBytes)
		},
		log: log.With().Str("component", "class_service").Logger(),
	}
}

// SetJoinCodeGenerator replaces the join code source.
func (s *ClassService) SetJoinCodeGenerator(fn func() (string, error)) {
	s.joinCode = fn
}

func validateClassName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "must not be empty")
	}
	if utf8.RuneCountInString(name) > maxClassNameLength {
		return "", invalid("name", fmt.Sprintf("must be at most %d characters", maxClassNameLength))
	}
	return name, nil
}

// Create makes a new class owned by the calling teacher. A join code that
// collides with an existing one is reported as ErrJoinCodeCollision; the
// caller may simply try again.
func (s *ClassService) Create(ctx context.Context, p model.Principal, req model.CreateClassRequest) (*model.Class, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	name, err := validateClassName(req.Name)
	if err != nil {
		return nil, err
	}

	code, err := s.joinCode()
	if err != nil {
		return nil, err
	}

	class := &model.Class{Name: name, JoinCode: code, TeacherID: p.UserID}
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Classes().Create(ctx, class)
	})
	if errors.Is(err, repository.ErrDuplicate) {
		s.log.Warn().Int("teacher_id", p.UserID).Msg("Join code collision")
		return nil, ErrJoinCodeCollision
	}
	if err != nil {
		return nil, fmt.Errorf("create class: %w", err)
	}

	s.log.Info().Int("class_id", class.ID).Int("teacher_id", p.UserID).Msg("Class created")
	return class, nil
}

// List returns the classes relevant to the caller: owned classes for a
// teacher, enrolled classes for a student and none for a parent.
func (s *ClassService) List(ctx context.Context, p model.Principal) ([]model.Class, error) {
	var classes []model.Class
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		switch p.Role {
		case model.RoleTeacher:
			classes, err = tx.Classes().ListByTeacher(ctx, p.UserID)
		case model.RoleStudent:
			classes, err = tx.Classes().ListByStudent(ctx, p.UserID)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	if classes == nil {
		classes = []model.Class{}
	}
	return classes, nil
}

// Get returns an owned class.
func (s *ClassService) Get(ctx context.Context, p model.Principal, id int) (*model.Class, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var class *model.Class
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		class, err = tx.Classes().GetOwned(ctx, id, p.UserID)
		return err
	})
	if err != nil {
		return nil, notFound("get class", err)
	}
	return class, nil
}

// Update renames an owned class. The join code never changes.
func (s *ClassService) Update(ctx context.Context, p model.Principal, id int, req model.UpdateClassRequest) (*model.Class, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var name string
	if req.Name.Set {
		if req.Name.Null {
			return nil, invalid("name", "must not be null")
		}
		var err error
		if name, err = validateClassName(req.Name.Value); err != nil {
			return nil, err
		}
	}

	var class *model.Class
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		class, err = tx.Classes().GetOwned(ctx, id, p.UserID)
		if err != nil {
			return err
		}
		if !req.Name.Set {
			return nil
		}
		class.Name = name
		return tx.Classes().UpdateOwned(ctx, class)
	})
	if err != nil {
		return nil, notFound("update class", err)
	}
	return class, nil
}

// Delete removes an owned class with everything hanging off it.
func (s *ClassService) Delete(ctx context.Context, p model.Principal, id int) error {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return err
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.Classes().DeleteOwned(ctx, id, p.UserID)
	})
	if err != nil {
		return notFound("delete class", err)
	}
	s.log.Info().Int("class_id", id).Int("teacher_id", p.UserID).Msg("Class deleted")
	return nil
}

// ListStudents returns the roster of an owned class.
func (s *ClassService) ListStudents(ctx context.Context, p model.Principal, id int) ([]model.User, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	var students []model.User
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.Classes().GetOwned(ctx, id, p.UserID); err != nil {
			return err
		}
		var err error
		students, err = tx.Enrollments().ListStudents(ctx, id)
		return err
	})
	if err != nil {
		return nil, notFound("list students", err)
	}
	if students == nil {
		students = []model.User{}
	}
	return students, nil
}

// Gradebook collects the roster, assignments and grades of an owned class in
// one consistent read.
func (s *ClassService) Gradebook(ctx context.Context, p model.Principal, id int) (*model.Gradebook, error) {
	if err := RequireRole(p, model.RoleTeacher); err != nil {
		return nil, err
	}
	gb := &model.Gradebook{}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		class, err := tx.Classes().GetOwned(ctx, id, p.UserID)
		if err != nil {
			return err
		}
		gb.Class = *class
		if gb.Students, err = tx.Enrollments().ListStudents(ctx, id); err != nil {
			return err
		}
		if gb.Assignments, err = tx.Assignments().ListOwned(ctx, p.UserID, &id); err != nil {
			return err
		}
		gb.Grades, err = tx.Grades().ListByClass(ctx, id)
		return err
	})
	if err != nil {
		return nil, notFound("build gradebook", err)
	}
	return gb, nil
}

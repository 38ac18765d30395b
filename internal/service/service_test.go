package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/classroomhq/classroom-backend/internal/logger"
	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository/memory"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-that-is-at-least-32-bytes-long"

type testEnv struct {
	store       *memory.Store
	tokens      *TokenService
	revoked     *MemoryRevocationList
	auth        *AuthService
	classes     *ClassService
	enrollments *EnrollmentService
	assignments *AssignmentService
	timetable   *TimetableService
	grades      *GradeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logger.Discard()
	store := memory.NewStore()
	tokens := NewTokenService(testSecret, 30*time.Minute)
	revoked := NewMemoryRevocationList()
	return &testEnv{
		store:       store,
		tokens:      tokens,
		revoked:     revoked,
		auth:        NewAuthService(store, tokens, revoked, bcrypt.MinCost, log),
		classes:     NewClassService(store, 6, log),
		enrollments: NewEnrollmentService(store, log),
		assignments: NewAssignmentService(store, log),
		timetable:   NewTimetableService(store, log),
		grades:      NewGradeService(store, false, log),
	}
}

func (e *testEnv) signup(t *testing.T, username string, role model.Role) model.Principal {
	t.Helper()
	u, err := e.auth.Signup(context.Background(), model.SignupRequest{
		Username: username,
		Password: "password123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("signup %s: %v", username, err)
	}
	return u.Principal()
}

func (e *testEnv) createClass(t *testing.T, teacher model.Principal, name string) *model.Class {
	t.Helper()
	c, err := e.classes.Create(context.Background(), teacher, model.CreateClassRequest{Name: name})
	if err != nil {
		t.Fatalf("create class %s: %v", name, err)
	}
	return c
}

func (e *testEnv) createAssignment(t *testing.T, teacher model.Principal, classID int, title string) *model.Assignment {
	t.Helper()
	a, err := e.assignments.Create(context.Background(), teacher, model.CreateAssignmentRequest{
		ClassID: classID,
		Title:   title,
	})
	if err != nil {
		t.Fatalf("create assignment %s: %v", title, err)
	}
	return a
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func validationFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	return verr.Fields
}

func ptr[T any](v T) *T { return &v }

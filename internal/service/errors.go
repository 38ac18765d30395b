package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/classroomhq/classroom-backend/internal/repository"
)

// Domain errors. Handlers translate these into HTTP statuses.
var (
	// ErrUnauthenticated covers missing, malformed, expired, tampered and
	// revoked tokens as well as tokens whose subject no longer exists.
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("role not permitted for this operation")
	// ErrNotFound also stands for "exists but not yours".
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")

	ErrUsernameTaken     = fmt.Errorf("username already taken: %w", ErrConflict)
	ErrAlreadyEnrolled   = fmt.Errorf("already enrolled in this class: %w", ErrConflict)
	ErrJoinCodeCollision = fmt.Errorf("join code already in use: %w", ErrConflict)
)

// ValidationError lists structural problems by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// fieldErrors collects validation failures; err returns nil when empty.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}

func invalid(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// notFound maps repository.ErrNotFound onto ErrNotFound and wraps anything
// else with op.
func notFound(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

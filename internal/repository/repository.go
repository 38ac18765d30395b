// Package repository declares the persistence contract of the application.
// Implementations live in the postgres and memory subpackages.
package repository

import (
	"context"
	"errors"

	"github.com/classroomhq/classroom-backend/internal/model"
)

var (
	// ErrNotFound is returned when no row matches, including rows that exist
	// but fall outside the requested ownership scope.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrReference is returned when a write points at a row that does not exist.
	ErrReference = errors.New("referenced record does not exist")
)

// Store runs units of work. Every call to InTx is one transaction: fn's
// writes are committed when it returns nil and rolled back otherwise.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx exposes the repositories bound to one transaction.
type Tx interface {
	Users() UserRepository
	Classes() ClassRepository
	Enrollments() EnrollmentRepository
	Assignments() AssignmentRepository
	Timetable() TimetableRepository
	Grades() GradeRepository
}

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id int) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

// ClassRepository methods suffixed Owned match only classes taught by teacherID.
type ClassRepository interface {
	Create(ctx context.Context, c *model.Class) error
	GetOwned(ctx context.Context, id, teacherID int) (*model.Class, error)
	GetByJoinCode(ctx context.Context, code string) (*model.Class, error)
	ListByTeacher(ctx context.Context, teacherID int) ([]model.Class, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Class, error)
	UpdateOwned(ctx context.Context, c *model.Class) error
	// DeleteOwned removes the class together with its assignments, grades,
	// timetable entries and enrollments.
	DeleteOwned(ctx context.Context, id, teacherID int) error
}

type EnrollmentRepository interface {
	Create(ctx context.Context, e *model.Enrollment) error
	Exists(ctx context.Context, studentID, classID int) (bool, error)
	Delete(ctx context.Context, studentID, classID int) error
	ListStudents(ctx context.Context, classID int) ([]model.User, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	// ListOwned lists assignments of classes taught by teacherID, optionally
	// restricted to one class.
	ListOwned(ctx context.Context, teacherID int, classID *int) ([]model.Assignment, error)
	GetOwned(ctx context.Context, id, teacherID int) (*model.Assignment, error)
	UpdateOwned(ctx context.Context, a *model.Assignment, teacherID int) error
	DeleteOwned(ctx context.Context, id, teacherID int) error
	ListForStudent(ctx context.Context, studentID int) ([]model.Assignment, error)
}

type TimetableRepository interface {
	Create(ctx context.Context, e *model.TimetableEntry) error
	ListOwned(ctx context.Context, teacherID int, classID *int) ([]model.TimetableEntry, error)
	GetOwned(ctx context.Context, id, teacherID int) (*model.TimetableEntry, error)
	UpdateOwned(ctx context.Context, e *model.TimetableEntry, teacherID int) error
	DeleteOwned(ctx context.Context, id, teacherID int) error
	ListForStudent(ctx context.Context, studentID int) ([]model.TimetableEntry, error)
}

type GradeRepository interface {
	Create(ctx context.Context, g *model.Grade) error
	ListOwned(ctx context.Context, teacherID int, f model.GradeFilter) ([]model.Grade, error)
	GetOwned(ctx context.Context, id, teacherID int) (*model.Grade, error)
	UpdateOwned(ctx context.Context, g *model.Grade, teacherID int) error
	DeleteOwned(ctx context.Context, id, teacherID int) error
	ListForStudent(ctx context.Context, studentID int) ([]model.Grade, error)
	ListByClass(ctx context.Context, classID int) ([]model.Grade, error)
}

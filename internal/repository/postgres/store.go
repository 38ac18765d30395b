// Package postgres implements the repository contract on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/classroomhq/classroom-backend/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error codes mapped onto repository errors.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store runs each unit of work in its own READ COMMITTED transaction.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InTx begins a transaction, hands fn the repositories bound to it and
// commits when fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(newTx(tx))
	})
}

type txRepos struct {
	users       *UserRepository
	classes     *ClassRepository
	enrollments *EnrollmentRepository
	assignments *AssignmentRepository
	timetable   *TimetableRepository
	grades      *GradeRepository
}

func newTx(db DBTX) *txRepos {
	return &txRepos{
		users:       NewUserRepository(db),
		classes:     NewClassRepository(db),
		enrollments: NewEnrollmentRepository(db),
		assignments: NewAssignmentRepository(db),
		timetable:   NewTimetableRepository(db),
		grades:      NewGradeRepository(db),
	}
}

func (t *txRepos) Users() repository.UserRepository { return t.users }
func (t *txRepos) Classes() repository.ClassRepository { return t.classes }
func (t *txRepos) Enrollments() repository.EnrollmentRepository { return t.enrollments }
func (t *txRepos) Assignments() repository.AssignmentRepository { return t.assignments }
func (t *txRepos) Timetable() repository.TimetableRepository { return t.timetable }
func (t *txRepos) Grades() repository.GradeRepository { return t.grades }

// translateErr maps pgx and PostgreSQL errors onto repository errors.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", repository.ErrReference, pgErr.ConstraintName)
		}
	}
	return err
}

// expectAffected turns an UPDATE or DELETE that matched nothing into ErrNotFound.
func expectAffected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return translateErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

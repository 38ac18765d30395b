package postgres

import (
	"context"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// ClassRepository handles class data access.
type ClassRepository struct {
	db DBTX
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(db DBTX) *ClassRepository {
	return &ClassRepository{db: db}
}

const classColumns = `c.id, c.name, c.join_code, c.teacher_id, c.created_at`

// Create inserts a new class. A join code collision yields repository.ErrDuplicate.
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO classes (name, join_code, teacher_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Name, c.JoinCode, c.TeacherID,
	).Scan(&c.ID, &c.CreatedAt)
	return translateErr(err)
}

// GetOwned retrieves a class only if it is taught by teacherID.
func (r *ClassRepository) GetOwned(ctx context.Context, id, teacherID int) (*model.Class, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes c WHERE c.id = $1 AND c.teacher_id = $2`,
		id, teacherID,
	)
	return scanClass(row)
}

// GetByJoinCode retrieves a class by its join code regardless of owner.
func (r *ClassRepository) GetByJoinCode(ctx context.Context, code string) (*model.Class, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+classColumns+` FROM classes c WHERE c.join_code = $1`, code,
	)
	return scanClass(row)
}

// ListByTeacher retrieves all classes taught by teacherID.
func (r *ClassRepository) ListByTeacher(ctx context.Context, teacherID int) ([]model.Class, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classColumns+` FROM classes c WHERE c.teacher_id = $1 ORDER BY c.id`, teacherID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectClasses(rows)
}

// ListByStudent retrieves all classes the student is enrolled in.
func (r *ClassRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Class, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+classColumns+`
		 FROM classes c
		 JOIN enrollments e ON e.class_id = c.id
		 WHERE e.student_id = $1
		 ORDER BY c.id`, studentID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectClasses(rows)
}

// UpdateOwned renames a class taught by c.TeacherID.
func (r *ClassRepository) UpdateOwned(ctx context.Context, c *model.Class) error {
	return expectAffected(r.db.Exec(ctx,
		`UPDATE classes SET name = $1 WHERE id = $2 AND teacher_id = $3`,
		c.Name, c.ID, c.TeacherID,
	))
}

// DeleteOwned removes a class taught by teacherID. Children go with it
// through ON DELETE CASCADE.
func (r *ClassRepository) DeleteOwned(ctx context.Context, id, teacherID int) error {
	return expectAffected(r.db.Exec(ctx,
		`DELETE FROM classes WHERE id = $1 AND teacher_id = $2`, id, teacherID,
	))
}

func scanClass(row pgx.Row) (*model.Class, error) {
	var c model.Class
	if err := row.Scan(&c.ID, &c.Name, &c.JoinCode, &c.TeacherID, &c.CreatedAt); err != nil {
		return nil, translateErr(err)
	}
	return &c, nil
}

func collectClasses(rows pgx.Rows) ([]model.Class, error) {
	classes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Class, error) {
		c, err := scanClass(row)
		if err != nil {
			return model.Class{}, err
		}
		return *c, nil
	})
	return classes, translateErr(err)
}

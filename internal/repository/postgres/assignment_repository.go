package postgres

import (
	"context"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// AssignmentRepository handles assignment data access. Ownership is resolved
// through the parent class in the same statement as the read or write.
type AssignmentRepository struct {
	db DBTX
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(db DBTX) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentColumns = `a.id, a.class_id, a.title, a.description, a.due_date, a.created_at`

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO assignments (class_id, title, description, due_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.ClassID, a.Title, a.Description, a.DueDate,
	).Scan(&a.ID, &a.CreatedAt)
	return translateErr(err)
}

// ListOwned retrieves assignments of classes taught by teacherID.
func (r *AssignmentRepository) ListOwned(ctx context.Context, teacherID int, classID *int) ([]model.Assignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments a
		 JOIN classes c ON c.id = a.class_id
		 WHERE c.teacher_id = $1 AND ($2::int IS NULL OR a.class_id = $2)
		 ORDER BY a.id`, teacherID, classID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectAssignments(rows)
}

// GetOwned retrieves one assignment if its class is taught by teacherID.
func (r *AssignmentRepository) GetOwned(ctx context.Context, id, teacherID int) (*model.Assignment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments a
		 JOIN classes c ON c.id = a.class_id
		 WHERE a.id = $1 AND c.teacher_id = $2`, id, teacherID,
	)
	return scanAssignment(row)
}

// UpdateOwned writes every mutable field of a.
func (r *AssignmentRepository) UpdateOwned(ctx context.Context, a *model.Assignment, teacherID int) error {
	return expectAffected(r.db.Exec(ctx,
		`UPDATE assignments a
		 SET title = $1, description = $2, due_date = $3
		 FROM classes c
		 WHERE a.id = $4 AND c.id = a.class_id AND c.teacher_id = $5`,
		a.Title, a.Description, a.DueDate, a.ID, teacherID,
	))
}

// DeleteOwned removes an assignment and, by cascade, its grades.
func (r *AssignmentRepository) DeleteOwned(ctx context.Context, id, teacherID int) error {
	return expectAffected(r.db.Exec(ctx,
		`DELETE FROM assignments a
		 USING classes c
		 WHERE a.id = $1 AND c.id = a.class_id AND c.teacher_id = $2`, id, teacherID,
	))
}

// ListForStudent retrieves assignments of every class the student is enrolled in.
func (r *AssignmentRepository) ListForStudent(ctx context.Context, studentID int) ([]model.Assignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+assignmentColumns+`
		 FROM assignments a
		 JOIN enrollments e ON e.class_id = a.class_id
		 WHERE e.student_id = $1
		 ORDER BY a.due_date NULLS LAST, a.id`, studentID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectAssignments(rows)
}

func scanAssignment(row pgx.Row) (*model.Assignment, error) {
	var a model.Assignment
	if err := row.Scan(&a.ID, &a.ClassID, &a.Title, &a.Description, &a.DueDate, &a.CreatedAt); err != nil {
		return nil, translateErr(err)
	}
	return &a, nil
}

func collectAssignments(rows pgx.Rows) ([]model.Assignment, error) {
	assignments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Assignment, error) {
		a, err := scanAssignment(row)
		if err != nil {
			return model.Assignment{}, err
		}
		return *a, nil
	})
	return assignments, translateErr(err)
}

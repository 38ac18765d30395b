package postgres

import (
	"context"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/jackc/pgx/v5"
)

// GradeRepository handles grade data access. Ownership runs
// grade -> assignment -> class -> teacher.
type GradeRepository struct {
	db DBTX
}

// NewGradeRepository creates a new GradeRepository.
func NewGradeRepository(db DBTX) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `g.id, g.assignment_id, g.student_id, g.score, g.feedback, g.created_at, g.updated_at`

// Create inserts a new grade. An unknown student yields repository.ErrReference.
func (r *GradeRepository) Create(ctx context.Context, g *model.Grade) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO grades (assignment_id, student_id, score, feedback)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		g.AssignmentID, g.StudentID, g.Score, g.Feedback,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	return translateErr(err)
}

// ListOwned retrieves grades on assignments of classes taught by teacherID.
func (r *GradeRepository) ListOwned(ctx context.Context, teacherID int, f model.GradeFilter) ([]model.Grade, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gradeColumns+`
		 FROM grades g
		 JOIN assignments a ON a.id = g.assignment_id
		 JOIN classes c ON c.id = a.class_id
		 WHERE c.teacher_id = $1
		   AND ($2::int IS NULL OR g.assignment_id = $2)
		   AND ($3::int IS NULL OR g.student_id = $3)
		 ORDER BY g.id`, teacherID, f.AssignmentID, f.StudentID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectGrades(rows)
}

// GetOwned retrieves one grade if its assignment's class is taught by teacherID.
func (r *GradeRepository) GetOwned(ctx context.Context, id, teacherID int) (*model.Grade, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+gradeColumns+`
		 FROM grades g
		 JOIN assignments a ON a.id = g.assignment_id
		 JOIN classes c ON c.id = a.class_id
		 WHERE g.id = $1 AND c.teacher_id = $2`, id, teacherID,
	)
	return scanGrade(row)
}

// UpdateOwned writes score and feedback and bumps updated_at.
func (r *GradeRepository) UpdateOwned(ctx context.Context, g *model.Grade, teacherID int) error {
	err := r.db.QueryRow(ctx,
		`UPDATE grades g
		 SET score = $1, feedback = $2, updated_at = CURRENT_TIMESTAMP
		 FROM assignments a, classes c
		 WHERE g.id = $3 AND a.id = g.assignment_id AND c.id = a.class_id AND c.teacher_id = $4
		 RETURNING g.updated_at`,
		g.Score, g.Feedback, g.ID, teacherID,
	).Scan(&g.UpdatedAt)
	return translateErr(err)
}

// DeleteOwned removes a grade.
func (r *GradeRepository) DeleteOwned(ctx context.Context, id, teacherID int) error {
	return expectAffected(r.db.Exec(ctx,
		`DELETE FROM grades g
		 USING assignments a, classes c
		 WHERE g.id = $1 AND a.id = g.assignment_id AND c.id = a.class_id AND c.teacher_id = $2`,
		id, teacherID,
	))
}

// ListForStudent retrieves every grade given to the student.
func (r *GradeRepository) ListForStudent(ctx context.Context, studentID int) ([]model.Grade, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gradeColumns+` FROM grades g WHERE g.student_id = $1 ORDER BY g.id`, studentID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectGrades(rows)
}

// ListByClass retrieves every grade on the class's assignments.
func (r *GradeRepository) ListByClass(ctx context.Context, classID int) ([]model.Grade, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+gradeColumns+`
		 FROM grades g
		 JOIN assignments a ON a.id = g.assignment_id
		 WHERE a.class_id = $1
		 ORDER BY g.id`, classID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectGrades(rows)
}

func scanGrade(row pgx.Row) (*model.Grade, error) {
	var g model.Grade
	if err := row.Scan(&g.ID, &g.AssignmentID, &g.StudentID, &g.Score, &g.Feedback, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, translateErr(err)
	}
	return &g, nil
}

func collectGrades(rows pgx.Rows) ([]model.Grade, error) {
	grades, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Grade, error) {
		g, err := scanGrade(row)
		if err != nil {
			return model.Grade{}, err
		}
		return *g, nil
	})
	return grades, translateErr(err)
}

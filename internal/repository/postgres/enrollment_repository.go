package postgres

import (
	"context"

	"github.com/classroomhq/classroom-backend/internal/model"
)

// EnrollmentRepository handles student-class links.
type EnrollmentRepository struct {
	db DBTX
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create links a student to a class. The composite primary key rejects a
// second link for the same pair with repository.ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO enrollments (student_id, class_id)
		 VALUES ($1, $2)
		 RETURNING joined_at`,
		e.StudentID, e.ClassID,
	).Scan(&e.JoinedAt)
	return translateErr(err)
}

// Exists reports whether the student is enrolled in the class.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, classID int) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2)`,
		studentID, classID,
	).Scan(&exists)
	return exists, translateErr(err)
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, studentID, classID int) error {
	return expectAffected(r.db.Exec(ctx,
		`DELETE FROM enrollments WHERE student_id = $1 AND class_id = $2`,
		studentID, classID,
	))
}

// ListStudents retrieves the roster of a class ordered by username.
func (r *EnrollmentRepository) ListStudents(ctx context.Context, classID int) ([]model.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT u.id, u.username, u.role, u.created_at
		 FROM users u
		 JOIN enrollments e ON e.student_id = u.id
		 WHERE e.class_id = $1
		 ORDER BY u.username`, classID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	defer rows.Close()

	var students []model.User
	for rows.Next() {
		var (
			u    model.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Username, &role, &u.CreatedAt); err != nil {
			return nil, err
		}
		if u.Role, err = model.ParseRole(role); err != nil {
			return nil, err
		}
		students = append(students, u)
	}
	return students, rows.Err()
}

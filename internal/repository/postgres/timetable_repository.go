package postgres

import (
	"context"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// TimetableRepository handles timetable entry data access.
type TimetableRepository struct {
	db DBTX
}

// NewTimetableRepository creates a new TimetableRepository.
func NewTimetableRepository(db DBTX) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableColumns = `t.id, t.class_id, t.day_of_week, t.start_time, t.end_time`

// Create inserts a new timetable entry.
func (r *TimetableRepository) Create(ctx context.Context, e *model.TimetableEntry) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO timetable_entries (class_id, day_of_week, start_time, end_time)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		e.ClassID, e.DayOfWeek, pgTime(e.StartTime), pgTime(e.EndTime),
	).Scan(&e.ID)
	return translateErr(err)
}

// ListOwned retrieves entries of classes taught by teacherID.
func (r *TimetableRepository) ListOwned(ctx context.Context, teacherID int, classID *int) ([]model.TimetableEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+timetableColumns+`
		 FROM timetable_entries t
		 JOIN classes c ON c.id = t.class_id
		 WHERE c.teacher_id = $1 AND ($2::int IS NULL OR t.class_id = $2)
		 ORDER BY t.day_of_week, t.start_time, t.id`, teacherID, classID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectTimetable(rows)
}

// GetOwned retrieves one entry if its class is taught by teacherID.
func (r *TimetableRepository) GetOwned(ctx context.Context, id, teacherID int) (*model.TimetableEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+timetableColumns+`
		 FROM timetable_entries t
		 JOIN classes c ON c.id = t.class_id
		 WHERE t.id = $1 AND c.teacher_id = $2`, id, teacherID,
	)
	return scanTimetableEntry(row)
}

// UpdateOwned writes every mutable field of e.
func (r *TimetableRepository) UpdateOwned(ctx context.Context, e *model.TimetableEntry, teacherID int) error {
	return expectAffected(r.db.Exec(ctx,
		`UPDATE timetable_entries t
		 SET day_of_week = $1, start_time = $2, end_time = $3
		 FROM classes c
		 WHERE t.id = $4 AND c.id = t.class_id AND c.teacher_id = $5`,
		e.DayOfWeek, pgTime(e.StartTime), pgTime(e.EndTime), e.ID, teacherID,
	))
}

// DeleteOwned removes an entry.
func (r *TimetableRepository) DeleteOwned(ctx context.Context, id, teacherID int) error {
	return expectAffected(r.db.Exec(ctx,
		`DELETE FROM timetable_entries t
		 USING classes c
		 WHERE t.id = $1 AND c.id = t.class_id AND c.teacher_id = $2`, id, teacherID,
	))
}

// ListForStudent retrieves the weekly timetable across the student's classes.
func (r *TimetableRepository) ListForStudent(ctx context.Context, studentID int) ([]model.TimetableEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+timetableColumns+`
		 FROM timetable_entries t
		 JOIN enrollments e ON e.class_id = t.class_id
		 WHERE e.student_id = $1
		 ORDER BY t.day_of_week, t.start_time, t.id`, studentID,
	)
	if err != nil {
		return nil, translateErr(err)
	}
	return collectTimetable(rows)
}

func pgTime(c model.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: c.Microseconds(), Valid: true}
}

func scanTimetableEntry(row pgx.Row) (*model.TimetableEntry, error) {
	var (
		e          model.TimetableEntry
		start, end pgtype.Time
	)
	if err := row.Scan(&e.ID, &e.ClassID, &e.DayOfWeek, &start, &end); err != nil {
		return nil, translateErr(err)
	}
	e.StartTime = model.ClockTimeFromMicroseconds(start.Microseconds)
	e.EndTime = model.ClockTimeFromMicroseconds(end.Microseconds)
	return &e, nil
}

func collectTimetable(rows pgx.Rows) ([]model.TimetableEntry, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TimetableEntry, error) {
		e, err := scanTimetableEntry(row)
		if err != nil {
			return model.TimetableEntry{}, err
		}
		return *e, nil
	})
	return entries, translateErr(err)
}

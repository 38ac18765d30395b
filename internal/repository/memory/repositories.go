package memory

import (
	"context"
	"sort"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
)

type users struct{ *tx }

func (r users) Create(_ context.Context, u *model.User) error {
	for _, existing := range r.st.users {
		if existing.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = r.st.nextID("users")
	u.CreatedAt = r.now()
	r.st.users[u.ID] = *u
	return nil
}

func (r users) GetByID(_ context.Context, id int) (*model.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r users) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.st.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type classes struct{ *tx }

func (r classes) Create(_ context.Context, c *model.Class) error {
	if _, ok := r.st.users[c.TeacherID]; !ok {
		return repository.ErrReference
	}
	for _, existing := range r.st.classes {
		if existing.JoinCode == c.JoinCode {
			return repository.ErrDuplicate
		}
	}
	c.ID = r.st.nextID("classes")
	c.CreatedAt = r.now()
	r.st.classes[c.ID] = *c
	return nil
}

func (r classes) GetOwned(_ context.Context, id, teacherID int) (*model.Class, error) {
	if !r.ownsClass(id, teacherID) {
		return nil, repository.ErrNotFound
	}
	c := r.st.classes[id]
	return &c, nil
}

func (r classes) GetByJoinCode(_ context.Context, code string) (*model.Class, error) {
	for _, c := range r.st.classes {
		if c.JoinCode == code {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r classes) ListByTeacher(_ context.Context, teacherID int) ([]model.Class, error) {
	return sortedValues(r.st.classes, func(c model.Class) bool {
		return c.TeacherID == teacherID
	}), nil
}

func (r classes) ListByStudent(_ context.Context, studentID int) ([]model.Class, error) {
	return sortedValues(r.st.classes, func(c model.Class) bool {
		return r.enrolled(studentID, c.ID)
	}), nil
}

func (r classes) UpdateOwned(_ context.Context, c *model.Class) error {
	if !r.ownsClass(c.ID, c.TeacherID) {
		return repository.ErrNotFound
	}
	stored := r.st.classes[c.ID]
	stored.Name = c.Name
	r.st.classes[c.ID] = stored
	return nil
}

func (r classes) DeleteOwned(_ context.Context, id, teacherID int) error {
	if !r.ownsClass(id, teacherID) {
		return repository.ErrNotFound
	}
	delete(r.st.classes, id)
	for aid, a := range r.st.assignments {
		if a.ClassID == id {
			r.deleteAssignment(aid)
		}
	}
	for tid, e := range r.st.timetable {
		if e.ClassID == id {
			delete(r.st.timetable, tid)
		}
	}
	for key := range r.st.enrollments {
		if key.classID == id {
			delete(r.st.enrollments, key)
		}
	}
	return nil
}

type enrollments struct{ *tx }

func (r enrollments) Create(_ context.Context, e *model.Enrollment) error {
	if _, ok := r.st.users[e.StudentID]; !ok {
		return repository.ErrReference
	}
	if _, ok := r.st.classes[e.ClassID]; !ok {
		return repository.ErrReference
	}
	key := enrollmentKey{e.StudentID, e.ClassID}
	if _, ok := r.st.enrollments[key]; ok {
		return repository.ErrDuplicate
	}
	e.JoinedAt = r.now()
	r.st.enrollments[key] = *e
	return nil
}

func (r enrollments) Exists(_ context.Context, studentID, classID int) (bool, error) {
	return r.enrolled(studentID, classID), nil
}

func (r enrollments) Delete(_ context.Context, studentID, classID int) error {
	key := enrollmentKey{studentID, classID}
	if _, ok := r.st.enrollments[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.enrollments, key)
	return nil
}

func (r enrollments) ListStudents(_ context.Context, classID int) ([]model.User, error) {
	roster := sortedValues(r.st.users, func(u model.User) bool {
		return r.enrolled(u.ID, classID)
	})
	for i := range roster {
		roster[i].PasswordHash = ""
	}
	sortUsersByName(roster)
	return roster, nil
}

func sortUsersByName(us []model.User) {
	sort.Slice(us, func(i, j int) bool { return us[i].Username < us[j].Username })
}

type assignments struct{ *tx }

func (r assignments) Create(_ context.Context, a *model.Assignment) error {
	if _, ok := r.st.classes[a.ClassID]; !ok {
		return repository.ErrReference
	}
	a.ID = r.st.nextID("assignments")
	a.CreatedAt = r.now()
	r.st.assignments[a.ID] = *a
	return nil
}

func (r assignments) ListOwned(_ context.Context, teacherID int, classID *int) ([]model.Assignment, error) {
	return sortedValues(r.st.assignments, func(a model.Assignment) bool {
		return r.ownsClass(a.ClassID, teacherID) && (classID == nil || a.ClassID == *classID)
	}), nil
}

func (r assignments) GetOwned(_ context.Context, id, teacherID int) (*model.Assignment, error) {
	a, ok := r.st.assignments[id]
	if !ok || !r.ownsClass(a.ClassID, teacherID) {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r assignments) UpdateOwned(_ context.Context, a *model.Assignment, teacherID int) error {
	stored, ok := r.st.assignments[a.ID]
	if !ok || !r.ownsClass(stored.ClassID, teacherID) {
		return repository.ErrNotFound
	}
	stored.Title = a.Title
	stored.Description = a.Description
	stored.DueDate = a.DueDate
	r.st.assignments[a.ID] = stored
	return nil
}

func (r assignments) DeleteOwned(_ context.Context, id, teacherID int) error {
	a, ok := r.st.assignments[id]
	if !ok || !r.ownsClass(a.ClassID, teacherID) {
		return repository.ErrNotFound
	}
	r.deleteAssignment(id)
	return nil
}

func (r assignments) ListForStudent(_ context.Context, studentID int) ([]model.Assignment, error) {
	return sortedValues(r.st.assignments, func(a model.Assignment) bool {
		return r.enrolled(studentID, a.ClassID)
	}), nil
}

type timetable struct{ *tx }

func (r timetable) Create(_ context.Context, e *model.TimetableEntry) error {
	if _, ok := r.st.classes[e.ClassID]; !ok {
		return repository.ErrReference
	}
	e.ID = r.st.nextID("timetable")
	r.st.timetable[e.ID] = *e
	return nil
}

func (r timetable) ListOwned(_ context.Context, teacherID int, classID *int) ([]model.TimetableEntry, error) {
	return sortedValues(r.st.timetable, func(e model.TimetableEntry) bool {
		return r.ownsClass(e.ClassID, teacherID) && (classID == nil || e.ClassID == *classID)
	}), nil
}

func (r timetable) GetOwned(_ context.Context, id, teacherID int) (*model.TimetableEntry, error) {
	e, ok := r.st.timetable[id]
	if !ok || !r.ownsClass(e.ClassID, teacherID) {
		return nil, repository.ErrNotFound
	}
	return &e, nil
}

func (r timetable) UpdateOwned(_ context.Context, e *model.TimetableEntry, teacherID int) error {
	stored, ok := r.st.timetable[e.ID]
	if !ok || !r.ownsClass(stored.ClassID, teacherID) {
		return repository.ErrNotFound
	}
	stored.DayOfWeek = e.DayOfWeek
	stored.StartTime = e.StartTime
	stored.EndTime = e.EndTime
	r.st.timetable[e.ID] = stored
	return nil
}

func (r timetable) DeleteOwned(_ context.Context, id, teacherID int) error {
	e, ok := r.st.timetable[id]
	if !ok || !r.ownsClass(e.ClassID, teacherID) {
		return repository.ErrNotFound
	}
	delete(r.st.timetable, id)
	return nil
}

func (r timetable) ListForStudent(_ context.Context, studentID int) ([]model.TimetableEntry, error) {
	return sortedValues(r.st.timetable, func(e model.TimetableEntry) bool {
		return r.enrolled(studentID, e.ClassID)
	}), nil
}

type grades struct{ *tx }

func (r grades) owns(g model.Grade, teacherID int) bool {
	a, ok := r.st.assignments[g.AssignmentID]
	return ok && r.ownsClass(a.ClassID, teacherID)
}

func (r grades) Create(_ context.Context, g *model.Grade) error {
	if _, ok := r.st.assignments[g.AssignmentID]; !ok {
		return repository.ErrReference
	}
	if _, ok := r.st.users[g.StudentID]; !ok {
		return repository.ErrReference
	}
	now := r.now()
	g.ID = r.st.nextID("grades")
	g.CreatedAt = now
	g.UpdatedAt = now
	r.st.grades[g.ID] = *g
	return nil
}

func (r grades) ListOwned(_ context.Context, teacherID int, f model.GradeFilter) ([]model.Grade, error) {
	return sortedValues(r.st.grades, func(g model.Grade) bool {
		return r.owns(g, teacherID) &&
			(f.AssignmentID == nil || g.AssignmentID == *f.AssignmentID) &&
			(f.StudentID == nil || g.StudentID == *f.StudentID)
	}), nil
}

func (r grades) GetOwned(_ context.Context, id, teacherID int) (*model.Grade, error) {
	g, ok := r.st.grades[id]
	if !ok || !r.owns(g, teacherID) {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r grades) UpdateOwned(_ context.Context, g *model.Grade, teacherID int) error {
	stored, ok := r.st.grades[g.ID]
	if !ok || !r.owns(stored, teacherID) {
		return repository.ErrNotFound
	}
	stored.Score = g.Score
	stored.Feedback = g.Feedback
	stored.UpdatedAt = r.now()
	r.st.grades[g.ID] = stored
	g.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r grades) DeleteOwned(_ context.Context, id, teacherID int) error {
	g, ok := r.st.grades[id]
	if !ok || !r.owns(g, teacherID) {
		return repository.ErrNotFound
	}
	delete(r.st.grades, id)
	return nil
}

func (r grades) ListForStudent(_ context.Context, studentID int) ([]model.Grade, error) {
	return sortedValues(r.st.grades, func(g model.Grade) bool {
		return g.StudentID == studentID
	}), nil
}

func (r grades) ListByClass(_ context.Context, classID int) ([]model.Grade, error) {
	return sortedValues(r.st.grades, func(g model.Grade) bool {
		a, ok := r.st.assignments[g.AssignmentID]
		return ok && a.ClassID == classID
	}), nil
}

// Package memory is an in-process implementation of the repository contract.
// It mirrors the PostgreSQL schema's unique, foreign-key and cascade rules and
// serializes transactions behind one mutex.
package memory

import (
	"context"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/classroomhq/classroom-backend/internal/model"
	"github.com/classroomhq/classroom-backend/internal/repository"
)

type enrollmentKey struct {
	studentID int
	classID   int
}

type state struct {
	seqs        map[string]int
	users       map[int]model.User
	classes     map[int]model.Class
	enrollments map[enrollmentKey]model.Enrollment
	assignments map[int]model.Assignment
	timetable   map[int]model.TimetableEntry
	grades      map[int]model.Grade
}

func newState() *state {
	return &state{
		seqs:        map[string]int{},
		users:       map[int]model.User{},
		classes:     map[int]model.Class{},
		enrollments: map[enrollmentKey]model.Enrollment{},
		assignments: map[int]model.Assignment{},
		timetable:   map[int]model.TimetableEntry{},
		grades:      map[int]model.Grade{},
	}
}

func (s *state) clone() *state {
	return &state{
		seqs:        maps.Clone(s.seqs),
		users:       maps.Clone(s.users),
		classes:     maps.Clone(s.classes),
		enrollments: maps.Clone(s.enrollments),
		assignments: maps.Clone(s.assignments),
		timetable:   maps.Clone(s.timetable),
		grades:      maps.Clone(s.grades),
	}
}

// nextID hands out ids per table, like a SERIAL column.
func (s *state) nextID(table string) int {
	s.seqs[table]++
	return s.seqs[table]
}

// Store keeps all rows in memory.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{state: newState(), now: time.Now}
}

// SetClock replaces the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// InTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(&tx{st: working, now: s.now}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// EnrollmentCount returns the number of links between the student and class.
func (s *Store) EnrollmentCount(studentID, classID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state.enrollments[enrollmentKey{studentID, classID}]; ok {
		return 1
	}
	return 0
}

type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) Users() repository.UserRepository { return users{t} }
func (t *tx) Classes() repository.ClassRepository { return classes{t} }
func (t *tx) Enrollments() repository.EnrollmentRepository { return enrollments{t} }
func (t *tx) Assignments() repository.AssignmentRepository { return assignments{t} }
func (t *tx) Timetable() repository.TimetableRepository { return timetable{t} }
func (t *tx) Grades() repository.GradeRepository { return grades{t} }

// ownsClass reports whether classID exists and is taught by teacherID.
func (t *tx) ownsClass(classID, teacherID int) bool {
	c, ok := t.st.classes[classID]
	return ok && c.TeacherID == teacherID
}

func (t *tx) enrolled(studentID, classID int) bool {
	_, ok := t.st.enrollments[enrollmentKey{studentID, classID}]
	return ok
}

func (t *tx) deleteAssignment(id int) {
	delete(t.st.assignments, id)
	for gid, g := range t.st.grades {
		if g.AssignmentID == id {
			delete(t.st.grades, gid)
		}
	}
}

func sortedValues[V any](m map[int]V, keep func(V) bool) []V {
	ids := make([]int, 0, len(m))
	for id, v := range m {
		if keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

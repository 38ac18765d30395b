package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/classroomhq/classroom-backend/internal/model"
)

func TestCreateAssignment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.signup(t, "alice", model.RoleTeacher)
	mallory := env.signup(t, "mallory", model.RoleTeacher)
	class := env.createClass(t, alice, "Algebra I")
	due := time.Date(2024, 9, 15, 23, 59, 0, 0, time.UTC)

	a, err := env.assignments.Create(ctx, alice, model.CreateAssignmentRequest{
		ClassID:     class.ID,
		Title:       " Homework 1 ",
		Description: ptr("Chapter 1 exercises"),
		DueDate:     &due,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == 0 || a.Title != "Homework 1" || a.ClassID != class.ID || !a.DueDate.Equal(due) {
		t.Errorf("assignment = %+v", a)
	}

	_, err = env.assignments.Create(ctx, mallory, model.CreateAssignmentRequest{ClassID: class.ID, Title: "Sneaky"})
	assertErrorIs(t, err, ErrNotFound)

	for _, title := range []string{"", "  ", strings.Repeat("t", 201)} {
		_, err = env.assignments.Create(ctx, alice, model.CreateAssignmentRequest{ClassID: class.ID, Title: title})
		if _, ok := validationFields(t, err)["title"]; !ok {
			t.Errorf("title %q: %v", title, err)
		}
	}
}

func TestListAssignments(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.signup(t, "alice", model.RoleTeacher)
	mallory := env.signup(t, "mallory", model.RoleTeacher)
	algebra := env.createClass(t, alice, "Algebra I")
	geometry := env.createClass(t, alice, "Geometry")
	foreign := env.createClass(t, mallory, "Chemistry")

	env.createAssignment(t, alice, algebra.ID, "Homework 1")
	env.createAssignment(t, alice, geometry.ID, "Proofs")
	env.createAssignment(t, mallory, foreign.ID, "Titration")

	all, err := env.assignments.List(ctx, alice, nil)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("unfiltered list = %d, want only alice's 2", len(all))
	}

	filtered, err := env.assignments.List(ctx, alice, &algebra.ID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Title != "Homework 1" {
		t.Errorf("filtered = %v", filtered)
	}

	_, err = env.assignments.List(ctx, alice, &foreign.ID)
	assertErrorIs(t, err, ErrNotFound)

	empty, err := env.assignments.List(ctx, mallory, &foreign.ID)
	if err != nil || empty == nil {
		t.Fatalf("List = %v, %v", empty, err)
	}
}

func TestUpdateAssignment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.signup(t, "alice", model.RoleTeacher)
	mallory := env.signup(t, "mallory", model.RoleTeacher)
	class := env.createClass(t, alice, "Algebra I")
	due := time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC)
	a, err := env.assignments.Create(ctx, alice, model.CreateAssignmentRequest{
		ClassID: class.ID, Title: "Homework 1", Description: ptr("Read"), DueDate: &due,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := env.assignments.Update(ctx, alice, a.ID, model.UpdateAssignmentRequest{
		Title:       model.Some("Homework 1b"),
		Description: model.Null[string](),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Homework 1b" || updated.Description != nil || updated.DueDate == nil {
		t.Errorf("updated = %+v", updated)
	}

	_, err = env.assignments.Update(ctx, alice, a.ID, model.UpdateAssignmentRequest{Title: model.Null[string]()})
	validationFields(t, err)
	_, err = env.assignments.Update(ctx, alice, a.ID, model.UpdateAssignmentRequest{Title: model.Some("")})
	validationFields(t, err)

	_, err = env.assignments.Update(ctx, mallory, a.ID, model.UpdateAssignmentRequest{Title: model.Some("Mine")})
	assertErrorIs(t, err, ErrNotFound)

	got, err := env.assignments.Get(ctx, alice, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Homework 1b" {
		t.Errorf("title = %q after rejected updates", got.Title)
	}
}

func TestDeleteAssignment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.signup(t, "alice", model.RoleTeacher)
	mallory := env.signup(t, "mallory", model.RoleTeacher)
	bob := env.signup(t, "bob", model.RoleStudent)
	class := env.createClass(t, alice, "Algebra I")
	a := env.createAssignment(t, alice, class.ID, "Homework 1")
	g, err := env.grades.Create(ctx, alice, model.CreateGradeRequest{AssignmentID: a.ID, StudentID: bob.UserID, Score: ptr(50.0)})
	if err != nil {
		t.Fatalf("grade: %v", err)
	}

	assertErrorIs(t, env.assignments.Delete(ctx, mallory, a.ID), ErrNotFound)
	if err := env.assignments.Delete(ctx, alice, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = env.grades.Get(ctx, alice, g.ID)
	assertErrorIs(t, err, ErrNotFound)
	assertErrorIs(t, env.assignments.Delete(ctx, alice, a.ID), ErrNotFound)
}

func TestAssignmentsRequireTeacher(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	bob := env.signup(t, "bob", model.RoleStudent)

	_, err := env.assignments.Create(ctx, bob, model.CreateAssignmentRequest{ClassID: 1, Title: "x"})
	assertErrorIs(t, err, ErrForbidden)
	_, err = env.assignments.List(ctx, bob, nil)
	assertErrorIs(t, err, ErrForbidden)
	assertErrorIs(t, env.assignments.Delete(ctx, bob, 1), ErrForbidden)
}

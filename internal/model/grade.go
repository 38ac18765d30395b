package model

import "time"

// Grade is a student's score on one assignment.
type Grade struct {
	ID           int       `json:"id"`
	AssignmentID int       `json:"assignment_id"`
	StudentID    int       `json:"student_id"`
	Score        float64   `json:"score"`
	Feedback     *string   `json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GradeFilter narrows a grade listing. Nil fields are not applied.
type GradeFilter struct {
	AssignmentID *int
	StudentID    *int
}

// CreateGradeRequest is the payload for recording a grade.
type CreateGradeRequest struct {
	AssignmentID int      `json:"assignment_id" binding:"required,min=1,max=2147483647"`
	StudentID    int      `json:"student_id" binding:"required,min=1,max=2147483647"`
	Score        *float64 `json:"score" binding:"required"`
	Feedback     *string  `json:"feedback"`
}

// UpdateGradeRequest is a partial update of a grade.
type UpdateGradeRequest struct {
	Score    Optional[float64] `json:"score"`
	Feedback Optional[string]  `json:"feedback"`
}

// Gradebook is the full score matrix of one class.
type Gradebook struct {
	Class       Class
	Students    []User
	Assignments []Assignment
	Grades      []Grade
}

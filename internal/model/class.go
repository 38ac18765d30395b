package model

import "time"

// Class is a teaching group owned by one teacher.
type Class struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code"`
	TeacherID int       `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Enrollment links a student to a class. At most one per (student, class).
type Enrollment struct {
	StudentID int       `json:"student_id"`
	ClassID   int       `json:"class_id"`
	JoinedAt  time.Time `json:"joined_at"`
}

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
}

// UpdateClassRequest is a partial update of a class.
type UpdateClassRequest struct {
	Name Optional[string] `json:"name"`
}

// JoinClassRequest is the payload a student sends to redeem a join code.
type JoinClassRequest struct {
	JoinCode string `json:"join_code" binding:"required,max=64"`
}

package model

import "time"

// Assignment is a piece of work set for a class.
type Assignment struct {
	ID          int        `json:"id"`
	ClassID     int        `json:"class_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateAssignmentRequest is the payload for creating an assignment.
type CreateAssignmentRequest struct {
	ClassID     int        `json:"class_id" binding:"required,min=1,max=2147483647"`
	Title       string     `json:"title" binding:"required"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateAssignmentRequest is a partial update. An explicit null clears
// description or due_date.
type UpdateAssignmentRequest struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	DueDate     Optional[time.Time] `json:"due_date"`
}

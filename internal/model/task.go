package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusToDo       TaskStatus = "to-do"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// TitleMaxLength bounds Task.Title in runes.
const TitleMaxLength = 80

// IsTerminal reports whether no further status changes are allowed.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusDone
}

// Task is a unit of work owned by exactly one user.
type Task struct {
	ID                   uint       `json:"id" gorm:"primaryKey"`
	UserID               uint       `json:"user_id" gorm:"not null;index"`
	Title                string     `json:"title" gorm:"size:80;not null"`
	Description          *string    `json:"description" gorm:"type:text"`
	Status               TaskStatus `json:"status" gorm:"type:varchar(20);not null;default:'to-do';index"`
	TotalDurationSeconds *int64     `json:"total_duration_seconds"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
	CompletedAt          *time.Time `json:"completed_at"`
}

// ElapsedDuration is the time a task took from creation to completion.
type ElapsedDuration struct {
	Hours        int64 `json:"hours"`
	Minutes      int64 `json:"minutes"`
	Seconds      int64 `json:"seconds"`
	TotalSeconds int64 `json:"total_seconds"`
}

// TaskStats summarizes a user's tasks by status.
type TaskStats struct {
	Total             int64            `json:"total"`
	ToDo              int64            `json:"to_do"`
	InProgress        int64            `json:"in_progress"`
	Done              int64            `json:"done"`
	AverageCompletion *ElapsedDuration `json:"average_completion"`
}

package domain

import (
	"errors"
	"time"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusActive  TaskStatus = "active"
	TaskStatusDone    TaskStatus = "done"
	TaskStatusExpired TaskStatus = "expired"
)

// Valid reports whether the status is one of the known states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusActive, TaskStatusDone, TaskStatusExpired:
		return true
	}
	return false
}

// Task-specific validation errors.
var (
	ErrEmptyTaskID     = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID = errors.New("task user ID cannot be empty")
	ErrEmptyTaskTitle  = errors.New("task title cannot be empty")
	ErrTaskTitleLong   = errors.New("task title must be at most 200 characters")
)

// Task is a user-owned reminder item.
//
// DueNotifiedAt is owned by the due-task scanner: it is nil until a
// due-soon notification has been dispatched, then set exactly once. No
// other code path may write it.
type Task struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"created_at"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	Status        TaskStatus `json:"status"`
	DueNotifiedAt *time.Time `json:"due_notified_at,omitempty"`
	CategoryIDs   []string   `json:"category_ids,omitempty"`
}

// NewTask creates an active task for the given user. The caller supplies
// the generated ID.
func NewTask(id, userID, title, description string, dueAt *time.Time) (*Task, error) {
	task := &Task{
		ID:          id,
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now().UTC(),
		DueAt:       dueAt,
		Status:      TaskStatusActive,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyTaskID
	}
	if t.UserID == "" {
		return ErrEmptyTaskUserID
	}
	if t.Title == "" {
		return ErrEmptyTaskTitle
	}
	if len(t.Title) > 200 {
		return ErrTaskTitleLong
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	return nil
}

// DueTask is the scanner's projection of a task joined with its owner's
// Telegram chat. Rows of this shape are only produced by the skip-locked
// candidate query, so TelegramChatID is always present.
type DueTask struct {
	ID             string
	Title          string
	DueAt          time.Time
	TelegramChatID int64
}

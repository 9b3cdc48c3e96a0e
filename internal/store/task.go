package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/vporoshok/taskping/internal/domain"
)

// TaskStore defines the interface for task data persistence.
type TaskStore interface {
	// Create saves a new task and its category links.
	// Returns ErrInvalidEntity when the user or a category does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task with its category IDs populated.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// ListForUser returns the user's tasks ordered by creation time,
	// newest first, with category IDs populated.
	ListForUser(ctx context.Context, userID string) ([]*domain.Task, error)

	// Update modifies a task's title, description, due time, status and
	// category links. CreatedAt and DueNotifiedAt are never written here.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// UpdateStatus changes only the task's status.
	// Returns ErrTaskNotFound if the task does not exist.
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error

	// Delete removes a task; category links cascade, categories survive.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id string) error

	// FindDueUnnotified selects the notification candidates: active tasks
	// with a due time strictly inside (now, windowEnd], no prior
	// notification, and an owner with a Telegram chat.
	//
	// MUST be called on a transaction-bound store (WithTx): the rows come
	// back locked FOR UPDATE with SKIP LOCKED semantics, so concurrent
	// scanner runs partition the candidate set instead of blocking or
	// double-processing.
	FindDueUnnotified(ctx context.Context, now, windowEnd time.Time) ([]*domain.DueTask, error)

	// MarkNotified records that a due notification has been dispatched for
	// the task, guarded by `due_notified_at IS NULL` so the transition can
	// happen at most once. Returns false when the task was already marked.
	MarkNotified(ctx context.Context, id string, at time.Time) (bool, error)

	// WithTx returns a new TaskStore bound to the provided transaction.
	WithTx(tx *sql.Tx) TaskStore
}

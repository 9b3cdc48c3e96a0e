package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/platform/logger"
	"github.com/vporoshok/taskping/internal/store"
)

// TaskStore implements the store.TaskStore interface using a PostgreSQL
// database as the storage backend.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a new PostgreSQL implementation of the TaskStore
// interface.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements store.TaskStore.
var _ store.TaskStore = (*TaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, created_at, due_at, status, due_notified_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULL)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		task.CreatedAt,
		task.DueAt,
		task.Status,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID),
			slog.String("user_id", task.UserID))
		return MapError(err)
	}

	if err := s.replaceCategoryLinks(ctx, task.ID, task.CategoryIDs); err != nil {
		return err
	}

	log.Info("task created",
		slog.String("task_id", task.ID),
		slog.String("user_id", task.UserID))
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *TaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, description, created_at, due_at, status, due_notified_at
		FROM tasks
		WHERE id = $1
	`

	task, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return nil, MapError(err)
	}

	if task.CategoryIDs, err = s.categoryIDs(ctx, id); err != nil {
		return nil, err
	}
	return task, nil
}

// ListForUser implements store.TaskStore.ListForUser.
func (s *TaskStore) ListForUser(ctx context.Context, userID string) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, title, description, created_at, due_at, status, due_notified_at
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, task := range tasks {
		if task.CategoryIDs, err = s.categoryIDs(ctx, task.ID); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update. created_at and due_notified_at
// are deliberately absent from the SET list: the former is immutable, the
// latter belongs to the scanner alone.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, due_at = $3, status = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query, task.Title, task.Description, task.DueAt, task.Status, task.ID)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	return s.replaceCategoryLinks(ctx, task.ID, task.CategoryIDs)
}

// UpdateStatus implements store.TaskStore.UpdateStatus.
func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return domain.ErrInvalidTaskStatus
	}

	result, err := s.db.ExecContext(ctx, `UPDATE tasks SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

// FindDueUnnotified implements store.TaskStore.FindDueUnnotified.
//
// FOR UPDATE OF t SKIP LOCKED is the load-bearing line: matching rows are
// locked for the calling transaction, and rows already locked by another
// scanner run are skipped rather than waited on. Overlapping runs therefore
// split the candidate set between them, and no task can be notified twice.
// The window is open at the lower bound and closed at the upper: a task due
// exactly now is left for its owner, one due exactly at windowEnd is
// included.
func (s *TaskStore) FindDueUnnotified(ctx context.Context, now, windowEnd time.Time) ([]*domain.DueTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT t.id, t.title, t.due_at, u.telegram_user_id
		FROM tasks t
		JOIN users u ON u.id = t.user_id
		WHERE t.status = $1
		  AND t.due_at IS NOT NULL
		  AND t.due_notified_at IS NULL
		  AND t.due_at > $2
		  AND t.due_at <= $3
		  AND u.telegram_user_id IS NOT NULL
		FOR UPDATE OF t SKIP LOCKED
	`

	rows, err := s.db.QueryContext(ctx, query, domain.TaskStatusActive, now, windowEnd)
	if err != nil {
		log.Error("failed to query due tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	due := []*domain.DueTask{}
	for rows.Next() {
		var dt domain.DueTask
		if err := rows.Scan(&dt.ID, &dt.Title, &dt.DueAt, &dt.TelegramChatID); err != nil {
			log.Error("failed to scan due task row", slog.String("error", err.Error()))
			return nil, err
		}
		due = append(due, &dt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return due, nil
}

// MarkNotified implements store.TaskStore.MarkNotified. The IS NULL guard
// makes the null -> timestamp transition happen at most once even if two
// writers race past the row lock.
func (s *TaskStore) MarkNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET due_notified_at = $1
		WHERE id = $2 AND due_notified_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, at, id)
	if err != nil {
		log.Error("failed to mark task notified",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return false, MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

// WithTx implements store.TaskStore.WithTx.
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{db: tx, logger: s.logger}
}

// replaceCategoryLinks rewrites the task's m2m rows. Runs as two statements;
// callers that need atomicity wrap the store in a transaction via WithTx.
func (s *TaskStore) replaceCategoryLinks(ctx context.Context, taskID string, categoryIDs []string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(ctx, `DELETE FROM task_categories WHERE task_id = $1`, taskID); err != nil {
		log.Error("failed to clear task categories",
			slog.String("error", err.Error()),
			slog.String("task_id", taskID))
		return MapError(err)
	}

	for _, catID := range categoryIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO task_categories (task_id, category_id) VALUES ($1, $2)`,
			taskID, catID)
		if err != nil {
			log.Error("failed to link task category",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID),
				slog.String("category_id", catID))
			return MapError(err)
		}
	}
	return nil
}

func (s *TaskStore) categoryIDs(ctx context.Context, taskID string) ([]string, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id FROM task_categories WHERE task_id = $1 ORDER BY category_id`,
		taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer closeRows(rows, log)

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
	)
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.CreatedAt,
		&task.DueAt,
		&status,
		&task.DueNotifiedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return &task, nil
}

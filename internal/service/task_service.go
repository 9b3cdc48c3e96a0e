package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/keygen"
	"github.com/vporoshok/taskping/internal/store"
)

// CreateTaskInput carries the user-supplied fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueAt       *time.Time
	CategoryIDs []string
}

// UpdateTaskInput carries the mutable fields of a task. Nil pointers mean
// "leave unchanged"; ClearDueAt removes the due time explicitly since a nil
// DueAt is ambiguous between "unchanged" and "cleared".
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueAt       *time.Time
	ClearDueAt  bool
	Status      *domain.TaskStatus
	CategoryIDs []string // nil means unchanged, empty slice clears links
}

// TaskService provides task CRUD scoped to the requesting user.
type TaskService interface {
	// CreateTask creates a task owned by the given user.
	CreateTask(ctx context.Context, userID string, input CreateTaskInput) (*domain.Task, error)

	// GetTask retrieves a task, enforcing ownership.
	// Returns ErrNotOwned when the task belongs to someone else.
	GetTask(ctx context.Context, userID, taskID string) (*domain.Task, error)

	// ListTasks returns the user's tasks, newest first.
	ListTasks(ctx context.Context, userID string) ([]*domain.Task, error)

	// UpdateTask applies a partial update, enforcing ownership.
	UpdateTask(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*domain.Task, error)

	// DeleteTask removes a task, enforcing ownership.
	DeleteTask(ctx context.Context, userID, taskID string) error
}

// TaskServiceImpl implements the TaskService interface.
type TaskServiceImpl struct {
	taskStore store.TaskStore
	keys      *keygen.Generator
	logger    *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskStore store.TaskStore, keys *keygen.Generator, logger *slog.Logger) *TaskServiceImpl {
	return &TaskServiceImpl{
		taskStore: taskStore,
		keys:      keys,
		logger:    logger.With("component", "task_service"),
	}
}

// CreateTask creates a task owned by the given user.
func (s *TaskServiceImpl) CreateTask(ctx context.Context, userID string, input CreateTaskInput) (*domain.Task, error) {
	id, err := s.keys.Generate(keygen.KindTask)
	if err != nil {
		return nil, fmt.Errorf("failed to generate task ID: %w", err)
	}

	task, err := domain.NewTask(id, userID, input.Title, input.Description, input.DueAt)
	if err != nil {
		return nil, err
	}
	task.CategoryIDs = input.CategoryIDs

	if err := s.taskStore.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"user_id", userID)
	return task, nil
}

// GetTask retrieves a task, enforcing ownership.
func (s *TaskServiceImpl) GetTask(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks returns the user's tasks, newest first.
func (s *TaskServiceImpl) ListTasks(ctx context.Context, userID string) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update, enforcing ownership.
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, userID, taskID string, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.getOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ClearDueAt {
		task.DueAt = nil
	} else if input.DueAt != nil {
		task.DueAt = input.DueAt
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, domain.ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.CategoryIDs != nil {
		task.CategoryIDs = input.CategoryIDs
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	if err := s.taskStore.Update(ctx, task); err != nil {
		s.logger.Error("failed to update task",
			"error", err,
			"task_id", taskID)
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTask removes a task, enforcing ownership.
func (s *TaskServiceImpl) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := s.getOwned(ctx, userID, taskID); err != nil {
		return err
	}

	if err := s.taskStore.Delete(ctx, taskID); err != nil {
		s.logger.Error("failed to delete task",
			"error", err,
			"task_id", taskID)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("task deleted",
		"task_id", taskID,
		"user_id", userID)
	return nil
}

// getOwned fetches the task and checks ownership.
func (s *TaskServiceImpl) getOwned(ctx context.Context, userID, taskID string) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID)
	if err != nil {
		if !errors.Is(err, store.ErrTaskNotFound) {
			s.logger.Error("failed to retrieve task",
				"error", err,
				"task_id", taskID)
		}
		return nil, fmt.Errorf("failed to retrieve task: %w", err)
	}
	if task.UserID != userID {
		s.logger.Warn("cross-user task access denied",
			"task_id", taskID,
			"owner_id", task.UserID,
			"user_id", userID)
		return nil, ErrNotOwned
	}
	return task, nil
}

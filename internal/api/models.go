package api

import (
	"time"

	"github.com/vporoshok/taskping/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the user registration endpoint.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=150"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest defines the payload for the user login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	// UserID is the unique identifier for the authenticated user
	UserID string `json:"user_id"`

	// Token is the JWT used for API authorization
	Token string `json:"token"`
}

// BotRegisterRequest defines the payload for the bot's user registration
// endpoint. Username is optional and only applied to newly created
// accounts.
type BotRegisterRequest struct {
	TelegramUserID int64  `json:"tg_id" validate:"required,gt=0"`
	Username       string `json:"username" validate:"omitempty,max=150"`
}

// BotRegisterResponse reports the user behind a Telegram account.
type BotRegisterResponse struct {
	UserID         string `json:"user_id"`
	TelegramUserID int64  `json:"tg_id"`
	IsNew          bool   `json:"is_new"`
}

// CreateTaskRequest defines the payload for task creation.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CategoryIDs []string   `json:"category_ids,omitempty"`
}

// UpdateTaskRequest defines the payload for partial task updates. Absent
// fields are left unchanged; "clear_due_at" removes the due time.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	ClearDueAt  bool       `json:"clear_due_at,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=active done expired"`
	CategoryIDs []string   `json:"category_ids,omitempty"`
}

// TaskResponse is the API representation of a task.
type TaskResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	CreatedAt     time.Time  `json:"created_at"`
	DueAt         *time.Time `json:"due_at,omitempty"`
	Status        string     `json:"status"`
	DueNotifiedAt *time.Time `json:"due_notified_at,omitempty"`
	CategoryIDs   []string   `json:"category_ids"`
}

// NewTaskResponse converts a domain task to its API shape.
func NewTaskResponse(task *domain.Task) TaskResponse {
	categoryIDs := task.CategoryIDs
	if categoryIDs == nil {
		categoryIDs = []string{}
	}
	return TaskResponse{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		CreatedAt:     task.CreatedAt,
		DueAt:         task.DueAt,
		Status:        string(task.Status),
		DueNotifiedAt: task.DueNotifiedAt,
		CategoryIDs:   categoryIDs,
	}
}

// CategoryRequest defines the payload for category creation and renaming.
type CategoryRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CategoryResponse is the API representation of a category.
type CategoryResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Global bool   `json:"global"`
}

// NewCategoryResponse converts a domain category to its API shape.
func NewCategoryResponse(cat *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:     cat.ID,
		Name:   cat.Name,
		Slug:   cat.Slug,
		Global: cat.IsGlobal(),
	}
}

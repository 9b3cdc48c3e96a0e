package store

import (
	"context"
	"database/sql"

	"github.com/vporoshok/taskping/internal/domain"
)

// CategoryStore defines the interface for category data persistence.
type CategoryStore interface {
	// Create saves a new category.
	// Returns ErrCategorySlugExists when the (owner, slug) pair is taken;
	// the nil-owner global namespace counts as an owner of its own.
	Create(ctx context.Context, category *domain.Category) error

	// GetByID retrieves a category by its unique ID.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id string) (*domain.Category, error)

	// ListVisible returns the categories a user can see: the global presets
	// plus, when ownerID is non-nil, the user's own, ordered by name.
	ListVisible(ctx context.Context, ownerID *string) ([]*domain.Category, error)

	// Update renames a category (name and slug together).
	// Returns ErrCategoryNotFound or ErrCategorySlugExists.
	Update(ctx context.Context, category *domain.Category) error

	// Delete removes a category. Task links are detached by the schema's
	// ON DELETE CASCADE on task_categories; tasks themselves survive.
	// Returns ErrCategoryNotFound if the category does not exist.
	Delete(ctx context.Context, id string) error

	// EnsurePreset creates a global preset category when missing, keyed by
	// its nil-owner slug, and refreshes the display name when it drifted.
	// Used by the one-time startup seeding step; idempotent.
	EnsurePreset(ctx context.Context, id, name, slug string) error

	// WithTx returns a new CategoryStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CategoryStore
}

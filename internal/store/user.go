package store

import (
	"context"
	"database/sql"

	"github.com/vporoshok/taskping/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user to the store.
	// Returns ErrUsernameExists or ErrTelegramIDExists when the
	// corresponding unique constraint is violated.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByUsername retrieves an active user by username.
	// Returns ErrUserNotFound if the user does not exist.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByTelegramID retrieves an active user by their Telegram numeric ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)

	// SetUsername backfills the username of an existing user.
	// Returns ErrUserNotFound if the user does not exist and
	// ErrUsernameExists if the name is taken.
	SetUsername(ctx context.Context, id, username string) error

	// WithTx returns a new UserStore bound to the provided transaction.
	// The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) UserStore
}

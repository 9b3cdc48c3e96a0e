package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/platform/logger"
	"github.com/vporoshok/taskping/internal/store"
)

// UserStore implements the store.UserStore interface using a PostgreSQL
// database as the storage backend.
type UserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewUserStore creates a new PostgreSQL implementation of the UserStore
// interface. The database handle is initialized and managed by the caller.
func NewUserStore(db store.DBTX, logger *slog.Logger) *UserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{
		db:     db,
		logger: logger.With(slog.String("component", "user_store")),
	}
}

// Ensure UserStore implements store.UserStore.
var _ store.UserStore = (*UserStore)(nil)

// Create implements store.UserStore.Create.
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		log.Warn("user validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID))
		return err
	}

	query := `
		INSERT INTO users (id, username, telegram_user_id, hashed_password, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.TelegramUserID,
		nullIfEmpty(user.HashedPassword),
		user.IsActive,
		user.CreatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			switch ConstraintName(err) {
			case "users_username_key":
				return MapUniqueViolation(err, store.ErrUsernameExists)
			case "users_telegram_user_id_key":
				return MapUniqueViolation(err, store.ErrTelegramIDExists)
			}
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID))
		return MapError(err)
	}

	log.Info("user created",
		slog.String("user_id", user.ID),
		slog.Bool("has_telegram", user.HasTelegram()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.getOne(ctx, `WHERE id = $1`, id)
}

// GetByUsername implements store.UserStore.GetByUsername.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getOne(ctx, `WHERE username = $1 AND is_active`, username)
}

// GetByTelegramID implements store.UserStore.GetByTelegramID.
func (s *UserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.getOne(ctx, `WHERE telegram_user_id = $1 AND is_active`, telegramID)
}

func (s *UserStore) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, username, telegram_user_id, hashed_password, is_active, created_at
		FROM users
	` + where

	var (
		user           domain.User
		hashedPassword sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.TelegramUserID,
		&hashedPassword,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		log.Error("failed to get user", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	user.HashedPassword = hashedPassword.String

	return &user, nil
}

// SetUsername implements store.UserStore.SetUsername.
func (s *UserStore) SetUsername(ctx context.Context, id, username string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `UPDATE users SET username = $1 WHERE id = $2`

	result, err := s.db.ExecContext(ctx, query, username, id)
	if err != nil {
		if IsUniqueViolation(err) {
			return MapUniqueViolation(err, store.ErrUsernameExists)
		}
		log.Error("failed to set username",
			slog.String("error", err.Error()),
			slog.String("user_id", id))
		return MapError(err)
	}

	return CheckRowsAffected(result, store.ErrUserNotFound)
}

// WithTx implements store.UserStore.WithTx.
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx, logger: s.logger}
}

// nullIfEmpty converts an empty string to a SQL NULL so optional text
// columns do not store empty strings.
func nullIfEmpty(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

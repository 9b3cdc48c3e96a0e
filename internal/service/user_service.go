package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/keygen"
	"github.com/vporoshok/taskping/internal/service/auth"
	"github.com/vporoshok/taskping/internal/store"
)

// UserService provides user-related operations: registration through the
// web API and through the Telegram bot, plus credential checks.
type UserService interface {
	// Register creates a new user with the given username and password.
	// Returns store.ErrUsernameExists when the name is taken.
	Register(ctx context.Context, username, password string) (*domain.User, error)

	// Authenticate verifies the username/password pair.
	// Returns ErrInvalidCredentials when either part is wrong; the caller
	// cannot distinguish an unknown user from a bad password.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// RegisterTelegram creates a user for the given Telegram account, or
	// returns the existing one. A non-empty username is backfilled onto
	// newly created accounts. The boolean reports whether a new user was
	// created.
	RegisterTelegram(ctx context.Context, telegramUserID int64, username string) (*domain.User, bool, error)

	// GetUser retrieves a user by their ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// UserServiceImpl implements the UserService interface.
type UserServiceImpl struct {
	userStore store.UserStore
	keys      *keygen.Generator
	passwords auth.PasswordVerifier
	logger    *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userStore store.UserStore,
	keys *keygen.Generator,
	passwords auth.PasswordVerifier,
	logger *slog.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userStore: userStore,
		keys:      keys,
		passwords: passwords,
		logger:    logger.With("component", "user_service"),
	}
}

// Register creates a new user with the specified username and password.
func (s *UserServiceImpl) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if len(password) < 8 {
		return nil, domain.ErrPasswordTooShort
	}
	if len(password) > 72 {
		return nil, domain.ErrPasswordTooLong
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := s.keys.Generate(keygen.KindUser)
	if err != nil {
		return nil, fmt.Errorf("failed to generate user ID: %w", err)
	}

	user, err := domain.NewWebUser(id, username, hash)
	if err != nil {
		return nil, err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUsernameExists) {
			s.logger.Debug("registration rejected: username taken",
				"username", username)
			return nil, err
		}
		s.logger.Error("failed to create user",
			"error", err,
			"username", username)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user registered",
		"user_id", user.ID,
		"username", username)
	return user, nil
}

// Authenticate verifies the username/password pair.
func (s *UserServiceImpl) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userStore.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("failed to look up user for login",
			"error", err,
			"username", username)
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.HashedPassword == "" {
		// Telegram-only account with no password set.
		return nil, ErrInvalidCredentials
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		s.logger.Debug("login rejected: password mismatch",
			"user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// RegisterTelegram creates a user for a Telegram account or returns the
// existing one. The lookup-then-create race resolves through the unique
// index on telegram_user_id: the loser re-reads the winner's row.
// A non-empty username is backfilled onto newly created accounts only;
// existing accounts keep whatever name they have.
func (s *UserServiceImpl) RegisterTelegram(ctx context.Context, telegramUserID int64, username string) (*domain.User, bool, error) {
	user, err := s.userStore.GetByTelegramID(ctx, telegramUserID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		s.logger.Error("failed to look up telegram user",
			"error", err,
			"telegram_user_id", telegramUserID)
		return nil, false, fmt.Errorf("failed to look up telegram user: %w", err)
	}

	id, err := s.keys.Generate(keygen.KindUser)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate user ID: %w", err)
	}

	user, err = domain.NewTelegramUser(id, telegramUserID)
	if err != nil {
		return nil, false, err
	}

	if err := s.userStore.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrTelegramIDExists) {
			existing, lookupErr := s.userStore.GetByTelegramID(ctx, telegramUserID)
			if lookupErr != nil {
				return nil, false, fmt.Errorf("failed to re-read telegram user: %w", lookupErr)
			}
			return existing, false, nil
		}
		s.logger.Error("failed to create telegram user",
			"error", err,
			"telegram_user_id", telegramUserID)
		return nil, false, fmt.Errorf("failed to create telegram user: %w", err)
	}

	if username != "" {
		if err := s.userStore.SetUsername(ctx, user.ID, username); err != nil {
			if errors.Is(err, store.ErrUsernameExists) {
				return nil, false, err
			}
			s.logger.Error("failed to backfill username",
				"error", err,
				"user_id", user.ID)
			return nil, false, fmt.Errorf("failed to backfill username: %w", err)
		}
		user.Username = &username
	}

	s.logger.Info("telegram user registered",
		"user_id", user.ID,
		"telegram_user_id", telegramUserID)
	return user, true, nil
}

// GetUser retrieves a user by their ID.
func (s *UserServiceImpl) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			s.logger.Error("failed to retrieve user",
				"error", err,
				"user_id", userID)
		}
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

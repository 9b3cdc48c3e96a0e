package domain

import (
	"errors"
	"time"
)

// User-specific validation errors.
var (
	ErrEmptyUserID        = errors.New("user ID cannot be empty")
	ErrUserNoIdentity     = errors.New("user must have a username or a telegram ID")
	ErrUsernameTooLong    = errors.New("username must be at most 150 characters")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordTooLong    = errors.New("password must be at most 72 characters long")
	ErrInvalidTelegramID  = errors.New("telegram ID must be positive")
	ErrMissingCredentials = errors.New("web users must have a hashed password")
)

// User represents a registered user. A user is reachable either through a
// first-party username/password pair, a Telegram account, or both; at least
// one of the two identities must be present.
type User struct {
	ID             string    `json:"id"`
	Username       *string   `json:"username,omitempty"`
	TelegramUserID *int64    `json:"telegram_user_id,omitempty"`
	HashedPassword string    `json:"-"` // never expose the hash
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewWebUser creates a user registered through the web API. The caller
// supplies the generated ID and the already-hashed password.
func NewWebUser(id, username, hashedPassword string) (*User, error) {
	name := username
	user := &User{
		ID:             id,
		Username:       &name,
		HashedPassword: hashedPassword,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// NewTelegramUser creates a user registered through the bot. Such users
// have no password; their identity is the Telegram numeric ID.
func NewTelegramUser(id string, telegramUserID int64) (*User, error) {
	tgID := telegramUserID
	user := &User{
		ID:             id,
		TelegramUserID: &tgID,
		IsActive:       true,
		CreatedAt:      time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return user, nil
}

// Validate checks the user invariants. The load-bearing one mirrors the
// database CHECK constraint: username or telegram ID must be set.
func (u *User) Validate() error {
	if u.ID == "" {
		return ErrEmptyUserID
	}
	if u.Username == nil && u.TelegramUserID == nil {
		return ErrUserNoIdentity
	}
	if u.Username != nil {
		if *u.Username == "" {
			return ErrUserNoIdentity
		}
		if len(*u.Username) > 150 {
			return ErrUsernameTooLong
		}
	}
	if u.TelegramUserID != nil && *u.TelegramUserID <= 0 {
		return ErrInvalidTelegramID
	}
	// A user created through the web flow must be able to log in.
	if u.TelegramUserID == nil && u.HashedPassword == "" {
		return ErrMissingCredentials
	}
	return nil
}

// HasTelegram reports whether the user can receive Telegram notifications.
func (u *User) HasTelegram() bool {
	return u.TelegramUserID != nil
}

package auth

import (
	"context"
	"time"
)

// Token scopes. User tokens act on behalf of the authenticated account;
// bot tokens belong to the Telegram bot service and may act on behalf of
// a user identified out of band.
const (
	ScopeUser = "user"
	ScopeBot  = "bot"
)

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateUserToken creates a signed JWT for an authenticated user.
	// Returns the token string or an error if token generation fails.
	GenerateUserToken(ctx context.Context, userID string) (string, error)

	// GenerateBotToken creates a signed JWT carrying the bot scope.
	// Bot tokens have no subject user; the acting user is resolved per
	// request from the X-Act-As-User header.
	GenerateBotToken(ctx context.Context) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims. Returns an error if validation fails (expired, invalid
	// signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated claims of an issued token.
type Claims struct {
	// UserID identifies the user the token was issued for. Empty for
	// bot-scoped tokens.
	UserID string `json:"uid,omitempty"`

	// Scope is the token's authority: ScopeUser or ScopeBot.
	Scope string `json:"scope,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

// IsBot reports whether the claims carry the bot scope.
func (c *Claims) IsBot() bool {
	return c.Scope == ScopeBot
}

// Package middleware provides HTTP middleware for the API: request
// tracing and JWT authentication for both user and bot tokens.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vporoshok/taskping/internal/api/shared"
	"github.com/vporoshok/taskping/internal/service/auth"
	"github.com/vporoshok/taskping/internal/store"
)

// ActAsUserHeader identifies the acting user on bot-scoped requests by
// their Telegram numeric ID.
const ActAsUserHeader = "X-Act-As-User"

// AuthMiddleware provides JWT authentication for routes.
type AuthMiddleware struct {
	jwtService auth.JWTService
	userStore  store.UserStore
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
// The user store resolves X-Act-As-User headers on bot-scoped requests.
func NewAuthMiddleware(jwtService auth.JWTService, userStore store.UserStore) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		userStore:  userStore,
	}
}

// Authenticate validates JWT tokens from the Authorization header. User
// tokens put the subject user's ID into the context. Bot tokens mark the
// request as bot-scoped and, when the X-Act-As-User header names a known
// Telegram account, resolve it to the acting user.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := m.jwtService.ValidateToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrWrongScope):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				slog.Error("failed to validate token", "error", err)
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		ctx := r.Context()

		if claims.IsBot() {
			ctx = context.WithValue(ctx, shared.BotContextKey, true)

			if actAs := r.Header.Get(ActAsUserHeader); actAs != "" {
				userID, err := m.resolveActAs(ctx, actAs)
				if err != nil {
					m.respondActAsError(w, r, err)
					return
				}
				ctx = context.WithValue(ctx, shared.UserIDContextKey, userID)
			}
		} else {
			ctx = context.WithValue(ctx, shared.UserIDContextKey, claims.UserID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AuthenticateOptional behaves like Authenticate when credentials are
// present and passes the request through anonymously when they are not.
// Used on read endpoints where anonymous callers see only global data.
func (m *AuthMiddleware) AuthenticateOptional(next http.Handler) http.Handler {
	authenticated := m.Authenticate(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		authenticated.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests that did not resolve to an acting user.
// For bot-scoped requests this means the X-Act-As-User header was absent.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.UserID(r.Context()); !ok {
			if shared.IsBot(r.Context()) {
				shared.RespondWithError(w, r, http.StatusUnauthorized, ActAsUserHeader+" header required")
				return
			}
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireBot rejects requests not authenticated with a bot-scoped token.
func (m *AuthMiddleware) RequireBot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !shared.IsBot(r.Context()) {
			shared.RespondWithError(w, r, http.StatusForbidden, "Bot token required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errInvalidActAs = errors.New("invalid act-as header")

func (m *AuthMiddleware) resolveActAs(ctx context.Context, actAs string) (string, error) {
	telegramID, err := strconv.ParseInt(actAs, 10, 64)
	if err != nil || telegramID <= 0 {
		return "", errInvalidActAs
	}

	user, err := m.userStore.GetByTelegramID(ctx, telegramID)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (m *AuthMiddleware) respondActAsError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errInvalidActAs):
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid "+ActAsUserHeader)
	case errors.Is(err, store.ErrUserNotFound):
		shared.RespondWithError(w, r, http.StatusUnauthorized,
			"Unknown user (call /api/bot/register first)")
	default:
		slog.Error("failed to resolve act-as user", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
	}
}

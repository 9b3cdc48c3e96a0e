package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vporoshok/taskping/internal/api/shared"
	"github.com/vporoshok/taskping/internal/config"
	"github.com/vporoshok/taskping/internal/domain"
	"github.com/vporoshok/taskping/internal/service/auth"
	"github.com/vporoshok/taskping/internal/store"
)

// fakeUserStore resolves a single known Telegram account.
type fakeUserStore struct {
	user *domain.User
}

func (f *fakeUserStore) Create(ctx context.Context, user *domain.User) error { return nil }
func (f *fakeUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}
func (f *fakeUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, store.ErrUserNotFound
}
func (f *fakeUserStore) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	if f.user != nil && f.user.TelegramUserID != nil && *f.user.TelegramUserID == telegramID {
		return f.user, nil
	}
	return nil, store.ErrUserNotFound
}
func (f *fakeUserStore) SetUsername(ctx context.Context, id, username string) error { return nil }
func (f *fakeUserStore) WithTx(tx *sql.Tx) store.UserStore                          { return f }

func newTestJWT(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:   "thisisasecretkeythatis32charslong!!",
		TokenExpiry: time.Hour,
	})
	require.NoError(t, err)
	return svc
}

// capture records the context the inner handler observed.
type capture struct {
	called bool
	userID string
	isBot  bool
}

func captureHandler(c *capture) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.userID, _ = shared.UserID(r.Context())
		c.isBot = shared.IsBot(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_UserToken(t *testing.T) {
	t.Parallel()

	jwtSvc := newTestJWT(t)
	m := NewAuthMiddleware(jwtSvc, &fakeUserStore{})

	token, err := jwtSvc.GenerateUserToken(context.Background(), "ABCU1")
	require.NoError(t, err)

	var c capture
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	m.Authenticate(captureHandler(&c)).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, c.called)
	assert.Equal(t, "ABCU1", c.userID)
	assert.False(t, c.isBot)
}

func TestAuthenticate_MissingOrMalformedHeader(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(newTestJWT(t), &fakeUserStore{})

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no bearer prefix", "Token abc"},
		{"too many parts", "Bearer a b"},
		{"garbage token", "Bearer not.a.token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var c capture
			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			m.Authenticate(captureHandler(&c)).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, c.called)
		})
	}
}

func TestAuthenticate_BotTokenActAs(t *testing.T) {
	t.Parallel()

	tgID := int64(42)
	jwtSvc := newTestJWT(t)
	m := NewAuthMiddleware(jwtSvc, &fakeUserStore{
		user: &domain.User{ID: "ABCU7", TelegramUserID: &tgID, IsActive: true},
	})

	token, err := jwtSvc.GenerateBotToken(context.Background())
	require.NoError(t, err)

	t.Run("resolves acting user", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(ActAsUserHeader, "42")
		w := httptest.NewRecorder()

		m.Authenticate(captureHandler(&c)).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ABCU7", c.userID)
		assert.True(t, c.isBot)
	})

	t.Run("no header leaves request anonymous", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodPost, "/api/bot/register", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		m.Authenticate(captureHandler(&c)).ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, c.called)
		assert.Empty(t, c.userID)
		assert.True(t, c.isBot)
	})

	t.Run("unknown telegram account", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(ActAsUserHeader, "999")
		w := httptest.NewRecorder()

		m.Authenticate(captureHandler(&c)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, c.called)
	})

	t.Run("malformed header", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(ActAsUserHeader, "not-a-number")
		w := httptest.NewRecorder()

		m.Authenticate(captureHandler(&c)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, c.called)
	})
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	t.Parallel()

	// A service whose tokens are already expired.
	expired, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:   "thisisasecretkeythatis32charslong!!",
		TokenExpiry: -48 * time.Hour,
	})
	require.NoError(t, err)

	token, err := expired.GenerateUserToken(context.Background(), "ABCU1")
	require.NoError(t, err)

	m := NewAuthMiddleware(newTestJWT(t), &fakeUserStore{})

	var c capture
	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	m.Authenticate(captureHandler(&c)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, c.called)
}

func TestRequireUser(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(newTestJWT(t), &fakeUserStore{})

	t.Run("passes with user", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, "ABCU1")
		w := httptest.NewRecorder()

		m.RequireUser(captureHandler(&c)).ServeHTTP(w, req.WithContext(ctx))
		assert.True(t, c.called)
	})

	t.Run("rejects anonymous bot", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		ctx := context.WithValue(req.Context(), shared.BotContextKey, true)
		w := httptest.NewRecorder()

		m.RequireUser(captureHandler(&c)).ServeHTTP(w, req.WithContext(ctx))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.False(t, c.called)
	})
}

func TestRequireBot(t *testing.T) {
	t.Parallel()

	m := NewAuthMiddleware(newTestJWT(t), &fakeUserStore{})

	t.Run("rejects user token", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodPost, "/api/bot/register", nil)
		ctx := context.WithValue(req.Context(), shared.UserIDContextKey, "ABCU1")
		w := httptest.NewRecorder()

		m.RequireBot(captureHandler(&c)).ServeHTTP(w, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.False(t, c.called)
	})

	t.Run("passes bot", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodPost, "/api/bot/register", nil)
		ctx := context.WithValue(req.Context(), shared.BotContextKey, true)
		w := httptest.NewRecorder()

		m.RequireBot(captureHandler(&c)).ServeHTTP(w, req.WithContext(ctx))
		assert.True(t, c.called)
	})
}

func TestAuthenticateOptional(t *testing.T) {
	t.Parallel()

	jwtSvc := newTestJWT(t)
	m := NewAuthMiddleware(jwtSvc, &fakeUserStore{})

	t.Run("no credentials passes anonymous", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		w := httptest.NewRecorder()

		m.AuthenticateOptional(captureHandler(&c)).ServeHTTP(w, req)
		require.True(t, c.called)
		assert.Empty(t, c.userID)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid token resolves user", func(t *testing.T) {
		token, err := jwtSvc.GenerateUserToken(context.Background(), "ABCU1")
		require.NoError(t, err)

		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		m.AuthenticateOptional(captureHandler(&c)).ServeHTTP(w, req)
		require.True(t, c.called)
		assert.Equal(t, "ABCU1", c.userID)
	})

	t.Run("bad token still rejected", func(t *testing.T) {
		var c capture
		req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		w := httptest.NewRecorder()

		m.AuthenticateOptional(captureHandler(&c)).ServeHTTP(w, req)
		assert.False(t, c.called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// Package service provides application-level services for managing users,
// tasks, and categories.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for them with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInvalidCredentials indicates a failed username/password check.
	// API layer should map this to HTTP 401 Unauthorized.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrPresetImmutable indicates an attempt to modify or delete a global
	// preset category. API layer should map this to HTTP 403 Forbidden.
	ErrPresetImmutable = errors.New("preset categories cannot be modified")
)

// Package common defines shared constants and sentinel errors used across
// uservault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound         = errors.New("not found")
	ErrorDuplicateKey     = errors.New("duplicate key")
	ErrorTokenCollision   = errors.New("token already bound to another user")
	ErrorInvalidArgument  = errors.New("invalid argument")
	ErrorStoreUnavailable = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Package common defines shared constants and sentinel errors used across
// the clipcast server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorUnavailable  = errors.New("store unavailable")
	ErrorValidation   = errors.New("validation error")

	// Token codec errors (purely cryptographic/format validation).
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")

	// Token lifecycle errors.
	ErrTokenReused      = errors.New("refresh token reused or superseded")
	ErrTokenPersistence = errors.New("token persistence failed")
)

// Package common defines shared constants and sentinel errors used across
// client and server layers of GophAuth. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrorAllFieldsRequired    = errors.New("all fields are required")
	ErrorInvalidEmailFormat   = errors.New("invalid email format")
	ErrorPasswordTooShort     = errors.New("password must be at least 8 characters")
	ErrorLogoutFieldsRequired = errors.New("user id and refresh token are required")

	// Registration / login errors.
	ErrorEmailExists        = errors.New("email already exists")
	ErrorInvalidCredentials = errors.New("invalid email or password")

	// Whitelist errors.
	ErrorUnknownUser         = errors.New("unknown user")
	ErrorTokenNotWhitelisted = errors.New("refresh token is not whitelisted")

	// Token lifecycle errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

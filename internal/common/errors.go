// Package common defines sentinel errors shared by the repositories, services
// and transport layers of works-server. Callers should use errors.Is to match
// these values; causes are wrapped with %w beside them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")

	// The user has no stored refresh token for the invoicing service.
	ErrNotConnected = errors.New("misoca is not connected")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

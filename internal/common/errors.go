// Package common defines shared constants and sentinel errors used across
// the client, gateway, and devserver layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository/lookup errors.
	ErrNotFound = errors.New("not found")

	// Generic flow-control errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// Package common defines shared constants and sentinel errors used across the
// authkeeper layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound       = errors.New("not found")
	ErrorConflict       = errors.New("already exists")
	ErrorStorageFailure = errors.New("storage failure")

	// Service-level errors.
	ErrorUnauthorized  = errors.New("unauthorized")
	ErrorValidation    = errors.New("validation error")
	ErrorCryptoFailure = errors.New("crypto unavailable")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

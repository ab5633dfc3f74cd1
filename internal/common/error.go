// Package common defines shared constants and sentinel errors used across
// the drivesense server, its admin tooling and the HTTP boundary. Callers
// should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors. Also returned when a record exists but is
	// owned by another user.
	ErrorNotFound = errors.New("not found")

	// ErrDuplicate reports a registration conflict on email or username.
	ErrDuplicate = errors.New("email or username already registered")

	// ErrValidation wraps semantic input errors detected by the core.
	ErrValidation = errors.New("validation error")

	// Auth errors. ErrAuthentication covers bad, expired and missing tokens
	// as well as wrong credentials at login.
	ErrAuthentication = errors.New("could not validate credentials")
	ErrForbidden      = errors.New("inactive user")

	// Token lifecycle errors.
	ErrBadSignature = errors.New("token signature invalid")
	ErrTokenExpired = errors.New("token expired")
)

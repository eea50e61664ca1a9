package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidInput       = errors.New("invalid input")

	// ErrInvalidToken is what callers of the auth service see for any token
	// they cannot use, whatever the underlying decode failure was.
	ErrInvalidToken = errors.New("invalid token")

	// Decode failures reported by the token codec.
	ErrTokenInvalid   = errors.New("token malformed or signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenWrongKind = fmt.Errorf("%w: unexpected token kind", ErrTokenInvalid)

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")

	ErrRecordNotFound      = errors.New("record not found")
	ErrProviderUnavailable = errors.New("content provider unavailable")
)

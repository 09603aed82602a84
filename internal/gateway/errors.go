package gateway

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCode is returned when ExchangeCode is called without a code.
	ErrMissingCode = errors.New("authorization code is required")

	// ErrMissingRefreshToken is returned when Refresh is called without a
	// refresh token.
	ErrMissingRefreshToken = errors.New("refresh token is required")

	// ErrInvalidState is returned when the anti-CSRF state is absent,
	// expired, or already consumed. No provider call is made.
	ErrInvalidState = errors.New("invalid or expired state")
)

// PersistenceError means the grant succeeded but the record could not be
// durably stored. The code or refresh token is already consumed, so the
// flow cannot be replayed; an operator must reconcile.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("token obtained but not durably stored: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Package state issues and validates the short-lived anti-CSRF state tokens
// that correlate an authorization request with its provider callback.
package state

import "context"

// Store records issued states and enforces single use. Implementations must
// be safe for concurrent issue/consume; on shared backends Consume must be
// an atomic check-and-delete so two replayed callbacks cannot both win.
type Store interface {
	// Issue generates a cryptographically random state, records it with the
	// store's TTL, and returns it.
	Issue(ctx context.Context) (string, error)

	// Track records a caller-supplied state, for clients that manage their
	// own state correlation.
	Track(ctx context.Context, state string) error

	// Consume looks up and deletes the state. It returns true only when the
	// state exists and is unexpired; absence, expiry, and backend failures
	// are all a negative result, never an error.
	Consume(ctx context.Context, state string) bool

	// CleanupExpired evicts expired unconsumed entries and returns how many
	// were removed. The issuance endpoint is unauthenticated, so without
	// eviction the store grows without bound.
	CleanupExpired(ctx context.Context) (int, error)
}

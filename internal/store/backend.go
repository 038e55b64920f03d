package store

import (
	"context"
	"errors"
)

// ErrReadOnly is returned by Txn.Set and Txn.ExtendTTL inside View.
var ErrReadOnly = errors.New("store: read-only transaction")

// Backend is a persistent keyed store with retention, scoped to a single
// namespace.
type Backend interface {
	// Update runs fn in a read-write transaction. If fn returns an error,
	// none of its writes are committed and the error is returned unchanged.
	Update(ctx context.Context, fn func(Txn) error) error

	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Txn) error) error

	// Close releases the backend's resources.
	Close() error
}

// Txn is the view of the namespace inside one Backend transaction.
type Txn interface {
	// Get returns the value stored under key. A missing key is reported
	// as ok=false, never as an error.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte) error

	// ExtendTTL sets the namespace lifetime to extendTo seconds when fewer
	// than threshold seconds remain. It never shortens the lifetime.
	ExtendTTL(threshold, extendTo uint32) error

	// TTL returns the remaining namespace lifetime in seconds.
	TTL() (uint64, error)
}

// remaining returns how many seconds are left before expiresAt.
func remaining(expiresAt, now uint64) uint64 {
	if expiresAt <= now {
		return 0
	}
	return expiresAt - now
}

// extendedExpiry applies ExtendTTL semantics to an absolute expiry.
// It returns the new expiry and whether it changed.
func extendedExpiry(expiresAt, now uint64, threshold, extendTo uint32) (uint64, bool) {
	if remaining(expiresAt, now) >= uint64(threshold) {
		return expiresAt, false
	}
	next := now + uint64(extendTo)
	if next <= expiresAt {
		return expiresAt, false
	}
	return next, true
}

// ExtendedLifetime applies ExtendTTL semantics to a remaining lifetime, for
// backends that track relative TTLs. It returns the new lifetime and whether
// it changed.
func ExtendedLifetime(remaining uint64, threshold, extendTo uint32) (uint64, bool) {
	return extendedExpiry(remaining, 0, threshold, extendTo)
}

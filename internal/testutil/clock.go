package testutil

import "sync"

// LedgerClock is a settable ledger clock for tests.
//
// It implements host.Clock. Time only moves when the test calls Advance or
// Set, so timestamps and retention expiry are reproducible.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type LedgerClock struct {
	mu  sync.Mutex
	now uint64
}

// NewLedgerClock creates a clock reading start.
func NewLedgerClock(start uint64) *LedgerClock {
	return &LedgerClock{now: start}
}

// Timestamp returns the current ledger time in seconds.
func (c *LedgerClock) Timestamp() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by seconds and returns the new time.
func (c *LedgerClock) Advance(seconds uint64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
	return c.now
}

// Set moves the clock to ts. Going backwards is allowed; tests that
// need monotonic time use Advance.
func (c *LedgerClock) Set(ts uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ts
}

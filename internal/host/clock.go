package host

import "time"

// Clock supplies the current ledger timestamp in seconds.
type Clock interface {
	Timestamp() uint64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() uint64

// Timestamp calls f().
func (f ClockFunc) Timestamp() uint64 { return f() }

// SystemClock reads wall-clock unix seconds.
type SystemClock struct{}

// Timestamp implements Clock.
func (SystemClock) Timestamp() uint64 {
	now := time.Now().Unix()
	if now < 0 {
		return 0
	}
	return uint64(now)
}

// FixedClock always reports the same timestamp.
type FixedClock uint64

// Timestamp implements Clock.
func (c FixedClock) Timestamp() uint64 { return uint64(c) }

package store

import (
	"context"
	"maps"
	"sync"
)

// Memory is an in-process Backend. Writes staged inside Update are applied
// only when fn succeeds. Calls are serialized by a mutex.
type Memory struct {
	mu        sync.Mutex
	opts      options
	entries   map[string][]byte
	expiresAt uint64
	exists    bool
}

// NewMemory creates an empty in-process backend.
func NewMemory(opts ...Option) *Memory {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory{opts: o, entries: map[string][]byte{}}
}

// Update implements Backend.
func (m *Memory) Update(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t := m.begin(true)
	if err := fn(t); err != nil {
		return err
	}

	if !t.live {
		m.entries = map[string][]byte{}
	}
	maps.Copy(m.entries, t.staged)
	m.expiresAt = t.expiresAt
	m.exists = true
	return nil
}

// View implements Backend.
func (m *Memory) View(ctx context.Context, fn func(Txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	return fn(m.begin(false))
}

// Close implements Backend.
func (m *Memory) Close() error { return nil }

func (m *Memory) begin(writable bool) *memoryTxn {
	now := m.opts.clock.Timestamp()
	live := m.exists && m.expiresAt > now
	t := &memoryTxn{
		now:       now,
		live:      live,
		writable:  writable,
		staged:    map[string][]byte{},
		expiresAt: now,
	}
	if live {
		t.base = m.entries
		t.expiresAt = m.expiresAt
	}
	return t
}

type memoryTxn struct {
	base      map[string][]byte
	staged    map[string][]byte
	now       uint64
	expiresAt uint64
	live      bool
	writable  bool
}

func (t *memoryTxn) Get(key string) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		return clone(v), true, nil
	}
	if v, ok := t.base[key]; ok {
		return clone(v), true, nil
	}
	return nil, false, nil
}

func (t *memoryTxn) Set(key string, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	t.staged[key] = clone(value)
	return nil
}

func (t *memoryTxn) ExtendTTL(threshold, extendTo uint32) error {
	if !t.writable {
		return ErrReadOnly
	}
	t.expiresAt, _ = extendedExpiry(t.expiresAt, t.now, threshold, extendTo)
	return nil
}

func (t *memoryTxn) TTL() (uint64, error) {
	return remaining(t.expiresAt, t.now), nil
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}

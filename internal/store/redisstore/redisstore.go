// Package redisstore is a store.Backend on Redis. Each namespace is one
// hash; retention is the hash key's TTL, so Redis expires the namespace
// itself.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store"
)

const (
	keyPrefix         = "remit:"
	defaultMaxRetries = 5
)

// ErrContention is returned when an Update keeps losing its WATCH race.
var ErrContention = errors.New("redisstore: too much write contention")

// Store implements store.Backend on a Redis client.
type Store struct {
	client     redis.UniversalClient
	key        string
	maxRetries int
	ownsClient bool
}

var _ store.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithNamespace scopes the store to a namespace. Default: store.DefaultNamespace.
func WithNamespace(ns string) Option {
	return func(s *Store) {
		if ns != "" {
			s.key = keyPrefix + ns
		}
	}
}

// WithMaxRetries bounds how often an Update is retried after a concurrent
// modification of the namespace.
func WithMaxRetries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// New wraps an existing client. Close does not close a client passed here.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client:     client,
		key:        keyPrefix + store.DefaultNamespace,
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial connects to addr and verifies the connection with PING. The returned
// Store owns the client and closes it on Close.
func Dial(ctx context.Context, addr, password string, db int, opts ...Option) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	s := New(client, opts...)
	s.ownsClient = true
	return s, nil
}

// Key returns the Redis key holding the namespace hash.
func (s *Store) Key() string { return s.key }

// Close implements store.Backend.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

// Update implements store.Backend with WATCH/MULTI/EXEC. Writes are staged
// locally and sent in one MULTI block; a concurrent change to the namespace
// aborts EXEC and the whole unit of work is retried.
func (s *Store) Update(ctx context.Context, fn func(store.Txn) error) error {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		var fnErr error
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			t := &txn{ctx: ctx, cmd: tx, key: s.key, writable: true, staged: map[string][]byte{}}
			if err := t.load(); err != nil {
				return err
			}
			if err := fn(t); err != nil {
				fnErr = err
				return err
			}
			return t.commit(tx)
		}, s.key)

		if fnErr != nil {
			return fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}
		return nil
	}
	return fmt.Errorf("update %s: %w", s.key, ErrContention)
}

// View implements store.Backend.
func (s *Store) View(ctx context.Context, fn func(store.Txn) error) error {
	t := &txn{ctx: ctx, cmd: s.client, key: s.key}
	if err := t.load(); err != nil {
		return fmt.Errorf("view: %w", err)
	}
	return fn(t)
}

// reader is the part of the client a txn reads through. Both *redis.Tx
// (inside WATCH) and the plain client satisfy it.
type reader interface {
	TTL(ctx context.Context, key string) *redis.DurationCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// txn is one unit of work on the namespace hash.
type txn struct {
	ctx      context.Context
	cmd      reader
	key      string
	writable bool

	staged     map[string][]byte
	lifetime   uint64 // seconds
	ttlChanged bool
}

func (t *txn) load() error {
	ttl, err := t.cmd.TTL(t.ctx, t.key).Result()
	if err != nil {
		return fmt.Errorf("ttl %s: %w", t.key, err)
	}
	// -2 (missing) and -1 (no expiry) both come back negative.
	if ttl > 0 {
		t.lifetime = uint64(ttl / time.Second)
	}
	return nil
}

func (t *txn) Get(key string) ([]byte, bool, error) {
	if v, ok := t.staged[key]; ok {
		return append([]byte(nil), v...), true, nil
	}
	v, err := t.cmd.HGet(t.ctx, t.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("hget %s %s: %w", t.key, key, err)
	}
	return v, true, nil
}

func (t *txn) Set(key string, value []byte) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	t.staged[key] = append([]byte(nil), value...)
	return nil
}

func (t *txn) ExtendTTL(threshold, extendTo uint32) error {
	if !t.writable {
		return store.ErrReadOnly
	}
	next, changed := store.ExtendedLifetime(t.lifetime, threshold, extendTo)
	if changed {
		t.lifetime = next
		t.ttlChanged = true
	}
	return nil
}

func (t *txn) TTL() (uint64, error) {
	return t.lifetime, nil
}

// commit sends the staged writes. A namespace left without lifetime expires
// at once, so its writes are dropped along with the key.
func (t *txn) commit(tx *redis.Tx) error {
	if len(t.staged) == 0 && !t.ttlChanged {
		return nil
	}

	_, err := tx.TxPipelined(t.ctx, func(pipe redis.Pipeliner) error {
		if t.lifetime == 0 {
			pipe.Del(t.ctx, t.key)
			return nil
		}
		if len(t.staged) > 0 {
			fields := make(map[string]any, len(t.staged))
			for k, v := range t.staged {
				fields[k] = v
			}
			pipe.HSet(t.ctx, t.key, fields)
		}
		if t.ttlChanged {
			pipe.Expire(t.ctx, t.key, time.Duration(t.lifetime)*time.Second)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("exec %s: %w", t.key, err)
	}
	return nil
}

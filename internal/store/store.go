package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on namespaces.expires_at for pruning
const currentSchemaVersion = 1

// Store is the SQLite Backend.
// Uses WAL mode and a single pooled connection, so transactions are
// serialized the way the ledger's host serializes calls.
type Store struct {
	db   *sql.DB
	opts options
}

var _ Backend = (*Store)(nil)

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, opts: o}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Namespace returns the namespace this store is scoped to.
func (s *Store) Namespace() string {
	return s.opts.namespace
}

// Update implements Backend. fn runs inside BEGIN ... COMMIT; any error
// from fn rolls the transaction back.
func (s *Store) Update(ctx context.Context, fn func(Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	t := &sqliteTxn{ctx: ctx, tx: tx, ns: s.opts.namespace, now: s.opts.clock.Timestamp(), writable: true}
	if err := t.prepareWrite(); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	if err := fn(t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update: commit: %w", err)
	}
	return nil
}

// View implements Backend.
func (s *Store) View(ctx context.Context, fn func(Txn) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("view: begin tx: %w", err)
	}
	defer tx.Rollback()

	t := &sqliteTxn{ctx: ctx, tx: tx, ns: s.opts.namespace, now: s.opts.clock.Timestamp()}
	if err := t.prepareRead(); err != nil {
		return fmt.Errorf("view: %w", err)
	}

	return fn(t)
}

// Prune deletes every namespace whose retention has elapsed, along with its
// entries. Returns the number of namespaces removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	now, err := toSQLInt(s.opts.clock.Timestamp())
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM namespaces WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune: rows affected: %w", err)
	}
	return n, nil
}

// sqliteTxn is one SQLite transaction scoped to a namespace.
type sqliteTxn struct {
	ctx       context.Context
	tx        *sql.Tx
	ns        string
	now       uint64
	expiresAt uint64
	empty     bool // namespace absent or expired (read path only)
	writable  bool
}

// prepareWrite loads the namespace expiry, creating the namespace or
// purging it when its retention has elapsed.
func (t *sqliteTxn) prepareWrite() error {
	now, err := toSQLInt(t.now)
	if err != nil {
		return err
	}

	expiresAt, found, err := t.loadExpiry()
	if err != nil {
		return err
	}

	switch {
	case !found:
		if _, err := t.tx.ExecContext(t.ctx,
			`INSERT INTO namespaces (name, expires_at) VALUES (?, ?)`, t.ns, now); err != nil {
			return fmt.Errorf("create namespace %q: %w", t.ns, err)
		}
		t.expiresAt = t.now
	case expiresAt <= t.now:
		if _, err := t.tx.ExecContext(t.ctx,
			`DELETE FROM entries WHERE namespace = ?`, t.ns); err != nil {
			return fmt.Errorf("purge namespace %q: %w", t.ns, err)
		}
		if _, err := t.tx.ExecContext(t.ctx,
			`UPDATE namespaces SET expires_at = ? WHERE name = ?`, now, t.ns); err != nil {
			return fmt.Errorf("reset namespace %q: %w", t.ns, err)
		}
		t.expiresAt = t.now
	default:
		t.expiresAt = expiresAt
	}
	return nil
}

func (t *sqliteTxn) prepareRead() error {
	expiresAt, found, err := t.loadExpiry()
	if err != nil {
		return err
	}
	if !found || expiresAt <= t.now {
		t.empty = true
		t.expiresAt = t.now
		return nil
	}
	t.expiresAt = expiresAt
	return nil
}

func (t *sqliteTxn) loadExpiry() (uint64, bool, error) {
	var expiresAt int64
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT expires_at FROM namespaces WHERE name = ?`, t.ns).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load namespace %q: %w", t.ns, err)
	}
	if expiresAt < 0 {
		return 0, true, nil
	}
	return uint64(expiresAt), true, nil
}

func (t *sqliteTxn) Get(key string) ([]byte, bool, error) {
	if t.empty {
		return nil, false, nil
	}
	var value []byte
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT value FROM entries WHERE namespace = ? AND key = ?`, t.ns, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (t *sqliteTxn) Set(key string, value []byte) error {
	if !t.writable {
		return ErrReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO entries (namespace, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value
	`, t.ns, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (t *sqliteTxn) ExtendTTL(threshold, extendTo uint32) error {
	if !t.writable {
		return ErrReadOnly
	}
	next, changed := extendedExpiry(t.expiresAt, t.now, threshold, extendTo)
	if !changed {
		return nil
	}
	v, err := toSQLInt(next)
	if err != nil {
		return fmt.Errorf("extend ttl: %w", err)
	}
	if _, err := t.tx.ExecContext(t.ctx,
		`UPDATE namespaces SET expires_at = ? WHERE name = ?`, v, t.ns); err != nil {
		return fmt.Errorf("extend ttl: %w", err)
	}
	t.expiresAt = next
	return nil
}

func (t *sqliteTxn) TTL() (uint64, error) {
	return remaining(t.expiresAt, t.now), nil
}

// toSQLInt converts a ledger timestamp into SQLite's signed INTEGER.
func toSQLInt(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("timestamp %d exceeds SQLite INTEGER range", v)
	}
	return int64(v), nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes namespace expiry so Prune does not scan every row.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_namespaces_expires_at
		ON namespaces(expires_at)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

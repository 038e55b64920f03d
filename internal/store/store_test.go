package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/host"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"namespaces", "entries"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	clock := host.FixedClock(1000)

	s1, err := Open(path, WithClock(clock))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	err = s1.Update(context.Background(), func(txn Txn) error {
		if err := txn.Set("k", []byte("v")); err != nil {
			return err
		}
		return txn.ExtendTTL(5000, 5000)
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path, WithClock(clock))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	err = s2.View(context.Background(), func(txn Txn) error {
		v, ok, err := txn.Get("k")
		if err != nil {
			return err
		}
		if !ok || string(v) != "v" {
			t.Errorf("Get(k) = %q, %v; want \"v\", true", v, ok)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() failed: %v", err)
	}
}

func TestOpen_NamespacesAreIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	clock := host.FixedClock(1000)

	a, err := Open(path, WithNamespace("a"), WithClock(clock))
	if err != nil {
		t.Fatalf("Open(a) failed: %v", err)
	}
	defer a.Close()

	err = a.Update(context.Background(), func(txn Txn) error {
		if err := txn.Set("k", []byte("from-a")); err != nil {
			return err
		}
		return txn.ExtendTTL(5000, 5000)
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	a.Close()

	b, err := Open(path, WithNamespace("b"), WithClock(clock))
	if err != nil {
		t.Fatalf("Open(b) failed: %v", err)
	}
	defer b.Close()

	err = b.View(context.Background(), func(txn Txn) error {
		_, ok, err := txn.Get("k")
		if err != nil {
			return err
		}
		if ok {
			t.Error("namespace b sees a's entry")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View() failed: %v", err)
	}
}

func TestNamespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	def, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer def.Close()
	if got := def.Namespace(); got != DefaultNamespace {
		t.Errorf("Namespace() = %q, want %q", got, DefaultNamespace)
	}

	named, err := Open(path, WithNamespace("payouts"))
	if err != nil {
		t.Fatalf("Open(payouts) failed: %v", err)
	}
	defer named.Close()
	if got := named.Namespace(); got != "payouts" {
		t.Errorf("Namespace() = %q, want %q", got, "payouts")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPrune_RemovesExpiredNamespaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	clock := host.ClockFunc(func() uint64 { return 1000 })

	s, err := Open(path, WithClock(clock))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// A write without extension leaves the namespace expiring now.
	err = s.Update(context.Background(), func(txn Txn) error {
		return txn.Set("k", []byte("v"))
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	n, err := s.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}

	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&count); err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if count != 0 {
		t.Errorf("entries left after prune = %d, want 0", count)
	}
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	s := openTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := openTestStore(t)

	// NORMAL = 1
	if err := s.verifyPragma("synchronous", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := openTestStore(t)

	if err := s.verifyPragma("busy_timeout", "5000"); err != nil {
		t.Error(err)
	}
}

func TestPragma_ForeignKeys(t *testing.T) {
	s := openTestStore(t)

	// ON = 1
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestPragma_UserVersion(t *testing.T) {
	s := openTestStore(t)

	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

// Schema tests

func TestSchema_EntriesTable(t *testing.T) {
	s := openTestStore(t)

	columns := getTableColumns(t, s.db, "entries")
	for _, col := range []string{"namespace", "key", "value"} {
		if !contains(columns, col) {
			t.Errorf("entries table missing column %q", col)
		}
	}
}

func TestSchema_NamespacesIndexes(t *testing.T) {
	s := openTestStore(t)

	indexes := getTableIndexes(t, s.db, "namespaces")
	if !contains(indexes, "idx_namespaces_expires_at") {
		t.Error("namespaces table missing index idx_namespaces_expires_at")
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

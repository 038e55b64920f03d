// Package storetest is the behavioral test suite every store.Backend must
// pass. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/store"
)

// Fixture is a backend under test plus a way to move its retention clock.
type Fixture struct {
	Backend store.Backend

	// Advance moves the time retention is measured against by seconds.
	Advance func(seconds uint64)
}

// Factory builds a fresh, empty backend for one subtest.
type Factory func(t *testing.T) Fixture

// Run executes the conformance suite against backends built by newFixture.
func Run(t *testing.T, newFixture Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, f Fixture)
	}{
		{"GetMissing", testGetMissing},
		{"SetVisibleAfterCommit", testSetVisibleAfterCommit},
		{"ReadOwnWrites", testReadOwnWrites},
		{"OverwriteReplaces", testOverwriteReplaces},
		{"FailedUpdateRollsBack", testFailedUpdateRollsBack},
		{"ViewIsReadOnly", testViewIsReadOnly},
		{"ExtendTTLBelowThreshold", testExtendTTLBelowThreshold},
		{"ExtendTTLNeverShortens", testExtendTTLNeverShortens},
		{"ExpiredNamespaceReadsEmpty", testExpiredNamespaceReadsEmpty},
		{"ExpiredNamespacePurgedOnWrite", testExpiredNamespacePurgedOnWrite},
		{"LedgerRoundTrip", testLedgerRoundTrip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			t.Cleanup(func() { _ = f.Backend.Close() })
			tt.fn(t, f)
		})
	}
}

func put(t *testing.T, b store.Backend, key, value string) {
	t.Helper()
	err := b.Update(context.Background(), func(txn store.Txn) error {
		if err := txn.Set(key, []byte(value)); err != nil {
			return err
		}
		return txn.ExtendTTL(store.DefaultRetention.Threshold, store.DefaultRetention.ExtendTo)
	})
	require.NoError(t, err)
}

func get(t *testing.T, b store.Backend, key string) (string, bool) {
	t.Helper()
	var (
		value []byte
		ok    bool
	)
	err := b.View(context.Background(), func(txn store.Txn) error {
		var err error
		value, ok, err = txn.Get(key)
		return err
	})
	require.NoError(t, err)
	return string(value), ok
}

func ttl(t *testing.T, b store.Backend) uint64 {
	t.Helper()
	var remaining uint64
	err := b.View(context.Background(), func(txn store.Txn) error {
		var err error
		remaining, err = txn.TTL()
		return err
	})
	require.NoError(t, err)
	return remaining
}

func testGetMissing(t *testing.T, f Fixture) {
	_, ok := get(t, f.Backend, "nope")
	assert.False(t, ok)
}

func testSetVisibleAfterCommit(t *testing.T, f Fixture) {
	put(t, f.Backend, "k", "v")

	value, ok := get(t, f.Backend, "k")
	require.True(t, ok)
	assert.Equal(t, "v", value)
}

func testReadOwnWrites(t *testing.T, f Fixture) {
	err := f.Backend.Update(context.Background(), func(txn store.Txn) error {
		require.NoError(t, txn.Set("k", []byte("staged")))

		value, ok, err := txn.Get("k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "staged", string(value))
		return txn.ExtendTTL(100, 100)
	})
	require.NoError(t, err)
}

func testOverwriteReplaces(t *testing.T, f Fixture) {
	put(t, f.Backend, "k", "first")
	put(t, f.Backend, "k", "second")

	value, ok := get(t, f.Backend, "k")
	require.True(t, ok)
	assert.Equal(t, "second", value)
}

func testFailedUpdateRollsBack(t *testing.T, f Fixture) {
	put(t, f.Backend, "keep", "1")

	boom := errors.New("boom")
	err := f.Backend.Update(context.Background(), func(txn store.Txn) error {
		require.NoError(t, txn.Set("keep", []byte("2")))
		require.NoError(t, txn.Set("new", []byte("x")))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	value, ok := get(t, f.Backend, "keep")
	require.True(t, ok)
	assert.Equal(t, "1", value)

	_, ok = get(t, f.Backend, "new")
	assert.False(t, ok)
}

func testViewIsReadOnly(t *testing.T, f Fixture) {
	err := f.Backend.View(context.Background(), func(txn store.Txn) error {
		assert.ErrorIs(t, txn.Set("k", []byte("v")), store.ErrReadOnly)
		assert.ErrorIs(t, txn.ExtendTTL(1, 1), store.ErrReadOnly)
		return nil
	})
	require.NoError(t, err)

	_, ok := get(t, f.Backend, "k")
	assert.False(t, ok)
}

func testExtendTTLBelowThreshold(t *testing.T, f Fixture) {
	put(t, f.Backend, "k", "v")
	assert.Equal(t, uint64(5000), ttl(t, f.Backend))

	f.Advance(100)
	assert.Equal(t, uint64(4900), ttl(t, f.Backend))

	// 4900 remaining is below the 5000 threshold, so the lifetime resets.
	put(t, f.Backend, "k", "v2")
	assert.Equal(t, uint64(5000), ttl(t, f.Backend))
}

func testExtendTTLNeverShortens(t *testing.T, f Fixture) {
	put(t, f.Backend, "k", "v")

	err := f.Backend.Update(context.Background(), func(txn store.Txn) error {
		// Threshold not reached: no change.
		if err := txn.ExtendTTL(100, 10); err != nil {
			return err
		}
		// Threshold reached but extendTo is shorter than what remains.
		return txn.ExtendTTL(10000, 10)
	})
	require.NoError(t, err)

	assert.Equal(t, uint64(5000), ttl(t, f.Backend))
}

func testExpiredNamespaceReadsEmpty(t *testing.T, f Fixture) {
	put(t, f.Backend, "k", "v")

	f.Advance(5000)

	_, ok := get(t, f.Backend, "k")
	assert.False(t, ok)
	assert.Equal(t, uint64(0), ttl(t, f.Backend))
}

func testExpiredNamespacePurgedOnWrite(t *testing.T, f Fixture) {
	put(t, f.Backend, "old", "v")
	f.Advance(6000)

	put(t, f.Backend, "new", "v")

	_, ok := get(t, f.Backend, "old")
	assert.False(t, ok, "entries from the expired lifetime must not reappear")

	value, ok := get(t, f.Backend, "new")
	require.True(t, ok)
	assert.Equal(t, "v", value)
}

func testLedgerRoundTrip(t *testing.T, f Fixture) {
	rec := remit.Record{
		ID:        1,
		Sender:    "A",
		Recipient: "B",
		Amount:    decimal.NewFromInt(100),
		Currency:  "USD",
		Timestamp: 1700000000,
		Status:    remit.StatusPending,
	}

	err := f.Backend.Update(context.Background(), func(txn store.Txn) error {
		ledger := store.NewLedger(txn, store.DefaultRetention)

		n, err := ledger.Counter()
		require.NoError(t, err)
		assert.Equal(t, uint64(0), n)

		require.NoError(t, ledger.PutRecord(1, rec))
		require.NoError(t, ledger.SetCounter(1))
		return ledger.ExtendRetention()
	})
	require.NoError(t, err)

	err = f.Backend.View(context.Background(), func(txn store.Txn) error {
		ledger := store.NewLedger(txn, store.DefaultRetention)

		n, err := ledger.Counter()
		require.NoError(t, err)
		assert.Equal(t, uint64(1), n)

		got, ok, err := ledger.Record(1)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, rec.ID, got.ID)
		assert.Equal(t, rec.Sender, got.Sender)
		assert.Equal(t, rec.Recipient, got.Recipient)
		assert.True(t, rec.Amount.Equal(got.Amount))
		assert.Equal(t, rec.Currency, got.Currency)
		assert.Equal(t, rec.Timestamp, got.Timestamp)
		assert.Equal(t, rec.Status, got.Status)

		_, ok, err = ledger.Record(2)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

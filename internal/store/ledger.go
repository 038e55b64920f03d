package store

import (
	"fmt"
	"strconv"

	"github.com/ganiluffy/Cross-Border-Remittance-App/internal/remit"
)

// CounterKey holds the number of remittances ever created.
const CounterKey = "TX_COUNT"

// transactionKeyPrefix prefixes the key of every remittance record.
const transactionKeyPrefix = "Transaction/"

// TransactionKey returns the storage key of remittance id.
func TransactionKey(id uint64) string {
	return transactionKeyPrefix + strconv.FormatUint(id, 10)
}

// Retention is the (threshold, extendTo) pair passed to ExtendTTL after
// every write. Both values are seconds.
type Retention struct {
	Threshold uint32
	ExtendTo  uint32
}

// DefaultRetention requests the same 5000-second extension on both
// parameters.
var DefaultRetention = Retention{Threshold: 5000, ExtendTo: 5000}

// Ledger is the typed Ledger Store over one backend transaction.
//
// Absence is never an error: an uninitialized counter reads as 0 and a
// missing record reads as ok=false. Errors are host failures (I/O or
// corrupt data).
type Ledger struct {
	txn       Txn
	retention Retention
}

// NewLedger wraps txn. The retention is applied by ExtendRetention.
func NewLedger(txn Txn, retention Retention) *Ledger {
	return &Ledger{txn: txn, retention: retention}
}

// Counter returns the transaction counter, 0 if never set.
func (l *Ledger) Counter() (uint64, error) {
	raw, ok, err := l.txn.Get(CounterKey)
	if err != nil {
		return 0, fmt.Errorf("get counter: %w", err)
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("get counter: corrupt value %q: %w", raw, err)
	}
	return n, nil
}

// SetCounter overwrites the transaction counter.
func (l *Ledger) SetCounter(n uint64) error {
	if err := l.txn.Set(CounterKey, []byte(strconv.FormatUint(n, 10))); err != nil {
		return fmt.Errorf("set counter: %w", err)
	}
	return nil
}

// Record returns remittance id, or ok=false if it does not exist.
func (l *Ledger) Record(id uint64) (remit.Record, bool, error) {
	raw, ok, err := l.txn.Get(TransactionKey(id))
	if err != nil {
		return remit.Record{}, false, fmt.Errorf("get record %d: %w", id, err)
	}
	if !ok {
		return remit.Record{}, false, nil
	}
	rec, err := remit.UnmarshalRecord(raw)
	if err != nil {
		return remit.Record{}, false, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, true, nil
}

// PutRecord creates or overwrites remittance id.
func (l *Ledger) PutRecord(id uint64, rec remit.Record) error {
	data, err := rec.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("put record %d: %w", id, err)
	}
	if err := l.txn.Set(TransactionKey(id), data); err != nil {
		return fmt.Errorf("put record %d: %w", id, err)
	}
	return nil
}

// ExtendRetention refreshes the namespace expiry. Call it after every write.
func (l *Ledger) ExtendRetention() error {
	if err := l.txn.ExtendTTL(l.retention.Threshold, l.retention.ExtendTo); err != nil {
		return fmt.Errorf("extend retention: %w", err)
	}
	return nil
}

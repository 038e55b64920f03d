// Package store provides the remittance Ledger Store: a transaction counter
// and an identifier-to-record mapping kept in a key-value namespace whose
// retention must be refreshed on every write.
//
// # Key Scheme
//
//   - TX_COUNT: the number of remittances ever created (decimal ASCII)
//   - Transaction/<id>: the canonical JSON of remittance <id>
//
// # Backends
//
// A Backend runs each unit of work as one all-or-nothing transaction:
//   - Store (this package, Open): SQLite with WAL, the durable default
//   - Memory (this package, NewMemory): in-process, for tests and replays
//   - redisstore.Store: a Redis hash per namespace, retention as key TTL
//
// # Retention
//
// The whole namespace shares one expiry, measured in seconds of ledger time.
// ExtendTTL(threshold, extendTo) pushes the expiry out to extendTo seconds
// from now when fewer than threshold seconds remain. An expired namespace
// reads as empty and is purged by the next write.
//
// # Database Configuration (SQLite)
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

// Package remittance implements the remittance lifecycle on top of the
// Ledger Store.
//
// A remittance is created PENDING by Send and moves to COMPLETE exactly once
// through Complete. Identifiers are assigned from a counter that starts at
// 1 and is never reused. Every mutating call runs as one store.Backend
// Update: it either commits the record, the counter and the refreshed
// retention together, or commits nothing.
//
// # Authorization
//
// Send requires the sender's authorization and Complete requires the
// processor's. Any authorized processor may complete any pending
// remittance.
//
// # Errors
//
// Every rejected call returns an *Error carrying an ErrorCode and writes
// one warning to the contract's logger. Storage failures are returned
// wrapped and are not *Error values.
package remittance

// Package remit defines the remittance record and its value types.
//
// This package contains type definitions and their canonical encoding only.
// All other internal packages import remit; remit imports nothing internal.
//
// Key design constraints:
//   - Amounts are integers (no fractional units), carried as decimal.Decimal
//     so the full signed 128-bit range survives
//   - Status is a closed set: PENDING and COMPLETE, plus the NOTFOUND
//     sentinel used only for absent lookups
//   - Records are persisted as canonical JSON (sorted keys, NFC strings,
//     no floats) so identical records always produce identical bytes
package remit

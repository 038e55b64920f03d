// Package harness replays remittance scenarios against a fresh ledger and
// checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: send_and_complete
//	description: "A sends 100 USD to B and P completes it"
//	start_time: 1700000000
//	steps:
//	  - op: send
//	    as: [A]
//	    sender: A
//	    recipient: B
//	    amount: "100"
//	    currency: USD
//	    expect: { id: 1 }
//	  - op: complete
//	    as: [P]
//	    id: 1
//	    processor: P
//	  - op: complete
//	    as: [P]
//	    id: 1
//	    processor: P
//	    expect: { error: ALREADY_PROCESSED }
//	assertions:
//	  - type: final_state
//	    id: 1
//	    expect: { status: COMPLETE }
//
// Ops are send, complete, get, total and advance (moves the ledger clock by
// seconds). "as" lists the identities the step's caller controls.
//
// # Assertion Types
//
//   - trace_contains: an op appears in the trace with matching args
//   - trace_order: ops appear in the given order
//   - trace_count: an op appears exactly count times
//   - final_state: record id has the expected fields after the last step
//   - total: the transaction counter equals count after the last step
//
// # Deterministic Testing
//
// Every scenario runs on an in-memory backend with a settable ledger clock
// starting at start_time and sequential call ids, so the trace is identical
// across runs and can be compared with a golden file.
package harness

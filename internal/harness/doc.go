// Package harness runs scenario files against a fresh projector.
//
// A scenario lists envelopes in chain order together with the outcome
// each one should produce, then asserts on the projected state:
//
//	name: register_then_renew
//	description: "A renewal extends the expiry"
//	labels: [alice]
//	steps:
//	  - event:
//	      kind: NameRegistered
//	      block_number: 100
//	      block_timestamp: 1000
//	      tx_hash: "0x..."
//	      log_index: 0
//	      params: { owner: "0x...", id: "42", expires: "2000" }
//	    expect: { outcome: applied }
//	  - event: { ... }
//	    expect: { code: MISSING_REQUIRED_RECORD }
//	assertions:
//	  - type: count
//	    table: registrations
//	    count: 1
//	  - type: entity
//	    table: registrations
//	    id: "0x...2a"
//	    expect: { expiry_date: 3000 }
//
// Every scenario runs in its own in-memory SQLite store. Failing events are
// recorded in the trace and the run continues with the next step, so one
// scenario can exercise both outcomes and error codes.
//
// RunWithGolden compares the trace and final snapshot against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness

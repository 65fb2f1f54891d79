// Package harness runs scripted play sessions against a catalog.
//
// A scenario drives a real engine with a manual scheduler, so completion
// delays advance only when the script says "wait". Each run writes to an
// in-memory journal; the formatted journal is the scenario's transcript and
// is compared against a golden file.
//
// # Scenario Format
//
//	name: counting_happy_path
//	description: "Solve both counting puzzles"
//	catalog: ../catalogs/mini.yaml   # relative to the scenario; omit for builtin
//	delay: 2s
//	steps:
//	  - select: counting
//	  - mark: {slot: answer, item: "7"}
//	  - check: correct
//	  - wait: 2s
//	  - pick: n2
//	  - place: s2
//	    outcome: placed
//	  - expect: {phase: in_progress, index: 1, puzzle: gaps}
//	assertions:
//	  - type: journal_count
//	    kind: verdict
//	    count: 2
//	  - type: final_state
//	    expect: {phase: terminal}
//
// Step failures and assertion failures are collected, not fatal: Result
// lists every mismatch.
//
// # Golden Transcripts
//
// RunWithGolden stores transcripts under testdata/golden. Regenerate with
//
//	go test ./internal/harness -update
package harness

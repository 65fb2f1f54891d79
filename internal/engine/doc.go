// Package engine runs a play session.
//
// The engine owns a session.Controller built from a compiled catalog and
// feeds it from a single FIFO queue. Two things produce events:
//
//   - front ends (terminal, HTTP, scenarios) submitting Commands
//   - completion timers, which the engine wraps so that their callbacks are
//     queued instead of running on the timer goroutine
//
// All controller and puzzle state is touched only by the goroutine that
// processes the queue: Run for interactive use, Drain or Apply for
// deterministic use with a manual scheduler.
//
// Every processed event is journalled. A journal.Sequence bound to the
// engine's run token stamps each record with the next seq:
//
//	start    catalog fingerprint, categories, completion delay
//	command  the input, written before it is applied
//	verdict  result of an explicit or automatic check
//	timer    a delivered completion delay
//	state    a session transition
//	terminal a completed category
//
// A journal write failure is logged and the session continues.
package engine

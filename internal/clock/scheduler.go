// Package clock schedules the delayed work of a session: the pause between a
// correct answer and the completion notification. Wall runs on real time;
// tests and replay substitute a virtual scheduler.
package clock

import "time"

// Timer is a pending scheduled task.
//
// Stop prevents the task from running. It returns false if the task already
// ran or was already stopped.
type Timer interface {
	Stop() bool
}

// Scheduler runs a function once after a delay.
//
// Puzzles use a Scheduler for the presentational pause between a correct
// answer and the completion notification, and stop the returned Timer when
// they are unmounted.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Wall schedules on real time using time.AfterFunc.
//
// The function runs on its own goroutine. Callers that need single-writer
// semantics must hand the call back to their own loop (see engine).
type Wall struct{}

// AfterFunc implements Scheduler.
func (Wall) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Package puzzle defines the contract between a mini-game and the session
// controller, and the placement-backed puzzle used by every catalog game.
//
// The controller only ever sees Puzzle: it mounts an instance with a
// completion callback and unmounts it when the session moves on. Everything
// else (input modality, correctness rules, feedback) stays inside the puzzle.
package puzzle

import (
	"time"

	"github.com/tulen-chik/reshalka/internal/clock"
	"github.com/tulen-chik/reshalka/internal/placement"
)

// DefaultDelay is the pause between a correct answer and the completion
// notification, long enough for the success message to be read.
const DefaultDelay = 2 * time.Second

// Puzzle is the only shape the session controller requires.
//
// Mount attaches the completion callback. A puzzle calls notify at most once
// per mount. Unmount detaches the puzzle and cancels any pending completion;
// after Unmount the puzzle must not call notify.
type Puzzle interface {
	Mount(notify func())
	Unmount()
}

// Interactive is implemented by puzzles that accept pick/place input.
type Interactive interface {
	Puzzle
	SelectItem(id placement.ItemID) bool
	ActivateSlot(id placement.SlotID) placement.Outcome
	Mark(slot placement.SlotID, item placement.ItemID) placement.Outcome
	Check() CheckResult
	Retry() bool
	View() View
}

// Descriptor is a named puzzle factory. Each New call returns a fresh
// instance with its own working state.
type Descriptor struct {
	Name string
	New  func() Puzzle
}

// Env carries what a puzzle instance needs from its host.
type Env struct {
	Scheduler clock.Scheduler
	Delay     time.Duration
}

// DefaultEnv schedules on wall time with DefaultDelay.
func DefaultEnv() Env {
	return Env{Scheduler: clock.Wall{}, Delay: DefaultDelay}
}

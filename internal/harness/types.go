package harness

import (
	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/session"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Records is the full journal, start record included.
	Records []journal.Record `json:"records"`

	// State is the session state after the last step.
	State session.State `json:"state"`

	// Errors lists every mismatch. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError records a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Transcript renders the journal without the start record, one record per
// line. The start record carries the catalog fingerprint, which changes
// with any edit to the catalog file.
func (r *Result) Transcript() string {
	return journal.FormatAll(r.Records, journal.KindStart)
}

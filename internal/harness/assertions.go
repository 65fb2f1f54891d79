package harness

import (
	"fmt"
	"strings"

	"github.com/tulen-chik/reshalka/internal/journal"
)

// AssertionError is returned when an assertion fails. It carries the
// transcript so a failure can be read without rerunning.
type AssertionError struct {
	Type       string
	Expected   string
	Actual     string
	Transcript string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	fmt.Fprintf(&buf, "\nTranscript:\n%s", e.Transcript)
	return buf.String()
}

func evaluateAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertJournalContains:
		if countMatching(r.Records, a) == 0 {
			return r.fail(a.Type, fmt.Sprintf("%s record with %v", a.Kind, a.Fields), "not found in journal")
		}
	case AssertJournalCount:
		if n := countMatching(r.Records, a); n != a.Count {
			return r.fail(a.Type, fmt.Sprintf("%d %s records with %v", a.Count, a.Kind, a.Fields), fmt.Sprintf("%d", n))
		}
	case AssertJournalOrder:
		return assertOrder(r, a)
	case AssertFinalState:
		if err := compareState(r.State, a.Expect); err != nil {
			return r.fail(a.Type, "matching final state", err.Error())
		}
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
	return nil
}

func (r *Result) fail(typ, expected, actual string) error {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Transcript: r.Transcript()}
}

func countMatching(records []journal.Record, a Assertion) int {
	n := 0
	for _, rec := range records {
		if string(rec.Kind) == a.Kind && matchFields(rec.Payload, a.Fields) {
			n++
		}
	}
	return n
}

// matchFields is a subset match. Values are compared by their printed
// form, so YAML's int and the journal's int64 agree.
func matchFields(payload, want map[string]any) bool {
	for k, v := range want {
		got, ok := payload[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

// assertOrder checks that the kinds appear as a subsequence of the journal.
func assertOrder(r *Result, a Assertion) error {
	next := 0
	for _, rec := range r.Records {
		if next < len(a.Kinds) && string(rec.Kind) == a.Kinds[next] {
			next++
		}
	}
	if next < len(a.Kinds) {
		return r.fail(a.Type, strings.Join(a.Kinds, " -> "), fmt.Sprintf("stopped matching at %q", a.Kinds[next]))
	}
	return nil
}

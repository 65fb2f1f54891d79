package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tulen-chik/reshalka/internal/journal"
)

// Scenario is a scripted play session.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is a catalog file path. Empty means the builtin catalog.
	// LoadScenario resolves it relative to the scenario file.
	Catalog string `yaml:"catalog,omitempty"`

	// Delay is the completion delay. Zero means puzzle.DefaultDelay.
	Delay time.Duration `yaml:"delay,omitempty"`

	// RunToken is the fixed run token. Defaults to "test-run-default".
	RunToken string `yaml:"run_token,omitempty"`

	Steps      []Step      `yaml:"steps"`
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scripted input. Exactly one action field is set.
type Step struct {
	Select      string        `yaml:"select,omitempty"`
	Pick        string        `yaml:"pick,omitempty"`
	Place       string        `yaml:"place,omitempty"`
	Mark        *MarkStep     `yaml:"mark,omitempty"`
	Check       string        `yaml:"check,omitempty"`
	Retry       bool          `yaml:"retry,omitempty"`
	Menu        bool          `yaml:"menu,omitempty"`
	Acknowledge bool          `yaml:"acknowledge,omitempty"`
	Wait        time.Duration `yaml:"wait,omitempty"`
	Expect      *StateExpect  `yaml:"expect,omitempty"`

	// Outcome is the expected placement outcome of place or mark.
	Outcome string `yaml:"outcome,omitempty"`

	// Accepted, if set, is the expected acceptance of the step's command.
	Accepted *bool `yaml:"accepted,omitempty"`
}

// MarkStep is a one-tap placement.
type MarkStep struct {
	Slot string `yaml:"slot"`
	Item string `yaml:"item"`
}

// StateExpect is a partial session state. Unset fields are not compared.
type StateExpect struct {
	Phase    string `yaml:"phase,omitempty"`
	Category string `yaml:"category,omitempty"`
	Index    *int   `yaml:"index,omitempty"`
	Total    *int   `yaml:"total,omitempty"`
	Puzzle   string `yaml:"puzzle,omitempty"`
}

// checkAny runs a check without expecting a particular status.
const checkAny = "any"

// action returns the step's action name and whether exactly one is set.
func (s Step) action() (string, int) {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(s.Select != "", "select")
	add(s.Pick != "", "pick")
	add(s.Place != "", "place")
	add(s.Mark != nil, "mark")
	add(s.Check != "", "check")
	add(s.Retry, "retry")
	add(s.Menu, "menu")
	add(s.Acknowledge, "acknowledge")
	add(s.Wait > 0, "wait")
	add(s.Expect != nil, "expect")
	if len(names) == 0 {
		return "", 0
	}
	return names[0], len(names)
}

// Assertion validates the journal or the final state.
type Assertion struct {
	// Type is one of journal_contains, journal_count, journal_order,
	// final_state.
	Type string `yaml:"type"`

	// Kind is the record kind (journal_contains, journal_count).
	Kind string `yaml:"kind,omitempty"`

	// Fields is a subset match on the record payload.
	Fields map[string]any `yaml:"fields,omitempty"`

	// Count is the expected number of matching records (journal_count).
	Count int `yaml:"count,omitempty"`

	// Kinds is the expected kind order (journal_order). Other records may
	// appear in between.
	Kinds []string `yaml:"kinds,omitempty"`

	// Expect is the expected final state (final_state).
	Expect *StateExpect `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertJournalContains = "journal_contains"
	AssertJournalCount    = "journal_count"
	AssertJournalOrder    = "journal_order"
	AssertFinalState      = "final_state"
)

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected, and a relative catalog path is resolved against the
// scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) {
		scenario.Catalog = filepath.Join(filepath.Dir(path), scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Delay < 0 {
		return fmt.Errorf("delay must not be negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("catalog file not found: %s", s.Catalog)
		}
	}

	for i, step := range s.Steps {
		name, n := step.action()
		switch {
		case n == 0:
			return fmt.Errorf("steps[%d]: no action", i)
		case n > 1:
			return fmt.Errorf("steps[%d]: more than one action", i)
		}
		if step.Mark != nil && (step.Mark.Slot == "" || step.Mark.Item == "") {
			return fmt.Errorf("steps[%d]: mark needs slot and item", i)
		}
		if step.Outcome != "" && name != "place" && name != "mark" {
			return fmt.Errorf("steps[%d]: outcome only applies to place and mark", i)
		}
		if step.Check != "" && !validCheck(step.Check) {
			return fmt.Errorf("steps[%d]: unknown check status %q", i, step.Check)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validCheck(s string) bool {
	switch s {
	case checkAny, "correct", "incorrect", "not_ready", "ignored":
		return true
	}
	return false
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertJournalContains, AssertJournalCount:
		if !journal.Kind(a.Kind).Valid() {
			return fmt.Errorf("assertions[%d]: unknown record kind %q", index, a.Kind)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertJournalOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for journal_order", index)
		}
		for _, k := range a.Kinds {
			if !journal.Kind(k).Valid() {
				return fmt.Errorf("assertions[%d]: unknown record kind %q", index, k)
			}
		}
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

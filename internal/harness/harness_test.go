package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/session"
)

func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, s))
		})
	}
}

func TestRun_ReportsStepMismatches(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "wrong expectations",
		Catalog:     "testdata/catalogs/mini.yaml",
		Steps: []Step{
			{Select: "counting"},
			{Mark: &MarkStep{Slot: "answer", Item: "8"}, Outcome: "swapped"},
			{Check: "correct"},
			{Expect: &StateExpect{Puzzle: "gaps"}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], `expected outcome "swapped", got "placed"`)
	assert.Contains(t, result.Errors[1], `expected "correct", got "incorrect"`)
	assert.Contains(t, result.Errors[2], "puzzle")
}

func TestRun_UsesBuiltinCatalogByDefault(t *testing.T) {
	s := &Scenario{
		Name:        "builtin",
		Description: "menu round trip",
		Steps:       []Step{{Select: "Логика"}, {Menu: true}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, session.Idle, result.State.Phase)
	require.NotEmpty(t, result.Records)
	assert.Equal(t, journal.KindStart, result.Records[0].Kind)
	assert.Equal(t, "test-run-default", result.Records[0].Run)
}

func TestRun_MissingCatalog(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Catalog: "testdata/catalogs/none.yaml", Steps: []Step{{Menu: true}}})
	assert.Error(t, err)
}

func TestRun_InvalidCommandIsAStepError(t *testing.T) {
	result, err := Run(&Scenario{
		Name:  "x",
		Steps: []Step{{Mark: &MarkStep{Slot: "answer"}}},
	})
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "MISSING_ARGUMENT")
}

func TestAssertions(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/counting_happy_path.yaml")
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	require.True(t, result.Pass, result.Errors)

	two := 2
	tests := []struct {
		name string
		a    Assertion
		ok   bool
	}{
		{"contains", Assertion{Type: AssertJournalContains, Kind: "timer", Fields: map[string]any{"puzzle": "gaps"}}, true},
		{"contains int field", Assertion{Type: AssertJournalContains, Kind: "state", Fields: map[string]any{"index": 1}}, true},
		{"contains missing", Assertion{Type: AssertJournalContains, Kind: "terminal", Fields: map[string]any{"category": "sorting"}}, false},
		{"count", Assertion{Type: AssertJournalCount, Kind: "timer", Count: 2}, true},
		{"count wrong", Assertion{Type: AssertJournalCount, Kind: "timer", Count: 1}, false},
		{"order", Assertion{Type: AssertJournalOrder, Kinds: []string{"state", "verdict", "terminal"}}, true},
		{"order wrong", Assertion{Type: AssertJournalOrder, Kinds: []string{"terminal", "verdict"}}, false},
		{"final state", Assertion{Type: AssertFinalState, Expect: &StateExpect{Phase: "idle"}}, true},
		{"final state wrong", Assertion{Type: AssertFinalState, Expect: &StateExpect{Phase: "terminal", Index: &two}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := evaluateAssertion(result, tt.a)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var ae *AssertionError
			require.ErrorAs(t, err, &ae)
			assert.Contains(t, ae.Error(), "Transcript:")
		})
	}
}

func TestLoadScenario_Validation(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown field", "name: x\ndescription: y\nstep: []\n", "field step not found"},
		{"no name", "description: y\nsteps: [{menu: true}]\n", "name is required"},
		{"no steps", "name: x\ndescription: y\n", "steps list is required"},
		{"two actions", "name: x\ndescription: y\nsteps: [{menu: true, retry: true}]\n", "more than one action"},
		{"empty step", "name: x\ndescription: y\nsteps: [{}]\n", "no action"},
		{"bad check", "name: x\ndescription: y\nsteps: [{check: maybe}]\n", "unknown check status"},
		{"outcome on check", "name: x\ndescription: y\nsteps: [{check: any, outcome: placed}]\n", "outcome only applies"},
		{"missing catalog", "name: x\ndescription: y\ncatalog: nope.yaml\nsteps: [{menu: true}]\n", "catalog file not found"},
		{"bad assertion", "name: x\ndescription: y\nsteps: [{menu: true}]\nassertions: [{type: trace_count}]\n", "unknown assertion type"},
		{"bad kind", "name: x\ndescription: y\nsteps: [{menu: true}]\nassertions: [{type: journal_count, kind: invocation}]\n", "unknown record kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(write(tt.name+".yaml", tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ResolvesCatalogAndDelay(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/counting_happy_path.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "catalogs", "mini.yaml"), s.Catalog)
	assert.Equal(t, "2s", s.Delay.String())
}

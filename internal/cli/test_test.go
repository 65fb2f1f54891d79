package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const passingScenario = `
name: pick_apples
description: Answer the apples question
catalog: ../catalogs/mini.yaml
steps:
  - select: counting
  - mark: {slot: answer, item: "7"}
    outcome: placed
  - check: correct
`

const failingScenario = `
name: wrong_apples
description: Give a wrong answer to the apples question
catalog: ../catalogs/mini.yaml
steps:
  - select: counting
  - mark: {slot: answer, item: "8"}
  - check: correct
`

// scenarioTree lays out scenarios/, catalogs/ and golden/ side by side.
func scenarioTree(t *testing.T, scenarios map[string]string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "catalogs/mini.yaml", miniCatalog)
	for name, body := range scenarios {
		writeFile(t, root, filepath.Join("scenarios", name), body)
	}
	return filepath.Join(root, "scenarios")
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), "", harnessScenarios)
	require.NoError(t, err, out)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	for _, s := range resp.Data.Scenarios {
		assert.Equal(t, "match", s.Golden, s.Name)
	}
}

func TestTestCommandFilter(t *testing.T) {
	out, err := execute(t, NewTestCommand(&RootOptions{Format: "json"}), "", harnessScenarios, "--filter", "counting_*")
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "counting_happy_path", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := scenarioTree(t, map[string]string{
		"pass.yaml": passingScenario,
		"fail.yaml": failingScenario,
	})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "PASS pick_apples")
	assert.Contains(t, out, "FAIL wrong_apples")
	assert.Contains(t, out, `expected "correct", got "incorrect"`)
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommandUpdateThenMatch(t *testing.T) {
	dir := scenarioTree(t, map[string]string{"pass.yaml": passingScenario})
	golden := filepath.Join(filepath.Dir(dir), "golden", "pick_apples.golden")

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "golden updated")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "verdict")

	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "PASS pick_apples")

	require.NoError(t, os.WriteFile(golden, []byte("1 command kind=check\n"), 0o644))
	out, err = execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir)
	require.Error(t, err)
	assert.Contains(t, out, "does not match golden file")
	assert.Contains(t, out, "line 1:")
}

func TestTestCommandBadScenario(t *testing.T) {
	dir := scenarioTree(t, map[string]string{"broken.yaml": "name: broken\nsteps: []\n"})

	out, err := execute(t, NewTestCommand(&RootOptions{Format: "text"}), "", dir)
	require.Error(t, err)
	assert.Contains(t, out, "FAIL broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

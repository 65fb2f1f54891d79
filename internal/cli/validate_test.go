package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulen-chik/reshalka/internal/catalog"
)

const invalidCatalog = `
categories:
  - name: counting
    puzzles:
      - name: apples
        kind: guess
        answers: ["7"]
        correct: "7"
  - name: counting
    puzzles: []
`

func TestValidateValidCatalog(t *testing.T) {
	path := writeMiniCatalog(t)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "", path)
	require.NoError(t, err)
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "2 categories, 3 puzzles")
}

func TestValidateValidCatalogJSON(t *testing.T) {
	path := writeMiniCatalog(t)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "", path)
	require.NoError(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 2, resp.Data.Categories)
	assert.Equal(t, 3, resp.Data.Puzzles)
}

func TestValidateInvalidCatalog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", invalidCatalog)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "INVALID")
	assert.Contains(t, out, catalog.ErrUnknownKind)
	assert.Contains(t, out, catalog.ErrDuplicateCategory)
	assert.Contains(t, out, catalog.ErrCategoryEmpty)
}

func TestValidateInvalidCatalogJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", invalidCatalog)

	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), "", path)
	require.Error(t, err)

	var resp struct {
		Status string         `json:"status"`
		Data   ValidateResult `json:"data"`
		Error  *CLIError      `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeCatalog, resp.Error.Code)
	assert.False(t, resp.Data.Valid)

	var codes []string
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, catalog.ErrUnknownKind)
}

func TestValidateCUECatalog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mini.cue", `
categories: [{
	name: "counting"
	puzzles: [{
		name:    "apples"
		kind:    "choice"
		answers: ["7", "8"]
		correct: "7"
	}]
}]
`)
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 categories, 1 puzzles")
}

func TestValidateMissingFile(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestValidateMissingArg(t *testing.T) {
	_, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

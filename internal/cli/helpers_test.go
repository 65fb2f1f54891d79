package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const miniCatalog = `
categories:
  - name: counting
    puzzles:
      - name: apples
        kind: choice
        prompt: Five and two. How many?
        answers: ["7", "8"]
        correct: "7"
      - name: pears
        kind: choice
        answers: ["2", "3"]
        correct: "3"
  - name: sorting
    puzzles:
      - name: pets
        kind: classify
        items:
          - {id: wild, value: wild}
          - {id: home, value: home}
        slots:
          - {id: wolf, label: Wolf}
          - {id: cat, label: Cat}
        key: {wolf: wild, cat: home}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeMiniCatalog(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "mini.yaml", miniCatalog)
}

// execute runs cmd with args and stdin and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

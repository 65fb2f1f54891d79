package cli

import (
	"bufio"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulen-chik/reshalka/internal/testutil"
)

// playCommand builds a play command whose completion timers fire as soon
// as they are scheduled, so a script of inputs is deterministic.
func playCommand(format string) *cobra.Command {
	opts := &PlayOptions{
		RootOptions: &RootOptions{Format: format},
		scheduler:   testutil.ImmediateScheduler{},
	}
	cmd := &cobra.Command{
		Use:  "play",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}
	opts.Session.register(cmd)
	return cmd
}

const solveCounting = `categories
select 1
show
mark answer 7
check
mark answer 3
check
ok
quit
`

func TestPlay_SolveCategory(t *testing.T) {
	path := writeMiniCatalog(t)

	out, err := execute(t, playCommand("text"), solveCounting, "--catalog", path)
	require.NoError(t, err)

	assert.Contains(t, out, "1. counting (2)")
	assert.Contains(t, out, "2. sorting (1)")
	assert.Contains(t, out, "[counting 1/2] apples")
	assert.Contains(t, out, "Five and two. How many?")
	assert.Contains(t, out, "pool: 7  8")
	assert.Contains(t, out, "placed")
	assert.Contains(t, out, "Correct!")
	assert.Contains(t, out, "[counting 2/2] pears")
	assert.Contains(t, out, `Well done! Category "counting" is complete.`)
	assert.Equal(t, 2, strings.Count(out, "Menu: choose a category"), "start and after ok")
}

func TestPlay_WrongAnswerAndRetry(t *testing.T) {
	path := writeMiniCatalog(t)
	input := "select counting\ncheck\nmark answer 8\ncheck\nmark answer 7\nretry\nshow\n"

	out, err := execute(t, playCommand("text"), input, "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Fill every slot first.")
	assert.Contains(t, out, "Almost!")
	assert.Contains(t, out, "rejected", "input is locked until retry")
	assert.Contains(t, out, "answer  _", "retry resets the board")
}

func TestPlay_InputErrors(t *testing.T) {
	path := writeMiniCatalog(t)
	input := "dance\nselect\nselect 9\n\nhelp\n"

	out, err := execute(t, playCommand("text"), input, "--catalog", path)
	require.NoError(t, err, "EOF ends the session")
	assert.Contains(t, out, `unknown command "dance"`)
	assert.Contains(t, out, "error: ")
	assert.Contains(t, out, "ignored", "unknown category is a no-op")
	assert.Contains(t, out, "mark <slot> <item>")
}

func TestPlay_JSONLines(t *testing.T) {
	path := writeMiniCatalog(t)

	out, err := execute(t, playCommand("json"), "select 2\nmark wolf wild\nquit\n", "--catalog", path)
	require.NoError(t, err)

	var lines []map[string]any
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m), sc.Text())
		lines = append(lines, m)
	}
	require.NotEmpty(t, lines)

	var sawSnapshot, sawResult bool
	for _, m := range lines {
		if state, ok := m["state"].(map[string]any); ok && m["seq"] != nil {
			if state["category"] == "sorting" {
				sawSnapshot = true
			}
		}
		if m["outcome"] == "placed" {
			sawResult = true
		}
	}
	assert.True(t, sawSnapshot, "state change printed as a snapshot line")
	assert.True(t, sawResult, "command result printed as a line")
}

func TestPlay_BadCatalog(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", invalidCatalog)

	_, err := execute(t, playCommand("text"), "quit\n", "--catalog", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestPlay_JournalTraceReplay(t *testing.T) {
	path := writeMiniCatalog(t)
	db := filepath.Join(t.TempDir(), "reshalka.db")

	_, err := execute(t, playCommand("text"), solveCounting, "--catalog", path, "--journal", db)
	require.NoError(t, err)

	t.Run("list", func(t *testing.T) {
		out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "", "--db", db, "--list")
		require.NoError(t, err)
		var resp struct {
			Data []struct {
				Run     string `json:"run"`
				Records int    `json:"records"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Data, 1)
		assert.Greater(t, resp.Data[0].Records, 10)
	})

	t.Run("trace", func(t *testing.T) {
		out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "", "--db", db)
		require.NoError(t, err)
		assert.Contains(t, out, "1 start")
		assert.Contains(t, out, "command category=counting kind=select_category")
		assert.Contains(t, out, "verdict auto=false")
		assert.Contains(t, out, "timer delay_ms=2000")
		assert.Contains(t, out, "completed: counting")
	})

	t.Run("trace filtered", func(t *testing.T) {
		out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "", "--db", db, "--kind", "terminal")
		require.NoError(t, err)
		var resp struct {
			Data TraceResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		require.Len(t, resp.Data.Records, 1)
		assert.Equal(t, "counting", resp.Data.Records[0].Payload["category"])
		assert.Equal(t, 2, resp.Data.Stats.ByKind["verdict"])
		assert.Equal(t, []string{"counting"}, resp.Data.Stats.Categories)
	})

	t.Run("replay", func(t *testing.T) {
		out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "", "--db", db, "--catalog", path)
		require.NoError(t, err, out)
		assert.Contains(t, out, "replay matches")
		assert.Contains(t, out, "2 timers")
		assert.NotContains(t, out, "warning")
	})

	t.Run("replay against another catalog", func(t *testing.T) {
		other := writeFile(t, t.TempDir(), "other.yaml", strings.Replace(miniCatalog, `correct: "7"`, `correct: "8"`, 1))
		out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "", "--db", db, "--catalog", other)
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, out, "warning: catalog differs")
		assert.Contains(t, out, "mismatches")
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "", "--db", db, "--run", "nope")
		require.Error(t, err)
		assert.Equal(t, ExitFailure, GetExitCode(err))
		assert.Contains(t, err.Error(), "run not found")
	})
}

func TestTrace_MissingDatabase(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "journal database not found")
}

func TestTrace_NoDatabase(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTrace_UnknownKind(t *testing.T) {
	_, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "", "--db", "x.db", "--kind", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown record kind "bogus"`)
}

func TestReplay_EmptyJournal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	// Opening a live session creates the database; quitting at once writes
	// only the start record.
	_, err := execute(t, playCommand("text"), "quit\n", "--journal", db)
	require.NoError(t, err)

	out, err := execute(t, NewReplayCommand(&RootOptions{Format: "text"}), "", "--db", db)
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 commands")

}

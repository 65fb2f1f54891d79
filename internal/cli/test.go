package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Golden string   `json:"golden,omitempty"` // "match", "updated", "missing"
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario files",
		Long: `Run scenario files against their catalogs on a virtual clock.

Each scenario's step expectations and assertions are checked, and its
transcript is compared with ../golden/<name>.golden next to the
scenarios directory when that file exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  reshalka test ./testdata/scenarios
  reshalka test ./testdata/scenarios --filter "counting_*"
  reshalka test ./testdata/scenarios --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern on the file name")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", dir))
	}
	files, err := findScenarioFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(files)), Total: len(files)}
	if len(files) == 0 {
		return out.Success("No scenarios found.\n", result)
	}

	goldenDir := filepath.Join(filepath.Dir(filepath.Clean(dir)), "golden")
	var b strings.Builder
	for _, file := range files {
		sr := runScenario(file, goldenDir, opts.Update)
		out.VerboseLog("ran %s: pass=%v golden=%s", file, sr.Pass, sr.Golden)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
			fmt.Fprintf(&b, "PASS %s", sr.Name)
			if sr.Golden == "updated" {
				b.WriteString(" (golden updated)")
			}
			b.WriteString("\n")
			continue
		}
		result.Failed++
		fmt.Fprintf(&b, "FAIL %s\n", sr.Name)
		for _, e := range sr.Errors {
			fmt.Fprintf(&b, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
		}
	}
	fmt.Fprintf(&b, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
		out.Failure(b.String(), result, ErrCodeTestFailed, msg)
		return NewExitError(ExitFailure, msg)
	}
	return out.Success(b.String(), result)
}

// findScenarioFiles finds all YAML scenario files under dir, sorted by path.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			matched, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func runScenario(file, goldenDir string, update bool) ScenarioResult {
	sr := ScenarioResult{Name: filepath.Base(file), File: file}

	scenario, err := harness.LoadScenario(file)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("failed to load scenario: %v", err)}
		return sr
	}
	sr.Name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr
	}
	sr.Errors = append(sr.Errors, result.Errors...)

	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")
	transcript := result.Transcript()
	switch {
	case update:
		if err := writeGolden(goldenPath, transcript); err != nil {
			sr.Errors = append(sr.Errors, err.Error())
		} else {
			sr.Golden = "updated"
		}
	default:
		want, err := os.ReadFile(goldenPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			sr.Golden = "missing"
		case err != nil:
			sr.Errors = append(sr.Errors, fmt.Sprintf("failed to read golden file: %v", err))
		case string(want) != transcript:
			sr.Errors = append(sr.Errors, "transcript does not match golden file (run with --update to regenerate)\n"+firstDiff(string(want), transcript))
		default:
			sr.Golden = "match"
		}
	}

	sr.Pass = len(sr.Errors) == 0
	return sr
}

func writeGolden(path, transcript string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(transcript), 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// firstDiff describes the first line where two transcripts differ.
func firstDiff(want, got string) string {
	wl := strings.Split(want, "\n")
	gl := strings.Split(got, "\n")
	for i := 0; i < len(wl) || i < len(gl); i++ {
		var w, g string
		if i < len(wl) {
			w = wl[i]
		}
		if i < len(gl) {
			g = gl[i]
		}
		if w != g {
			return fmt.Sprintf("line %d:\n  want: %s\n  got:  %s", i+1, w, g)
		}
	}
	return ""
}

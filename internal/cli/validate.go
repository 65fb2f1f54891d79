package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/catalog"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
}

// ValidateResult is the JSON payload of validate.
type ValidateResult struct {
	File       string                    `json:"file"`
	Valid      bool                      `json:"valid"`
	Categories int                       `json:"categories,omitempty"`
	Puzzles    int                       `json:"puzzles,omitempty"`
	Errors     []catalog.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <catalog>",
		Short: "Check a catalog file",
		Long: `Parse and check a catalog without running it.

Every problem is reported with a stable code (C100-C114).
Exits 1 if the catalog is invalid and 2 if it cannot be read.

Examples:
  reshalka validate ./home.yaml
  reshalka validate ./home.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd, args[0])
		},
	}
	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command, path string) error {
	out := opts.formatter(cmd)

	data, err := os.ReadFile(path)
	if err != nil {
		out.Error(ErrCodeCatalog, fmt.Sprintf("cannot read %s", path), err.Error())
		return WrapExitError(ExitCommandError, "failed to read catalog", err)
	}
	out.VerboseLog("read %d bytes from %s (%s)", len(data), path, catalog.FormatFor(path))

	cat, err := catalog.Parse(data, catalog.FormatFor(path), path)
	if err != nil {
		problems := catalog.Problems(err)
		if problems == nil {
			out.Error(ErrCodeCatalog, fmt.Sprintf("cannot parse %s", path), err.Error())
			return WrapExitError(ExitCommandError, "failed to parse catalog", err)
		}
		res := ValidateResult{File: path, Errors: problems}
		var b strings.Builder
		fmt.Fprintf(&b, "INVALID %s (%d problems)\n", path, len(problems))
		for _, p := range problems {
			fmt.Fprintf(&b, "  %s\n", p.Error())
		}
		out.Failure(b.String(), res, ErrCodeCatalog, "catalog is invalid")
		return NewExitError(ExitFailure, "catalog is invalid")
	}

	res := ValidateResult{File: path, Valid: true, Categories: len(cat.Categories)}
	for _, c := range cat.Categories {
		res.Puzzles += len(c.Puzzles)
	}
	return out.Success(fmt.Sprintf("OK %s: %d categories, %d puzzles\n", path, res.Categories, res.Puzzles), res)
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/catalog"
	"github.com/tulen-chik/reshalka/internal/engine"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Journal JournalFlags
	Catalog string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run a recorded session and compare the journal",
		Long: `Feed the recorded commands and timers of a run back through a fresh
engine on a virtual clock and check that it writes the same records.

The catalog must be the one the run was recorded with; a different
fingerprint is reported but the replay still runs.

Exit codes:
  0 - Replay matches the journal
  1 - Records differ, or the run does not exist
  2 - Command error (missing database, unreadable catalog)

Examples:
  reshalka replay --db ./reshalka.db
  reshalka replay --db ./reshalka.db --run 0192... --catalog ./home.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}
	opts.Journal.register(cmd)
	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "catalog the run was recorded with (default from config, builtin)")
	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	path := opts.Settings().Catalog
	if cmd.Flags().Changed("catalog") {
		path = opts.Catalog
	}
	cat, err := catalog.Load(path)
	if err != nil {
		out.Error(ErrCodeCatalog, "failed to load catalog", err.Error())
		return WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	st, err := openJournal(opts.RootOptions, &opts.Journal)
	if err != nil {
		return err
	}
	defer st.Close()

	run, records, err := readRun(ctx, st, opts.Journal.Run)
	if err != nil {
		out.Error(errorCode(err), err.Error(), nil)
		return err
	}
	out.VerboseLog("replaying run %s: %d records against %s", run, len(records), cat.Source)

	report, err := engine.Replay(ctx, cat, records)
	if err != nil {
		out.Error(ErrCodeJournal, "replay failed", err.Error())
		return WrapExitError(ExitFailure, "replay failed", err)
	}
	opts.Logger().Info("replay finished",
		"run", report.Run,
		"commands", report.Commands,
		"timers", report.Timers,
		"mismatches", len(report.Mismatches),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d commands, %d timers, %d records compared\n",
		report.Run, report.Commands, report.Timers, report.Compared)
	if report.CatalogChanged {
		b.WriteString("warning: catalog differs from the one the run was recorded with\n")
	}
	if report.OK() {
		b.WriteString("replay matches\n")
		return out.Success(b.String(), report)
	}

	fmt.Fprintf(&b, "%d mismatches\n", len(report.Mismatches))
	for _, m := range report.Mismatches {
		fmt.Fprintf(&b, "  seq %d\n    want: %s\n    got:  %s\n", m.Seq, orNone(m.Want), orNone(m.Got))
	}
	msg := fmt.Sprintf("replay differs from the journal at %d record(s)", len(report.Mismatches))
	out.Failure(b.String(), report, ErrCodeReplay, msg)
	return NewExitError(ExitFailure, msg)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

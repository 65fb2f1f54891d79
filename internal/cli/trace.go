package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Journal JournalFlags
	List    bool
	Kinds   []string // optional - filter to these record kinds
}

// TraceResult holds the records of one run.
type TraceResult struct {
	Run     string           `json:"run"`
	Records []journal.Record `json:"records"`
	Stats   TraceStats       `json:"stats"`
}

// TraceStats summarizes a run.
type TraceStats struct {
	Total      int            `json:"total"`
	ByKind     map[string]int `json:"by_kind"`
	Categories []string       `json:"completed_categories,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a run",
		Long: `Print the journal records of a run in sequence order: commands,
state transitions, verdicts, timers and completed categories.

Examples:
  reshalka trace --db ./reshalka.db --list
  reshalka trace --db ./reshalka.db
  reshalka trace --db ./reshalka.db --run 0192... --kind verdict --kind terminal
  reshalka trace --db ./reshalka.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}
	opts.Journal.register(cmd)
	cmd.Flags().BoolVar(&opts.List, "list", false, "list runs instead of printing one")
	cmd.Flags().StringSliceVar(&opts.Kinds, "kind", nil, "only show records of these kinds")
	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)
	ctx := cmd.Context()

	for _, k := range opts.Kinds {
		if !journal.Kind(k).Valid() {
			return NewExitError(ExitCommandError, fmt.Sprintf("unknown record kind %q", k))
		}
	}

	st, err := openJournal(opts.RootOptions, &opts.Journal)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.List {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			out.Error(ErrCodeJournal, "failed to list runs", err.Error())
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
		if runs == nil {
			runs = []store.RunSummary{}
		}
		var b strings.Builder
		if len(runs) == 0 {
			b.WriteString("No runs.\n")
		}
		for _, r := range runs {
			fmt.Fprintf(&b, "%s  %d records  last seq %d\n", r.Run, r.Records, r.LastSeq)
		}
		return out.Success(b.String(), runs)
	}

	run, records, err := readRun(ctx, st, opts.Journal.Run)
	if err != nil {
		out.Error(errorCode(err), err.Error(), nil)
		return err
	}

	res := TraceResult{Run: run, Stats: TraceStats{Total: len(records), ByKind: map[string]int{}}}
	for _, r := range records {
		res.Stats.ByKind[string(r.Kind)]++
		if r.Kind == journal.KindTerminal {
			res.Stats.Categories = append(res.Stats.Categories, r.String("category"))
		}
		if len(opts.Kinds) == 0 || slices.Contains(opts.Kinds, string(r.Kind)) {
			res.Records = append(res.Records, r)
		}
	}
	if res.Records == nil {
		res.Records = []journal.Record{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%d records)\n", run, len(records))
	b.WriteString(journal.FormatAll(res.Records))
	if len(res.Stats.Categories) > 0 {
		fmt.Fprintf(&b, "completed: %s\n", strings.Join(res.Stats.Categories, ", "))
	}
	return out.Success(b.String(), res)
}

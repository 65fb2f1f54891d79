package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/store"
)

// JournalFlags select a run from a journal database.
type JournalFlags struct {
	Database string
	Run      string
}

func (f *JournalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Database, "db", "", "SQLite journal database (default from config)")
	cmd.Flags().StringVar(&f.Run, "run", "", "run token (default: latest run)")
}

// openJournal opens an existing journal read side. It never creates one.
func openJournal(opts *RootOptions, f *JournalFlags) (*store.Store, error) {
	path := f.Database
	if path == "" {
		path = opts.Settings().Journal
	}
	if path == "" {
		return nil, NewExitError(ExitCommandError, "no journal database: pass --db or set journal in the config")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("journal database not found: %s", path), err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	return st, nil
}

// readRun loads the selected run, or the latest one when none is given.
func readRun(ctx context.Context, st *store.Store, run string) (string, []journal.Record, error) {
	if run == "" {
		latest, err := st.LatestRun(ctx)
		if err != nil {
			return "", nil, notFoundOr(err, "journal has no runs")
		}
		run = latest
	}
	records, err := st.ReadRun(ctx, run)
	if err != nil {
		return run, nil, notFoundOr(err, fmt.Sprintf("run not found: %s", run))
	}
	return run, records, nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return WrapExitError(ExitFailure, msg, err)
	}
	return WrapExitError(ExitCommandError, "failed to read journal", err)
}

func errorCode(err error) string {
	if errors.Is(err, store.ErrNotFound) {
		return ErrCodeNotFound
	}
	return ErrCodeJournal
}

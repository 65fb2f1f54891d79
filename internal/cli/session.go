package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/catalog"
	"github.com/tulen-chik/reshalka/internal/engine"
	"github.com/tulen-chik/reshalka/internal/store"
)

// SessionFlags are shared by the commands that run a live session.
// Each flag overrides the config file only when given.
type SessionFlags struct {
	Catalog string
	Journal string
	Delay   time.Duration
}

func (f *SessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Catalog, "catalog", "", "catalog file (.yaml or .cue); builtin if empty")
	cmd.Flags().StringVar(&f.Journal, "journal", "", "SQLite journal database; no journal if empty")
	cmd.Flags().DurationVar(&f.Delay, "delay", 0, "pause after a correct answer (default from config, 2s)")
}

// resolve merges flags over the config file.
func (f *SessionFlags) resolve(cmd *cobra.Command, opts *RootOptions) SessionFlags {
	cfg := opts.Settings()
	out := SessionFlags{Catalog: cfg.Catalog, Journal: cfg.Journal, Delay: cfg.CompletionDelay}
	if cmd.Flags().Changed("catalog") {
		out.Catalog = f.Catalog
	}
	if cmd.Flags().Changed("journal") {
		out.Journal = f.Journal
	}
	if cmd.Flags().Changed("delay") {
		out.Delay = f.Delay
	}
	return out
}

// openSession loads the catalog, opens the journal if one is configured,
// and builds an engine. The returned cleanup closes the journal.
func openSession(cmd *cobra.Command, opts *RootOptions, flags *SessionFlags, extra ...engine.Option) (*engine.Engine, func(), error) {
	s := flags.resolve(cmd, opts)
	logger := opts.Logger()

	cat, err := catalog.Load(s.Catalog)
	if err != nil {
		code := ExitCommandError
		if catalog.IsValidation(err) {
			code = ExitFailure
		}
		return nil, nil, WrapExitError(code, "failed to load catalog", err)
	}

	engineOpts := []engine.Option{
		engine.WithDelay(s.Delay),
		engine.WithLogger(logger),
	}
	cleanup := func() {}
	if s.Journal != "" {
		st, err := store.Open(s.Journal)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		engineOpts = append(engineOpts, engine.WithJournal(st))
		cleanup = func() {
			if err := st.Close(); err != nil {
				logger.Error("failed to close journal", "path", s.Journal, "error", err)
			}
		}
	}

	e, err := engine.New(cat, append(engineOpts, extra...)...)
	if err != nil {
		cleanup()
		return nil, nil, WrapExitError(ExitCommandError, "failed to start session", err)
	}
	logger.Info("session ready",
		"run", e.RunToken(),
		"catalog", cat.Source,
		"categories", len(cat.Categories),
		"delay", s.Delay,
		"journal", s.Journal,
	)
	return e, cleanup, nil
}

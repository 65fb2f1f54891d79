package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "text" | "json"
	LogFormat string // "text" | "json"
	Config    string

	cfg    *config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output and log formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reshalka CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reshalka",
		Short: "reshalka - puzzle sessions for kids",
		Long: `Runs categories of placement puzzles for young children:
pick an item, put it into a slot, check the answer, move on.

Catalogs are YAML or CUE files; the builtin catalog is used when none is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if !slices.Contains(ValidFormats, opts.LogFormat) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid log format %q: must be one of %v", opts.LogFormat, ValidFormats))
			}
			cfg, err := config.Load(opts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.cfg = cfg
			opts.logger = newLogger(cmd.ErrOrStderr(), opts)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output and debug logging")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format on stderr (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a YAML config file")

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))

	return cmd
}

func newLogger(w io.Writer, opts *RootOptions) *slog.Logger {
	level := opts.Settings().Level()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if opts.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// Settings returns the loaded config, or defaults when PersistentPreRunE
// has not run.
func (o *RootOptions) Settings() *config.Config {
	if o.cfg == nil {
		o.cfg = config.Default()
	}
	return o.cfg
}

// Logger returns the configured logger, or one that discards.
func (o *RootOptions) Logger() *slog.Logger {
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/config"
	"github.com/tulen-chik/reshalka/internal/engine"
	"github.com/tulen-chik/reshalka/internal/server"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Session SessionFlags
	Listen  string
	Origins []string

	ready func(addr string)
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a session over HTTP",
		Long: `Run one session and expose it over HTTP for a front end.

Endpoints:
  GET  /api/state        current snapshot
  GET  /api/categories   catalog categories and puzzles
  POST /api/commands     apply a command, e.g. {"kind":"mark","slot":"answer","item":"7"}
  GET  /api/events       websocket stream of snapshots

Examples:
  reshalka serve
  reshalka serve --listen :9000 --journal ./reshalka.db
  reshalka serve --origin "localhost:*"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}
	opts.Session.register(cmd)
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config, "+config.DefaultListen+")")
	cmd.Flags().StringSliceVar(&opts.Origins, "origin", nil, "extra origin patterns allowed to open the event stream")
	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	logger := opts.Logger()
	listen := opts.Settings().Listen
	if cmd.Flags().Changed("listen") {
		listen = opts.Listen
	}

	hub := server.NewHub(logger)
	e, cleanup, err := openSession(cmd, opts.RootOptions, &opts.Session, engine.WithObserver(hub))
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	srv := &http.Server{
		Handler:           server.New(server.Options{Engine: e, Hub: hub, Logger: logger, AllowedOrigins: opts.Origins}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	loopDone := make(chan error, 1)
	go func() { loopDone <- e.Run(ctx) }()

	serveDone := make(chan error, 1)
	go func() { serveDone <- srv.Serve(ln) }()

	addr := ln.Addr().String()
	logger.Info("server listening", "addr", addr, "run", e.RunToken())
	if opts.ready != nil {
		opts.ready(addr)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("server shutting down")
	case serveErr = <-serveDone:
	}

	hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown incomplete", "error", err)
	}
	e.Stop()
	if err := <-loopDone; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("engine loop failed", "error", err)
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return WrapExitError(ExitCommandError, "server failed", serveErr)
	}
	logger.Info("server closed")
	return nil
}

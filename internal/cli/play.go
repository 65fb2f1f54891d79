package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/tulen-chik/reshalka/internal/clock"
	"github.com/tulen-chik/reshalka/internal/engine"
	"github.com/tulen-chik/reshalka/internal/session"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	Session SessionFlags

	scheduler clock.Scheduler
}

const playHelp = `Commands:
  categories            list categories
  select <n|name>       start a category
  show                  show the current puzzle
  pick <item>           select an item from the pool
  place <slot>          put the selected item into a slot (or take it out)
  mark <slot> <item>    pick and place in one step; repeat to clear
  check                 check the answer
  retry                 try again after a wrong answer
  menu                  back to the category menu
  ok                    dismiss the completion screen
  quit                  leave`

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal",
		Long: `Play a session line by line on stdin/stdout.

` + playHelp + `

With --format json every reply and state change is printed as one JSON
object per line.

Examples:
  reshalka play
  reshalka play --catalog ./home.cue --journal ./reshalka.db
  reshalka play --delay 500ms`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, cmd)
		},
	}
	opts.Session.register(cmd)
	return cmd
}

func runPlay(opts *PlayOptions, cmd *cobra.Command) error {
	out := &lockedWriter{w: cmd.OutOrStdout()}
	jsonMode := opts.Format == "json"

	printer := &transitionPrinter{w: out, json: jsonMode}
	extra := []engine.Option{engine.WithObserver(printer)}
	if opts.scheduler != nil {
		extra = append(extra, engine.WithScheduler(opts.scheduler))
	}
	e, cleanup, err := openSession(cmd, opts.RootOptions, &opts.Session, extra...)
	if err != nil {
		return err
	}
	defer cleanup()
	initial := e.Snapshot().State
	printer.last = &initial

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	defer func() {
		e.Stop()
		<-done
	}()

	p := &player{engine: e, out: out, json: jsonMode}
	if !jsonMode {
		out.println(renderState(initial))
		p.listCategories()
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if quit := p.handle(ctx, scanner.Text()); quit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitCommandError, "failed to read input", err)
	}
	return nil
}

type player struct {
	engine *engine.Engine
	out    *lockedWriter
	json   bool
}

// handle runs one input line and reports whether the session should end.
func (p *player) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	arg := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}

	var cmd engine.Command
	switch fields[0] {
	case "quit", "exit":
		return true
	case "help", "?":
		p.out.println(playHelp)
		return false
	case "categories", "ls":
		p.listCategories()
		return false
	case "show":
		p.show()
		return false
	case "select":
		cmd = engine.SelectCategory(p.categoryName(strings.Join(fields[1:], " ")))
	case "pick":
		cmd = engine.SelectItem(arg(1))
	case "place":
		cmd = engine.ActivateSlot(arg(1))
	case "mark":
		cmd = engine.Mark(arg(1), arg(2))
	case "check":
		cmd = engine.Check()
	case "retry":
		cmd = engine.Retry()
	case "menu":
		cmd = engine.ReturnToMenu()
	case "ok":
		cmd = engine.Acknowledge()
	default:
		p.out.println(fmt.Sprintf("unknown command %q (type help)", fields[0]))
		return false
	}

	res, err := p.engine.Do(ctx, cmd)
	if err != nil {
		p.out.println("error: " + err.Error())
		return engine.IsStopped(err)
	}
	if p.json {
		p.out.encode(res)
		return false
	}
	switch cmd.Kind {
	case engine.CmdSelectCategory, engine.CmdReturnToMenu, engine.CmdAcknowledge:
		if !res.Accepted {
			p.out.println("ignored")
		}
	default:
		p.out.println(renderResult(res))
	}
	return false
}

// categoryName accepts a 1-based number or a name.
func (p *player) categoryName(s string) string {
	names := p.engine.Catalog().Names()
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(names) {
		return names[n-1]
	}
	return s
}

func (p *player) listCategories() {
	var b strings.Builder
	for i, cat := range p.engine.Catalog().Categories {
		fmt.Fprintf(&b, "  %d. %s (%d)\n", i+1, cat.Name, len(cat.Puzzles))
	}
	p.out.print(b.String())
}

func (p *player) show() {
	snap := p.engine.Snapshot()
	if p.json {
		p.out.encode(snap)
		return
	}
	var b strings.Builder
	fmt.Fprintln(&b, renderState(snap.State))
	if snap.Puzzle != nil {
		renderPuzzle(&b, snap.Puzzle)
	}
	p.out.print(b.String())
}

// transitionPrinter prints session transitions, including the ones that
// happen on a timer between inputs.
type transitionPrinter struct {
	w    *lockedWriter
	json bool
	last *session.State
}

func (t *transitionPrinter) SnapshotChanged(s engine.Snapshot) {
	if t.last != nil && *t.last == s.State {
		return
	}
	state := s.State
	t.last = &state

	if t.json {
		t.w.encode(s)
		return
	}
	var b strings.Builder
	fmt.Fprintln(&b, renderState(s.State))
	if s.Puzzle != nil {
		renderPuzzle(&b, s.Puzzle)
	}
	t.w.print(b.String())
}

// lockedWriter serializes output from the input loop and the engine loop.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) print(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.w, s)
}

func (l *lockedWriter) println(s string) {
	l.print(s + "\n")
}

func (l *lockedWriter) encode(v any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	json.NewEncoder(l.w).Encode(v)
}

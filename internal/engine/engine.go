package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/tulen-chik/reshalka/internal/catalog"
	"github.com/tulen-chik/reshalka/internal/clock"
	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/placement"
	"github.com/tulen-chik/reshalka/internal/puzzle"
	"github.com/tulen-chik/reshalka/internal/session"
)

// Journal receives every record the engine writes. *store.Store and
// *journal.Memory both satisfy it.
type Journal interface {
	Append(ctx context.Context, rec journal.Record) error
}

// Snapshot is what a front end renders: the session state plus the view of
// the puzzle on screen, if any.
type Snapshot struct {
	Seq    int64         `json:"seq"`
	State  session.State `json:"state"`
	Puzzle *puzzle.View  `json:"puzzle,omitempty"`
}

// Observer is notified with a fresh snapshot after every processed event.
// Callbacks run on the loop goroutine and must not block.
type Observer interface {
	SnapshotChanged(Snapshot)
}

// Engine serializes player commands and completion timers onto one loop
// that owns the session controller.
type Engine struct {
	catalog *catalog.Catalog
	ctrl    *session.Controller

	sched clock.Scheduler
	delay time.Duration
	queue *eventQueue
	seq   *journal.Sequence

	tokens  TokenGenerator
	run     string
	journal Journal
	pending []journal.Record
	started bool

	observers []Observer
	logger    *slog.Logger
	snapshot  atomic.Pointer[Snapshot]
}

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler sets the scheduler behind completion delays.
// Default: clock.Wall.
func WithScheduler(s clock.Scheduler) Option {
	return func(e *Engine) {
		if s != nil {
			e.sched = s
		}
	}
}

// WithDelay sets the pause between a correct answer and advancing.
// Default: puzzle.DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(e *Engine) {
		e.delay = d
	}
}

// WithJournal records the run. Without it nothing is persisted.
func WithJournal(j Journal) Option {
	return func(e *Engine) {
		e.journal = j
	}
}

// WithTokenGenerator sets the run token source. Default: UUIDv7Generator.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.tokens = g
		}
	}
}

// WithObserver registers a snapshot observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observers = append(e.observers, o)
		}
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New builds an engine over a compiled catalog. The engine starts idle.
func New(cat *catalog.Catalog, opts ...Option) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("engine: nil catalog")
	}
	e := &Engine{
		catalog: cat,
		sched:   clock.Wall{},
		delay:   puzzle.DefaultDelay,
		queue:   newEventQueue(),
		tokens:  UUIDv7Generator{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.delay < 0 {
		return nil, fmt.Errorf("engine: negative completion delay %s", e.delay)
	}
	e.run = e.tokens.Generate()
	e.seq = journal.NewSequence(e.run)

	env := puzzle.Env{Scheduler: loopScheduler{e: e}, Delay: e.delay}
	ctrl, err := session.New(cat.Build(env),
		session.WithObserver(sessionObserver{e: e}),
		session.WithLogger(e.logger.With("run", e.run)),
	)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	e.ctrl = ctrl
	e.snapshot.Store(&Snapshot{State: ctrl.State()})
	return e, nil
}

// RunToken identifies this engine's journal records.
func (e *Engine) RunToken() string {
	return e.run
}

// Catalog returns the catalog the engine plays.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Delay returns the completion delay in use.
func (e *Engine) Delay() time.Duration {
	return e.delay
}

// Snapshot returns the state after the last processed event.
// Safe to call from any goroutine.
func (e *Engine) Snapshot() Snapshot {
	return *e.snapshot.Load()
}

// Run processes events until ctx is cancelled or Stop is called.
// Events still queued at Stop are processed before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine starting", "run", e.run)
	e.begin(ctx)

	for {
		if event, ok := e.queue.TryDequeue(); ok {
			e.process(ctx, event)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping: context cancelled", "run", e.run)
			e.queue.Close()
			return ctx.Err()
		case _, open := <-e.queue.Wait():
			if !open && e.queue.Len() == 0 {
				e.logger.Info("engine stopping: queue closed", "run", e.run)
				return nil
			}
		}
	}
}

// Drain processes queued events on the calling goroutine until the queue is
// empty. It is the synchronous alternative to Run for tests, scenarios and
// replay, and must not be used while Run is active.
func (e *Engine) Drain(ctx context.Context) error {
	e.begin(ctx)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		event, ok := e.queue.TryDequeue()
		if !ok {
			return nil
		}
		e.process(ctx, event)
	}
}

// Stop closes the queue. Further commands fail with ErrCodeStopped.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Submit queues cmd without waiting for the result.
func (e *Engine) Submit(cmd Command) error {
	if !e.queue.Enqueue(Event{Type: EventTypeCommand, Command: cmd}) {
		return errStopped
	}
	return nil
}

// Do queues cmd and waits for the loop started by Run to process it.
func (e *Engine) Do(ctx context.Context, cmd Command) (Result, error) {
	ch := make(chan reply, 1)
	if !e.queue.Enqueue(Event{Type: EventTypeCommand, Command: cmd, reply: ch}) {
		return Result{}, errStopped
	}
	select {
	case r := <-ch:
		return r.result, r.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Apply queues cmd and drains the queue on the calling goroutine.
// Like Drain, it must not be used while Run is active.
func (e *Engine) Apply(ctx context.Context, cmd Command) (Result, error) {
	ch := make(chan reply, 1)
	if !e.queue.Enqueue(Event{Type: EventTypeCommand, Command: cmd, reply: ch}) {
		return Result{}, errStopped
	}
	if err := e.Drain(ctx); err != nil {
		return Result{}, err
	}
	r := <-ch
	return r.result, r.err
}

// begin writes the start record once. Called only from the loop goroutine.
func (e *Engine) begin(ctx context.Context) {
	if e.started {
		return
	}
	e.started = true
	e.record(journal.KindStart, map[string]any{
		"catalog":    e.catalog.Fingerprint,
		"source":     e.catalog.Source,
		"categories": e.catalog.Names(),
		"delay_ms":   e.delay.Milliseconds(),
	})
	e.flush(ctx)
}

// process handles one event. Called only from the loop goroutine.
func (e *Engine) process(ctx context.Context, event Event) {
	switch event.Type {
	case EventTypeCommand:
		res, err := e.apply(event.Command)
		if err != nil {
			e.logger.Warn("command rejected", "run", e.run, "kind", event.Command.Kind, "error", err)
		}
		if event.reply != nil {
			event.reply <- reply{result: res, err: err}
		}
	case EventTypeTimer:
		if event.timer != nil && event.timer.stopped {
			return
		}
		e.record(journal.KindTimer, map[string]any{
			"puzzle":   e.ctrl.State().Puzzle,
			"delay_ms": e.delay.Milliseconds(),
		})
		event.fire()
	default:
		e.logger.Error("unknown event type", "run", e.run, "type", event.Type)
		return
	}
	e.flush(ctx)
	e.publish()
}

func (e *Engine) apply(cmd Command) (Result, error) {
	if err := cmd.Validate(); err != nil {
		return Result{State: e.ctrl.State()}, err
	}
	e.record(journal.KindCommand, cmd.Payload())

	var res Result
	switch cmd.Kind {
	case CmdSelectCategory:
		res.Accepted = e.ctrl.SelectCategory(cmd.Category)
	case CmdReturnToMenu:
		res.Accepted = e.ctrl.ReturnToMenu()
	case CmdAcknowledge:
		res.Accepted = e.ctrl.AcknowledgeTerminal()
	default:
		if p, ok := e.ctrl.Current().(puzzle.Interactive); ok {
			e.applyPuzzle(p, cmd, &res)
		}
	}
	res.State = e.ctrl.State()
	return res, nil
}

func (e *Engine) applyPuzzle(p puzzle.Interactive, cmd Command, res *Result) {
	before := p.View()
	switch cmd.Kind {
	case CmdSelectItem:
		res.Accepted = p.SelectItem(placement.ItemID(cmd.Item))
	case CmdActivateSlot, CmdMark:
		var out placement.Outcome
		if cmd.Kind == CmdMark {
			out = p.Mark(placement.SlotID(cmd.Slot), placement.ItemID(cmd.Item))
		} else {
			out = p.ActivateSlot(placement.SlotID(cmd.Slot))
		}
		res.Outcome = out.String()
		res.Accepted = out.Changed()
		after := p.View()
		if after.Verdict != nil && after.Verdict != before.Verdict {
			status := puzzle.CheckIncorrect
			if after.Verdict.Correct {
				status = puzzle.CheckCorrect
			}
			res.Check = status
			res.Verdict = after.Verdict
			e.recordVerdict(after.Name, status, after.Verdict, true)
		}
	case CmdCheck:
		cr := p.Check()
		res.Check = cr.Status
		res.Verdict = cr.Verdict
		res.Accepted = cr.Status != puzzle.CheckIgnored
		if res.Accepted {
			e.recordVerdict(before.Name, cr.Status, cr.Verdict, false)
		}
	case CmdRetry:
		res.Accepted = p.Retry()
	}
}

func (e *Engine) recordVerdict(name string, status puzzle.CheckStatus, v *placement.Verdict, auto bool) {
	payload := map[string]any{
		"puzzle": name,
		"status": string(status),
		"auto":   auto,
	}
	if v != nil {
		slots := make(map[string]bool, len(v.Slots))
		for id, ok := range v.Slots {
			slots[string(id)] = ok
		}
		payload["slots"] = slots
		payload["filled"] = v.Filled
	}
	e.record(journal.KindVerdict, payload)
}

func (e *Engine) record(kind journal.Kind, payload map[string]any) {
	rec, err := e.seq.Record(kind, payload)
	if err != nil {
		e.logger.Error("journal record rejected", "run", e.run, "kind", kind, "error", err)
		return
	}
	if e.journal != nil {
		e.pending = append(e.pending, rec)
	}
}

// flush writes pending records. A failed write is logged and the loop
// continues: the game never stalls on the journal.
func (e *Engine) flush(ctx context.Context) {
	for _, rec := range e.pending {
		if err := e.journal.Append(ctx, rec); err != nil {
			e.logger.Error("journal append failed",
				"run", rec.Run,
				"seq", rec.Seq,
				"kind", rec.Kind,
				"error", err,
			)
		}
	}
	e.pending = e.pending[:0]
}

func (e *Engine) publish() {
	snap := &Snapshot{Seq: e.seq.Last(), State: e.ctrl.State()}
	if p, ok := e.ctrl.Current().(puzzle.Interactive); ok {
		v := p.View()
		snap.Puzzle = &v
	}
	e.snapshot.Store(snap)
	for _, o := range e.observers {
		o.SnapshotChanged(*snap)
	}
}

// sessionObserver turns controller signals into journal records.
type sessionObserver struct {
	e *Engine
}

func (o sessionObserver) StateChanged(s session.State) {
	o.e.record(journal.KindState, map[string]any{
		"phase":    s.Phase.String(),
		"category": s.Category,
		"index":    s.Index,
		"total":    s.Total,
		"puzzle":   s.Puzzle,
	})
}

func (o sessionObserver) CategoryCompleted(name string) {
	o.e.record(journal.KindTerminal, map[string]any{"category": name})
}

// loopScheduler delivers timer callbacks through the event queue so they
// run on the loop goroutine like any command.
type loopScheduler struct {
	e *Engine
}

func (s loopScheduler) AfterFunc(d time.Duration, f func()) clock.Timer {
	t := &loopTimer{}
	t.inner = s.e.sched.AfterFunc(d, func() {
		s.e.queue.Enqueue(Event{Type: EventTypeTimer, timer: t, fire: f})
	})
	return t
}

// loopTimer remembers Stop so that a callback already sitting in the queue
// when the puzzle is unmounted is dropped. stopped is only touched on the
// loop goroutine.
type loopTimer struct {
	inner   clock.Timer
	stopped bool
}

func (t *loopTimer) Stop() bool {
	t.stopped = true
	return t.inner.Stop()
}

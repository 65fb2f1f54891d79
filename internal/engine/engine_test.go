package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tulen-chik/reshalka/internal/catalog"
	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/puzzle"
	"github.com/tulen-chik/reshalka/internal/session"
	"github.com/tulen-chik/reshalka/internal/testutil"
)

const testCatalog = `
categories:
  - name: counting
    puzzles:
      - name: apples
        kind: choice
        answers: ["7", "8"]
        correct: "7"
      - name: gaps
        kind: sequence
        items:
          - {id: n2, value: "2"}
          - {id: n4, value: "4"}
        slots:
          - {id: s1, value: "1"}
          - {id: s2}
          - {id: s3, value: "3"}
          - {id: s4}
        key: {s1: "1", s2: "2", s3: "3", s4: "4"}
  - name: sorting
    puzzles:
      - name: pets
        kind: classify
        items:
          - {id: wild, value: wild}
          - {id: home, value: home}
        slots:
          - {id: wolf}
          - {id: cat}
        key: {wolf: wild, cat: home}
`

const testDelay = 2 * time.Second

func loadTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog), catalog.FormatYAML, "test.yaml")
	require.NoError(t, err)
	return cat
}

type fixture struct {
	engine *Engine
	sched  *testutil.ManualScheduler
	mem    *journal.Memory
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{sched: testutil.NewManualScheduler(), mem: journal.NewMemory()}
	base := []Option{
		WithScheduler(f.sched),
		WithDelay(testDelay),
		WithJournal(f.mem),
		WithTokenGenerator(testutil.NewFixedRunToken("run-1")),
	}
	e, err := New(loadTestCatalog(t), append(base, opts...)...)
	require.NoError(t, err)
	f.engine = e
	return f
}

func (f *fixture) apply(t *testing.T, cmd Command) Result {
	t.Helper()
	res, err := f.engine.Apply(context.Background(), cmd)
	require.NoError(t, err)
	return res
}

func (f *fixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	f.sched.Advance(d)
	require.NoError(t, f.engine.Drain(context.Background()))
}

func (f *fixture) kinds() []journal.Kind {
	var out []journal.Kind
	for _, r := range f.mem.Records() {
		out = append(out, r.Kind)
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(loadTestCatalog(t), WithDelay(-time.Second))
	assert.Error(t, err)

	e, err := New(loadTestCatalog(t), WithTokenGenerator(testutil.NewFixedRunToken("abc")))
	require.NoError(t, err)
	assert.Equal(t, "abc", e.RunToken())
	assert.Equal(t, puzzle.DefaultDelay, e.Delay())
	assert.Equal(t, session.Idle, e.Snapshot().State.Phase)
}

func TestEngine_PlaysCategoryToTerminal(t *testing.T) {
	f := newFixture(t)

	res := f.apply(t, SelectCategory("counting"))
	assert.True(t, res.Accepted)
	assert.Equal(t, session.State{Phase: session.InProgress, Category: "counting", Index: 0, Total: 2, Puzzle: "apples"}, res.State)

	res = f.apply(t, Mark("answer", "7"))
	assert.Equal(t, "placed", res.Outcome)
	assert.Empty(t, res.Check, "choice puzzles wait for an explicit check")

	res = f.apply(t, Check())
	assert.Equal(t, puzzle.CheckCorrect, res.Check)
	require.NotNil(t, res.Verdict)
	assert.True(t, res.Verdict.Correct)
	assert.Equal(t, 0, res.State.Index, "advance waits for the delay")
	assert.Equal(t, 1, f.sched.Pending())

	f.advance(t, testDelay-time.Millisecond)
	assert.Equal(t, "apples", f.engine.Snapshot().State.Puzzle)
	f.advance(t, time.Millisecond)
	assert.Equal(t, "gaps", f.engine.Snapshot().State.Puzzle)

	f.apply(t, SelectItem("n2"))
	f.apply(t, ActivateSlot("s2"))
	f.apply(t, SelectItem("n4"))
	res = f.apply(t, ActivateSlot("s4"))
	assert.Equal(t, puzzle.CheckCorrect, res.Check, "sequences check themselves")

	f.advance(t, testDelay)
	snap := f.engine.Snapshot()
	assert.Equal(t, session.State{Phase: session.Terminal, Category: "counting", Index: 2, Total: 2}, snap.State)
	assert.Nil(t, snap.Puzzle)

	res = f.apply(t, Acknowledge())
	assert.True(t, res.Accepted)
	assert.Equal(t, session.Idle, res.State.Phase)

	assert.Equal(t, []journal.Kind{
		journal.KindStart,
		journal.KindCommand, journal.KindState,
		journal.KindCommand,
		journal.KindCommand, journal.KindVerdict,
		journal.KindTimer, journal.KindState,
		journal.KindCommand, journal.KindCommand, journal.KindCommand,
		journal.KindCommand, journal.KindVerdict,
		journal.KindTimer, journal.KindState, journal.KindTerminal,
		journal.KindCommand, journal.KindState,
	}, f.kinds())

	for i, r := range f.mem.Records() {
		assert.Equal(t, int64(i+1), r.Seq)
		assert.Equal(t, "run-1", r.Run)
	}
}

func TestEngine_StartRecord(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Drain(context.Background()))

	recs := f.mem.Records()
	require.Len(t, recs, 1)
	start := recs[0]
	assert.Equal(t, journal.KindStart, start.Kind)
	assert.Equal(t, f.engine.Catalog().Fingerprint, start.String("catalog"))
	assert.Equal(t, int64(2000), start.Int("delay_ms"))

	require.NoError(t, f.engine.Drain(context.Background()))
	assert.Equal(t, 1, f.mem.Len(), "start is written once")
}

func TestEngine_ClassifyWaitsForCheck(t *testing.T) {
	f := newFixture(t)
	f.apply(t, SelectCategory("sorting"))

	f.apply(t, Mark("wolf", "home"))
	res := f.apply(t, Mark("cat", "wild"))
	assert.Empty(t, res.Check, "a full board is not judged until check")
	assert.Nil(t, res.Verdict)

	res = f.apply(t, Check())
	assert.Equal(t, puzzle.CheckIncorrect, res.Check)
	assert.Equal(t, map[string]bool{"wolf": false, "cat": false}, slotsOf(res))

	// Classification keeps placements after a miss, so the fix is an edit.
	res = f.apply(t, Mark("wolf", "wild"))
	assert.True(t, res.Accepted)
	assert.Equal(t, "swapped", res.Outcome)
	assert.Empty(t, res.Check)

	res = f.apply(t, Mark("cat", "home"))
	assert.Empty(t, res.Check)
	assert.Equal(t, session.InProgress, res.State.Phase)
	assert.Equal(t, 0, f.sched.Pending())

	res = f.apply(t, Check())
	assert.Equal(t, puzzle.CheckCorrect, res.Check)

	f.advance(t, testDelay)
	assert.Equal(t, session.Terminal, f.engine.Snapshot().State.Phase)
}

func slotsOf(res Result) map[string]bool {
	out := make(map[string]bool)
	for id, ok := range res.Verdict.Slots {
		out[string(id)] = ok
	}
	return out
}

func TestEngine_IncorrectCheckLocksUntilRetry(t *testing.T) {
	f := newFixture(t)
	f.apply(t, SelectCategory("counting"))
	f.apply(t, Mark("answer", "8"))

	res := f.apply(t, Check())
	assert.Equal(t, puzzle.CheckIncorrect, res.Check)

	res = f.apply(t, Mark("answer", "7"))
	assert.False(t, res.Accepted)
	assert.Equal(t, "rejected", res.Outcome)

	res = f.apply(t, Retry())
	assert.True(t, res.Accepted)
	assert.Empty(t, f.engine.Snapshot().Puzzle.Values, "reset clears the board")

	res = f.apply(t, Retry())
	assert.False(t, res.Accepted)
}

func TestEngine_CheckNotReady(t *testing.T) {
	f := newFixture(t)
	f.apply(t, SelectCategory("counting"))

	res := f.apply(t, Check())
	assert.True(t, res.Accepted)
	assert.Equal(t, puzzle.CheckNotReady, res.Check)
	assert.Nil(t, res.Verdict)
}

func TestEngine_PuzzleCommandsWithoutPuzzle(t *testing.T) {
	f := newFixture(t)

	for _, cmd := range []Command{SelectItem("7"), ActivateSlot("answer"), Mark("answer", "7"), Check(), Retry()} {
		res := f.apply(t, cmd)
		assert.False(t, res.Accepted, cmd.Kind)
		assert.Equal(t, session.Idle, res.State.Phase)
	}
}

func TestEngine_RejectedTransitions(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.apply(t, SelectCategory("missing")).Accepted)
	assert.False(t, f.apply(t, ReturnToMenu()).Accepted)
	assert.False(t, f.apply(t, Acknowledge()).Accepted)

	require.True(t, f.apply(t, SelectCategory("counting")).Accepted)
	assert.False(t, f.apply(t, SelectCategory("sorting")).Accepted)
	assert.False(t, f.apply(t, Acknowledge()).Accepted)
}

func TestEngine_MenuCancelsPendingCompletion(t *testing.T) {
	f := newFixture(t)
	f.apply(t, SelectCategory("counting"))
	f.apply(t, Mark("answer", "7"))
	f.apply(t, Check())
	require.Equal(t, 1, f.sched.Pending())

	assert.True(t, f.apply(t, ReturnToMenu()).Accepted)
	assert.Equal(t, 0, f.sched.Pending())

	f.advance(t, testDelay)
	assert.Equal(t, session.Idle, f.engine.Snapshot().State.Phase)
	assert.NotContains(t, f.kinds(), journal.KindTimer)
}

func TestEngine_DropsQueuedTimerAfterMenu(t *testing.T) {
	mem := journal.NewMemory()
	e, err := New(loadTestCatalog(t),
		WithScheduler(testutil.ImmediateScheduler{}),
		WithJournal(mem),
		WithTokenGenerator(testutil.NewFixedRunToken("")),
	)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = e.Apply(ctx, SelectCategory("counting"))
	require.NoError(t, err)
	_, err = e.Apply(ctx, Mark("answer", "7"))
	require.NoError(t, err)

	// The completion lands in the queue behind the menu command.
	require.NoError(t, e.Submit(Check()))
	require.NoError(t, e.Submit(ReturnToMenu()))
	require.NoError(t, e.Drain(ctx))

	assert.Equal(t, session.Idle, e.Snapshot().State.Phase)
	for _, r := range mem.Records() {
		assert.NotEqual(t, journal.KindTimer, r.Kind)
	}
}

func TestEngine_InvalidCommands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Apply(ctx, Command{Kind: "dance"})
	assert.True(t, IsInvalidCommand(err))

	_, err = f.engine.Apply(ctx, Command{Kind: CmdMark, Slot: "answer"})
	assert.True(t, IsInvalidCommand(err))
	assert.Contains(t, err.Error(), "MISSING_ARGUMENT")

	assert.NotContains(t, f.kinds(), journal.KindCommand, "invalid commands are not journalled")
}

func TestEngine_Stopped(t *testing.T) {
	f := newFixture(t)
	f.engine.Stop()

	_, err := f.engine.Apply(context.Background(), Check())
	assert.True(t, IsStopped(err))
	assert.True(t, IsStopped(f.engine.Submit(Check())))
	_, err = f.engine.Do(context.Background(), Check())
	assert.True(t, IsStopped(err))
}

type failingJournal struct{}

func (failingJournal) Append(context.Context, journal.Record) error {
	return errors.New("disk full")
}

func TestEngine_JournalFailureDoesNotStall(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	f := newFixture(t, WithJournal(failingJournal{}), WithLogger(logger))

	res := f.apply(t, SelectCategory("counting"))
	assert.True(t, res.Accepted)
	assert.Contains(t, buf.String(), "journal append failed")
	assert.Contains(t, buf.String(), "disk full")
}

type snapshotRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *snapshotRecorder) SnapshotChanged(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *snapshotRecorder) last() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snaps[len(r.snaps)-1]
}

func TestEngine_ObserverSeesPuzzleView(t *testing.T) {
	rec := &snapshotRecorder{}
	f := newFixture(t, WithObserver(rec))

	f.apply(t, SelectCategory("counting"))
	f.apply(t, SelectItem("8"))

	snap := rec.last()
	require.NotNil(t, snap.Puzzle)
	assert.Equal(t, "apples", snap.Puzzle.Name)
	assert.Equal(t, "8", string(snap.Puzzle.Selected))
	assert.Equal(t, f.engine.Snapshot(), snap)
	assert.Greater(t, snap.Seq, int64(0))
}

func TestEngine_RunWithWallClock(t *testing.T) {
	e, err := New(loadTestCatalog(t), WithDelay(0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	_, err = e.Do(ctx, SelectCategory("sorting"))
	require.NoError(t, err)
	_, err = e.Do(ctx, Mark("wolf", "wild"))
	require.NoError(t, err)
	_, err = e.Do(ctx, Mark("cat", "home"))
	require.NoError(t, err)
	res, err := e.Do(ctx, Check())
	require.NoError(t, err)
	assert.Equal(t, puzzle.CheckCorrect, res.Check)

	require.Eventually(t, func() bool {
		return e.Snapshot().State.Phase == session.Terminal
	}, time.Second, 5*time.Millisecond)

	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
}

func TestEngine_RunStopsOnCancel(t *testing.T) {
	e, err := New(loadTestCatalog(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestCommandPayloadRoundTrip(t *testing.T) {
	for _, cmd := range []Command{
		SelectCategory("Счёт"), SelectItem("a"), ActivateSlot("s"), Mark("s", "a"),
		Check(), Retry(), ReturnToMenu(), Acknowledge(),
	} {
		got, err := CommandFromPayload(cmd.Payload())
		require.NoError(t, err, cmd.Kind)
		assert.Equal(t, cmd, got)
	}

	_, err := CommandFromPayload(map[string]any{"kind": "select_category"})
	assert.True(t, IsInvalidCommand(err))
}

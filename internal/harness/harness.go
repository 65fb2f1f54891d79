package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tulen-chik/reshalka/internal/catalog"
	"github.com/tulen-chik/reshalka/internal/engine"
	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/puzzle"
	"github.com/tulen-chik/reshalka/internal/session"
	"github.com/tulen-chik/reshalka/internal/testutil"
)

// Harness executes one scenario against a fresh engine.
type Harness struct {
	engine *engine.Engine
	sched  *testutil.ManualScheduler
	mem    *journal.Memory
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run gets its own engine, manual scheduler and in-memory journal.
// An error is returned only when the scenario cannot start (the catalog
// does not load); everything after that is reported through Result.
func Run(scenario *Scenario) (*Result, error) {
	cat, err := catalog.Load(scenario.Catalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return RunWithCatalog(scenario, cat)
}

// RunWithCatalog executes a scenario against an already compiled catalog.
func RunWithCatalog(scenario *Scenario, cat *catalog.Catalog) (*Result, error) {
	delay := scenario.Delay
	if delay == 0 {
		delay = puzzle.DefaultDelay
	}

	h := &Harness{
		sched:  testutil.NewManualScheduler(),
		mem:    journal.NewMemory(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	eng, err := engine.New(cat,
		engine.WithScheduler(h.sched),
		engine.WithDelay(delay),
		engine.WithJournal(h.mem),
		engine.WithTokenGenerator(testutil.NewFixedRunToken(scenario.RunToken)),
		engine.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	h.engine = eng

	ctx := context.Background()
	result := NewResult()
	if err := eng.Drain(ctx); err != nil {
		return nil, err
	}
	for i, step := range scenario.Steps {
		h.executeStep(ctx, i, step, result)
	}

	result.Records = h.mem.Records()
	result.State = eng.Snapshot().State
	for _, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(err.Error())
		}
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) {
	name, _ := step.action()

	switch name {
	case "wait":
		h.sched.Advance(step.Wait)
		if err := h.engine.Drain(ctx); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] wait: %v", i, err))
		}
		return
	case "expect":
		if err := compareState(h.engine.Snapshot().State, step.Expect); err != nil {
			result.AddError(fmt.Sprintf("steps[%d] expect: %v", i, err))
		}
		return
	}

	cmd := stepCommand(name, step)
	res, err := h.engine.Apply(ctx, cmd)
	if err != nil {
		result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, name, err))
		return
	}
	h.logger.Debug("step", "index", i, "action", name, "accepted", res.Accepted)

	if step.Accepted != nil && *step.Accepted != res.Accepted {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected accepted=%t, got %t", i, name, *step.Accepted, res.Accepted))
	}
	if step.Outcome != "" && step.Outcome != res.Outcome {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected outcome %q, got %q", i, name, step.Outcome, res.Outcome))
	}
	if name == "check" && step.Check != checkAny && puzzle.CheckStatus(step.Check) != res.Check {
		result.AddError(fmt.Sprintf("steps[%d] check: expected %q, got %q", i, step.Check, res.Check))
	}
}

func stepCommand(name string, step Step) engine.Command {
	switch name {
	case "select":
		return engine.SelectCategory(step.Select)
	case "pick":
		return engine.SelectItem(step.Pick)
	case "place":
		return engine.ActivateSlot(step.Place)
	case "mark":
		return engine.Mark(step.Mark.Slot, step.Mark.Item)
	case "check":
		return engine.Check()
	case "retry":
		return engine.Retry()
	case "menu":
		return engine.ReturnToMenu()
	default:
		return engine.Acknowledge()
	}
}

func compareState(got session.State, want *StateExpect) error {
	switch {
	case want.Phase != "" && want.Phase != got.Phase.String():
		return fmt.Errorf("phase: expected %s, got %s", want.Phase, got.Phase)
	case want.Category != "" && want.Category != got.Category:
		return fmt.Errorf("category: expected %q, got %q", want.Category, got.Category)
	case want.Index != nil && *want.Index != got.Index:
		return fmt.Errorf("index: expected %d, got %d", *want.Index, got.Index)
	case want.Total != nil && *want.Total != got.Total:
		return fmt.Errorf("total: expected %d, got %d", *want.Total, got.Total)
	case want.Puzzle != "" && want.Puzzle != got.Puzzle:
		return fmt.Errorf("puzzle: expected %q, got %q", want.Puzzle, got.Puzzle)
	}
	return nil
}

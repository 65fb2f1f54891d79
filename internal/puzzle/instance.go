package puzzle

import (
	"fmt"
	"log/slog"

	"github.com/tulen-chik/reshalka/internal/clock"
	"github.com/tulen-chik/reshalka/internal/placement"
)

// RetryPolicy decides what Retry does after an incorrect check.
type RetryPolicy int

const (
	// RetryReset restores the initial layout. Input is locked between the
	// incorrect check and Retry.
	RetryReset RetryPolicy = iota
	// RetryKeep leaves the placements in place and keeps them editable.
	// Any edit dismisses the incorrect result.
	RetryKeep
)

func (p RetryPolicy) String() string {
	switch p {
	case RetryReset:
		return "reset"
	case RetryKeep:
		return "keep"
	default:
		return fmt.Sprintf("RetryPolicy(%d)", int(p))
	}
}

// ParseRetryPolicy parses the catalog spelling of a retry policy.
func ParseRetryPolicy(s string) (RetryPolicy, error) {
	switch s {
	case "reset":
		return RetryReset, nil
	case "keep":
		return RetryKeep, nil
	default:
		return 0, fmt.Errorf("unknown retry policy %q", s)
	}
}

// Status is the lifecycle position of a puzzle instance.
type Status int

const (
	// StatusActive accepts input.
	StatusActive Status = iota
	// StatusIncorrect shows a failed check and waits for Retry (or an edit
	// under RetryKeep).
	StatusIncorrect
	// StatusSolved is terminal: the completion is scheduled or delivered.
	StatusSolved
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusIncorrect:
		return "incorrect"
	case StatusSolved:
		return "solved"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// CheckStatus is the result category of Check.
type CheckStatus string

const (
	CheckCorrect   CheckStatus = "correct"
	CheckIncorrect CheckStatus = "incorrect"
	// CheckNotReady means the puzzle requires every slot filled first.
	CheckNotReady CheckStatus = "not_ready"
	// CheckIgnored means the puzzle is not accepting a check right now.
	CheckIgnored CheckStatus = "ignored"
)

// CheckResult is returned by Check. Verdict is nil unless the predicate ran.
type CheckResult struct {
	Status  CheckStatus
	Verdict *placement.Verdict
}

// Definition is the immutable description of a placement puzzle.
type Definition struct {
	Name      string
	Kind      string
	Prompt    string
	Layout    placement.Layout
	Predicate placement.Predicate
	Board     []placement.Option
	Retry     RetryPolicy

	// RequireFilled refuses Check until every slot has an occupant.
	RequireFilled bool
	// AutoCheck evaluates after every placement instead of waiting for Check.
	AutoCheck bool
}

// Validate builds a throwaway board to make sure the definition can be
// instantiated.
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("puzzle definition without name")
	}
	if d.Predicate == nil {
		return fmt.Errorf("puzzle %q: no predicate", d.Name)
	}
	if len(d.Layout.Slots) == 0 {
		return fmt.Errorf("puzzle %q: no slots", d.Name)
	}
	if _, err := placement.NewBoard(d.Layout, d.Board...); err != nil {
		return fmt.Errorf("puzzle %q: %w", d.Name, err)
	}
	return nil
}

// Descriptor wraps the definition in a factory bound to env.
// The definition must have passed Validate.
func (d Definition) Descriptor(env Env) Descriptor {
	return Descriptor{
		Name: d.Name,
		New: func() Puzzle {
			inst, err := New(d, env)
			if err != nil {
				panic(fmt.Sprintf("puzzle: unvalidated definition: %v", err))
			}
			return inst
		},
	}
}

// View is a read-only rendering model of an instance.
type View struct {
	Name     string             `json:"name"`
	Kind     string             `json:"kind,omitempty"`
	Prompt   string             `json:"prompt,omitempty"`
	Status   string             `json:"status"`
	Slots    []placement.Slot   `json:"slots"`
	Values   map[string]string  `json:"values,omitempty"`
	Pool     []placement.Item   `json:"pool"`
	Selected placement.ItemID   `json:"selected,omitempty"`
	Verdict  *placement.Verdict `json:"verdict,omitempty"`
}

// Instance is a placement-backed puzzle.
//
// Instance is not safe for concurrent use. Scheduler callbacks must run on
// the same goroutine as the rest of the input, which is what the engine's
// loop scheduler guarantees.
type Instance struct {
	def   Definition
	env   Env
	board *placement.Board

	status  Status
	verdict *placement.Verdict

	notify    func()
	mounted   bool
	delivered bool
	pending   clock.Timer
	gen       uint64
}

// New creates an instance with its own board.
func New(def Definition, env Env) (*Instance, error) {
	if def.Predicate == nil {
		return nil, fmt.Errorf("puzzle %q: no predicate", def.Name)
	}
	board, err := placement.NewBoard(def.Layout, def.Board...)
	if err != nil {
		return nil, fmt.Errorf("puzzle %q: %w", def.Name, err)
	}
	if env.Scheduler == nil {
		env.Scheduler = clock.Wall{}
	}
	return &Instance{def: def, env: env, board: board}, nil
}

// Mount implements Puzzle.
func (p *Instance) Mount(notify func()) {
	p.notify = notify
	p.mounted = true
	p.delivered = false
	if p.status == StatusSolved {
		p.schedule()
	}
}

// Unmount implements Puzzle. A pending completion is cancelled.
func (p *Instance) Unmount() {
	p.mounted = false
	p.gen++
	if p.pending != nil {
		p.pending.Stop()
		p.pending = nil
	}
}

// Status returns the lifecycle position.
func (p *Instance) Status() Status {
	return p.status
}

// Board exposes the underlying board for inspection.
func (p *Instance) Board() *placement.Board {
	return p.board
}

// SelectItem moves the selection cursor. It returns false while input is
// locked.
func (p *Instance) SelectItem(id placement.ItemID) bool {
	if !p.editable() {
		return false
	}
	p.board.SelectItem(id)
	return true
}

// ActivateSlot forwards to the board and runs the auto-check if configured.
func (p *Instance) ActivateSlot(id placement.SlotID) placement.Outcome {
	if !p.editable() {
		return placement.Rejected
	}
	out := p.board.ActivateSlot(id)
	if out.Changed() {
		p.afterEdit(out)
	}
	return out
}

// Mark places item into slot, or takes it out if the slot already holds it.
//
// This is the one-tap form used by choice and classification puzzles:
// tapping the same answer twice clears it.
func (p *Instance) Mark(slot placement.SlotID, item placement.ItemID) placement.Outcome {
	if !p.editable() {
		return placement.Rejected
	}
	if occ, ok := p.board.Occupant(slot); ok && occ.ID == item {
		p.board.ClearSelection()
		return p.ActivateSlot(slot)
	}
	p.board.SelectItem(item)
	out := p.ActivateSlot(slot)
	if !out.Changed() {
		p.board.ClearSelection()
	}
	return out
}

// Check evaluates the predicate on request.
func (p *Instance) Check() CheckResult {
	if !p.editable() {
		return CheckResult{Status: CheckIgnored}
	}
	if p.def.RequireFilled && !p.board.Filled() {
		return CheckResult{Status: CheckNotReady}
	}
	return p.evaluate()
}

// Retry leaves the incorrect state. Under RetryReset the board goes back to
// its initial layout.
func (p *Instance) Retry() bool {
	if p.status != StatusIncorrect {
		return false
	}
	if p.def.Retry == RetryReset {
		p.board.Reset()
	}
	p.status = StatusActive
	p.verdict = nil
	return true
}

// View returns the rendering model.
func (p *Instance) View() View {
	v := View{
		Name:    p.def.Name,
		Kind:    p.def.Kind,
		Prompt:  p.def.Prompt,
		Status:  p.status.String(),
		Slots:   p.board.Slots(),
		Pool:    p.board.Pool(),
		Verdict: p.verdict,
	}
	v.Selected, _ = p.board.Selected()
	for _, s := range v.Slots {
		if it, ok := p.board.Occupant(s.ID); ok {
			if v.Values == nil {
				v.Values = make(map[string]string)
			}
			v.Values[string(s.ID)] = it.Value
		}
	}
	return v
}

func (p *Instance) editable() bool {
	switch p.status {
	case StatusActive:
		return true
	case StatusIncorrect:
		return p.def.Retry == RetryKeep
	default:
		return false
	}
}

func (p *Instance) afterEdit(out placement.Outcome) {
	if p.status == StatusIncorrect {
		p.status = StatusActive
		p.verdict = nil
	}
	if p.def.AutoCheck && out != placement.Removed {
		v := p.board.Evaluate(p.def.Predicate)
		switch {
		case v.Correct:
			p.solve(v)
		case v.Filled:
			p.status = StatusIncorrect
			p.verdict = &v
		}
	}
}

func (p *Instance) evaluate() CheckResult {
	v := p.board.Evaluate(p.def.Predicate)
	if v.Correct {
		p.solve(v)
		return CheckResult{Status: CheckCorrect, Verdict: &v}
	}
	p.status = StatusIncorrect
	p.verdict = &v
	slog.Debug("puzzle check incorrect", "puzzle", p.def.Name, "filled", v.Filled)
	return CheckResult{Status: CheckIncorrect, Verdict: &v}
}

func (p *Instance) solve(v placement.Verdict) {
	p.status = StatusSolved
	p.verdict = &v
	p.board.ClearSelection()
	slog.Debug("puzzle solved", "puzzle", p.def.Name, "delay", p.env.Delay)
	if p.mounted {
		p.schedule()
	}
}

func (p *Instance) schedule() {
	if p.pending != nil || p.delivered {
		return
	}
	gen := p.gen
	p.pending = p.env.Scheduler.AfterFunc(p.env.Delay, func() {
		p.fire(gen)
	})
}

func (p *Instance) fire(gen uint64) {
	if !p.mounted || gen != p.gen || p.delivered {
		return
	}
	p.pending = nil
	p.delivered = true
	if p.notify != nil {
		p.notify()
	}
}

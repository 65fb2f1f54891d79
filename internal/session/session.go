// Package session implements the category progression state machine.
//
// A Controller moves through three phases:
//
//	Idle --SelectCategory--> InProgress(category, 0)
//	InProgress(c, i) --OnPuzzleComplete--> InProgress(c, i+1) | Terminal(c)
//	Terminal(c) --AcknowledgeTerminal--> Idle
//	InProgress | Terminal --ReturnToMenu--> Idle
//
// Invalid transitions are rejected silently: the method returns false and
// logs at debug level. The controller mounts the current puzzle with a
// completion callback that is only honoured while that puzzle is current,
// so a late or repeated completion can never advance the wrong puzzle.
package session

import (
	"fmt"
	"log/slog"

	"github.com/tulen-chik/reshalka/internal/puzzle"
)

// Phase is the controller's top-level state.
type Phase int

const (
	Idle Phase = iota
	InProgress
	Terminal
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InProgress:
		return "in_progress"
	case Terminal:
		return "terminal"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, v := range []Phase{Idle, InProgress, Terminal} {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// Category is a named, ordered group of puzzles. Order is play order.
type Category struct {
	Name    string
	Puzzles []puzzle.Descriptor
}

// State is a snapshot of the controller for rendering.
//
// Category is empty in Idle. Index and Puzzle are meaningful in InProgress;
// in Terminal, Index equals Total.
type State struct {
	Phase    Phase  `json:"phase"`
	Category string `json:"category,omitempty"`
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	Puzzle   string `json:"puzzle,omitempty"`
}

// Observer receives the controller's outbound signals. Callbacks run
// synchronously on the caller's goroutine.
type Observer interface {
	StateChanged(State)
	CategoryCompleted(name string)
}

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller owns the session state.
//
// Controller is not safe for concurrent use; the engine serializes every
// call, including puzzle completion callbacks, onto one goroutine.
type Controller struct {
	categories []Category
	byName     map[string]int

	phase   Phase
	active  int // index into categories, valid unless Idle
	index   int
	current puzzle.Puzzle
	ticket  uint64

	observers []Observer
	logger    *slog.Logger
}

// New validates the catalog and returns an idle controller.
//
// A category without a name or puzzles, a duplicate name, or a descriptor
// without a factory is a configuration defect and fails construction.
func New(categories []Category, opts ...Option) (*Controller, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("session: no categories")
	}
	c := &Controller{
		categories: make([]Category, len(categories)),
		byName:     make(map[string]int, len(categories)),
		logger:     slog.Default(),
	}
	for i, cat := range categories {
		if cat.Name == "" {
			return nil, fmt.Errorf("session: category %d has no name", i)
		}
		if _, dup := c.byName[cat.Name]; dup {
			return nil, fmt.Errorf("session: duplicate category %q", cat.Name)
		}
		if len(cat.Puzzles) == 0 {
			return nil, fmt.Errorf("session: category %q has no puzzles", cat.Name)
		}
		for j, d := range cat.Puzzles {
			if d.New == nil {
				return nil, fmt.Errorf("session: category %q puzzle %d has no factory", cat.Name, j)
			}
		}
		c.byName[cat.Name] = i
		c.categories[i] = Category{Name: cat.Name, Puzzles: append([]puzzle.Descriptor(nil), cat.Puzzles...)}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Categories returns the category names in catalog order.
func (c *Controller) Categories() []string {
	names := make([]string, len(c.categories))
	for i, cat := range c.categories {
		names[i] = cat.Name
	}
	return names
}

// State returns the current snapshot.
func (c *Controller) State() State {
	if c.phase == Idle {
		return State{Phase: Idle}
	}
	cat := c.categories[c.active]
	s := State{Phase: c.phase, Category: cat.Name, Index: c.index, Total: len(cat.Puzzles)}
	if c.phase == InProgress {
		s.Puzzle = cat.Puzzles[c.index].Name
	}
	return s
}

// Current returns the mounted puzzle, or nil outside InProgress.
func (c *Controller) Current() puzzle.Puzzle {
	return c.current
}

// SelectCategory starts the named category at its first puzzle.
// Only valid from Idle; switching categories goes through ReturnToMenu.
func (c *Controller) SelectCategory(name string) bool {
	if c.phase != Idle {
		c.reject("select_category", "category", name)
		return false
	}
	i, ok := c.byName[name]
	if !ok {
		c.reject("select_category", "category", name, "reason", "unknown category")
		return false
	}
	c.phase = InProgress
	c.active = i
	c.index = 0
	c.logger.Info("category selected", "category", name, "puzzles", len(c.categories[i].Puzzles))
	c.mount()
	c.emit()
	return true
}

// OnPuzzleComplete advances to the next puzzle, or to Terminal after the
// last one. Only valid in InProgress.
//
// Puzzles normally reach this through the callback passed to Mount; calling
// it directly completes whatever puzzle is current.
func (c *Controller) OnPuzzleComplete() bool {
	if c.phase != InProgress {
		c.reject("puzzle_complete")
		return false
	}
	c.unmount()
	cat := c.categories[c.active]
	if c.index+1 < len(cat.Puzzles) {
		c.index++
		c.logger.Info("puzzle complete", "category", cat.Name, "next", c.index)
		c.mount()
		c.emit()
		return true
	}
	c.phase = Terminal
	c.index = len(cat.Puzzles)
	c.logger.Info("category complete", "category", cat.Name)
	c.emit()
	for _, o := range c.observers {
		o.CategoryCompleted(cat.Name)
	}
	return true
}

// AcknowledgeTerminal dismisses the terminal state. Only valid in Terminal.
func (c *Controller) AcknowledgeTerminal() bool {
	if c.phase != Terminal {
		c.reject("acknowledge")
		return false
	}
	c.toIdle()
	return true
}

// ReturnToMenu abandons the category. Valid in InProgress and Terminal.
// Any pending completion of the current puzzle is cancelled.
func (c *Controller) ReturnToMenu() bool {
	if c.phase == Idle {
		c.reject("return_to_menu")
		return false
	}
	c.logger.Info("returned to menu", "category", c.categories[c.active].Name, "index", c.index)
	c.toIdle()
	return true
}

func (c *Controller) toIdle() {
	c.unmount()
	c.phase = Idle
	c.active = 0
	c.index = 0
	c.emit()
}

func (c *Controller) mount() {
	c.ticket++
	ticket := c.ticket
	p := c.categories[c.active].Puzzles[c.index].New()
	c.current = p
	p.Mount(func() {
		if ticket != c.ticket {
			c.logger.Debug("stale completion ignored", "ticket", ticket)
			return
		}
		c.OnPuzzleComplete()
	})
}

func (c *Controller) unmount() {
	if c.current == nil {
		return
	}
	c.ticket++
	p := c.current
	c.current = nil
	p.Unmount()
}

func (c *Controller) emit() {
	s := c.State()
	for _, o := range c.observers {
		o.StateChanged(s)
	}
}

func (c *Controller) reject(op string, args ...any) {
	c.logger.Debug("transition rejected", append([]any{"op", op, "phase", c.phase.String()}, args...)...)
}

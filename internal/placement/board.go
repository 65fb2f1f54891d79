package placement

import (
	"fmt"
)

// Option configures a Board at construction.
type Option func(*options)

type options struct {
	swap   SwapPolicy
	supply ItemSupply
}

// WithSwapPolicy sets how occupied slots react to a new placement.
// Default: SwapEvict.
func WithSwapPolicy(p SwapPolicy) Option {
	return func(o *options) {
		o.swap = p
	}
}

// WithSupply sets whether placing an item uses it up.
// Default: SupplyConsume.
func WithSupply(s ItemSupply) Option {
	return func(o *options) {
		o.supply = s
	}
}

// Board is the selection/slot state of one puzzle instance.
//
// A Board owns its working copy of the layout; nothing is shared with the
// Layout it was built from or with other boards. The pool is derived from
// the slots: under SupplyConsume an item is available exactly when it
// occupies no slot, so "returning an item to the pool" is simply clearing
// the slot that held it.
//
// Board is not safe for concurrent use.
type Board struct {
	initial Layout
	opts    options

	items     map[ItemID]Item
	slots     []Slot
	slotIndex map[SlotID]int
	cursor    ItemID
}

// NewBoard validates the layout and builds a board from a private copy of it.
//
// The layout is rejected if item or slot ids are empty or duplicated, if a
// slot references an unknown item, or if under SupplyConsume one item
// initially occupies more than one slot.
func NewBoard(layout Layout, opts ...Option) (*Board, error) {
	o := options{swap: SwapEvict, supply: SupplyConsume}
	for _, opt := range opts {
		opt(&o)
	}

	items := make(map[ItemID]Item, len(layout.Items))
	for _, it := range layout.Items {
		if it.ID == "" {
			return nil, fmt.Errorf("item with empty id")
		}
		if _, dup := items[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %q", it.ID)
		}
		items[it.ID] = it
	}

	slotIndex := make(map[SlotID]int, len(layout.Slots))
	placed := make(map[ItemID]SlotID)
	for i, s := range layout.Slots {
		if s.ID == "" {
			return nil, fmt.Errorf("slot with empty id")
		}
		if _, dup := slotIndex[s.ID]; dup {
			return nil, fmt.Errorf("duplicate slot id %q", s.ID)
		}
		slotIndex[s.ID] = i
		if s.Occupant == "" {
			continue
		}
		if _, ok := items[s.Occupant]; !ok {
			return nil, fmt.Errorf("slot %q references unknown item %q", s.ID, s.Occupant)
		}
		if o.supply == SupplyConsume {
			if other, taken := placed[s.Occupant]; taken {
				return nil, fmt.Errorf("item %q occupies both %q and %q", s.Occupant, other, s.ID)
			}
			placed[s.Occupant] = s.ID
		}
	}

	b := &Board{
		initial:   layout.Clone(),
		opts:      o,
		items:     items,
		slotIndex: slotIndex,
	}
	b.Reset()
	return b, nil
}

// SelectItem puts id under the selection cursor, replacing any previous
// selection. It never touches the slots.
func (b *Board) SelectItem(id ItemID) {
	b.cursor = id
}

// Selected returns the item under the cursor, if any.
func (b *Board) Selected() (ItemID, bool) {
	return b.cursor, b.cursor != ""
}

// ClearSelection empties the cursor.
func (b *Board) ClearSelection() {
	b.cursor = ""
}

// ActivateSlot applies the selection/slot protocol to one slot.
//
// With an item selected the item is placed, subject to the supply and swap
// policies, and the cursor is cleared on success (SwapToCursor leaves the
// evicted occupant selected instead). With an empty cursor an occupied slot
// is emptied, and an empty slot is left alone.
func (b *Board) ActivateSlot(id SlotID) Outcome {
	i, ok := b.slotIndex[id]
	if !ok {
		return Ignored
	}
	slot := &b.slots[i]

	if b.cursor == "" {
		if slot.Occupant == "" {
			return Ignored
		}
		slot.Occupant = ""
		return Removed
	}

	item := b.cursor
	if _, known := b.items[item]; !known {
		return Rejected
	}
	if slot.Occupant == item {
		b.cursor = ""
		return Ignored
	}
	if !b.Available(item) {
		return Rejected
	}

	if slot.Occupant == "" {
		slot.Occupant = item
		b.cursor = ""
		return Placed
	}

	switch b.opts.swap {
	case SwapReject:
		return Rejected
	case SwapToCursor:
		prev := slot.Occupant
		slot.Occupant = item
		b.cursor = prev
		return Swapped
	default:
		slot.Occupant = item
		b.cursor = ""
		return Swapped
	}
}

// Available reports whether id can currently be placed.
func (b *Board) Available(id ItemID) bool {
	if _, ok := b.items[id]; !ok {
		return false
	}
	if b.opts.supply == SupplyReuse {
		return true
	}
	for _, s := range b.slots {
		if s.Occupant == id {
			return false
		}
	}
	return true
}

// Pool returns the items that can currently be placed, in layout order.
func (b *Board) Pool() []Item {
	pool := make([]Item, 0, len(b.initial.Items))
	for _, it := range b.initial.Items {
		if b.Available(it.ID) {
			pool = append(pool, it)
		}
	}
	return pool
}

// Slots returns a copy of the current slots in layout order.
func (b *Board) Slots() []Slot {
	out := make([]Slot, len(b.slots))
	copy(out, b.slots)
	return out
}

// Occupant returns the item currently held by a slot.
func (b *Board) Occupant(id SlotID) (Item, bool) {
	i, ok := b.slotIndex[id]
	if !ok || b.slots[i].Occupant == "" {
		return Item{}, false
	}
	return b.items[b.slots[i].Occupant], true
}

// Item looks up an item by id.
func (b *Board) Item(id ItemID) (Item, bool) {
	it, ok := b.items[id]
	return it, ok
}

// Filled reports whether every slot has an occupant.
func (b *Board) Filled() bool {
	for _, s := range b.slots {
		if s.Occupant == "" {
			return false
		}
	}
	return true
}

// Snapshot returns a read-only view of the current assignment.
func (b *Board) Snapshot() Assignment {
	a := Assignment{Placements: make([]Placement, len(b.slots))}
	for i, s := range b.slots {
		p := Placement{Slot: s.ID, Item: s.Occupant}
		if s.Occupant != "" {
			p.Value = b.items[s.Occupant].Value
		}
		a.Placements[i] = p
	}
	return a
}

// Evaluate runs a predicate against the current assignment.
// The board is not modified.
func (b *Board) Evaluate(p Predicate) Verdict {
	snap := b.Snapshot()
	v := p(snap)
	v.Filled = snap.Filled()
	return v
}

// Reset restores the initial layout and clears the cursor.
func (b *Board) Reset() {
	b.slots = make([]Slot, len(b.initial.Slots))
	copy(b.slots, b.initial.Slots)
	b.cursor = ""
}

// SwapPolicy returns the board's swap policy.
func (b *Board) SwapPolicy() SwapPolicy {
	return b.opts.swap
}

// Supply returns the board's supply mode.
func (b *Board) Supply() ItemSupply {
	return b.opts.supply
}

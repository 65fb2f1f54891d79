package placement

import "fmt"

// ItemID identifies one placeable item instance.
//
// Items are tracked by identity, never by display value: two items showing
// the same number are distinct and stay distinct through evictions.
type ItemID string

// SlotID identifies one placement target.
type SlotID string

// Item is a placeable unit. Value is what the child sees and what
// value-based predicates compare.
type Item struct {
	ID    ItemID `json:"id"`
	Value string `json:"value"`
}

// Slot is a placement target. An empty Occupant means the slot is empty.
type Slot struct {
	ID       SlotID `json:"id"`
	Label    string `json:"label,omitempty"`
	Occupant ItemID `json:"occupant,omitempty"`
}

// Layout is the immutable initial configuration of a board.
//
// Items lists every item the board knows about, in display order. Slots lists
// every slot in display order together with its initial occupant.
type Layout struct {
	Items []Item
	Slots []Slot
}

// Clone returns a deep copy of the layout.
func (l Layout) Clone() Layout {
	out := Layout{
		Items: make([]Item, len(l.Items)),
		Slots: make([]Slot, len(l.Slots)),
	}
	copy(out.Items, l.Items)
	copy(out.Slots, l.Slots)
	return out
}

// SwapPolicy decides what happens when an item is placed into an occupied
// slot.
type SwapPolicy int

const (
	// SwapEvict returns the previous occupant to the pool.
	SwapEvict SwapPolicy = iota
	// SwapReject refuses the placement and leaves the board unchanged.
	SwapReject
	// SwapToCursor hands the previous occupant back as the new selection.
	SwapToCursor
)

// String returns the catalog spelling of the policy.
func (p SwapPolicy) String() string {
	switch p {
	case SwapEvict:
		return "evict"
	case SwapReject:
		return "reject"
	case SwapToCursor:
		return "cursor"
	default:
		return fmt.Sprintf("SwapPolicy(%d)", int(p))
	}
}

// ParseSwapPolicy parses the catalog spelling of a swap policy.
func ParseSwapPolicy(s string) (SwapPolicy, error) {
	switch s {
	case "evict":
		return SwapEvict, nil
	case "reject":
		return SwapReject, nil
	case "cursor":
		return SwapToCursor, nil
	default:
		return 0, fmt.Errorf("unknown swap policy %q", s)
	}
}

// ItemSupply decides whether placing an item uses it up.
type ItemSupply int

const (
	// SupplyConsume removes an item from the pool while it occupies a slot.
	// An item can occupy at most one slot.
	SupplyConsume ItemSupply = iota
	// SupplyReuse treats items as a palette: one item may fill many slots.
	SupplyReuse
)

// String returns the catalog spelling of the supply mode.
func (s ItemSupply) String() string {
	switch s {
	case SupplyConsume:
		return "consume"
	case SupplyReuse:
		return "reuse"
	default:
		return fmt.Sprintf("ItemSupply(%d)", int(s))
	}
}

// ParseItemSupply parses the catalog spelling of a supply mode.
func ParseItemSupply(s string) (ItemSupply, error) {
	switch s {
	case "consume":
		return SupplyConsume, nil
	case "reuse":
		return SupplyReuse, nil
	default:
		return 0, fmt.Errorf("unknown item supply %q", s)
	}
}

// Outcome reports what ActivateSlot did.
type Outcome int

const (
	// Ignored means nothing changed (empty cursor on an empty slot, unknown slot).
	Ignored Outcome = iota
	// Placed means the selected item went into an empty slot.
	Placed
	// Swapped means the selected item replaced a previous occupant.
	Swapped
	// Removed means the occupant was taken out by activating with an empty cursor.
	Removed
	// Rejected means the placement was refused and nothing changed.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Ignored:
		return "ignored"
	case Placed:
		return "placed"
	case Swapped:
		return "swapped"
	case Removed:
		return "removed"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Changed reports whether the outcome modified the slot assignment.
func (o Outcome) Changed() bool {
	return o == Placed || o == Swapped || o == Removed
}

package placement

import "golang.org/x/text/unicode/norm"

// Placement is one slot of an assignment snapshot.
// Item is empty when the slot is empty.
type Placement struct {
	Slot  SlotID `json:"slot"`
	Item  ItemID `json:"item,omitempty"`
	Value string `json:"value,omitempty"`
}

// Assignment is an immutable snapshot of which item sits in which slot.
type Assignment struct {
	Placements []Placement `json:"placements"`
}

// Lookup returns the placement for a slot.
func (a Assignment) Lookup(slot SlotID) (Placement, bool) {
	for _, p := range a.Placements {
		if p.Slot == slot {
			return p, true
		}
	}
	return Placement{}, false
}

// Filled reports whether every slot in the snapshot is occupied.
func (a Assignment) Filled() bool {
	for _, p := range a.Placements {
		if p.Item == "" {
			return false
		}
	}
	return true
}

// Verdict is the result of evaluating a predicate.
//
// Slots carries per-slot correctness for the slots the predicate judged.
// Filled is set by Board.Evaluate so the presentation can tell "everything
// placed but wrong" apart from "not finished yet".
type Verdict struct {
	Correct bool            `json:"correct"`
	Slots   map[SlotID]bool `json:"slots,omitempty"`
	Filled  bool            `json:"filled"`
}

// Predicate is a pure correctness check over an assignment snapshot.
type Predicate func(Assignment) Verdict

// MatchValues builds a predicate that requires every keyed slot to hold an
// item whose value equals the expected value. Values are compared after NFC
// normalisation. Slots absent from the key are not judged.
func MatchValues(key map[SlotID]string) Predicate {
	expected := make(map[SlotID]string, len(key))
	for slot, v := range key {
		expected[slot] = norm.NFC.String(v)
	}
	return func(a Assignment) Verdict {
		v := Verdict{Correct: true, Slots: make(map[SlotID]bool, len(expected))}
		for slot, want := range expected {
			p, ok := a.Lookup(slot)
			good := ok && p.Item != "" && norm.NFC.String(p.Value) == want
			v.Slots[slot] = good
			if !good {
				v.Correct = false
			}
		}
		return v
	}
}

// MatchItems builds a predicate that requires every keyed slot to hold
// exactly the given item instance.
func MatchItems(key map[SlotID]ItemID) Predicate {
	expected := make(map[SlotID]ItemID, len(key))
	for slot, id := range key {
		expected[slot] = id
	}
	return func(a Assignment) Verdict {
		v := Verdict{Correct: true, Slots: make(map[SlotID]bool, len(expected))}
		for slot, want := range expected {
			p, ok := a.Lookup(slot)
			good := ok && p.Item == want
			v.Slots[slot] = good
			if !good {
				v.Correct = false
			}
		}
		return v
	}
}

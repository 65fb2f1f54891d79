package catalog

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/tulen-chik/reshalka/internal/placement"
	"github.com/tulen-chik/reshalka/internal/puzzle"
	"github.com/tulen-chik/reshalka/internal/session"
)

// answerSlot is the slot created by the answers/correct shorthand.
const answerSlot = "answer"

// Category is a compiled category.
type Category struct {
	Name    string
	Puzzles []puzzle.Definition
}

// Catalog is a validated, compiled catalog.
type Catalog struct {
	// Source names where the catalog came from (a path or "builtin").
	Source string
	// Fingerprint identifies the catalog bytes; see journal.Fingerprint.
	Fingerprint string
	Categories  []Category
}

// Names returns the category names in play order.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// Build binds every puzzle to env and returns the session categories.
func (c *Catalog) Build(env puzzle.Env) []session.Category {
	out := make([]session.Category, len(c.Categories))
	for i, cat := range c.Categories {
		sc := session.Category{Name: cat.Name, Puzzles: make([]puzzle.Descriptor, len(cat.Puzzles))}
		for j, def := range cat.Puzzles {
			sc.Puzzles[j] = def.Descriptor(env)
		}
		out[i] = sc
	}
	return out
}

// Compile validates f and turns it into puzzle definitions.
// All problems are returned together as ValidationErrors.
func Compile(f File) ([]Category, error) {
	var errs ValidationErrors
	if len(f.Categories) == 0 {
		errs = append(errs, ValidationError{Field: "categories", Code: ErrNoCategories, Message: "at least one category is required"})
		return nil, errs
	}

	seen := make(map[string]bool, len(f.Categories))
	out := make([]Category, 0, len(f.Categories))
	for i, cs := range f.Categories {
		field := fmt.Sprintf("categories[%d]", i)
		name := norm.NFC.String(cs.Name)
		switch {
		case name == "":
			errs = append(errs, ValidationError{Field: field + ".name", Code: ErrCategoryNoName, Message: "name is required"})
		case seen[name]:
			errs = append(errs, ValidationError{Field: field + ".name", Code: ErrDuplicateCategory, Message: fmt.Sprintf("duplicate category %q", name)})
		}
		seen[name] = true
		if len(cs.Puzzles) == 0 {
			errs = append(errs, ValidationError{Field: field + ".puzzles", Code: ErrCategoryEmpty, Message: "at least one puzzle is required"})
		}

		cat := Category{Name: name}
		for j, ps := range cs.Puzzles {
			def, perrs := compilePuzzle(fmt.Sprintf("%s.puzzles[%d]", field, j), ps)
			errs = append(errs, perrs...)
			if len(perrs) == 0 {
				cat.Puzzles = append(cat.Puzzles, def)
			}
		}
		out = append(out, cat)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func compilePuzzle(field string, ps PuzzleSpec) (puzzle.Definition, []ValidationError) {
	var errs []ValidationError
	fail := func(sub, code, format string, args ...any) {
		f := field
		if sub != "" {
			f += "." + sub
		}
		errs = append(errs, ValidationError{Field: f, Code: code, Message: fmt.Sprintf(format, args...)})
	}

	if ps.Name == "" {
		fail("name", ErrPuzzleNoName, "name is required")
	}
	rules, ok := kinds[ps.Kind]
	if !ok {
		fail("kind", ErrUnknownKind, "unknown kind %q (want one of %v)", ps.Kind, Kinds())
		return puzzle.Definition{}, errs
	}

	layout, key, keyItems := expandShorthand(ps)

	if len(layout.Slots) == 0 {
		fail("slots", ErrNoSlots, "at least one slot is required")
	}
	items := make(map[placement.ItemID]bool, len(layout.Items))
	for i, it := range layout.Items {
		if items[it.ID] {
			fail(fmt.Sprintf("items[%d]", i), ErrDuplicateItem, "duplicate item %q", it.ID)
		}
		items[it.ID] = true
	}
	slots := make(map[placement.SlotID]bool, len(layout.Slots))
	for i, s := range layout.Slots {
		if s.ID == "" {
			fail(fmt.Sprintf("slots[%d].id", i), ErrNoSlots, "slot id is required")
		}
		if slots[s.ID] {
			fail(fmt.Sprintf("slots[%d]", i), ErrDuplicateSlot, "duplicate slot %q", s.ID)
		}
		slots[s.ID] = true
		if s.Occupant != "" && !items[s.Occupant] {
			fail(fmt.Sprintf("slots[%d].item", i), ErrUnknownItem, "unknown item %q", s.Occupant)
		}
	}

	if len(key) == 0 && len(keyItems) == 0 {
		fail("key", ErrNoKey, "an answer key is required")
	}
	for _, id := range sortedKeys(key) {
		if !slots[placement.SlotID(id)] {
			fail("key."+id, ErrKeyUnknownSlot, "unknown slot %q", id)
		}
	}
	for _, id := range sortedKeys(keyItems) {
		if !slots[placement.SlotID(id)] {
			fail("key_items."+id, ErrKeyUnknownSlot, "unknown slot %q", id)
		}
		if !items[placement.ItemID(keyItems[id])] {
			fail("key_items."+id, ErrUnknownItem, "unknown item %q", keyItems[id])
		}
	}

	if ps.Supply != "" {
		s, err := placement.ParseItemSupply(ps.Supply)
		if err != nil {
			fail("supply", ErrBadPolicy, "%v", err)
		}
		rules.supply = s
	}
	if ps.Swap != "" {
		s, err := placement.ParseSwapPolicy(ps.Swap)
		if err != nil {
			fail("swap", ErrBadPolicy, "%v", err)
		}
		rules.swap = s
	}
	if ps.Retry != "" {
		r, err := puzzle.ParseRetryPolicy(ps.Retry)
		if err != nil {
			fail("retry", ErrBadPolicy, "%v", err)
		}
		rules.retry = r
	}
	if ps.RequireFilled != nil {
		rules.requireFilled = *ps.RequireFilled
	}
	if ps.AutoCheck != nil {
		rules.autoCheck = *ps.AutoCheck
	}
	if len(errs) > 0 {
		return puzzle.Definition{}, errs
	}

	def := puzzle.Definition{
		Name:          norm.NFC.String(ps.Name),
		Kind:          ps.Kind,
		Prompt:        ps.Prompt,
		Layout:        layout,
		Predicate:     predicate(key, keyItems),
		Board:         []placement.Option{placement.WithSupply(rules.supply), placement.WithSwapPolicy(rules.swap)},
		Retry:         rules.retry,
		RequireFilled: rules.requireFilled,
		AutoCheck:     rules.autoCheck,
	}
	if err := def.Validate(); err != nil {
		fail("", ErrBoard, "%v", err)
		return puzzle.Definition{}, errs
	}
	return def, nil
}

// expandShorthand resolves answers/correct and pre-filled slot values into
// a plain layout.
func expandShorthand(ps PuzzleSpec) (placement.Layout, map[string]string, map[string]string) {
	var layout placement.Layout
	key := make(map[string]string, len(ps.Key)+1)
	for k, v := range ps.Key {
		key[k] = v
	}

	for _, it := range ps.Items {
		layout.Items = append(layout.Items, placement.Item{ID: placement.ItemID(it.ID), Value: norm.NFC.String(it.Value)})
	}
	for _, a := range ps.Answers {
		layout.Items = append(layout.Items, placement.Item{ID: placement.ItemID(a), Value: norm.NFC.String(a)})
	}
	if len(ps.Answers) > 0 && len(ps.Slots) == 0 {
		layout.Slots = append(layout.Slots, placement.Slot{ID: answerSlot})
	}
	if ps.Correct != "" {
		key[answerSlot] = ps.Correct
	}

	for _, s := range ps.Slots {
		slot := placement.Slot{ID: placement.SlotID(s.ID), Label: s.Label, Occupant: placement.ItemID(s.Item)}
		if s.Value != "" && s.Item == "" {
			id := placement.ItemID(s.ID + ":init")
			layout.Items = append(layout.Items, placement.Item{ID: id, Value: norm.NFC.String(s.Value)})
			slot.Occupant = id
		}
		layout.Slots = append(layout.Slots, slot)
	}
	return layout, key, ps.KeyItems
}

func predicate(key, keyItems map[string]string) placement.Predicate {
	if len(keyItems) > 0 {
		m := make(map[placement.SlotID]placement.ItemID, len(keyItems))
		for s, it := range keyItems {
			m[placement.SlotID(s)] = placement.ItemID(it)
		}
		byItem := placement.MatchItems(m)
		if len(key) == 0 {
			return byItem
		}
		byValue := valuePredicate(key)
		return func(a placement.Assignment) placement.Verdict {
			return combine(byValue(a), byItem(a))
		}
	}
	return valuePredicate(key)
}

func valuePredicate(key map[string]string) placement.Predicate {
	m := make(map[placement.SlotID]string, len(key))
	for s, v := range key {
		m[placement.SlotID(s)] = v
	}
	return placement.MatchValues(m)
}

// combine requires both verdicts; a slot checked by both must pass both.
func combine(a, b placement.Verdict) placement.Verdict {
	out := placement.Verdict{Correct: a.Correct && b.Correct, Slots: make(map[placement.SlotID]bool, len(a.Slots)+len(b.Slots))}
	for s, ok := range a.Slots {
		out.Slots[s] = ok
	}
	for s, ok := range b.Slots {
		if prev, seen := out.Slots[s]; seen {
			ok = ok && prev
		}
		out.Slots[s] = ok
	}
	return out
}

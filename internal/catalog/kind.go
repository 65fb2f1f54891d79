package catalog

import (
	"sort"

	"github.com/tulen-chik/reshalka/internal/placement"
	"github.com/tulen-chik/reshalka/internal/puzzle"
)

// kindRules are the placement rules a puzzle kind starts from.
type kindRules struct {
	supply        placement.ItemSupply
	swap          placement.SwapPolicy
	retry         puzzle.RetryPolicy
	requireFilled bool
	autoCheck     bool
}

var kinds = map[string]kindRules{
	// One question, a row of answer buttons.
	"choice": {supply: placement.SupplyReuse, swap: placement.SwapEvict, retry: puzzle.RetryReset, requireFilled: true},
	// Grid with pre-filled cells and a palette of shapes.
	"pattern": {supply: placement.SupplyReuse, swap: placement.SwapEvict, retry: puzzle.RetryReset, requireFilled: true},
	// Number line with gaps; checks itself once every gap is filled.
	"sequence": {supply: placement.SupplyConsume, swap: placement.SwapEvict, retry: puzzle.RetryReset, autoCheck: true},
	// Items matched to descriptions; a displaced item goes back under the cursor.
	"match": {supply: placement.SupplyConsume, swap: placement.SwapToCursor, retry: puzzle.RetryReset},
	// Numbers assigned to pictures, each number once.
	"order": {supply: placement.SupplyConsume, swap: placement.SwapEvict, retry: puzzle.RetryReset, requireFilled: true},
	// Every item marked with one of a few classes; wrong marks stay editable.
	"classify": {supply: placement.SupplyReuse, swap: placement.SwapEvict, retry: puzzle.RetryKeep},
}

// Kinds returns the known puzzle kinds, sorted.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

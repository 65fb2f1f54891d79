// Package placement implements the pick-then-place interaction shared by the
// matching, classification, pattern and sequencing puzzles.
//
// A Board holds a set of items, a set of slots and a single selection cursor.
// The child selects an item, then activates a slot to commit it there.
// Activating an occupied slot with nothing selected takes the occupant back
// out, so a placement can be undone without a separate eraser tool.
//
// Each puzzle decides the legality rules at construction:
//
//   - ItemSupply: whether placing an item uses it up (SupplyConsume) or the
//     items form a reusable palette (SupplyReuse).
//   - SwapPolicy: what placing into an occupied slot does (SwapEvict,
//     SwapReject, SwapToCursor).
//
// Correctness is never checked implicitly. A Predicate is a pure function
// over an Assignment snapshot, run through Board.Evaluate.
package placement

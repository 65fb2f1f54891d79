// Package catalog loads category catalogs and compiles them into puzzle
// definitions.
//
// A catalog is a YAML or CUE file listing categories in play order, each
// with an ordered list of puzzles. Every puzzle has a kind, which fixes the
// defaults for the placement rules (supply, swap, retry, check mode); any of
// them can be overridden per puzzle.
//
//	categories:
//	  - name: Математика
//	    puzzles:
//	      - name: Посчитай яблоки
//	        kind: choice
//	        answers: ["7", "8", "3"]
//	        correct: "7"
//
// Problems are reported all at once as ValidationErrors with stable codes
// (C100-C199) rather than failing on the first one.
package catalog

package catalog

// File is the on-disk catalog shape shared by the YAML and CUE loaders.
type File struct {
	Categories []CategorySpec `yaml:"categories" json:"categories"`
}

// CategorySpec is one category in play order.
type CategorySpec struct {
	Name    string       `yaml:"name" json:"name"`
	Puzzles []PuzzleSpec `yaml:"puzzles" json:"puzzles"`
}

// PuzzleSpec describes one puzzle.
//
// Answers and Correct are shorthand for a single-slot choice: each answer
// becomes an item and the slot "answer" must hold Correct.
type PuzzleSpec struct {
	Name   string `yaml:"name" json:"name"`
	Kind   string `yaml:"kind" json:"kind"`
	Prompt string `yaml:"prompt,omitempty" json:"prompt,omitempty"`

	Answers []string `yaml:"answers,omitempty" json:"answers,omitempty"`
	Correct string   `yaml:"correct,omitempty" json:"correct,omitempty"`

	Items []ItemSpec `yaml:"items,omitempty" json:"items,omitempty"`
	Slots []SlotSpec `yaml:"slots,omitempty" json:"slots,omitempty"`

	// Key maps slot id to the expected item value.
	Key map[string]string `yaml:"key,omitempty" json:"key,omitempty"`
	// KeyItems maps slot id to the expected item id, for puzzles where
	// two items share a value but only one is right.
	KeyItems map[string]string `yaml:"key_items,omitempty" json:"key_items,omitempty"`

	Retry         string `yaml:"retry,omitempty" json:"retry,omitempty"`
	Swap          string `yaml:"swap,omitempty" json:"swap,omitempty"`
	Supply        string `yaml:"supply,omitempty" json:"supply,omitempty"`
	RequireFilled *bool  `yaml:"require_filled,omitempty" json:"require_filled,omitempty"`
	AutoCheck     *bool  `yaml:"auto_check,omitempty" json:"auto_check,omitempty"`
}

// ItemSpec is a placeable item.
type ItemSpec struct {
	ID    string `yaml:"id" json:"id"`
	Value string `yaml:"value" json:"value"`
}

// SlotSpec is a placement target.
//
// Item pre-fills the slot with a declared item. Value pre-fills it with a
// fresh item "<slot>:init" carrying that value, which can be evicted back to
// the pool like any other item.
type SlotSpec struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
	Item  string `yaml:"item,omitempty" json:"item,omitempty"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

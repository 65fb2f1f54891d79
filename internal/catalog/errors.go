package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error codes (C100-C199).
const (
	ErrSchema            = "C100" // CUE schema violation or unreadable file
	ErrNoCategories      = "C101" // catalog has no categories
	ErrCategoryNoName    = "C102" // category name is empty
	ErrCategoryEmpty     = "C103" // category has no puzzles
	ErrDuplicateCategory = "C104" // category name used twice
	ErrPuzzleNoName      = "C105" // puzzle name is empty
	ErrUnknownKind       = "C106" // puzzle kind not recognised
	ErrNoSlots           = "C107" // puzzle has no slots
	ErrDuplicateSlot     = "C108" // slot id used twice in a puzzle
	ErrDuplicateItem     = "C109" // item id used twice in a puzzle
	ErrKeyUnknownSlot    = "C110" // key references a slot that does not exist
	ErrUnknownItem       = "C111" // slot or key references an undeclared item
	ErrNoKey             = "C112" // puzzle has no answer key
	ErrBadPolicy         = "C113" // unparseable retry/swap/supply value
	ErrBoard             = "C114" // layout rejected by the placement board
)

// ValidationError is one catalog problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in a catalog.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (es ValidationErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// IsValidation reports whether err carries catalog validation errors.
func IsValidation(err error) bool {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return true
	}
	var ve ValidationError
	return errors.As(err, &ve)
}

// Problems returns the validation errors carried by err, in order.
func Problems(err error) []ValidationError {
	var ves ValidationErrors
	if errors.As(err, &ves) {
		return ves
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return []ValidationError{ve}
	}
	return nil
}

// Codes returns the codes carried by err, in order.
func Codes(err error) []string {
	var codes []string
	for _, p := range Problems(err) {
		codes = append(codes, p.Code)
	}
	return codes
}

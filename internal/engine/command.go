package engine

import (
	"fmt"

	"github.com/tulen-chik/reshalka/internal/placement"
	"github.com/tulen-chik/reshalka/internal/puzzle"
	"github.com/tulen-chik/reshalka/internal/session"
)

// CommandKind names a player input.
type CommandKind string

const (
	CmdSelectCategory CommandKind = "select_category"
	CmdSelectItem     CommandKind = "select_item"
	CmdActivateSlot   CommandKind = "activate_slot"
	CmdMark           CommandKind = "mark"
	CmdCheck          CommandKind = "check"
	CmdRetry          CommandKind = "retry"
	CmdReturnToMenu   CommandKind = "return_to_menu"
	CmdAcknowledge    CommandKind = "acknowledge"
)

// Command is one player input. Only the fields its kind needs are set.
type Command struct {
	Kind     CommandKind `json:"kind"`
	Category string      `json:"category,omitempty"`
	Item     string      `json:"item,omitempty"`
	Slot     string      `json:"slot,omitempty"`
}

func SelectCategory(name string) Command { return Command{Kind: CmdSelectCategory, Category: name} }
func SelectItem(id string) Command       { return Command{Kind: CmdSelectItem, Item: id} }
func ActivateSlot(id string) Command     { return Command{Kind: CmdActivateSlot, Slot: id} }
func Mark(slot, item string) Command     { return Command{Kind: CmdMark, Slot: slot, Item: item} }
func Check() Command                     { return Command{Kind: CmdCheck} }
func Retry() Command                     { return Command{Kind: CmdRetry} }
func ReturnToMenu() Command              { return Command{Kind: CmdReturnToMenu} }
func Acknowledge() Command               { return Command{Kind: CmdAcknowledge} }

// Validate checks that the kind is known and its arguments are present.
func (c Command) Validate() error {
	missing := func(field string) error {
		return &Error{
			Code:    ErrCodeMissingArgument,
			Message: fmt.Sprintf("%s requires %s", c.Kind, field),
			Command: c.Kind,
		}
	}
	switch c.Kind {
	case CmdSelectCategory:
		if c.Category == "" {
			return missing("category")
		}
	case CmdSelectItem:
		if c.Item == "" {
			return missing("item")
		}
	case CmdActivateSlot:
		if c.Slot == "" {
			return missing("slot")
		}
	case CmdMark:
		if c.Slot == "" {
			return missing("slot")
		}
		if c.Item == "" {
			return missing("item")
		}
	case CmdCheck, CmdRetry, CmdReturnToMenu, CmdAcknowledge:
	default:
		return &Error{
			Code:    ErrCodeUnknownCommand,
			Message: fmt.Sprintf("unknown command %q", c.Kind),
			Command: c.Kind,
		}
	}
	return nil
}

// Payload is the journal form of the command.
func (c Command) Payload() map[string]any {
	p := map[string]any{"kind": string(c.Kind)}
	if c.Category != "" {
		p["category"] = c.Category
	}
	if c.Item != "" {
		p["item"] = c.Item
	}
	if c.Slot != "" {
		p["slot"] = c.Slot
	}
	return p
}

// CommandFromPayload rebuilds a command from its journal form.
func CommandFromPayload(p map[string]any) (Command, error) {
	str := func(key string) string {
		s, _ := p[key].(string)
		return s
	}
	c := Command{
		Kind:     CommandKind(str("kind")),
		Category: str("category"),
		Item:     str("item"),
		Slot:     str("slot"),
	}
	return c, c.Validate()
}

// Result is the engine's reply to a command.
//
// Accepted is false when the command was a no-op in the current state:
// a rejected transition, an input on a locked puzzle, or a puzzle command
// with no puzzle on screen.
type Result struct {
	Accepted bool               `json:"accepted"`
	Outcome  string             `json:"outcome,omitempty"`
	Check    puzzle.CheckStatus `json:"check,omitempty"`
	Verdict  *placement.Verdict `json:"verdict,omitempty"`
	State    session.State      `json:"state"`
}

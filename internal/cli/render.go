package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/tulen-chik/reshalka/internal/engine"
	"github.com/tulen-chik/reshalka/internal/placement"
	"github.com/tulen-chik/reshalka/internal/puzzle"
	"github.com/tulen-chik/reshalka/internal/session"
)

func renderState(s session.State) string {
	switch s.Phase {
	case session.Idle:
		return "Menu: choose a category (categories, select <n>)"
	case session.InProgress:
		return fmt.Sprintf("[%s %d/%d] %s", s.Category, s.Index+1, s.Total, s.Puzzle)
	case session.Terminal:
		return fmt.Sprintf("Well done! Category %q is complete. Type ok to go back to the menu.", s.Category)
	default:
		return s.Phase.String()
	}
}

func renderPuzzle(w io.Writer, v *puzzle.View) {
	fmt.Fprintf(w, "%s (%s, %s)\n", v.Name, v.Kind, v.Status)
	if v.Prompt != "" {
		for _, line := range strings.Split(v.Prompt, "\n") {
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	width := 0
	for _, s := range v.Slots {
		width = max(width, len([]rune(slotTitle(s))))
	}
	fmt.Fprintln(w, "  slots:")
	for _, s := range v.Slots {
		value, ok := v.Values[string(s.ID)]
		if !ok {
			value = "_"
		}
		title := slotTitle(s)
		pad := strings.Repeat(" ", width-len([]rune(title)))
		fmt.Fprintf(w, "    %s%s  %s%s\n", title, pad, value, verdictMark(v.Verdict, s.ID))
	}

	items := make([]string, len(v.Pool))
	for i, it := range v.Pool {
		items[i] = itemTitle(it)
		if it.ID == v.Selected {
			items[i] = "*" + items[i]
		}
	}
	fmt.Fprintf(w, "  pool: %s\n", strings.Join(items, "  "))
}

func slotTitle(s placement.Slot) string {
	if s.Label == "" || s.Label == string(s.ID) {
		return string(s.ID)
	}
	return fmt.Sprintf("%s (%s)", s.ID, s.Label)
}

func itemTitle(it placement.Item) string {
	if string(it.ID) == it.Value {
		return it.Value
	}
	return fmt.Sprintf("%s=%s", it.ID, it.Value)
}

func verdictMark(v *placement.Verdict, id placement.SlotID) string {
	if v == nil {
		return ""
	}
	ok, keyed := v.Slots[id]
	switch {
	case !keyed:
		return ""
	case ok:
		return "  ok"
	default:
		return "  x"
	}
}

func renderResult(res engine.Result) string {
	switch {
	case res.Check == puzzle.CheckCorrect:
		return "Correct!"
	case res.Check == puzzle.CheckIncorrect && res.Verdict != nil && res.Verdict.Filled:
		return "Almost! Everything is placed, but something is wrong. Type retry."
	case res.Check == puzzle.CheckIncorrect:
		return "Not quite. Type retry to try again."
	case res.Check == puzzle.CheckNotReady:
		return "Fill every slot first."
	case res.Outcome != "":
		return res.Outcome
	case !res.Accepted:
		return "ignored"
	default:
		return "ok"
	}
}

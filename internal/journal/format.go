package journal

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a record as one line: seq, kind, then the payload fields
// in key order.
//
//	4 state category=Счёт index=1 phase=in_progress puzzle=gaps total=2
func Format(r Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", r.Seq, r.Kind)
	for _, k := range sortedKeys(r.Payload) {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		formatValue(&b, r.Payload[k])
	}
	return b.String()
}

func formatValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case string:
		if val == "" || strings.ContainsAny(val, " \t\n\"=,{}[]") {
			b.WriteString(strconv.Quote(val))
		} else {
			b.WriteString(val)
		}
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		formatValue(b, items)
	case []any:
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			formatValue(b, item)
		}
		b.WriteByte(']')
	case map[string]bool:
		m := make(map[string]any, len(val))
		for k, x := range val {
			m[k] = x
		}
		formatValue(b, m)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, x := range val {
			m[k] = x
		}
		formatValue(b, m)
	case map[string]any:
		b.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			formatValue(b, val[k])
		}
		b.WriteByte('}')
	default:
		fmt.Fprint(b, val)
	}
}

// FormatAll renders records one per line, skipping the kinds in skip.
func FormatAll(records []Record, skip ...Kind) string {
	var b strings.Builder
	for _, r := range records {
		if containsKind(skip, r.Kind) {
			continue
		}
		b.WriteString(Format(r))
		b.WriteByte('\n')
	}
	return b.String()
}

func containsKind(kinds []Kind, k Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}

package journal

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process journal. Scenarios and replay write to it when
// there is no database, and it doubles as a test fake for the store.
//
// Like the store, Append is idempotent on record ID and refuses a second,
// different record at the same (run, seq).
type Memory struct {
	mu      sync.Mutex
	records []Record
	byID    map[string]struct{}
	bySeq   map[string]map[int64]string
}

// NewMemory returns an empty journal.
func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[string]struct{}),
		bySeq: make(map[string]map[int64]string),
	}
}

// Append stores rec.
func (m *Memory) Append(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !rec.Kind.Valid() {
		return fmt.Errorf("append: unknown record kind %q", rec.Kind)
	}
	if err := rec.Verify(); err != nil {
		return fmt.Errorf("append: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[rec.ID]; ok {
		return nil
	}
	seqs := m.bySeq[rec.Run]
	if seqs == nil {
		seqs = make(map[int64]string)
		m.bySeq[rec.Run] = seqs
	}
	if other, ok := seqs[rec.Seq]; ok {
		return fmt.Errorf("append: run %s seq %d already holds record %s", rec.Run, rec.Seq, other)
	}
	seqs[rec.Seq] = rec.ID
	m.byID[rec.ID] = struct{}{}
	m.records = append(m.records, rec)
	return nil
}

// Records returns every record in append order.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

// Len returns the number of stored records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

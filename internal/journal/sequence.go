package journal

import "sync/atomic"

// Sequence stamps the records of one run.
//
// Seqs start at 1 and have no gaps while every payload is accepted. A
// rejected payload still spends its seq, so the hole shows up in a trace.
// The same run token and the same inputs give the same seqs, which is what
// makes replay comparable record by record.
type Sequence struct {
	run  string
	last atomic.Int64
}

// NewSequence starts the sequence of run. Nothing has been stamped yet, so
// Last reports 0.
func NewSequence(run string) *Sequence {
	return &Sequence{run: run}
}

// Run returns the run token every record is stamped with.
func (s *Sequence) Run() string {
	return s.run
}

// Last returns the seq of the most recent stamp, or 0.
func (s *Sequence) Last() int64 {
	return s.last.Load()
}

// Record builds the next record of the run.
func (s *Sequence) Record(kind Kind, payload map[string]any) (Record, error) {
	return NewRecord(s.run, s.last.Add(1), kind, payload)
}

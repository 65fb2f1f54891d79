package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/tulen-chik/reshalka/internal/catalog"
	"github.com/tulen-chik/reshalka/internal/journal"
	"github.com/tulen-chik/reshalka/internal/testutil"
)

// Mismatch is a journal position where replay disagrees with the record.
// Want or Got is empty when one side has no record at that seq.
type Mismatch struct {
	Seq  int64  `json:"seq"`
	Want string `json:"want,omitempty"`
	Got  string `json:"got,omitempty"`
}

// ReplayReport summarizes a replay.
type ReplayReport struct {
	Run            string     `json:"run"`
	Commands       int        `json:"commands"`
	Timers         int        `json:"timers"`
	Compared       int        `json:"compared"`
	CatalogChanged bool       `json:"catalog_changed"`
	Mismatches     []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether the replay reproduced every record.
func (r *ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-executes the commands of a recorded run against cat and checks
// that the engine writes the same records.
//
// Timer records are reproduced by advancing a manual scheduler by the
// recorded delay at the same position, so the run replays instantly. Since
// the run token is reused, identical records have identical IDs and are
// compared by ID. The start record is skipped; a different catalog shows
// up as CatalogChanged.
func Replay(ctx context.Context, cat *catalog.Catalog, records []journal.Record) (*ReplayReport, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("replay: no records")
	}
	recorded := slices.Clone(records)
	slices.SortFunc(recorded, func(a, b journal.Record) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	start := recorded[0]
	if start.Kind != journal.KindStart {
		return nil, fmt.Errorf("replay: run %s does not begin with a start record", start.Run)
	}

	report := &ReplayReport{
		Run:            start.Run,
		CatalogChanged: start.String("catalog") != cat.Fingerprint,
	}
	delay := time.Duration(start.Int("delay_ms")) * time.Millisecond

	sched := testutil.NewManualScheduler()
	mem := journal.NewMemory()
	e, err := New(cat,
		WithScheduler(sched),
		WithDelay(delay),
		WithJournal(mem),
		WithTokenGenerator(testutil.NewFixedRunToken(start.Run)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if err := e.Drain(ctx); err != nil {
		return nil, err
	}

	for _, rec := range recorded[1:] {
		switch rec.Kind {
		case journal.KindCommand:
			cmd, err := CommandFromPayload(rec.Payload)
			if err != nil {
				return nil, fmt.Errorf("replay: record %d: %w", rec.Seq, err)
			}
			if _, err := e.Apply(ctx, cmd); err != nil {
				return nil, fmt.Errorf("replay: record %d: %w", rec.Seq, err)
			}
			report.Commands++
		case journal.KindTimer:
			sched.Advance(delay)
			if err := e.Drain(ctx); err != nil {
				return nil, err
			}
			report.Timers++
		}
	}

	replayed := mem.Records()
	n := max(len(recorded), len(replayed))
	for i := 1; i < n; i++ {
		var want, got *journal.Record
		if i < len(recorded) {
			want = &recorded[i]
		}
		if i < len(replayed) {
			got = &replayed[i]
		}
		report.Compared++
		if want != nil && got != nil && want.ID == got.ID {
			continue
		}
		m := Mismatch{}
		if want != nil {
			m.Seq = want.Seq
			m.Want = journal.Format(*want)
		}
		if got != nil {
			m.Seq = got.Seq
			m.Got = journal.Format(*got)
		}
		report.Mismatches = append(report.Mismatches, m)
	}
	return report, nil
}

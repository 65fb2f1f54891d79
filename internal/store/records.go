package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/tulen-chik/reshalka/internal/journal"
)

// ErrNotFound is returned when a run has no records.
var ErrNotFound = errors.New("not found")

// RunSummary describes one recorded run.
type RunSummary struct {
	Run     string `json:"run"`
	Records int    `json:"records"`
	LastSeq int64  `json:"last_seq"`
}

// Append writes a record. Writing a record whose ID already exists is a
// no-op. A different record at an existing (run, seq) is an error.
func (s *Store) Append(ctx context.Context, rec journal.Record) error {
	if !rec.Kind.Valid() {
		return fmt.Errorf("append record: unknown kind %q", rec.Kind)
	}
	payload, err := journal.MarshalCanonical(rec.Payload)
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, run_token, seq, kind, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.Run, rec.Seq, string(rec.Kind), string(payload))
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// ReadRun returns every record of a run ordered by seq.
// Returns ErrNotFound if the run has no records.
func (s *Store) ReadRun(ctx context.Context, run string) ([]journal.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_token, seq, kind, payload
		FROM records
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, run)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []journal.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %q: %w", run, ErrNotFound)
	}
	return records, nil
}

// ListRuns returns a summary per run, ordered by run token.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_token, COUNT(*), MAX(seq)
		FROM records
		GROUP BY run_token
		ORDER BY run_token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.Run, &r.Records, &r.LastSeq); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the run token whose start record was written last.
// Runs are ordered by rowid, which only grows in an append-only table.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var run string
	err := s.db.QueryRowContext(ctx, `
		SELECT run_token FROM records
		WHERE kind = ?
		ORDER BY rowid DESC
		LIMIT 1
	`, string(journal.KindStart)).Scan(&run)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("latest run: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (journal.Record, error) {
	var (
		rec     journal.Record
		kind    string
		payload string
	)
	if err := row.Scan(&rec.ID, &rec.Run, &rec.Seq, &kind, &payload); err != nil {
		return journal.Record{}, fmt.Errorf("scan record: %w", err)
	}
	rec.Kind = journal.Kind(kind)
	p, err := journal.UnmarshalPayload([]byte(payload))
	if err != nil {
		return journal.Record{}, fmt.Errorf("record %s: %w", rec.ID, err)
	}
	rec.Payload = p
	return rec, nil
}

package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Kind classifies a record.
type Kind string

const (
	// KindStart opens a run: catalog fingerprint and completion delay.
	KindStart Kind = "start"
	// KindCommand is a player input, written before it is applied.
	KindCommand Kind = "command"
	// KindState is a session state transition.
	KindState Kind = "state"
	// KindVerdict is the result of an explicit or automatic check.
	KindVerdict Kind = "verdict"
	// KindTimer marks a delivered completion delay.
	KindTimer Kind = "timer"
	// KindTerminal carries the name of a completed category.
	KindTerminal Kind = "terminal"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindStart, KindCommand, KindState, KindVerdict, KindTimer, KindTerminal:
		return true
	}
	return false
}

// Domain prefixes for content-addressed identity.
const (
	DomainRecord  = "reshalka/record/v1"
	DomainCatalog = "reshalka/catalog/v1"
)

// Record is one journal entry.
//
// ID is content-addressed over (run, seq, kind, payload); writing the same
// record twice is a no-op at the store.
type Record struct {
	ID      string         `json:"id"`
	Run     string         `json:"run"`
	Seq     int64          `json:"seq"`
	Kind    Kind           `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// NewRecord builds a record and computes its ID.
func NewRecord(run string, seq int64, kind Kind, payload map[string]any) (Record, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	id, err := RecordID(run, seq, kind, payload)
	if err != nil {
		return Record{}, err
	}
	return Record{ID: id, Run: run, Seq: seq, Kind: kind, Payload: payload}, nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordID computes the content-addressed ID of a record.
func RecordID(run string, seq int64, kind Kind, payload map[string]any) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"run":     run,
		"seq":     seq,
		"kind":    string(kind),
		"payload": payload,
	})
	if err != nil {
		return "", fmt.Errorf("RecordID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// Fingerprint hashes catalog source bytes so a replay can tell whether it
// runs against the catalog the journal was recorded with.
func Fingerprint(source []byte) string {
	return hashWithDomain(DomainCatalog, source)
}

// Verify recomputes the record's ID.
func (r Record) Verify() error {
	want, err := RecordID(r.Run, r.Seq, r.Kind, r.Payload)
	if err != nil {
		return err
	}
	if want != r.ID {
		return fmt.Errorf("record %d: id mismatch", r.Seq)
	}
	return nil
}

// String returns the payload field as a string, or "".
func (r Record) String(key string) string {
	s, _ := r.Payload[key].(string)
	return s
}

// Int returns the payload field as an int64, or 0.
func (r Record) Int(key string) int64 {
	switch n := r.Payload[key].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}

// Bool returns the payload field as a bool, or false.
func (r Record) Bool(key string) bool {
	b, _ := r.Payload[key].(bool)
	return b
}

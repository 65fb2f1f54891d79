// Package journal defines the append-only record of a play session.
//
// Every command a player issues, every state the session controller enters
// and every correctness verdict is written as a Record. Records carry a run
// token and a logical sequence number, never wall-clock time, so a run can
// be replayed against the same catalog and compared record by record.
//
// Payloads are restricted to strings, integers, booleans, arrays and
// objects. Floats and null are rejected so that MarshalCanonical output, and
// therefore RecordID, is stable.
package journal

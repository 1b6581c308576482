package core

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// Reserved column names. Every other column is a property.
const (
	ColumnEvent      = "event"
	ColumnDistinctID = "distinct_id"
	ColumnTimestamp  = "timestamp"
)

// Properties is the flat string-to-string metadata attached to an event.
type Properties map[string]string

// Record is one CSV data row keyed by the header.
// Header order is preserved; Values may be shorter than Header for short rows.
type Record struct {
	Line   int      // 1-based data row number (header excluded)
	Header []string // column names, shared across all records of a file
	Values []string
}

// Get returns the value of column name and whether the row has that column.
func (r Record) Get(name string) (string, bool) {
	for i, h := range r.Header {
		if h == name {
			if i >= len(r.Values) {
				return "", false
			}
			return r.Values[i], true
		}
	}
	return "", false
}

// Event is a record that passed validation and is ready for delivery.
type Event struct {
	Event      string
	DistinctID string
	Timestamp  pgtype.Timestamptz // Valid=false means the client assigns its own
	Properties Properties
}

// Client is the analytics ingestion collaborator.
//
// Capture may buffer; errors it returns are per-event. Flush blocks until
// buffered events are handed off and must be called exactly once per run.
type Client interface {
	Capture(ev Event) error
	Flush() error
}

// Counters are the per-run row tallies. Read counts every data row;
// Sent + Skipped + Failed == Read for a run that reached the end of input.
type Counters struct {
	Read    int
	Sent    int
	Skipped int
	Failed  int
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	FileName  string
	Checksum  string // hex sha256 of the bytes read, empty for non-file sources
	Counters  Counters
	Earliest  pgtype.Timestamptz // earliest event timestamp submitted
	Latest    pgtype.Timestamptz
	StartedAt time.Time
	Duration  time.Duration
	Cancelled bool
	Err       error // run error including flush failure, nil on success
}

// Status names the outcome of the run.
func (s Summary) Status() string {
	switch {
	case s.Cancelled:
		return "cancelled"
	case s.Err != nil:
		return "failed"
	default:
		return "completed"
	}
}

// observe widens the Earliest/Latest window with ts.
func (s *Summary) observe(ts pgtype.Timestamptz) {
	if !ts.Valid {
		return
	}
	if !s.Earliest.Valid || ts.Time.Before(s.Earliest.Time) {
		s.Earliest = ts
	}
	if !s.Latest.Valid || ts.Time.After(s.Latest.Time) {
		s.Latest = ts
	}
}

package core

// validation.go splits a Record into its reserved fields and property set
// and decides whether the row may be delivered.
//
// A row is rejected when event or distinct_id is missing or empty. In strict
// mode a row is also rejected when its timestamp is present but malformed;
// otherwise a bad timestamp only degrades to "no timestamp".

import (
	"errors"
	"fmt"
)

var (
	ErrMissingEvent       = errors.New("missing event")
	ErrMissingDistinctID  = errors.New("missing distinct_id")
	ErrMalformedTimestamp = errors.New("malformed timestamp")
)

// ValidationError represents a rejected row.
type ValidationError struct {
	Line  int    // 1-based data row number
	Field string // reserved column that failed
	Value string // offending value, if any
	Err   error  // one of the Err* sentinels
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("row %d: %s: %v: %q", e.Line, e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("row %d: %s: %v", e.Line, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SplitOptions tunes Split.
type SplitOptions struct {
	StrictTimestamps bool
}

// Split partitions rec into an Event. Reserved columns are removed; every
// other column present in the row is copied into Properties unmodified.
func Split(rec Record, opts SplitOptions) (Event, error) {
	ev := Event{Properties: make(Properties, len(rec.Header))}

	var rawTS string
	for i, name := range rec.Header {
		if i >= len(rec.Values) {
			break
		}
		v := rec.Values[i]
		switch name {
		case ColumnEvent:
			ev.Event = v
		case ColumnDistinctID:
			ev.DistinctID = v
		case ColumnTimestamp:
			rawTS = v
		default:
			ev.Properties[name] = v
		}
	}

	ts, kind := ClassifyTimestamp(rawTS)
	ev.Timestamp = ts

	if ev.Event == "" {
		return Event{}, &ValidationError{Line: rec.Line, Field: ColumnEvent, Err: ErrMissingEvent}
	}
	if ev.DistinctID == "" {
		return Event{}, &ValidationError{Line: rec.Line, Field: ColumnDistinctID, Err: ErrMissingDistinctID}
	}
	if opts.StrictTimestamps && kind == TimestampMalformed {
		return Event{}, &ValidationError{Line: rec.Line, Field: ColumnTimestamp, Value: rawTS, Err: ErrMalformedTimestamp}
	}

	return ev, nil
}

package core

// convert.go normalizes the optional timestamp column.
//
// Accepted input is ISO-8601 date and time: a date, a 'T' or space
// separator, a time with optional seconds and fractional seconds, and an
// optional offset. A trailing 'Z' means UTC. Values without an offset are
// taken as UTC. A bare date is midnight UTC.
//
// The result is a pgtype.Timestamptz with Valid=false when the input is
// absent or unparseable, the same convention the ToPg* helpers use.

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// TimestampKind says which branch ClassifyTimestamp took.
type TimestampKind int

const (
	TimestampAbsent TimestampKind = iota
	TimestampValid
	TimestampMalformed
)

func (k TimestampKind) String() string {
	switch k {
	case TimestampAbsent:
		return "absent"
	case TimestampValid:
		return "valid"
	case TimestampMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// maxOffset is the exclusive bound on a UTC offset, in seconds.
const maxOffset = 24 * 60 * 60

// Layouts are tried in order. Fractional seconds need no layout of their
// own: time.Parse accepts them after the seconds field.
var (
	offsetLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05Z0700",
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// ParseTimestamp converts a raw timestamp cell to pgtype.Timestamptz.
// Returns invalid for empty, whitespace-only or malformed input.
func ParseTimestamp(raw string) pgtype.Timestamptz {
	ts, _ := ClassifyTimestamp(raw)
	return ts
}

// ClassifyTimestamp is ParseTimestamp that also reports whether an invalid
// result came from an absent value or a malformed one.
func ClassifyTimestamp(raw string) (pgtype.Timestamptz, TimestampKind) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return pgtype.Timestamptz{Valid: false}, TimestampAbsent
	}

	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}

	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// time.Parse accepts offsets of a day or more; ISO-8601 does not.
			if _, off := t.Zone(); off <= -maxOffset || off >= maxOffset {
				return pgtype.Timestamptz{Valid: false}, TimestampMalformed
			}
			return pgtype.Timestamptz{Time: t, Valid: true}, TimestampValid
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return pgtype.Timestamptz{Time: t, Valid: true}, TimestampValid
		}
	}

	return pgtype.Timestamptz{Valid: false}, TimestampMalformed
}

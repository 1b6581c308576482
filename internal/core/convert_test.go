package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	ist := time.FixedZone("", 5*3600+30*60)

	tests := []struct {
		name  string
		input string
		want  time.Time
		valid bool
	}{
		{"Z suffix is UTC", "2024-01-01T12:00:00Z", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"explicit UTC offset", "2024-01-01T12:00:00+00:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"positive offset", "2024-01-01T17:30:00+05:30", time.Date(2024, 1, 1, 17, 30, 0, 0, ist), true},
		{"compact offset", "2024-01-01T17:30:00+0530", time.Date(2024, 1, 1, 17, 30, 0, 0, ist), true},
		{"fractional seconds", "2024-01-01T12:00:00.123456Z", time.Date(2024, 1, 1, 12, 0, 0, 123456000, time.UTC), true},
		{"space separator", "2024-01-01 12:00:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"space separator with offset", "2024-01-01 12:00:00-05:00", time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC), true},
		{"no seconds", "2024-01-01T12:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"naive is UTC", "2024-01-01T12:00:00", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"date only", "2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"surrounding whitespace", "  2024-01-01T12:00:00Z  ", time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), true},
		{"not a date", "not-a-date", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"whitespace only", "   ", time.Time{}, false},
		{"US format rejected", "01/02/2024", time.Time{}, false},
		{"invalid month", "2024-13-01T00:00:00Z", time.Time{}, false},
		{"lone Z", "Z", time.Time{}, false},
		{"offset of a full day", "2024-01-01T12:00:00+24:00", time.Time{}, false},
		{"negative offset of a full day", "2024-01-01T12:00:00-24:00", time.Time{}, false},
		{"largest offset below a day", "2024-01-01T12:00:00+23:59", time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC).Add(-24 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTimestamp(tt.input)
			require.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.True(t, got.Time.Equal(tt.want), "got %v, want %v", got.Time, tt.want)
			}
		})
	}
}

func TestParseTimestamp_ZIsUTCOffset(t *testing.T) {
	got := ParseTimestamp("2024-01-01T12:00:00Z")
	require.True(t, got.Valid)

	_, offset := got.Time.Zone()
	assert.Equal(t, 0, offset)
}

func TestParseTimestamp_Idempotent(t *testing.T) {
	for _, in := range []string{"2024-01-01T12:00:00Z", "2024-06-30 23:59:59.5+02:00", "garbage", ""} {
		a := ParseTimestamp(in)
		b := ParseTimestamp(in)
		assert.Equal(t, a.Valid, b.Valid, in)
		assert.True(t, a.Time.Equal(b.Time), in)
	}
}

func TestClassifyTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  TimestampKind
	}{
		{"", TimestampAbsent},
		{" \t", TimestampAbsent},
		{"2024-01-01T12:00:00Z", TimestampValid},
		{"yesterday", TimestampMalformed},
		{"2024-01-01T12:00:00+24:00", TimestampMalformed},
	}

	for _, tt := range tests {
		_, kind := ClassifyTimestamp(tt.input)
		assert.Equal(t, tt.want, kind, "ClassifyTimestamp(%q)", tt.input)
	}
}

func TestTimestampKind_String(t *testing.T) {
	assert.Equal(t, "absent", TimestampAbsent.String())
	assert.Equal(t, "valid", TimestampValid.String())
	assert.Equal(t, "malformed", TimestampMalformed.String())
	assert.Equal(t, "unknown", TimestampKind(42).String())
}

package austream

import (
	"testing"
	"time"
)

func TestTimestampFormatParseRoundTrip(t *testing.T) {
	tm := time.Date(2024, 3, 15, 12, 30, 45, 123456789, time.UTC)
	s := FormatTimestamp(tm)
	got, err := ParseTimestamp(s)
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	if !got.Equal(tm) {
		t.Errorf("roundtrip mismatch: got %v want %v", got, tm)
	}
}

func TestTimestampTruncation(t *testing.T) {
	cases := []string{
		"2024-03-15T12:30:45.123456789",
		"2024-03-15T12:30:45.123",
		"2024-03-15T12:30:45",
		"2024-03-15T12:30",
		"2024-03-15T12",
		"2024-03-15",
		"2024-03",
		"2024",
	}
	for _, s := range cases {
		if _, err := ParseTimestamp(s); err != nil {
			t.Errorf("ParseTimestamp(%q): %v", s, err)
		}
	}
}

func TestPatternTimestampGreaterOrEqual(t *testing.T) {
	p, err := NewPattern("2024-01-01T12:00:00", MatchTimestamp, true, true)
	if err != nil {
		t.Fatalf("NewPattern: %v", err)
	}
	before := time.Date(2024, 1, 1, 11, 59, 59, 0, time.UTC)
	after := time.Date(2024, 1, 1, 12, 0, 1, 0, time.UTC)

	if ge, ok := p.GreaterOrEqual(before); !ok || ge {
		t.Errorf("expected before-noon to not be >=, got ge=%v ok=%v", ge, ok)
	}
	if ge, ok := p.GreaterOrEqual(after); !ok || !ge {
		t.Errorf("expected after-noon to be >=, got ge=%v ok=%v", ge, ok)
	}
}

// Timestamp textual format, grounded on
// original_source/src/TimestampPattern.h: RFC-3339-like, always UTC, no
// zone suffix, with acceptable truncation from the right by whole field
// or by trailing groups of 3 fractional-second digits.
package austream

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000000000"

// FormatTimestamp renders t in the canonical full-precision form.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ParseTimestamp parses s, which may be the full
// YYYY-MM-DDTHH:MM:SS.fffffffff form or any right-truncation of it down
// to the year alone, per spec §6. Truncated fields are treated as zero/absent;
// a truncated time has no fractional part. Used both to coerce grep/
// bisect patterns and to decode JSON string timestamps during json2au.
func ParseTimestamp(s string) (time.Time, error) {
	datePart := s
	timePart := ""
	if idx := strings.IndexByte(s, 'T'); idx >= 0 {
		datePart = s[:idx]
		timePart = s[idx+1:]
	}

	dateFields := strings.Split(datePart, "-")
	if len(dateFields) == 0 || len(dateFields) > 3 {
		return time.Time{}, fmt.Errorf("austream: invalid timestamp date %q", s)
	}
	year, month, day := 1970, 1, 1
	var err error
	if len(dateFields) >= 1 && dateFields[0] != "" {
		if year, err = strconv.Atoi(dateFields[0]); err != nil {
			return time.Time{}, fmt.Errorf("austream: invalid timestamp year in %q: %w", s, err)
		}
	}
	if len(dateFields) >= 2 {
		if month, err = strconv.Atoi(dateFields[1]); err != nil {
			return time.Time{}, fmt.Errorf("austream: invalid timestamp month in %q: %w", s, err)
		}
	}
	if len(dateFields) >= 3 {
		if day, err = strconv.Atoi(dateFields[2]); err != nil {
			return time.Time{}, fmt.Errorf("austream: invalid timestamp day in %q: %w", s, err)
		}
	}

	hour, minute, sec, nsec := 0, 0, 0, 0
	if timePart != "" {
		secFields := strings.SplitN(timePart, ".", 2)
		clock := strings.Split(secFields[0], ":")
		if len(clock) >= 1 && clock[0] != "" {
			if hour, err = strconv.Atoi(clock[0]); err != nil {
				return time.Time{}, fmt.Errorf("austream: invalid timestamp hour in %q: %w", s, err)
			}
		}
		if len(clock) >= 2 {
			if minute, err = strconv.Atoi(clock[1]); err != nil {
				return time.Time{}, fmt.Errorf("austream: invalid timestamp minute in %q: %w", s, err)
			}
		}
		if len(clock) >= 3 {
			if sec, err = strconv.Atoi(clock[2]); err != nil {
				return time.Time{}, fmt.Errorf("austream: invalid timestamp second in %q: %w", s, err)
			}
		}
		if len(secFields) == 2 {
			frac := secFields[1]
			for len(frac) < 9 {
				frac += "0"
			}
			frac = frac[:9]
			if nsec, err = strconv.Atoi(frac); err != nil {
				return time.Time{}, fmt.Errorf("austream: invalid timestamp fraction in %q: %w", s, err)
			}
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, sec, nsec, time.UTC), nil
}

// TruncatedPrefixes returns s and every coarser right-truncation of it
// that spec §6 calls acceptable. No code in this package calls it: Pattern
// parses a timestamp pattern once with ParseTimestamp and compares the
// full-precision result.
func TruncatedPrefixes(s string) []string {
	var out []string
	cur := s
	for {
		out = append(out, cur)
		cut := len(cur)
		switch {
		case strings.HasSuffix(cur, "Z"):
			cur = strings.TrimSuffix(cur, "Z")
			continue
		case strings.Contains(cur, ".") && cut > 0:
			dot := strings.LastIndexByte(cur, '.')
			if dot >= 0 && len(cur)-dot > 4 {
				cur = cur[:len(cur)-3]
				continue
			}
		}
		next := trimTrailingTimestampField(cur)
		if next == cur {
			return out
		}
		cur = next
	}
}

func trimTrailingTimestampField(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		switch s[i] {
		case 'T', ':', '-', '.':
			return s[:i]
		}
	}
	return s
}

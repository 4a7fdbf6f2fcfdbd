// Typed pattern matching shared by grep and bisect, grounded on
// original_source/src/GrepHandler.h: a single textual pattern is tried
// simultaneously as several types unless a flag forces one
// interpretation.
package austream

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MatchKind forces (or, for MatchAuto, leaves open) how a Pattern's raw
// text is interpreted against a decoded value.
type MatchKind int

const (
	MatchAuto MatchKind = iota
	MatchTimestamp
	MatchInt
	MatchDouble
	MatchAtom
	MatchString
	MatchSubstring
	MatchRegex
)

// Pattern is a textual match target pre-parsed under every applicable
// interpretation, so Matches/GreaterOrEqual never reparse per record.
type Pattern struct {
	Raw           string
	Kind          MatchKind
	CaseSensitive bool

	re *regexp.Regexp

	ts   time.Time
	tsOK bool
	i    int64
	iOK  bool
	d    float64
	dOK  bool

	atomOK  bool
	atomNil bool
	atomVal bool
}

// NewPattern builds a Pattern from raw text. kind forces an
// interpretation (MatchAuto tries all of them at match time); a pattern
// spelled R(...) is treated as regex unless forceNotRegex is set (the
// -r flag, spec §6).
func NewPattern(raw string, kind MatchKind, caseSensitive, forceNotRegex bool) (*Pattern, error) {
	p := &Pattern{Raw: raw, Kind: kind, CaseSensitive: caseSensitive}

	body := raw
	isRegexSyntax := strings.HasPrefix(raw, "R(") && strings.HasSuffix(raw, ")")
	if isRegexSyntax {
		body = raw[2 : len(raw)-1]
	}
	if kind == MatchRegex || (kind == MatchAuto && isRegexSyntax && !forceNotRegex) {
		flags := ""
		if !caseSensitive {
			flags = "(?i)"
		}
		re, err := regexp.Compile(flags + body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
		}
		p.re = re
		p.Kind = MatchRegex
		return p, nil
	}

	if t, err := ParseTimestamp(raw); err == nil {
		p.ts, p.tsOK = t, true
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		p.i, p.iOK = i, true
	}
	if d, err := strconv.ParseFloat(raw, 64); err == nil {
		p.d, p.dOK = d, true
	}
	switch raw {
	case "true":
		p.atomOK, p.atomVal = true, true
	case "false":
		p.atomOK, p.atomVal = true, false
	case "null":
		p.atomOK, p.atomNil = true, true
	}
	return p, nil
}

func stringOf(v Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func (p *Pattern) stringMatches(s string) bool {
	if p.CaseSensitive {
		return s == p.Raw
	}
	return strings.EqualFold(s, p.Raw)
}

func (p *Pattern) substringMatches(s string) bool {
	if p.CaseSensitive {
		return strings.Contains(s, p.Raw)
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(p.Raw))
}

// Matches reports whether v satisfies the pattern under its configured
// (or, for MatchAuto, best-fit) interpretation.
func (p *Pattern) Matches(v Value) bool {
	switch p.Kind {
	case MatchRegex:
		s, ok := stringOf(v)
		return ok && p.re.MatchString(s)
	case MatchTimestamp:
		t, ok := v.(time.Time)
		return ok && p.tsOK && t.Equal(p.ts)
	case MatchInt:
		return p.iOK && intEquals(v, p.i)
	case MatchDouble:
		return p.dOK && floatEquals(v, p.d)
	case MatchAtom:
		return atomEquals(v, p)
	case MatchSubstring:
		s, ok := stringOf(v)
		return ok && p.substringMatches(s)
	case MatchString:
		s, ok := stringOf(v)
		return ok && p.stringMatches(s)
	default:
		switch t := v.(type) {
		case time.Time:
			return p.tsOK && t.Equal(p.ts)
		case string:
			return p.stringMatches(t)
		case bool, nil:
			return atomEquals(v, p)
		default:
			return p.iOK && intEquals(v, p.i) || p.dOK && floatEquals(v, p.d)
		}
	}
}

func intEquals(v Value, want int64) bool {
	switch t := v.(type) {
	case int64:
		return t == want
	case uint64:
		return want >= 0 && t == uint64(want)
	}
	return false
}

func floatEquals(v Value, want float64) bool {
	f, ok := v.(float64)
	return ok && f == want
}

func atomEquals(v Value, p *Pattern) bool {
	if !p.atomOK {
		return false
	}
	if p.atomNil {
		return v == nil
	}
	b, ok := v.(bool)
	return ok && b == p.atomVal
}

// Ordered reports whether this pattern can be used as a bisect key
// (regex and substring search are incompatible with binary search,
// spec §4.9).
func (p *Pattern) Ordered() bool {
	return p.Kind != MatchRegex && p.Kind != MatchSubstring
}

// GreaterOrEqual implements bisect's match-or-greater predicate: true iff
// v, compared under its own type, is >= the pattern. ok is false when v
// and the pattern aren't comparable (wrong type, or Ordered() is false).
func (p *Pattern) GreaterOrEqual(v Value) (ge bool, ok bool) {
	if !p.Ordered() {
		return false, false
	}
	switch t := v.(type) {
	case time.Time:
		if !p.tsOK {
			return false, false
		}
		return !t.Before(p.ts), true
	case int64:
		if !p.iOK {
			return false, false
		}
		return t >= p.i, true
	case uint64:
		if !p.iOK || p.i < 0 {
			return false, false
		}
		return t >= uint64(p.i), true
	case float64:
		if !p.dOK {
			return false, false
		}
		return t >= p.d, true
	case string:
		return t >= p.Raw, true
	}
	return false, false
}

// KeyedValue looks up key within v if v is an *Object (grep/bisect's -k);
// returns v itself unchanged if key is empty (whole-record matching).
func KeyedValue(v Value, key string) (Value, bool) {
	if key == "" {
		return v, true
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, false
	}
	return obj.Get(key)
}

// Streaming pattern search with context lines and ordered early-exit,
// grounded on original_source/src/Grep.cpp/GrepHandler.h. Supplements
// spec.md's distillation, which covers bisect but not the plain
// sequential grep it's layered on top of (spec.md §4.9's "plaintext
// analog").
package austream

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// GrepOptions configures a sequential pattern search.
type GrepOptions struct {
	Key        string   // -k/-o: object field to match; "" matches the whole record
	Pattern    *Pattern
	Before     int  // -B: context records before a match
	After      int  // -A: context records after a match
	MaxMatches int  // -m: stop after this many matches; 0 = unbounded
	Ordered    bool // ordered mode: assume non-decreasing key, stop once it exceeds pattern
	OrGreater  bool // -g: match values >= pattern rather than equal to it
}

// Match pairs a decoded record with its absolute stream position.
type Match struct {
	Pos   int64
	Value Value
}

// Grep scans src sequentially from its current position, returning
// matches (with any requested context records interleaved in stream
// order). Per spec §7, a single record's parse failure is reported to
// stderr and the scan resumes after resynchronizing, rather than
// aborting the whole pass.
func Grep(src ByteSource, opts GrepOptions) ([]Match, error) {
	dict := NewDictionary(1)
	var ring []Match
	var results []Match
	pendingAfter := 0
	matches := 0

	for {
		pos := src.Pos()
		dh := NewDecodeHandler()
		rp := NewRecordParser(src, dict, dh)
		kind, err := rp.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var perr *ParseError
			if errors.As(err, &perr) {
				fmt.Fprintf(os.Stderr, "austream: %v, resynchronizing\n", perr)
				if _, serr := Sync(src, dict); serr != nil {
					break
				}
				continue
			}
			return results, err
		}
		if kind != KindValue {
			continue
		}

		keyed, ok := KeyedValue(dh.Result, opts.Key)
		var isMatch bool
		if ok && opts.OrGreater {
			isMatch, _ = opts.Pattern.GreaterOrEqual(keyed)
		} else {
			isMatch = ok && opts.Pattern.Matches(keyed)
		}

		if isMatch {
			results = append(results, ring...)
			ring = ring[:0]
			results = append(results, Match{Pos: pos, Value: dh.Result})
			pendingAfter = opts.After
			matches++
			if opts.MaxMatches > 0 && matches >= opts.MaxMatches {
				break
			}
			continue
		}

		if pendingAfter > 0 {
			results = append(results, Match{Pos: pos, Value: dh.Result})
			pendingAfter--
		} else if opts.Before > 0 {
			ring = append(ring, Match{Pos: pos, Value: dh.Result})
			if len(ring) > opts.Before {
				ring = ring[1:]
			}
		}

		if opts.Ordered && ok {
			if ge, comparable := opts.Pattern.GreaterOrEqual(keyed); comparable && ge {
				break // sorted stream: nothing past here can match either
			}
		}
	}
	return results, nil
}

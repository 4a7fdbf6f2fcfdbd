// Binary search over a sorted key within a stream, grounded on
// original_source/src/Grep.cpp's doBisect and GrepHandler.h.
package austream

import (
	"errors"
	"fmt"
	"io"
)

// BisectOptions configures which part of each record is compared against
// the pattern.
type BisectOptions struct {
	// Key selects an object field (the -k/-o flag); empty compares the
	// whole decoded record.
	Key string
}

// Bisect finds the position of the first record whose keyed value is >=
// pattern, degrading to a linear scan once the search window narrows
// below scanThreshold (spec §4.9). pattern must be Ordered(); regex and
// substring patterns return ErrInvalidPattern.
func Bisect(src ByteSource, pattern *Pattern, opts BisectOptions) (int64, error) {
	if !pattern.Ordered() {
		return 0, fmt.Errorf("%w: regex/substring patterns require a linear scan, not bisect", ErrInvalidPattern)
	}
	size, ok := src.Size()
	if !ok {
		return 0, fmt.Errorf("austream: bisect requires a seekable, sized source")
	}

	dict := NewDictionary(32) // capacity 32: avoid rebuild thrashing during search (spec §4.6)
	start, end := int64(0), size

	for {
		if end-start <= scanThreshold {
			scanStart := start - prefixAmount
			if scanStart < 0 {
				scanStart = 0
			}
			sor, err := seekSync(src, dict, scanStart)
			if err != nil && scanStart != 0 {
				sor, err = seekSync(src, dict, 0)
			}
			if err != nil {
				return 0, err
			}
			return linearScanFrom(src, dict, sor, pattern, opts)
		}

		mid := start + (end-start)/2
		sor, err := seekSync(src, dict, mid)
		if err != nil {
			// Couldn't sync from mid; narrow forward and keep trying.
			start = mid
			continue
		}

		dh := NewDecodeHandler()
		rp := NewRecordParser(src, dict, dh)
		if err := src.Seek(sor); err != nil {
			return 0, err
		}
		kind, err := rp.ReadRecord()
		if err != nil || kind != KindValue {
			start = mid
			continue
		}

		keyed, ok := KeyedValue(dh.Result, opts.Key)
		ge := false
		if ok {
			ge, _ = pattern.GreaterOrEqual(keyed)
		}
		if ge {
			if sor >= end {
				end = start + 1 // force linear-scan fallback next iteration
			} else {
				end = sor
			}
		} else {
			start = sor
		}
	}
}

func seekSync(src ByteSource, dict *Dictionary, pos int64) (int64, error) {
	if err := src.Seek(pos); err != nil {
		return 0, err
	}
	return Sync(src, dict)
}

// linearScanFrom decodes sequentially from pos, returning the absolute
// position of the first record whose keyed value is >= pattern, and
// stopping once suffixAmount bytes of non-matching records have been
// seen since the last match (spec §4.9's scan-degradation cutoff).
func linearScanFrom(src ByteSource, dict *Dictionary, pos int64, pattern *Pattern, opts BisectOptions) (int64, error) {
	firstMatch := int64(-1)
	var sinceMatch int64

	for {
		if err := src.Seek(pos); err != nil {
			break
		}
		dh := NewDecodeHandler()
		rp := NewRecordParser(src, dict, dh)
		kind, err := rp.ReadRecord()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Structural errors during a linear scan are skipped, not fatal.
			pos++
			continue
		}
		next := src.Pos()
		if kind == KindValue {
			if keyed, ok := KeyedValue(dh.Result, opts.Key); ok {
				if ge, _ := pattern.GreaterOrEqual(keyed); ge {
					if firstMatch < 0 {
						firstMatch = pos
					}
					sinceMatch = 0
				} else if firstMatch >= 0 {
					sinceMatch += next - pos
					if sinceMatch > suffixAmount {
						break
					}
				}
			}
		}
		pos = next
	}

	if firstMatch < 0 {
		return 0, ErrNotFound
	}
	return firstMatch, nil
}

// Encoder-side string interning, grounded on
// original_source/src/au/AuEncoder.h's AuStringIntern/UsageTracker: a
// bounded LRU of candidate strings tracks recency-weighted frequency;
// once a candidate's count crosses internThreshold it is promoted into
// the append-only dictionary. The candidate cache's hash table is keyed
// by an xxh3 digest (repurposed from folio's hash.go, which used xxh3
// for record-ID hashing) per the arena+hash model in spec §9's design
// notes.
package austream

import (
	"container/list"

	"github.com/zeebo/xxh3"
)

// internPolicy is the tri-state "intern" argument to StringIntern.Idx.
type internPolicy int

const (
	internAuto internPolicy = iota // default policy: ask the usage tracker
	internYes                      // caller demands interning (object keys)
	internNo                       // caller forbids interning
)

type candidate struct {
	s     string
	count int
}

// StringIntern tracks one dictionary generation's candidate/interned
// strings. A new generation (after a C record) is a fresh StringIntern.
type StringIntern struct {
	tinyStr         int
	internThreshold int
	cacheSize       int

	lru     *list.List // oldest candidate at Front
	buckets map[uint64][]*list.Element

	interned map[string]int // string -> dictionary index, while still tracked
	order    []string       // append-only dictionary entries for this generation
	occurs   []int          // occurrences[i] parallels order[i]

	flushed int // count of order[] already exported in a prior A record
}

// NewStringIntern constructs a tracker with the given tinyStr threshold,
// intern-promotion threshold, and candidate-cache capacity.
func NewStringIntern(tinyStr, internThreshold, cacheSize int) *StringIntern {
	si := &StringIntern{
		tinyStr:         tinyStr,
		internThreshold: internThreshold,
		cacheSize:       cacheSize,
	}
	si.Clear(true)
	return si
}

func (si *StringIntern) bucketKey(s string) uint64 { return xxh3.HashString(s) }

func (si *StringIntern) removeCandidate(s string, elem *list.Element) {
	si.lru.Remove(elem)
	h := si.bucketKey(s)
	bucket := si.buckets[h]
	for i, e := range bucket {
		if e == elem {
			si.buckets[h] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
}

// shouldIntern implements spec §4.5's shouldIntern(s) state machine.
func (si *StringIntern) shouldIntern(s string) bool {
	h := si.bucketKey(s)
	for _, elem := range si.buckets[h] {
		c := elem.Value.(*candidate)
		if c.s != s {
			continue
		}
		if c.count >= si.internThreshold {
			si.removeCandidate(s, elem)
			return true
		}
		c.count++
		return false
	}
	if si.lru.Len() >= si.cacheSize && si.cacheSize > 0 {
		front := si.lru.Front()
		oldest := front.Value.(*candidate)
		si.removeCandidate(oldest.s, front)
	}
	c := &candidate{s: s, count: 1}
	elem := si.lru.PushBack(c)
	si.buckets[h] = append(si.buckets[h], elem)
	return false
}

// Idx implements spec §4.5's idx(s, intern). It returns the dictionary
// index to emit as an X reference, or ok=false to inline the string as S.
func (si *StringIntern) Idx(s string, policy internPolicy) (idx int, ok bool) {
	if len(s) <= si.tinyStr {
		return 0, false
	}
	if policy == internNo {
		return 0, false
	}
	if i, already := si.interned[s]; already {
		si.occurs[i]++
		return i, true
	}
	if policy == internYes || si.shouldIntern(s) {
		i := len(si.order)
		si.order = append(si.order, s)
		si.occurs = append(si.occurs, 1)
		si.interned[s] = i
		return i, true
	}
	return 0, false
}

// PendingEntries returns the dictionary entries added since the last
// MarkFlushed call — the tail an A record must carry (spec §4.4: "the
// dictionary delta records only the tail of the dictionary added since
// the last emission").
func (si *StringIntern) PendingEntries() []string {
	if si.flushed >= len(si.order) {
		return nil
	}
	return si.order[si.flushed:]
}

// MarkFlushed records that PendingEntries has been written to an A record.
func (si *StringIntern) MarkFlushed() { si.flushed = len(si.order) }

// Size returns the number of entries in the current generation's
// dictionary (used against clearThreshold).
func (si *StringIntern) Size() int { return len(si.order) }

// Purge removes the interned-lookup mapping for entries whose occurrence
// count is below threshold. The ordered dictionary itself is untouched —
// readers have already numbered those entries and indices are never
// reused within a generation (spec §4.4).
func (si *StringIntern) Purge(threshold int) {
	for s, i := range si.interned {
		if si.occurs[i] < threshold {
			delete(si.interned, s)
		}
	}
}

// Clear resets interned lookups and, when clearUsageTracker is true, the
// candidate cache too, and starts a fresh dictionary generation (spec
// §4.5's clear(clearUsageTracker)).
func (si *StringIntern) Clear(clearUsageTracker bool) {
	si.interned = make(map[string]int)
	si.order = nil
	si.occurs = nil
	si.flushed = 0
	if clearUsageTracker || si.lru == nil {
		si.lru = list.New()
		si.buckets = make(map[uint64][]*list.Element)
	}
}

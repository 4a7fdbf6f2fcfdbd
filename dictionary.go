// Reader-side dictionary model, grounded on
// original_source/src/Dictionary.h: an append-only ordered string list
// per generation, identified by the absolute byte position of the C
// record that began it, with a small LRU of generations so tail/bisect
// don't thrash rebuilding dictionaries while walking back-references.
package austream

// dict is one dictionary generation.
type dict struct {
	startPos    int64 // position of the C record that began this generation
	lastDictPos int64 // position of the most recent A (or the C itself)
	entries     []string
}

func newDict(startPos int64) *dict {
	return &dict{startPos: startPos, lastDictPos: startPos}
}

func (d *dict) includes(pos int64) bool {
	return pos >= d.startPos && pos <= d.lastDictPos
}

// Dictionary is a small LRU of dict generations. capacity is typically 1
// for sequential decode and 32 for bisect (spec §4.6), so repeated
// back-references during a search don't force a rebuild every time.
type Dictionary struct {
	capacity int
	gens     []*dict // most recently used at the end
}

// NewDictionary constructs a Dictionary LRU with room for capacity
// concurrent generations.
func NewDictionary(capacity int) *Dictionary {
	if capacity < 1 {
		capacity = 1
	}
	return &Dictionary{capacity: capacity}
}

func (dct *Dictionary) touch(d *dict) {
	for i, g := range dct.gens {
		if g == d {
			dct.gens = append(dct.gens[:i], dct.gens[i+1:]...)
			break
		}
	}
	dct.gens = append(dct.gens, d)
	if len(dct.gens) > dct.capacity {
		dct.gens = dct.gens[1:]
	}
}

// Clear begins a new dictionary generation whose identity is sor (the
// absolute position of the C record). A no-op if a generation already
// has that identity; a structural error if an existing generation's
// range straddles sor without starting there.
func (dct *Dictionary) Clear(sor int64) error {
	for _, g := range dct.gens {
		if g.startPos == sor {
			dct.touch(g)
			return nil
		}
		if g.includes(sor) {
			return newParseError(sor, "C record at %d falls inside existing dictionary [%d,%d]", sor, g.startPos, g.lastDictPos)
		}
	}
	d := newDict(sor)
	dct.touch(d)
	return nil
}

// findDictionary returns the generation containing absolute position
// sor-backref within [startPos, lastDictPos], per spec §4.6.
func (dct *Dictionary) findDictionary(sor int64, backref int64) (*dict, error) {
	target := sor - backref
	for _, g := range dct.gens {
		if g.includes(target) {
			dct.touch(g)
			return g, nil
		}
	}
	return nil, ErrUnknownDictionary
}

// add appends string s (read from an A record at position sor) to the
// generation found at sor-backref, and advances that generation's
// lastDictPos to sor. Returns the generation for subsequent adds within
// the same A record.
func (dct *Dictionary) add(sor, backref int64, s string) (*dict, error) {
	g, err := dct.findDictionary(sor, backref)
	if err != nil {
		return nil, err
	}
	g.entries = append(g.entries, s)
	g.lastDictPos = sor
	return g, nil
}

// registerRebuilt inserts a generation reconstructed by tail sync
// (dictionaryBuilder) directly, bypassing add's backref bookkeeping
// since the caller has already validated the chain.
func (dct *Dictionary) registerRebuilt(g *dict) {
	for _, existing := range dct.gens {
		if existing.startPos == g.startPos {
			dct.touch(existing)
			return
		}
	}
	dct.touch(g)
}

func (d *dict) resolve(idx uint64) (string, error) {
	if idx >= uint64(len(d.entries)) {
		return "", newParseError(d.lastDictPos, "dictionary index %d out of range (size %d)", idx, len(d.entries))
	}
	return d.entries[idx], nil
}

// Tail/Sync: locate a valid V-record boundary near an arbitrary seek
// point and reconstruct the active dictionary by walking backward
// through its A/C chain. Grounded on original_source/src/Tail.h's
// DictionaryBuilder/ValidatingHandler/TailHandler.
package austream

// noopHandler discards all value events; used to validate a candidate
// record's framing (byte-length self-consistency, dictionary-reference
// bounds) without materializing a Value tree, mirroring
// original_source/src/Tail.h's ValidatingHandler (a bounds-checking
// subclass of NoopValueHandler).
type noopHandler struct{}

func (noopHandler) OnObjectStart() error            { return nil }
func (noopHandler) OnObjectEnd() error              { return nil }
func (noopHandler) OnArrayStart() error             { return nil }
func (noopHandler) OnArrayEnd() error                { return nil }
func (noopHandler) OnBool(bool) error                { return nil }
func (noopHandler) OnNull() error                    { return nil }
func (noopHandler) OnPosInt(uint64) error            { return nil }
func (noopHandler) OnNegInt(uint64) error            { return nil }
func (noopHandler) OnDouble(uint64) error            { return nil }
func (noopHandler) OnTimestamp(int64) error          { return nil }
func (noopHandler) OnStringStart(int) error          { return nil }
func (noopHandler) OnStringFragment([]byte) error    { return nil }
func (noopHandler) OnStringEnd() error               { return nil }

// buildDictionary walks backward from startPos (which must name an A or
// C record) until it reaches a C, collecting each A's entries, then
// returns the fully reconstructed generation keyed by the C's position
// (spec §9: "the rebuilt dictionary must be keyed by the C's absolute
// position, not the V's back-reference").
func buildDictionary(src ByteSource, startPos int64) (*dict, error) {
	type link struct {
		entries []string
		pos     int64
	}
	var chain []link
	pos := startPos
	for {
		if err := src.Seek(pos); err != nil {
			return nil, err
		}
		marker, err := src.Next()
		if err != nil {
			return nil, err
		}
		switch marker {
		case recAdd:
			backref, err := readUvarint(src)
			if err != nil {
				return nil, err
			}
			var entries []string
			for {
				b, err := src.Peek(1)
				if err != nil {
					return nil, err
				}
				if b[0] == 'E' {
					term, err := src.ReadN(2)
					if err != nil {
						return nil, err
					}
					if term[1] != '\n' {
						return nil, newParseError(pos, "missing record terminator E\\n")
					}
					break
				}
				m, err := src.Next()
				if err != nil {
					return nil, err
				}
				if m != markString {
					return nil, newParseError(pos, "A record entries must be strings")
				}
				n, err := readUvarint(src)
				if err != nil {
					return nil, err
				}
				data, err := src.ReadN(int(n))
				if err != nil {
					return nil, err
				}
				entries = append(entries, string(data))
			}
			chain = append(chain, link{entries: entries, pos: pos})
			pos = pos - int64(backref)
		case recClear:
			term, err := src.ReadN(2)
			if err != nil {
				return nil, err
			}
			if term[0] != 'E' || term[1] != '\n' {
				return nil, newParseError(pos, "missing record terminator E\\n")
			}
			g := newDict(pos)
			for i := len(chain) - 1; i >= 0; i-- {
				g.entries = append(g.entries, chain[i].entries...)
				g.lastDictPos = chain[i].pos
			}
			return g, nil
		default:
			return nil, newParseError(pos, "expected A or C record while rebuilding dictionary, got %q", marker)
		}
	}
}

// trySync validates one sync candidate: seeks to it, confirms it is a V
// record, rebuilds the referenced dictionary generation if unknown, then
// re-parses the whole record with a noopHandler to confirm its declared
// length is self-consistent. Leaves the cursor at candidate on success.
func trySync(src ByteSource, dict *Dictionary, candidate int64) error {
	if err := src.Seek(candidate); err != nil {
		return err
	}
	marker, err := src.Next()
	if err != nil {
		return err
	}
	if marker != recValue {
		return newParseError(candidate, "sync candidate is not a V record")
	}
	backref, err := readUvarint(src)
	if err != nil {
		return err
	}
	if _, ferr := dict.findDictionary(candidate, int64(backref)); ferr != nil {
		g, berr := buildDictionary(src, candidate-int64(backref))
		if berr != nil {
			return berr
		}
		dict.registerRebuilt(g)
	}

	if err := src.Seek(candidate); err != nil {
		return err
	}
	rp := NewRecordParser(src, dict, noopHandler{})
	kind, err := rp.ReadRecord()
	if err != nil {
		return err
	}
	if kind != KindValue {
		return newParseError(candidate, "sync candidate did not parse as a V record")
	}
	return src.Seek(candidate)
}

// Sync scans forward from the source's current position for the E\n V
// boundary pattern, validates each candidate, and on success leaves the
// cursor at the start of a V record whose dictionary is resolvable in
// dict, returning that record's absolute position. On a validation
// failure it retries one byte later (spec §4.8). Returns ErrNoSync if no
// valid boundary is found before the source is exhausted.
func Sync(src ByteSource, dict *Dictionary) (int64, error) {
	for {
		matchPos, err := src.ScanTo([]byte{'E', '\n', recValue})
		if err != nil {
			return 0, ErrNoSync
		}
		candidate := matchPos + 2
		if syncErr := trySync(src, dict, candidate); syncErr == nil {
			return candidate, nil
		}
		if err := src.Seek(matchPos + 1); err != nil {
			return 0, ErrNoSync
		}
	}
}

// Record-level framing, grounded on
// original_source/src/au/AuDecoder.h's RecordParser template: a trivial
// switch over the first record byte (H/C/A/V), delegating value bytes to
// ValueParser and dictionary bookkeeping to Dictionary.
package austream

// RecordKind identifies which of the four record types ReadRecord just
// consumed.
type RecordKind int

const (
	KindHeader RecordKind = iota
	KindClear
	KindAdd
	KindValue
)

// RecordParser reads one record at a time from src, maintaining dict and
// delivering V-record value events to handler.
type RecordParser struct {
	src     ByteSource
	dict    *Dictionary
	handler Handler
	vparser *ValueParser

	// activeGen is the dictionary generation resolved for the record
	// currently being parsed; resolveDictString reads through it.
	activeGen *dict

	// HeaderVersion is set after a KindHeader record is read.
	HeaderVersion uint64
}

// NewRecordParser builds a parser over src, using dict (typically
// capacity 1 for sequential decode, 32 for bisect) to track dictionary
// generations, and delivering V-record values to handler.
func NewRecordParser(src ByteSource, dict *Dictionary, handler Handler) *RecordParser {
	rp := &RecordParser{src: src, dict: dict, handler: handler}
	rp.vparser = newValueParser(src, handler, rp)
	return rp
}

func (rp *RecordParser) resolveDictString(idx uint64) (string, error) {
	if rp.activeGen == nil {
		return "", ErrUnknownDictionary
	}
	return rp.activeGen.resolve(idx)
}

// expectEnd consumes the mandatory E\n record terminator.
func (rp *RecordParser) expectEnd(recPos int64) error {
	b, err := rp.src.ReadN(2)
	if err != nil {
		return err
	}
	if b[0] != 'E' || b[1] != '\n' {
		return newParseError(recPos, "missing record terminator E\\n")
	}
	return nil
}

// ReadRecord reads and fully consumes one record. On KindValue, handler
// has already received the complete set of value events for that
// record's payload.
func (rp *RecordParser) ReadRecord() (RecordKind, error) {
	pos := rp.src.Pos()
	marker, err := rp.src.Next()
	if err != nil {
		return 0, err
	}
	switch marker {
	case recHeader:
		return rp.readHeader(pos)
	case recClear:
		return rp.readClear(pos)
	case recAdd:
		return rp.readAdd(pos)
	case recValue:
		return rp.readValue(pos)
	default:
		return 0, newParseError(pos, "unexpected record marker %q", marker)
	}
}

func (rp *RecordParser) readHeader(pos int64) (RecordKind, error) {
	m, err := rp.src.Next()
	if err != nil {
		return 0, err
	}
	if m != markPosInt {
		return 0, newParseError(pos, "header record missing version marker")
	}
	version, err := readUvarint(rp.src)
	if err != nil {
		return 0, err
	}
	rp.HeaderVersion = version
	if err := rp.expectEnd(pos); err != nil {
		return 0, err
	}
	return KindHeader, nil
}

func (rp *RecordParser) readClear(pos int64) (RecordKind, error) {
	if err := rp.dict.Clear(pos); err != nil {
		return 0, err
	}
	if err := rp.expectEnd(pos); err != nil {
		return 0, err
	}
	return KindClear, nil
}

func (rp *RecordParser) readAdd(pos int64) (RecordKind, error) {
	backref, err := readUvarint(rp.src)
	if err != nil {
		return 0, err
	}
	var gen *dict
	for {
		b, err := rp.src.Peek(1)
		if err != nil {
			return 0, err
		}
		if b[0] == 'E' {
			rp.src.Next()
			nl, err := rp.src.Next()
			if err != nil {
				return 0, err
			}
			if nl != '\n' {
				return 0, newParseError(pos, "missing record terminator E\\n")
			}
			if gen != nil {
				rp.activeGen = gen
			}
			return KindAdd, nil
		}
		m, err := rp.src.Next()
		if err != nil {
			return 0, err
		}
		if m != markString {
			return 0, newParseError(pos, "A record entries must be strings, got %q", m)
		}
		n, err := readUvarint(rp.src)
		if err != nil {
			return 0, err
		}
		data, err := rp.src.ReadN(int(n))
		if err != nil {
			return 0, err
		}
		gen, err = rp.dict.add(pos, backref, string(data))
		if err != nil {
			return 0, err
		}
		_ = gen
	}
}

func (rp *RecordParser) readValue(pos int64) (RecordKind, error) {
	backref, err := readUvarint(rp.src)
	if err != nil {
		return 0, err
	}
	length, err := readUvarint(rp.src)
	if err != nil {
		return 0, err
	}
	gen, err := rp.dict.findDictionary(pos, backref)
	if err != nil {
		return 0, err
	}
	rp.activeGen = gen

	valueStart := rp.src.Pos()
	if err := rp.vparser.ParseValue(); err != nil {
		return 0, err
	}
	consumed := rp.src.Pos() - valueStart
	if consumed != int64(length) {
		return 0, newParseError(pos, "V record declared %d value bytes, consumed %d", length, consumed)
	}
	if err := rp.expectEnd(pos); err != nil {
		return 0, err
	}
	return KindValue, nil
}

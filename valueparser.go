// Recursive-descent value decoder, grounded on
// original_source/src/au/AuDecoder.h's ValueParser template: a switch
// over marker bytes producing balanced object/array events against a
// handler. Restated here against the Handler interface instead of the
// original's virtual-dispatch handler object.
package austream

// dictResolver resolves a dictionary index, within the generation active
// for the record currently being parsed, to its string. RecordParser
// implements this by consulting its Dictionary.
type dictResolver interface {
	resolveDictString(idx uint64) (string, error)
}

// ValueParser decodes one value at a time from src, delivering events to
// handler. X (dictionary reference) markers are resolved through resolve.
type ValueParser struct {
	src     ByteSource
	handler Handler
	resolve dictResolver
}

func newValueParser(src ByteSource, handler Handler, resolve dictResolver) *ValueParser {
	return &ValueParser{src: src, handler: handler, resolve: resolve}
}

// ParseValue reads exactly one value (any marker, recursively including
// nested containers) and reports a *ParseError for any unexpected byte,
// overlong varint, or out-of-range dictionary reference.
func (p *ValueParser) ParseValue() error {
	pos := p.src.Pos()
	marker, err := p.src.Next()
	if err != nil {
		return err
	}
	switch marker {
	case markTrue:
		return p.handler.OnBool(true)
	case markFalse:
		return p.handler.OnBool(false)
	case markNull:
		return p.handler.OnNull()
	case markPosInt:
		v, err := readUvarint(p.src)
		if err != nil {
			return err
		}
		return p.handler.OnPosInt(v)
	case markNegInt:
		v, err := readUvarint(p.src)
		if err != nil {
			return err
		}
		return p.handler.OnNegInt(v)
	case markPosInt64Packed:
		v, err := readFixed8(p.src)
		if err != nil {
			return err
		}
		return p.handler.OnPosInt(v)
	case markNegInt64Packed:
		v, err := readFixed8(p.src)
		if err != nil {
			return err
		}
		return p.handler.OnNegInt(v)
	case markDouble:
		bits, err := readFixed8(p.src)
		if err != nil {
			return err
		}
		return p.handler.OnDouble(bits)
	case markTimestamp:
		bits, err := readFixed8(p.src)
		if err != nil {
			return err
		}
		return p.handler.OnTimestamp(int64(bits))
	case markString:
		return p.parseInlineString()
	case markDictRef:
		return p.parseDictRef()
	case markArrayOpen:
		return p.parseArray()
	case markObjOpen:
		return p.parseObject()
	default:
		return newParseError(pos, "unexpected value marker %q", marker)
	}
}

func (p *ValueParser) parseInlineString() error {
	n, err := readUvarint(p.src)
	if err != nil {
		return err
	}
	data, err := p.src.ReadN(int(n))
	if err != nil {
		return err
	}
	if err := p.handler.OnStringStart(int(n)); err != nil {
		return err
	}
	if err := p.handler.OnStringFragment(data); err != nil {
		return err
	}
	return p.handler.OnStringEnd()
}

func (p *ValueParser) parseDictRef() error {
	pos := p.src.Pos()
	idx, err := readUvarint(p.src)
	if err != nil {
		return err
	}
	if p.resolve == nil {
		return newParseError(pos, "dictionary reference with no active dictionary")
	}
	s, err := p.resolve.resolveDictString(idx)
	if err != nil {
		return err
	}
	if err := p.handler.OnStringStart(len(s)); err != nil {
		return err
	}
	if err := p.handler.OnStringFragment([]byte(s)); err != nil {
		return err
	}
	return p.handler.OnStringEnd()
}

func (p *ValueParser) parseArray() error {
	if err := p.handler.OnArrayStart(); err != nil {
		return err
	}
	for {
		b, err := p.src.Peek(1)
		if err != nil {
			return err
		}
		if b[0] == markArrayEnd {
			p.src.Next()
			return p.handler.OnArrayEnd()
		}
		if err := p.ParseValue(); err != nil {
			return err
		}
	}
}

func (p *ValueParser) parseObject() error {
	if err := p.handler.OnObjectStart(); err != nil {
		return err
	}
	for {
		b, err := p.src.Peek(1)
		if err != nil {
			return err
		}
		if b[0] == markObjEnd {
			p.src.Next()
			return p.handler.OnObjectEnd()
		}
		if err := p.ParseValue(); err != nil { // key
			return err
		}
		if err := p.ParseValue(); err != nil { // value
			return err
		}
	}
}

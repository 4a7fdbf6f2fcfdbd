// High-level stream open/create, wiring Encoder/RecordParser/ByteSource
// together the way folio's db.go wires DB around a root+reader+writer.
package austream

import "os"

// Decoder decodes successive top-level values from a RecordParser,
// transparently skipping H/C/A records.
type Decoder struct {
	src  ByteSource
	dict *Dictionary
	rp   *RecordParser
	dh   *DecodeHandler
}

// NewDecoder wraps src for sequential decoding with a single active
// dictionary generation (capacity 1, per spec §4.6).
func NewDecoder(src ByteSource) *Decoder {
	dict := NewDictionary(1)
	dh := NewDecodeHandler()
	return &Decoder{src: src, dict: dict, dh: dh, rp: NewRecordParser(src, dict, dh)}
}

// NewDecoderWithDictionary wraps src using an existing Dictionary (e.g.
// one a tail sync or bisect has already populated, typically capacity 32).
func NewDecoderWithDictionary(src ByteSource, dict *Dictionary) *Decoder {
	dh := NewDecodeHandler()
	return &Decoder{src: src, dict: dict, dh: dh, rp: NewRecordParser(src, dict, dh)}
}

// Next returns the next top-level value, or io.EOF at end of stream.
func (d *Decoder) Next() (Value, error) {
	for {
		kind, err := d.rp.ReadRecord()
		if err != nil {
			return nil, err
		}
		if kind == KindValue {
			v := d.dh.Result
			d.dh.Result = nil
			return v, nil
		}
	}
}

// Pos reports the absolute byte offset of the read cursor.
func (d *Decoder) Pos() int64 { return d.src.Pos() }

// Dictionary exposes the underlying reader-side dictionary LRU, used by
// tail/bisect to inject a reconstructed generation before resuming
// sequential decode from a new position.
func (d *Decoder) Dictionary() *Dictionary { return d.dict }

// Source exposes the underlying ByteSource for seek/pin operations.
func (d *Decoder) Source() ByteSource { return d.src }

// StreamReader owns an open AuStream file for sequential or random-access
// decoding.
type StreamReader struct {
	*Decoder
}

// Open opens path (transparently unwrapping .gz with an auzx sidecar if
// present, per OpenFile) and verifies the H record.
func Open(path string) (*StreamReader, error) {
	src, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	dec := NewDecoder(src)
	kind, err := dec.rp.ReadRecord()
	if err != nil {
		src.Close()
		return nil, err
	}
	if kind != KindHeader {
		src.Close()
		return nil, ErrCorruptHeader
	}
	return &StreamReader{Decoder: dec}, nil
}

func (r *StreamReader) Close() error { return r.src.Close() }

// StreamWriter owns an AuStream file opened for writing under an
// exclusive OS lock (spec Non-goal: concurrent writers to a single
// stream are unsupported, so Create enforces single-writer at the OS
// level the way folio's lock.go enforces it for its database file).
type StreamWriter struct {
	*Encoder
	f    *os.File
	lock *fileLock
}

// Create truncates (or creates) path and returns a StreamWriter ready to
// Encode records onto it.
func Create(path string, opts ...EncoderOption) (*StreamWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	l := &fileLock{f: f}
	if err := l.Lock(LockExclusive); err != nil {
		f.Close()
		return nil, err
	}
	enc, err := NewEncoder(f, opts...)
	if err != nil {
		l.Unlock()
		f.Close()
		return nil, err
	}
	return &StreamWriter{Encoder: enc, f: f, lock: l}, nil
}

func (w *StreamWriter) Close() error {
	w.lock.Unlock()
	w.lock.setFile(nil)
	return w.f.Close()
}

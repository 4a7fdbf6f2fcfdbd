// Producer-driven stream encoder, grounded on
// original_source/src/au/AuEncoder.h's Au/AuFormatter classes: a
// reusable scratch buffer collects one value's bytes from a caller
// closure, then the encoder flushes any pending dictionary delta ahead
// of the V record, and applies the purge/clear maintenance policy.
package austream

import (
	"io"
	"math"
	"time"
)

// EncoderConfig holds the tunables from spec §4.4/§4.5, mirroring
// folio's Config struct-of-options pattern (db.go) rather than a long
// constructor parameter list.
type EncoderConfig struct {
	TinyStr         int
	InternThreshold int
	CacheSize       int
	PurgeInterval   int
	PurgeThreshold  int
	ClearThreshold  int
}

// DefaultEncoderConfig returns the spec's documented defaults.
func DefaultEncoderConfig() EncoderConfig {
	return EncoderConfig{
		TinyStr:         defaultTinyStr,
		InternThreshold: defaultInternThreshold,
		CacheSize:       defaultCacheSize,
		PurgeInterval:   defaultPurgeInterval,
		PurgeThreshold:  defaultPurgeThreshold,
		ClearThreshold:  defaultClearThreshold,
	}
}

// EncoderOption customizes an EncoderConfig before an Encoder is built.
type EncoderOption func(*EncoderConfig)

func WithTinyStr(n int) EncoderOption         { return func(c *EncoderConfig) { c.TinyStr = n } }
func WithInternThreshold(n int) EncoderOption { return func(c *EncoderConfig) { c.InternThreshold = n } }
func WithCacheSize(n int) EncoderOption       { return func(c *EncoderConfig) { c.CacheSize = n } }
func WithPurgeInterval(n int) EncoderOption   { return func(c *EncoderConfig) { c.PurgeInterval = n } }
func WithPurgeThreshold(n int) EncoderOption  { return func(c *EncoderConfig) { c.PurgeThreshold = n } }
func WithClearThreshold(n int) EncoderOption  { return func(c *EncoderConfig) { c.ClearThreshold = n } }

// Encoder frames records onto sink: one H record at construction, then
// an interleaving of C/A/V records as Encode is called. The caller owns
// sink's lifetime; Encoder never reorders or drops records and fails
// only on I/O errors from sink (spec §4.4).
type Encoder struct {
	sink   io.Writer
	cfg    EncoderConfig
	intern *StringIntern

	writePos    int64
	dictStart   int64 // position of the active generation's C record
	lastDictPos int64 // position of that generation's most recent A (or its C)

	recordCount int
	scratch     []byte
}

// NewEncoder constructs an Encoder and immediately writes the stream's H
// and initial C records to sink.
func NewEncoder(sink io.Writer, opts ...EncoderOption) (*Encoder, error) {
	cfg := DefaultEncoderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Encoder{
		sink:   sink,
		cfg:    cfg,
		intern: NewStringIntern(cfg.TinyStr, cfg.InternThreshold, cfg.CacheSize),
	}
	if err := e.writeHeader(); err != nil {
		return nil, err
	}
	if err := e.writeClear(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Encoder) write(buf []byte) error {
	n, err := e.sink.Write(buf)
	e.writePos += int64(n)
	return err
}

func (e *Encoder) writeHeader() error {
	buf := make([]byte, 0, len(headerSignature))
	buf = append(buf, recHeader, markPosInt)
	buf = putUvarint(buf, formatVersion)
	buf = append(buf, recordEnd[:]...)
	return e.write(buf)
}

func (e *Encoder) writeClear() error {
	pos := e.writePos
	if err := e.write([]byte{recClear, 'E', '\n'}); err != nil {
		return err
	}
	e.dictStart = pos
	e.lastDictPos = pos
	e.intern.Clear(true)
	return nil
}

func (e *Encoder) writeAdd(entries []string) error {
	pos := e.writePos
	buf := make([]byte, 0, 32)
	buf = append(buf, recAdd)
	buf = putUvarint(buf, uint64(pos-e.lastDictPos))
	for _, s := range entries {
		buf = append(buf, markString)
		buf = putUvarint(buf, uint64(len(s)))
		buf = append(buf, s...)
	}
	buf = append(buf, recordEnd[:]...)
	if err := e.write(buf); err != nil {
		return err
	}
	e.lastDictPos = pos
	e.intern.MarkFlushed()
	return nil
}

func (e *Encoder) writeValue(payload []byte) error {
	pos := e.writePos
	head := make([]byte, 0, 16)
	head = append(head, recValue)
	head = putUvarint(head, uint64(pos-e.lastDictPos))
	head = putUvarint(head, uint64(len(payload)))
	if err := e.write(head); err != nil {
		return err
	}
	if err := e.write(payload); err != nil {
		return err
	}
	return e.write(recordEnd[:])
}

// Encode invokes producer against a fresh Writer over the reusable
// scratch buffer. If producer writes nothing, no record is emitted.
// Otherwise a dictionary-delta A record (if any strings were newly
// promoted) is flushed, then the V record, then the purge/clear
// maintenance policy runs.
func (e *Encoder) Encode(producer func(w *Writer)) error {
	e.scratch = e.scratch[:0]
	w := &Writer{e: e, buf: &e.scratch}
	producer(w)
	if len(e.scratch) == 0 {
		return nil
	}

	if pending := e.intern.PendingEntries(); len(pending) > 0 {
		if err := e.writeAdd(pending); err != nil {
			return err
		}
	}
	if err := e.writeValue(e.scratch); err != nil {
		return err
	}
	e.recordCount++

	if e.cfg.PurgeInterval > 0 && e.recordCount%e.cfg.PurgeInterval == 0 {
		e.intern.Purge(e.cfg.PurgeThreshold)
	}
	if e.intern.Size() > e.cfg.ClearThreshold {
		if err := e.writeClear(); err != nil {
			return err
		}
	}
	return nil
}

// Writer is the producer-facing value-writing API, analogous to
// AuFormatter in original_source/src/au/AuEncoder.h.
type Writer struct {
	e   *Encoder
	buf *[]byte
}

func (w *Writer) Null()      { *w.buf = append(*w.buf, markNull) }
func (w *Writer) Bool(v bool) {
	if v {
		*w.buf = append(*w.buf, markTrue)
	} else {
		*w.buf = append(*w.buf, markFalse)
	}
}

// Int emits the canonical I/J varint form (spec §4.2).
func (w *Writer) Int(v int64) {
	if v >= 0 {
		*w.buf = append(*w.buf, markPosInt)
		*w.buf = putUvarint(*w.buf, uint64(v))
	} else {
		*w.buf = append(*w.buf, markNegInt)
		*w.buf = putUvarint(*w.buf, uint64(-v))
	}
}

// Uint emits a non-negative integer that may exceed int64's range.
func (w *Writer) Uint(v uint64) {
	*w.buf = append(*w.buf, markPosInt)
	*w.buf = putUvarint(*w.buf, v)
}

func (w *Writer) Double(v float64) {
	*w.buf = append(*w.buf, markDouble)
	*w.buf = putDouble(*w.buf, math.Float64bits(v))
}

func (w *Writer) Timestamp(t time.Time) {
	*w.buf = append(*w.buf, markTimestamp)
	*w.buf = putDouble(*w.buf, uint64(t.UnixNano()))
}

// String applies the default interning policy (candidate-tracked).
func (w *Writer) String(s string) { w.writeString(s, internAuto) }

// InternString forces interning above TinyStr, regardless of usage history.
func (w *Writer) InternString(s string) { w.writeString(s, internYes) }

// RawString forces inlining, never interning.
func (w *Writer) RawString(s string) { w.writeString(s, internNo) }

// Key writes an object key, which is always a must-intern string per
// the canonical encoding rule in spec §4.2.
func (w *Writer) Key(s string) { w.writeString(s, internYes) }

func (w *Writer) writeString(s string, policy internPolicy) {
	if idx, ok := w.e.intern.Idx(s, policy); ok {
		*w.buf = append(*w.buf, markDictRef)
		*w.buf = putUvarint(*w.buf, uint64(idx))
		return
	}
	*w.buf = append(*w.buf, markString)
	*w.buf = putUvarint(*w.buf, uint64(len(s)))
	*w.buf = append(*w.buf, s...)
}

func (w *Writer) ArrayStart()  { *w.buf = append(*w.buf, markArrayOpen) }
func (w *Writer) ArrayEnd()    { *w.buf = append(*w.buf, markArrayEnd) }
func (w *Writer) ObjectStart() { *w.buf = append(*w.buf, markObjOpen) }
func (w *Writer) ObjectEnd()   { *w.buf = append(*w.buf, markObjEnd) }

// Value writes an arbitrary decoded Value tree (used by the JSON→Au
// converter). Object keys are written via Key (must-intern); all other
// strings use the default candidate-tracked policy.
func (w *Writer) Value(v Value) {
	switch t := v.(type) {
	case nil:
		w.Null()
	case bool:
		w.Bool(t)
	case int64:
		w.Int(t)
	case int:
		w.Int(int64(t))
	case uint64:
		w.Uint(t)
	case float64:
		w.Double(t)
	case time.Time:
		w.Timestamp(t)
	case string:
		w.String(t)
	case []Value:
		w.ArrayStart()
		for _, e := range t {
			w.Value(e)
		}
		w.ArrayEnd()
	case *Object:
		w.ObjectStart()
		for i, k := range t.Keys {
			w.Key(k)
			w.Value(t.Values[i])
		}
		w.ObjectEnd()
	default:
		w.Null()
	}
}

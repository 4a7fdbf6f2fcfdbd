package austream

import (
	"math"
	"time"
)

// Value is a decoded AuStream value. Concrete dynamic types: nil, bool,
// int64, uint64 (only for magnitudes that overflow int64, per spec §8),
// float64, time.Time, string, []Value, *Object.
type Value = any

// Object is an ordered sequence of key/value pairs. Object records
// preserve encounter order (spec §3: dictionary entries never renumber,
// and object members are pairs of values read in wire order) so a plain
// Go map, which has no stable iteration order, would silently reorder
// output on every decode.
type Object struct {
	Keys   []string
	Values []Value
}

// Get returns the value for key and whether it was present. Objects are
// typically small (log records), so linear scan beats building a map.
func (o *Object) Get(key string) (Value, bool) {
	for i, k := range o.Keys {
		if k == key {
			return o.Values[i], true
		}
	}
	return nil, false
}

func (o *Object) set(key string, v Value) {
	o.Keys = append(o.Keys, key)
	o.Values = append(o.Values, v)
}

// DecodeHandler is a Handler that materializes events into a Value tree.
// After a successful parse of one top-level value, Result holds it.
type DecodeHandler struct {
	Result Value

	stack   []any // *Object or *[]Value, innermost last
	keyMode []bool
	pending string
	strBuf  []byte
	inStr   bool
}

func NewDecodeHandler() *DecodeHandler { return &DecodeHandler{} }

func (d *DecodeHandler) emit(v Value) error {
	if len(d.stack) == 0 {
		d.Result = v
		return nil
	}
	switch top := d.stack[len(d.stack)-1].(type) {
	case *[]Value:
		*top = append(*top, v)
	case *Object:
		n := len(d.stack) - 1
		if d.keyMode[n] {
			s, ok := v.(string)
			if !ok {
				return newParseError(0, "object key must be a string")
			}
			d.pending = s
			d.keyMode[n] = false
		} else {
			top.set(d.pending, v)
			d.keyMode[n] = true
		}
	}
	return nil
}

func (d *DecodeHandler) OnObjectStart() error {
	o := &Object{}
	d.stack = append(d.stack, o)
	d.keyMode = append(d.keyMode, true)
	return nil
}

func (d *DecodeHandler) OnObjectEnd() error {
	o := d.stack[len(d.stack)-1].(*Object)
	d.stack = d.stack[:len(d.stack)-1]
	d.keyMode = d.keyMode[:len(d.keyMode)-1]
	return d.emit(o)
}

func (d *DecodeHandler) OnArrayStart() error {
	arr := &[]Value{}
	d.stack = append(d.stack, arr)
	d.keyMode = append(d.keyMode, false)
	return nil
}

func (d *DecodeHandler) OnArrayEnd() error {
	arr := d.stack[len(d.stack)-1].(*[]Value)
	d.stack = d.stack[:len(d.stack)-1]
	d.keyMode = d.keyMode[:len(d.keyMode)-1]
	if *arr == nil {
		return d.emit([]Value{})
	}
	return d.emit(*arr)
}

func (d *DecodeHandler) OnBool(v bool) error  { return d.emit(v) }
func (d *DecodeHandler) OnNull() error        { return d.emit(nil) }
func (d *DecodeHandler) OnPosInt(v uint64) error {
	if v <= math.MaxInt64 {
		return d.emit(int64(v))
	}
	return d.emit(v)
}
func (d *DecodeHandler) OnNegInt(v uint64) error { return d.emit(-int64(v)) }
func (d *DecodeHandler) OnDouble(bits uint64) error {
	return d.emit(math.Float64frombits(bits))
}
func (d *DecodeHandler) OnTimestamp(ns int64) error {
	return d.emit(time.Unix(0, ns).UTC())
}

func (d *DecodeHandler) OnStringStart(length int) error {
	d.strBuf = make([]byte, 0, length)
	d.inStr = true
	return nil
}
func (d *DecodeHandler) OnStringFragment(data []byte) error {
	d.strBuf = append(d.strBuf, data...)
	return nil
}
func (d *DecodeHandler) OnStringEnd() error {
	d.inStr = false
	return d.emit(string(d.strBuf))
}

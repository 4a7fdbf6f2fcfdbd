package austream

import (
	"bytes"
	"testing"
)

// encodeValues drives enc with each v in vs as a full Value tree,
// mirroring the JSON->Au producer calling contract.
func encodeValues(t *testing.T, enc *Encoder, vs ...Value) {
	t.Helper()
	for _, v := range vs {
		if err := enc.Encode(func(w *Writer) { w.Value(v) }); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
}

func TestEncodeDecodeSeedScenario1(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	emptyObj := &Object{}
	rec2 := &Object{}
	rec2.set("key1", "value1")
	rec2.set("key2", int64(-5000))
	rec2.set("keyToIntern3", false)

	arr := []Value{int64(6), int64(1), int64(0), int64(-7), int64(-2), 5.9, -5.9}
	emptyArr := []Value{}

	encodeValues(t, enc, emptyObj, rec2, arr, emptyArr)

	dec := NewDecoder(NewBufferSource(buf.Bytes()))
	kind, err := dec.rp.ReadRecord()
	if err != nil || kind != KindHeader {
		t.Fatalf("expected header, got %v %v", kind, err)
	}

	var got []Value
	for i := 0; i < 4; i++ {
		v, err := dec.Next()
		if err != nil {
			t.Fatalf("decode record %d: %v", i, err)
		}
		got = append(got, v)
	}

	obj0, ok := got[0].(*Object)
	if !ok || len(obj0.Keys) != 0 {
		t.Fatalf("record 0: expected empty object, got %#v", got[0])
	}
	obj1, ok := got[1].(*Object)
	if !ok {
		t.Fatalf("record 1: expected object, got %#v", got[1])
	}
	if v, _ := obj1.Get("key1"); v != "value1" {
		t.Errorf("key1 = %v", v)
	}
	if v, _ := obj1.Get("key2"); v != int64(-5000) {
		t.Errorf("key2 = %v", v)
	}
	if v, _ := obj1.Get("keyToIntern3"); v != false {
		t.Errorf("keyToIntern3 = %v", v)
	}
	arrGot, ok := got[2].([]Value)
	if !ok || len(arrGot) != 7 {
		t.Fatalf("record 2: expected 7-element array, got %#v", got[2])
	}
	expectArr := []Value{int64(6), int64(1), int64(0), int64(-7), int64(-2), 5.9, -5.9}
	for i := range expectArr {
		if arrGot[i] != expectArr[i] {
			t.Errorf("array[%d] = %v, want %v", i, arrGot[i], expectArr[i])
		}
	}
	arrEmpty, ok := got[3].([]Value)
	if !ok || len(arrEmpty) != 0 {
		t.Fatalf("record 3: expected empty array, got %#v", got[3])
	}
}

func TestEncodeDecodeInterningAtThreshold(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, WithInternThreshold(10), WithTinyStr(0))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	// One array of 12 repetitions, then a 13th bare value.
	arr := make([]Value, 12)
	for i := range arr {
		arr[i] = "valToIntern"
	}
	if err := enc.Encode(func(w *Writer) {
		w.ArrayStart()
		for range arr {
			w.String("valToIntern")
		}
		w.ArrayEnd()
	}); err != nil {
		t.Fatalf("encode array: %v", err)
	}
	if err := enc.Encode(func(w *Writer) { w.String("valToIntern") }); err != nil {
		t.Fatalf("encode bare value: %v", err)
	}

	raw := buf.Bytes()
	// All S markers for "valToIntern" up to the threshold, then X after.
	sCount := bytes.Count(raw, []byte{markString})
	xCount := bytes.Count(raw, []byte{markDictRef})
	if xCount == 0 {
		t.Fatalf("expected at least one dict reference after crossing the intern threshold")
	}
	_ = sCount

	dec := NewDecoder(NewBufferSource(raw))
	kind, err := dec.rp.ReadRecord()
	if err != nil || kind != KindHeader {
		t.Fatalf("header: %v %v", kind, err)
	}
	v1, err := dec.Next()
	if err != nil {
		t.Fatalf("decode array: %v", err)
	}
	a, ok := v1.([]Value)
	if !ok || len(a) != 12 {
		t.Fatalf("expected 12-element array, got %#v", v1)
	}
	for i, s := range a {
		if s != "valToIntern" {
			t.Errorf("array[%d] = %v", i, s)
		}
	}
	v2, err := dec.Next()
	if err != nil {
		t.Fatalf("decode bare value: %v", err)
	}
	if v2 != "valToIntern" {
		t.Errorf("bare value = %v", v2)
	}
}

func TestEncodeDecodeDistinctKeysNeverIntern(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}

	keys := make([]string, 1000)
	for i := range keys {
		keys[i] = make32ByteKey(i)
		if err := enc.Encode(func(w *Writer) { w.String(keys[i]) }); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
	}

	raw := buf.Bytes()
	// Count A records by parsing: a raw 'A' byte can also occur inside a
	// V record's back-reference varint.
	st, err := ComputeStats(NewBufferSource(raw))
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if st.AddRecords != 0 {
		t.Fatalf("expected no A records: none of these distinct strings cross the intern threshold")
	}

	dec := NewDecoder(NewBufferSource(raw))
	kind, err := dec.rp.ReadRecord()
	if err != nil || kind != KindHeader {
		t.Fatalf("header: %v %v", kind, err)
	}
	for i, want := range keys {
		got, err := dec.Next()
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if got != want {
			t.Errorf("record %d = %v, want %v", i, got, want)
		}
	}
}

func make32ByteKey(i int) string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, 32)
	for j := range b {
		b[j] = alphabet[(i+j*7)%len(alphabet)]
	}
	return string(b)
}

func TestEncoderByteExactDeterminism(t *testing.T) {
	produce := func() []byte {
		var buf bytes.Buffer
		enc, err := NewEncoder(&buf)
		if err != nil {
			t.Fatalf("NewEncoder: %v", err)
		}
		for i := 0; i < 50; i++ {
			obj := &Object{}
			obj.set("name", "repeatedkeyvalue")
			obj.set("n", int64(i))
			if err := enc.Encode(func(w *Writer) { w.Value(obj) }); err != nil {
				t.Fatalf("encode: %v", err)
			}
		}
		return buf.Bytes()
	}

	a := produce()
	b := produce()
	if !bytes.Equal(a, b) {
		t.Fatalf("identical inputs produced different byte streams")
	}
}

func TestClearThresholdEmitsNewDictionary(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, WithClearThreshold(2), WithInternThreshold(1), WithTinyStr(0))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	for i := 0; i < 10; i++ {
		s := make32ByteKey(i)
		if err := enc.Encode(func(w *Writer) { w.InternString(s) }); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
	}
	// Initial C plus at least one more once the 2-entry threshold is exceeded.
	if got := bytes.Count(buf.Bytes(), []byte{recClear}); got < 2 {
		t.Fatalf("expected at least 2 C records, got %d", got)
	}
}

package austream

import (
	"bytes"
	"testing"
)

func buildStreamOfObjects(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, WithInternThreshold(3), WithTinyStr(2))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	for i := 0; i < n; i++ {
		obj := &Object{}
		obj.set("key", "repeated-dictionary-key")
		obj.set("seq", int64(i))
		if err := enc.Encode(func(w *Writer) { w.Value(obj) }); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
	}
	return buf.Bytes()
}

func TestTailSyncMatchesSequentialDecode(t *testing.T) {
	raw := buildStreamOfObjects(t, 500)

	// Sequential decode of everything, recording positions.
	seqSrc := NewBufferSource(raw)
	seqDec := NewDecoder(seqSrc)
	if kind, err := seqDec.rp.ReadRecord(); err != nil || kind != KindHeader {
		t.Fatalf("header: %v %v", kind, err)
	}
	type posVal struct {
		pos int64
		v   Value
	}
	var all []posVal
	for {
		pos := seqSrc.Pos()
		v, err := seqDec.Next()
		if err != nil {
			break
		}
		all = append(all, posVal{pos, v})
	}
	if len(all) != 500 {
		t.Fatalf("expected 500 records, got %d", len(all))
	}

	// Pick a seek point in the back half, sync, and compare onward.
	seekPoint := all[400].pos - 37 // an arbitrary offset, not on a boundary
	if seekPoint < 0 {
		seekPoint = 0
	}

	tailSrc := NewBufferSource(raw)
	if err := tailSrc.Seek(seekPoint); err != nil {
		t.Fatalf("seek: %v", err)
	}
	dict := NewDictionary(32)
	syncPos, err := Sync(tailSrc, dict)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	// Find which sequential record syncPos lands on.
	idx := -1
	for i, pv := range all {
		if pv.pos == syncPos {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.Fatalf("sync position %d did not land on a known record boundary", syncPos)
	}

	dec := NewDecoderWithDictionary(tailSrc, dict)
	for i := idx; i < len(all); i++ {
		v, err := dec.Next()
		if err != nil {
			t.Fatalf("decode after sync at record %d: %v", i, err)
		}
		obj, ok := v.(*Object)
		if !ok {
			t.Fatalf("record %d: expected object", i)
		}
		wantObj := all[i].v.(*Object)
		if got, _ := obj.Get("seq"); got != mustGet(wantObj, "seq") {
			t.Errorf("record %d: seq mismatch got=%v want=%v", i, got, mustGet(wantObj, "seq"))
		}
	}
}

func mustGet(o *Object, key string) Value {
	v, _ := o.Get(key)
	return v
}

func TestSyncFailsGracefullyWithoutBoundary(t *testing.T) {
	garbage := bytes.Repeat([]byte{0x00}, 4096)
	dict := NewDictionary(1)
	_, err := Sync(NewBufferSource(garbage), dict)
	if err != ErrNoSync {
		t.Fatalf("expected ErrNoSync, got %v", err)
	}
}

package austream

import (
	"bytes"
	"testing"
)

func TestGrepMatchesByKeyAndContext(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	for i := 0; i < 20; i++ {
		obj := &Object{}
		obj.set("i", int64(i))
		if i == 10 {
			obj.set("tag", "needle")
		}
		if err := enc.Encode(func(w *Writer) { w.Value(obj) }); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
	}

	pattern, err := NewPattern("needle", MatchString, true, true)
	if err != nil {
		t.Fatalf("NewPattern: %v", err)
	}

	src := NewBufferSource(buf.Bytes())
	dec := NewDecoder(src)
	if kind, err := dec.rp.ReadRecord(); err != nil || kind != KindHeader {
		t.Fatalf("header: %v %v", kind, err)
	}

	matches, err := Grep(src, GrepOptions{Key: "tag", Pattern: pattern, Before: 1, After: 1})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 1 match + 1 before + 1 after = 3 records, got %d", len(matches))
	}
	mid := matches[1].Value.(*Object)
	if v, _ := mid.Get("i"); v != int64(10) {
		t.Errorf("middle match should be record 10, got %v", v)
	}
	before := matches[0].Value.(*Object)
	if v, _ := before.Get("i"); v != int64(9) {
		t.Errorf("before-context should be record 9, got %v", v)
	}
	after := matches[2].Value.(*Object)
	if v, _ := after.Get("i"); v != int64(11) {
		t.Errorf("after-context should be record 11, got %v", v)
	}
}

func TestComputeStatsCountsRecordsAndTypes(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, WithInternThreshold(1), WithTinyStr(0))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	for i := 0; i < 5; i++ {
		obj := &Object{}
		obj.set("key", "repeated-stats-key")
		obj.set("n", int64(i))
		if err := enc.Encode(func(w *Writer) { w.Value(obj) }); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
	}

	src := NewBufferSource(buf.Bytes())
	dec := NewDecoder(src)
	if kind, err := dec.rp.ReadRecord(); err != nil || kind != KindHeader {
		t.Fatalf("header: %v %v", kind, err)
	}
	st, err := ComputeStats(src)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if st.ValueRecords != 5 {
		t.Errorf("ValueRecords = %d, want 5", st.ValueRecords)
	}
	if st.TypeCounts["object"] != 5 {
		t.Errorf("object count = %d, want 5", st.TypeCounts["object"])
	}
	if st.TypeCounts["int"] != 5 {
		t.Errorf("int count = %d, want 5", st.TypeCounts["int"])
	}
}

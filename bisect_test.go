package austream

import (
	"bytes"
	"testing"
	"time"
)

func buildTimestampStream(t *testing.T, n int) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(i) * time.Second)
		obj := &Object{}
		obj.set("ts", ts)
		obj.set("i", int64(i))
		if err := enc.Encode(func(w *Writer) { w.Value(obj) }); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
	}
	return buf.Bytes()
}

func TestBisectFindsFirstGreaterOrEqual(t *testing.T) {
	const n = 2000 // one per second, spans a bit over 33 minutes
	raw := buildTimestampStream(t, n)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	target := base.Add(1000 * time.Second)
	pattern, err := NewPattern(FormatTimestamp(target), MatchTimestamp, true, true)
	if err != nil {
		t.Fatalf("NewPattern: %v", err)
	}

	src := NewBufferSource(raw)
	pos, err := Bisect(src, pattern, BisectOptions{Key: "ts"})
	if err != nil {
		t.Fatalf("Bisect: %v", err)
	}

	if err := src.Seek(pos); err != nil {
		t.Fatalf("seek: %v", err)
	}
	dict := NewDictionary(1)
	dec := NewDecoderWithDictionary(src, dict)
	v, err := dec.Next()
	if err != nil {
		t.Fatalf("decode matched record: %v", err)
	}
	obj := v.(*Object)
	idx, _ := obj.Get("i")
	if idx.(int64) != 1000 {
		t.Fatalf("expected bisect to land on record 1000, got %v", idx)
	}
}

// TestBisectBinarySearchNarrowsOverLargeStream builds a stream well past
// scanThreshold so Bisect must actually narrow [start,end) via its
// mid-point binary search instead of falling straight into the
// linear-scan degradation path.
func TestBisectBinarySearchNarrowsOverLargeStream(t *testing.T) {
	const n = 60000 // one per second; stream runs comfortably past scanThreshold
	raw := buildTimestampStream(t, n)
	if len(raw) <= scanThreshold {
		t.Fatalf("fixture too small to exercise binary search: %d bytes (need > %d)", len(raw), scanThreshold)
	}

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	target := base.Add(45000 * time.Second)
	pattern, err := NewPattern(FormatTimestamp(target), MatchTimestamp, true, true)
	if err != nil {
		t.Fatalf("NewPattern: %v", err)
	}

	src := NewBufferSource(raw)
	pos, err := Bisect(src, pattern, BisectOptions{Key: "ts"})
	if err != nil {
		t.Fatalf("Bisect: %v", err)
	}

	if err := src.Seek(pos); err != nil {
		t.Fatalf("seek: %v", err)
	}
	dict := NewDictionary(1)
	dec := NewDecoderWithDictionary(src, dict)
	v, err := dec.Next()
	if err != nil {
		t.Fatalf("decode matched record: %v", err)
	}
	obj := v.(*Object)
	idx, _ := obj.Get("i")
	if idx.(int64) != 45000 {
		t.Fatalf("expected bisect to land on record 45000, got %v", idx)
	}
}

func TestBisectOnUnorderedPatternRejected(t *testing.T) {
	raw := buildTimestampStream(t, 10)
	pattern, err := NewPattern("R(foo.*)", MatchAuto, true, false)
	if err != nil {
		t.Fatalf("NewPattern: %v", err)
	}
	_, err = Bisect(NewBufferSource(raw), pattern, BisectOptions{})
	if err == nil {
		t.Fatalf("expected regex pattern to be rejected by bisect")
	}
}

package austream

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestConvertJSONLinesRoundTrip(t *testing.T) {
	input := strings.Join([]string{
		`{"a":1,"b":"hello","c":true,"d":null}`,
		`[1,2,3]`,
		`{"ts":"2024-01-01T00:00:00.000000000"}`,
	}, "\n") + "\n"

	var buf bytes.Buffer
	enc, err := NewEncoder(&buf)
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	n, err := ConvertJSONLines(strings.NewReader(input), enc)
	if err != nil {
		t.Fatalf("ConvertJSONLines: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 records converted, got %d", n)
	}

	src := NewBufferSource(buf.Bytes())
	dec := NewDecoder(src)
	if kind, err := dec.rp.ReadRecord(); err != nil || kind != KindHeader {
		t.Fatalf("header: %v %v", kind, err)
	}

	v1, err := dec.Next()
	if err != nil {
		t.Fatalf("decode 1: %v", err)
	}
	obj1 := v1.(*Object)
	if v, _ := obj1.Get("a"); v != int64(1) {
		t.Errorf("a = %v", v)
	}
	if v, _ := obj1.Get("b"); v != "hello" {
		t.Errorf("b = %v", v)
	}
	if v, _ := obj1.Get("c"); v != true {
		t.Errorf("c = %v", v)
	}
	if v, _ := obj1.Get("d"); v != nil {
		t.Errorf("d = %v", v)
	}

	v2, err := dec.Next()
	if err != nil {
		t.Fatalf("decode 2: %v", err)
	}
	arr := v2.([]Value)
	if len(arr) != 3 || arr[0] != int64(1) {
		t.Errorf("array = %v", arr)
	}

	v3, err := dec.Next()
	if err != nil {
		t.Fatalf("decode 3: %v", err)
	}
	obj3 := v3.(*Object)
	ts, _ := obj3.Get("ts")
	if _, ok := ts.(time.Time); !ok {
		t.Errorf("expected ts field promoted to time.Time, got %T", ts)
	}
}

func TestRenderJSONPreservesKeyOrder(t *testing.T) {
	obj := &Object{}
	obj.set("z", int64(1))
	obj.set("a", int64(2))
	line, err := ToJSONLine(obj)
	if err != nil {
		t.Fatalf("ToJSONLine: %v", err)
	}
	want := `{"z":1,"a":2}` + "\n"
	if line != want {
		t.Errorf("got %q want %q", line, want)
	}
}

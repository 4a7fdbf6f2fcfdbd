package austream

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func buildGzippedStream(t *testing.T, n int) (string, []byte) {
	t.Helper()
	var raw bytes.Buffer
	enc, err := NewEncoder(&raw, WithInternThreshold(5), WithTinyStr(2))
	if err != nil {
		t.Fatalf("NewEncoder: %v", err)
	}
	for i := 0; i < n; i++ {
		obj := &Object{}
		obj.set("key", "a-fairly-long-repeated-dictionary-key-value")
		obj.set("n", int64(i))
		if err := enc.Encode(func(w *Writer) { w.Value(obj) }); err != nil {
			t.Fatalf("encode %d: %v", i, err)
		}
	}

	dir := t.TempDir()
	gzPath := filepath.Join(dir, "stream.au.gz")
	f, err := os.Create(gzPath)
	if err != nil {
		t.Fatalf("create gz: %v", err)
	}
	gw := gzip.NewWriter(f)
	if _, err := gw.Write(raw.Bytes()); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return gzPath, raw.Bytes()
}

func TestZindexRandomAccessMatchesLinearDecompression(t *testing.T) {
	gzPath, plain := buildGzippedStream(t, 3000)
	indexPath := gzPath + ".auzx"

	// Force many small access points so the test actually exercises
	// more than one checkpoint.
	if err := BuildZindex(gzPath, indexPath, 4096); err != nil {
		t.Fatalf("BuildZindex: %v", err)
	}

	f, err := os.Open(gzPath)
	if err != nil {
		t.Fatalf("open gz: %v", err)
	}
	defer f.Close()

	src, err := OpenGzip(f, gzPath, indexPath)
	if err != nil {
		t.Fatalf("OpenGzip: %v", err)
	}
	defer src.Close()

	offsets := []int64{0, 17, 4095, 4096, 4097, int64(len(plain)) / 2, int64(len(plain)) - 100}
	for _, off := range offsets {
		if off < 0 || off >= int64(len(plain)) {
			continue
		}
		if err := src.Seek(off); err != nil {
			t.Fatalf("seek %d: %v", off, err)
		}
		n := 50
		if off+int64(n) > int64(len(plain)) {
			n = int(int64(len(plain)) - off)
		}
		got, err := src.ReadN(n)
		if err != nil {
			t.Fatalf("ReadN at %d: %v", off, err)
		}
		want := plain[off : off+int64(n)]
		if !bytes.Equal(got, want) {
			t.Errorf("offset %d: byte mismatch (got %v want %v)", off, got[:min(8, len(got))], want[:min(8, len(want))])
		}
	}
}

// TestBuildZindexCheckpointSpacing uses an indexEvery comfortably larger
// than the 32KiB window so the checkpoint gate actually has to compare
// against the uncompressed bytes produced since the last checkpoint,
// rather than degenerating to "every block" behavior that a small
// indexEvery would mask.
func TestBuildZindexCheckpointSpacing(t *testing.T) {
	gzPath, plain := buildGzippedStream(t, 200000)
	if len(plain) < 2*1024*1024 {
		t.Fatalf("fixture too small to exercise multi-checkpoint spacing: %d bytes", len(plain))
	}

	const indexEvery = 256 * 1024
	indexPath := gzPath + ".auzx"
	if err := BuildZindex(gzPath, indexPath, indexEvery); err != nil {
		t.Fatalf("BuildZindex: %v", err)
	}

	info, err := os.Stat(gzPath)
	if err != nil {
		t.Fatalf("stat gz: %v", err)
	}
	zi, err := readZindex(indexPath, info)
	if err != nil {
		t.Fatalf("readZindex: %v", err)
	}

	if len(zi.points) < 2 {
		t.Fatalf("expected multiple checkpoints over a %d byte stream at indexEvery=%d, got %d", len(plain), indexEvery, len(zi.points))
	}

	for i := 1; i < len(zi.points); i++ {
		gap := zi.points[i].UncompressedOffset - zi.points[i-1].UncompressedOffset
		if gap < indexEvery {
			t.Errorf("checkpoint %d: gap %d is smaller than indexEvery %d (checkpoints clustered)", i, gap, indexEvery)
		}
		if gap > indexEvery+windowSize*4 {
			t.Errorf("checkpoint %d: gap %d far exceeds indexEvery %d (checkpoints missing)", i, gap, indexEvery)
		}
	}

	last := zi.points[len(zi.points)-1]
	if last.UncompressedOffset < int64(len(plain))-indexEvery-windowSize*4 {
		t.Errorf("last checkpoint at %d leaves too large an unindexed tail for a %d byte stream", last.UncompressedOffset, len(plain))
	}
}

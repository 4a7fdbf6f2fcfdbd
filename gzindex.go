// Random-access gzip index ("auzx"), grounded on
// original_source/src/Zindex.cpp and ZipByteSource.cpp. The original
// builds its index directly against zlib's inflate(Z_BLOCK) and
// inflateGetDictionary/inflateSetDictionary; this module uses the
// internal/rawflate package for that bit-level resumption since neither
// compress/flate nor klauspost/compress expose it.
//
// The index itself is an ordinary AuStream file (self-hosting: the
// format indexes itself), so BuildZindex and readZindex use this
// package's own Encoder/StreamReader rather than a bespoke binary
// layout. Each access-point window is adler32-checksummed and deflate-
// compressed with klauspost/compress/flate before being stored as a raw
// (never-interned) string, keeping the sidecar file small.
package austream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/adler32"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"

	"github.com/jpl-au/austream/internal/rawflate"
)

type zAccessPoint struct {
	UncompressedOffset int64
	CompressedOffset   int64
	BitOffset          int
	Window             []byte // decompressed, nil for the sentinel entry
}

type zindex struct {
	compressedFile string
	compressedSize int64
	compressedMod  int64
	deflateStart   int64
	uncompressedSz int64
	points         []zAccessPoint // excludes the trailing sentinel
}

func parseGzipHeader(ra io.ReaderAt) (int64, error) {
	var hdr [10]byte
	if _, err := ra.ReadAt(hdr[:], 0); err != nil {
		return 0, err
	}
	if hdr[0] != gzipMagic[0] || hdr[1] != gzipMagic[1] {
		return 0, ErrCorruptHeader
	}
	if hdr[2] != 8 {
		return 0, fmt.Errorf("austream: unsupported gzip compression method %d", hdr[2])
	}
	flg := hdr[3]
	pos := int64(10)
	if flg&0x04 != 0 { // FEXTRA
		var xlen [2]byte
		if _, err := ra.ReadAt(xlen[:], pos); err != nil {
			return 0, err
		}
		pos += 2 + int64(binary.LittleEndian.Uint16(xlen[:]))
	}
	if flg&0x08 != 0 { // FNAME
		pos = skipCString(ra, pos)
	}
	if flg&0x10 != 0 { // FCOMMENT
		pos = skipCString(ra, pos)
	}
	if flg&0x02 != 0 { // FHCRC
		pos += 2
	}
	return pos, nil
}

func skipCString(ra io.ReaderAt, pos int64) int64 {
	var b [1]byte
	for {
		if _, err := ra.ReadAt(b[:], pos); err != nil {
			break
		}
		pos++
		if b[0] == 0 {
			break
		}
	}
	return pos
}

func compressWindow(w []byte) ([]byte, error) {
	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(w); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	sum := adler32.Checksum(w)
	out := make([]byte, 4+buf.Len())
	binary.LittleEndian.PutUint32(out, sum)
	copy(out[4:], buf.Bytes())
	return out, nil
}

func decompressWindow(raw []byte) ([]byte, error) {
	if len(raw) < 4 {
		return nil, fmt.Errorf("austream: truncated zindex window")
	}
	want := binary.LittleEndian.Uint32(raw[:4])
	fr := flate.NewReader(bytes.NewReader(raw[4:]))
	defer fr.Close()
	out, err := io.ReadAll(fr)
	if err != nil {
		return nil, err
	}
	if adler32.Checksum(out) != want {
		return nil, fmt.Errorf("austream: zindex window checksum mismatch")
	}
	return out, nil
}

// BuildZindex decompresses gzPath once, writing an AuStream-encoded
// sidecar index to indexPath with one access point roughly every
// indexEvery uncompressed bytes (spec §4.10). indexEvery <= 0 uses
// defaultIndexEvery.
func BuildZindex(gzPath, indexPath string, indexEvery int64) error {
	if indexEvery <= 0 {
		indexEvery = defaultIndexEvery
	}
	f, err := os.Open(gzPath)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	deflateStart, err := parseGzipHeader(f)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(gzPath)
	if err != nil {
		absPath = gzPath
	}

	sw, err := Create(indexPath)
	if err != nil {
		return err
	}
	defer sw.Close()

	if err := sw.Encode(func(w *Writer) {
		w.ObjectStart()
		w.Key("fileType")
		w.String("zindex")
		w.Key("version")
		w.Int(zindexVersion)
		w.Key("compressedFile")
		w.String(absPath)
		w.Key("compressedSize")
		w.Int(info.Size())
		w.Key("compressedModTime")
		w.Timestamp(info.ModTime())
		w.ObjectEnd()
	}); err != nil {
		return err
	}

	var encodeErr error
	onCheckpoint := func(ap rawflate.AccessPoint) {
		if encodeErr != nil {
			return
		}
		cw, err := compressWindow(ap.Window)
		if err != nil {
			encodeErr = err
			return
		}
		encodeErr = sw.Encode(func(w *Writer) {
			w.ObjectStart()
			w.Key("uncompressedOffset")
			w.Int(ap.UncompressedOffset)
			w.Key("compressedOffset")
			w.Int(ap.CompressedOffset)
			w.Key("bitOffset")
			w.Int(int64(ap.BitOffset))
			w.Key("window")
			w.RawString(string(cw))
			w.ObjectEnd()
		})
	}

	total, err := rawflate.Inflate(f, deflateStart, io.Discard, indexEvery, onCheckpoint)
	if err != nil && err != io.EOF {
		return err
	}
	if encodeErr != nil {
		return encodeErr
	}

	return sw.Encode(func(w *Writer) {
		w.ObjectStart()
		w.Key("uncompressedOffset")
		w.Int(total)
		w.Key("compressedOffset")
		w.Int(0)
		w.Key("bitOffset")
		w.Int(0)
		w.Key("window")
		w.RawString("")
		w.ObjectEnd()
	})
}

func asInt64(v Value) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case uint64:
		return int64(t)
	default:
		return 0
	}
}

// readZindex loads a sidecar index and validates it against the gzip
// file it claims to describe. A size/mtime mismatch means the index is
// stale (the gzip file was rewritten since indexing).
func readZindex(indexPath string, gzInfo os.FileInfo) (*zindex, error) {
	sr, err := Open(indexPath)
	if err != nil {
		return nil, err
	}
	defer sr.Close()

	hv, err := sr.Next()
	if err != nil {
		return nil, err
	}
	hdr, ok := hv.(*Object)
	if !ok {
		return nil, fmt.Errorf("austream: malformed zindex header")
	}
	ft, _ := hdr.Get("fileType")
	if s, _ := ft.(string); s != "zindex" {
		return nil, fmt.Errorf("austream: not a zindex file")
	}
	szv, _ := hdr.Get("compressedSize")
	modv, _ := hdr.Get("compressedModTime")
	mod, _ := modv.(time.Time)
	if asInt64(szv) != gzInfo.Size() || !mod.Equal(gzInfo.ModTime().UTC()) {
		return nil, fmt.Errorf("austream: zindex is stale for %s", indexPath)
	}
	cf, _ := hdr.Get("compressedFile")
	cfStr, _ := cf.(string)

	zi := &zindex{compressedFile: cfStr, compressedSize: gzInfo.Size()}
	for {
		v, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		obj, ok := v.(*Object)
		if !ok {
			return nil, fmt.Errorf("austream: malformed zindex entry")
		}
		uo, _ := obj.Get("uncompressedOffset")
		co, _ := obj.Get("compressedOffset")
		bo, _ := obj.Get("bitOffset")
		wv, _ := obj.Get("window")
		ws, _ := wv.(string)

		if ws == "" {
			zi.uncompressedSz = asInt64(uo)
			continue
		}
		window, err := decompressWindow([]byte(ws))
		if err != nil {
			return nil, err
		}
		zi.points = append(zi.points, zAccessPoint{
			UncompressedOffset: asInt64(uo),
			CompressedOffset:   asInt64(co),
			BitOffset:          int(asInt64(bo)),
			Window:             window,
		})
	}
	return zi, nil
}

// find returns the latest access point at or before p, or false if p
// precedes the first one (the caller should then decode from the
// deflate stream's start).
func (z *zindex) find(p int64) (zAccessPoint, bool) {
	lo, hi := 0, len(z.points)
	for lo < hi {
		mid := (lo + hi) / 2
		if z.points[mid].UncompressedOffset <= p {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo == 0 {
		return zAccessPoint{}, false
	}
	return z.points[lo-1], true
}

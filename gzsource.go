// Gzip ByteSource implementations, grounded on
// original_source/src/ZipByteSource.cpp. Two flavors: a random-access
// ZipByteSource driven by an auzx sidecar index (the common path for
// tail/grep/bisect over a rolled-over log), and a sequential-only
// fallback using klauspost/compress/gzip when no index is available or
// the index is stale.
package austream

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"

	"github.com/jpl-au/austream/internal/rawflate"
)

// OpenGzip opens a .gz file as a ByteSource. If indexPath is empty,
// gzPath+".auzx" is used. A present and fresh index yields random
// access (ZipByteSource); otherwise decoding falls back to a
// sequential-only source, matching the scope original_source documents
// for ungzipped-without-index input.
func OpenGzip(f *os.File, gzPath, indexPath string) (ByteSource, error) {
	if indexPath == "" {
		indexPath = gzPath + ".auzx"
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if idxInfo, ierr := os.Stat(indexPath); ierr == nil {
		_ = idxInfo
		zi, zerr := readZindex(indexPath, info)
		if zerr == nil {
			deflateStart, derr := parseGzipHeader(f)
			if derr == nil {
				zi.deflateStart = deflateStart
				return &zipByteSource{f: f, zi: zi, pinPos: -1}, nil
			}
		}
	}
	return newSeqGzipSource(f)
}

// zipByteSource is a random-access ByteSource over a gzip member, using
// the sidecar index's access points plus internal/rawflate's bit-level
// resume to decode an arbitrary window without replaying the whole
// stream.
type zipByteSource struct {
	f  *os.File
	zi *zindex

	buf      []byte
	bufStart int64
	pos      int64
	pinPos   int64
}

func (z *zipByteSource) ensure(n int) ([]byte, error) {
	need := z.pos + int64(n)
	if z.buf != nil && z.pos >= z.bufStart && need <= z.bufStart+int64(len(z.buf)) {
		return z.slice(n)
	}

	ap, found := z.zi.find(z.pos)
	var compressedOffset int64
	var bitOffset int
	var dict []byte
	var startUO int64
	if found {
		compressedOffset, bitOffset, dict, startUO = ap.CompressedOffset, ap.BitOffset, ap.Window, ap.UncompressedOffset
	} else {
		compressedOffset, bitOffset, startUO = z.zi.deflateStart, 0, 0
	}

	toProduce := need - startUO
	if toProduce < 0 {
		return nil, fmt.Errorf("austream: gzip index inconsistency at offset %d", z.pos)
	}

	var out bytes.Buffer
	out.Grow(int(toProduce))
	_, err := rawflate.InflateFrom(z.f, compressedOffset, bitOffset, dict, &out, toProduce)
	if err != nil && err != io.EOF {
		return nil, err
	}
	z.buf = out.Bytes()
	z.bufStart = startUO
	return z.slice(n)
}

func (z *zipByteSource) slice(n int) ([]byte, error) {
	rel := z.pos - z.bufStart
	if rel < 0 || rel > int64(len(z.buf)) {
		return nil, io.EOF
	}
	avail := int64(len(z.buf)) - rel
	if avail <= 0 {
		return nil, io.EOF
	}
	if avail > int64(n) {
		avail = int64(n)
	}
	out := z.buf[rel : rel+avail]
	if avail < int64(n) {
		return out, io.EOF
	}
	return out, nil
}

func (z *zipByteSource) Peek(n int) ([]byte, error) { return z.ensure(n) }

func (z *zipByteSource) Next() (byte, error) {
	buf, err := z.ensure(1)
	if len(buf) < 1 {
		return 0, err
	}
	b := buf[0]
	z.pos++
	return b, nil
}

func (z *zipByteSource) ReadN(n int) ([]byte, error) {
	buf, err := z.ensure(n)
	if len(buf) < n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	z.pos += int64(n)
	return out, nil
}

func (z *zipByteSource) Pos() int64 { return z.pos }

func (z *zipByteSource) Seek(pos int64) error {
	if pos < 0 {
		return newParseError(pos, "negative seek position")
	}
	z.pos = pos
	return nil
}

func (z *zipByteSource) ScanTo(needle []byte) (int64, error) {
	return scanToInChunks(z, needle)
}

// Pin/Unpin are no-ops: zipByteSource re-derives any earlier window from
// the index on demand rather than retaining one, since access points are
// spaced about indexEvery bytes apart and cheap to redecode.
func (z *zipByteSource) Pin(int64) {}
func (z *zipByteSource) Unpin()    {}

func (z *zipByteSource) Size() (int64, bool) {
	if z.zi.uncompressedSz > 0 {
		return z.zi.uncompressedSz, true
	}
	return 0, false
}

func (z *zipByteSource) Close() error { return z.f.Close() }

// seqGzipSource is a forward-decoding-only ByteSource for a .gz file
// with no usable sidecar index. It buffers decoded output the same way
// fileByteSource buffers file bytes, but cannot seek before bufStart
// since klauspost/compress/gzip.Reader has no rewind.
type seqGzipSource struct {
	f  *os.File
	gr *gzip.Reader

	buf      []byte
	bufStart int64
	pos      int64
	pinPos   int64
	eof      bool
}

func newSeqGzipSource(f *os.File) (*seqGzipSource, error) {
	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &seqGzipSource{f: f, gr: gr, pinPos: -1}, nil
}

func (s *seqGzipSource) ensure(n int) ([]byte, error) {
	need := (s.pos - s.bufStart) + int64(n)
	for int64(len(s.buf)) < need && !s.eof {
		chunk := make([]byte, growChunkSize)
		m, err := s.gr.Read(chunk)
		if m > 0 {
			s.buf = append(s.buf, chunk[:m]...)
		}
		if err != nil {
			s.eof = true
		}
	}
	floor := s.pos - minHistory
	if s.pinPos >= 0 && s.pinPos < floor {
		floor = s.pinPos
	}
	if floor > s.bufStart {
		drop := floor - s.bufStart
		s.buf = s.buf[drop:]
		s.bufStart += drop
	}
	rel := s.pos - s.bufStart
	if rel < 0 {
		return nil, fmt.Errorf("austream: seek before buffered window on a non-indexed gzip source (build a .auzx index for random access)")
	}
	if rel > int64(len(s.buf)) {
		return nil, io.EOF
	}
	avail := int64(len(s.buf)) - rel
	if avail <= 0 {
		return nil, io.EOF
	}
	if avail > int64(n) {
		avail = int64(n)
	}
	out := s.buf[rel : rel+avail]
	if avail < int64(n) {
		return out, io.EOF
	}
	return out, nil
}

func (s *seqGzipSource) Peek(n int) ([]byte, error) { return s.ensure(n) }

func (s *seqGzipSource) Next() (byte, error) {
	buf, err := s.ensure(1)
	if len(buf) < 1 {
		return 0, err
	}
	b := buf[0]
	s.pos++
	return b, nil
}

func (s *seqGzipSource) ReadN(n int) ([]byte, error) {
	buf, err := s.ensure(n)
	if len(buf) < n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	s.pos += int64(n)
	return out, nil
}

func (s *seqGzipSource) Pos() int64 { return s.pos }

func (s *seqGzipSource) Seek(pos int64) error {
	if pos < 0 {
		return newParseError(pos, "negative seek position")
	}
	if pos < s.bufStart {
		return fmt.Errorf("austream: cannot seek backward past %d on a non-indexed gzip source", s.bufStart)
	}
	s.pos = pos
	return nil
}

func (s *seqGzipSource) ScanTo(needle []byte) (int64, error) {
	return scanToInChunks(s, needle)
}

func (s *seqGzipSource) Pin(pos int64) { s.pinPos = pos }
func (s *seqGzipSource) Unpin()        { s.pinPos = -1 }

func (s *seqGzipSource) Size() (int64, bool) { return 0, false }

func (s *seqGzipSource) Close() error {
	s.gr.Close()
	return s.f.Close()
}

package austream

import (
	"bytes"
	"io"
)

// bufferByteSource is a ByteSource over a fully resident []byte. Used for
// small in-memory streams (gzip index access-point windows, test
// fixtures) where the file-backed windowing of fileByteSource would be
// pointless overhead. Pin/Unpin are no-ops: everything is already
// resident.
type bufferByteSource struct {
	buf []byte
	pos int64
}

// NewBufferSource wraps an in-memory byte slice as a ByteSource.
func NewBufferSource(buf []byte) ByteSource {
	return &bufferByteSource{buf: buf}
}

// newFixtureSource replays a fixed byte sequence as a ByteSource,
// grounded on original_source/src/Canned.cpp's deterministic-replay
// helper; shared across this module's tests instead of hand-building a
// fixture reader in every _test.go file.
func newFixtureSource(data []byte) ByteSource {
	return NewBufferSource(data)
}

func (s *bufferByteSource) Peek(n int) ([]byte, error) {
	if s.pos >= int64(len(s.buf)) {
		return nil, io.EOF
	}
	end := s.pos + int64(n)
	if end > int64(len(s.buf)) {
		return s.buf[s.pos:], io.EOF
	}
	return s.buf[s.pos:end], nil
}

func (s *bufferByteSource) Next() (byte, error) {
	if s.pos >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

func (s *bufferByteSource) ReadN(n int) ([]byte, error) {
	if s.pos+int64(n) > int64(len(s.buf)) {
		return nil, io.ErrUnexpectedEOF
	}
	out := s.buf[s.pos : s.pos+int64(n)]
	s.pos += int64(n)
	return out, nil
}

func (s *bufferByteSource) Pos() int64 { return s.pos }

func (s *bufferByteSource) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(s.buf)) {
		return newParseError(pos, "seek out of range")
	}
	s.pos = pos
	return nil
}

func (s *bufferByteSource) ScanTo(needle []byte) (int64, error) {
	idx := bytes.Index(s.buf[s.pos:], needle)
	if idx < 0 {
		return 0, io.EOF
	}
	s.pos += int64(idx)
	return s.pos, nil
}

func (s *bufferByteSource) Pin(int64) {}
func (s *bufferByteSource) Unpin()    {}

func (s *bufferByteSource) Size() (int64, bool) { return int64(len(s.buf)), true }

func (s *bufferByteSource) Close() error { return nil }

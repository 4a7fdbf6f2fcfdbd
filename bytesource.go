// Abstract pull-based byte stream, grounded on
// original_source/src/FileByteSource.h: peek/next/read/seek/scanTo plus a
// "pin" that keeps bytes behind the read cursor addressable for bounded
// look-back (tail sync, bisect, grep context lines all rewind further than
// a plain streaming reader would keep around).
package austream

import (
	"bytes"
	"io"
)

// ByteSource is a pull-based, seekable byte stream. Implementations buffer
// at least minHistory bytes behind the cursor (spec §5) so short back-seeks
// don't reach the underlying device; Pin extends that guarantee to an
// arbitrary earlier position until Unpin is called.
type ByteSource interface {
	// Peek returns the next n bytes without advancing the cursor. It may
	// return fewer than n bytes only at end of stream, with io.EOF.
	Peek(n int) ([]byte, error)

	// Next returns the next byte and advances the cursor by one.
	Next() (byte, error)

	// ReadN returns the next n bytes and advances the cursor by n.
	ReadN(n int) ([]byte, error)

	// Pos reports the absolute position of the read cursor.
	Pos() int64

	// Seek moves the cursor to an absolute position. It is a structural
	// precondition violation, not an I/O error, to seek past a known end.
	Seek(pos int64) error

	// ScanTo scans forward from the current cursor for needle, leaving
	// the cursor at the first byte of the match and returning its
	// absolute position. Returns io.EOF if needle is never found.
	ScanTo(needle []byte) (int64, error)

	// Pin keeps bytes at and after pos buffered until Unpin is called.
	Pin(pos int64)

	// Unpin releases a previously set pin.
	Unpin()

	// Size reports the source's total length, if known in advance.
	Size() (int64, bool)

	Close() error
}

// scanToInChunks implements ScanTo in terms of Peek/Seek for sources whose
// Peek can grow its window arbitrarily (fileByteSource, bufferByteSource).
// It grows the peek window linearly, by growChunkSize per pass, until
// needle is found or the source is exhausted.
func scanToInChunks(src ByteSource, needle []byte) (int64, error) {
	start := src.Pos()
	window := growChunkSize
	for {
		buf, err := src.Peek(window)
		if idx := bytes.Index(buf, needle); idx >= 0 {
			if seekErr := src.Seek(start + int64(idx)); seekErr != nil {
				return 0, seekErr
			}
			return start + int64(idx), nil
		}
		if err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, err
		}
		// Every pass re-peeks from start, so a match straddling the
		// previous window edge is found once the window grows.
		window += growChunkSize
	}
}

// Package austream provides a binary, self-describing JSON-superset record
// format for high-volume log streams, with string interning, streaming
// decode, tail/sync, bisection and a gzip random-access index.
//
// Records are framed as H(header)/C(clear dict)/A(dict add)/V(value),
// each terminated by E\n. Strings above a configurable length threshold
// are interned into a rolling dictionary so that repeated keys and values
// cost a small integer reference rather than their full bytes on the wire.
package austream

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by stream operations.
var (
	// ErrClosed names the closed-stream condition. No operation in this
	// package returns it.
	ErrClosed = errors.New("stream is closed")

	// ErrNotFound is returned when bisect or grep find no matching record.
	ErrNotFound = errors.New("no matching record")

	// ErrInvalidPattern is returned when a grep/bisect pattern fails to compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrCorruptHeader is returned when the stream header signature is unrecognized.
	ErrCorruptHeader = errors.New("corrupt or unrecognized stream header")

	// ErrMultiBlockGzip names the multi-member gzip condition. No operation
	// in this package returns it: BuildZindex indexes the first member
	// and ignores any later members without reporting them.
	ErrMultiBlockGzip = errors.New("gzip file contains multiple members; only the first is indexed")

	// ErrNoSync is returned when Sync cannot locate a record boundary
	// before reaching the start or end of the available bytes.
	ErrNoSync = errors.New("unable to synchronize to a record boundary")

	// ErrUnknownDictionary is returned when a V record references a
	// dictionary generation this reader has not observed and cannot rebuild.
	ErrUnknownDictionary = errors.New("referenced dictionary generation not found")
)

// ParseError reports a structural decoding failure at a specific byte
// offset in the stream. Structural errors are distinct from I/O errors:
// I/O errors are fatal and propagate as-is, ParseErrors mean the bytes
// at Offset do not form a valid AuStream record.
type ParseError struct {
	Offset int64
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("austream: parse error at offset %d: %s", e.Offset, e.Msg)
}

func newParseError(offset int64, format string, args ...any) *ParseError {
	return &ParseError{Offset: offset, Msg: fmt.Sprintf(format, args...)}
}

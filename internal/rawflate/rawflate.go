// Package rawflate is a minimal raw-DEFLATE (RFC 1951) decoder capable of
// resuming mid-stream from a bit-level checkpoint: a compressed byte
// offset, the count of not-yet-consumed (high) bits of the byte before
// it, and a preset 32KiB dictionary window. Neither Go's compress/flate nor
// klauspost/compress expose zlib's inflatePrime/inflateSetDictionary
// pair, which is what gzindex.go needs to build and use a random-access
// index over a gzip member the way original_source/src/Zindex.cpp does
// via zlib directly. The decode loop itself follows the well-known
// public-domain algorithm in Mark Adler's puff.c, which Zindex.cpp's
// block-boundary bookkeeping is also built on.
package rawflate

import (
	"errors"
	"io"
)

// ErrInvalidBlock is returned when a deflate block header or Huffman
// code is malformed.
var ErrInvalidBlock = errors.New("rawflate: invalid deflate block")

const windowSize = 32768

// bitReader pulls bits least-significant-first from an io.ReaderAt,
// matching RFC 1951 §3.1.1.
type bitReader struct {
	ra      io.ReaderAt
	bytePos int64
	buf     uint32
	nbits   uint
}

func newBitReader(ra io.ReaderAt, bytePos int64) *bitReader {
	return &bitReader{ra: ra, bytePos: bytePos}
}

// prime seeds the reader so its next read continues a stream whose last
// consumed byte was priorByte, of which only the high bitOffset bits are
// still unread.
func (r *bitReader) prime(bytePos int64, bitOffset int, priorByte byte) {
	r.bytePos = bytePos
	if bitOffset == 0 {
		r.buf = 0
		r.nbits = 0
		return
	}
	r.buf = uint32(priorByte) >> uint(8-bitOffset)
	r.nbits = uint(bitOffset)
}

// checkpoint reports the current position as (next unread compressed
// byte, bits of the byte before it not yet consumed, that byte's value)
// so a fresh reader can prime() back to this exact state.
func (r *bitReader) checkpoint() (bytePos int64, bitOffset int, priorByte byte, err error) {
	bitOffset = int(r.nbits % 8)
	consumedWhole := int64(r.nbits) / 8
	bytePos = r.bytePos - consumedWhole
	if bitOffset == 0 {
		return bytePos, 0, 0, nil
	}
	var b [1]byte
	if _, err := r.ra.ReadAt(b[:], bytePos-1); err != nil {
		return 0, 0, 0, err
	}
	return bytePos, bitOffset, b[0], nil
}

func (r *bitReader) readBits(n int) (uint32, error) {
	for r.nbits < uint(n) {
		var b [1]byte
		if _, err := r.ra.ReadAt(b[:], r.bytePos); err != nil {
			return 0, err
		}
		r.bytePos++
		r.buf |= uint32(b[0]) << r.nbits
		r.nbits += 8
	}
	v := r.buf & ((uint32(1) << uint(n)) - 1)
	r.buf >>= uint(n)
	r.nbits -= uint(n)
	return v, nil
}

// alignByte discards any bits buffered from a partially consumed byte,
// as required before a stored block.
func (r *bitReader) alignByte() {
	r.buf = 0
	r.nbits = 0
}

func (r *bitReader) readByte() (byte, error) {
	v, err := r.readBits(8)
	return byte(v), err
}

// huffTree is a canonical Huffman decode table built by the counts/
// symbols scheme from puff.c's construct().
type huffTree struct {
	counts  [16]int
	symbols []int
}

func buildHuffman(lengths []int) *huffTree {
	var counts [16]int
	for _, l := range lengths {
		counts[l]++
	}
	counts[0] = 0
	offs := make([]int, 16)
	for i := 1; i < 16; i++ {
		offs[i] = offs[i-1] + counts[i-1]
	}
	symbols := make([]int, len(lengths))
	next := offs
	for sym, l := range lengths {
		if l != 0 {
			symbols[next[l]] = sym
			next[l]++
		}
	}
	return &huffTree{counts: counts, symbols: symbols}
}

func decodeSymbol(r *bitReader, t *huffTree) (int, error) {
	var code, first, index int
	for length := 1; length <= 15; length++ {
		bit, err := r.readBits(1)
		if err != nil {
			return 0, err
		}
		code |= int(bit)
		count := t.counts[length]
		if code-first < count {
			return t.symbols[index+(code-first)], nil
		}
		index += count
		first += count
		first <<= 1
		code <<= 1
	}
	return 0, ErrInvalidBlock
}

var fixedLitTree, fixedDistTree *huffTree

func init() {
	litLengths := make([]int, 288)
	for i := 0; i < 144; i++ {
		litLengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		litLengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		litLengths[i] = 7
	}
	for i := 280; i < 288; i++ {
		litLengths[i] = 8
	}
	fixedLitTree = buildHuffman(litLengths)

	distLengths := make([]int, 30)
	for i := range distLengths {
		distLengths[i] = 5
	}
	fixedDistTree = buildHuffman(distLengths)
}

var lengthBase = []int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31, 35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
var lengthExtra = []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
var distBase = []int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193, 257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
var distExtra = []int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
var clOrder = []int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}

// window is a 32KiB ring buffer of the most recently produced
// uncompressed bytes, used for LZ77 back-references and for snapshotting
// an access point's dictionary.
type window struct {
	buf   [windowSize]byte
	pos   int
	total int64
}

func (w *window) add(b byte) {
	w.buf[w.pos] = b
	w.pos = (w.pos + 1) % windowSize
	w.total++
}

func (w *window) byteAt(distance int) byte {
	i := (w.pos - distance + windowSize*4) % windowSize
	return w.buf[i]
}

// snapshot returns up to the last windowSize bytes in order, oldest
// first, as a standalone preset dictionary for inflateFrom.
func (w *window) snapshot() []byte {
	n := windowSize
	if w.total < int64(n) {
		n = int(w.total)
	}
	out := make([]byte, n)
	start := (w.pos - n + windowSize) % windowSize
	for i := 0; i < n; i++ {
		out[i] = w.buf[(start+i)%windowSize]
	}
	return out
}

func (w *window) preset(dict []byte) {
	for _, b := range dict {
		w.add(b)
	}
}

// decoder runs one deflate stream (a sequence of blocks up to and
// including the one with BFINAL=1) writing literal output to out.
type decoder struct {
	br  *bitReader
	win window
	out io.Writer
}

func (d *decoder) emit(b byte) error {
	d.win.add(b)
	_, err := d.out.Write([]byte{b})
	return err
}

func (d *decoder) copyMatch(length, distance int) error {
	for i := 0; i < length; i++ {
		b := d.win.byteAt(distance)
		if err := d.emit(b); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) readDynamicTrees() (lit, dist *huffTree, err error) {
	hlit, err := d.br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := d.br.readBits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := d.br.readBits(4)
	if err != nil {
		return nil, nil, err
	}
	nlit := int(hlit) + 257
	ndist := int(hdist) + 1
	nclen := int(hclen) + 4

	clLengths := make([]int, 19)
	for i := 0; i < nclen; i++ {
		v, err := d.br.readBits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[clOrder[i]] = int(v)
	}
	clTree := buildHuffman(clLengths)

	lengths := make([]int, nlit+ndist)
	i := 0
	for i < len(lengths) {
		sym, err := decodeSymbol(d.br, clTree)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym < 16:
			lengths[i] = sym
			i++
		case sym == 16:
			if i == 0 {
				return nil, nil, ErrInvalidBlock
			}
			n, err := d.br.readBits(2)
			if err != nil {
				return nil, nil, err
			}
			prev := lengths[i-1]
			for r := 0; r < int(n)+3; r++ {
				lengths[i] = prev
				i++
			}
		case sym == 17:
			n, err := d.br.readBits(3)
			if err != nil {
				return nil, nil, err
			}
			i += int(n) + 3
		case sym == 18:
			n, err := d.br.readBits(7)
			if err != nil {
				return nil, nil, err
			}
			i += int(n) + 11
		default:
			return nil, nil, ErrInvalidBlock
		}
	}
	return buildHuffman(lengths[:nlit]), buildHuffman(lengths[nlit:]), nil
}

func (d *decoder) decodeBlockCodes(lit, dist *huffTree) error {
	for {
		sym, err := decodeSymbol(d.br, lit)
		if err != nil {
			return err
		}
		if sym < 256 {
			if err := d.emit(byte(sym)); err != nil {
				return err
			}
			continue
		}
		if sym == 256 {
			return nil
		}
		sym -= 257
		if sym >= len(lengthBase) {
			return ErrInvalidBlock
		}
		extra, err := d.br.readBits(lengthExtra[sym])
		if err != nil {
			return err
		}
		length := lengthBase[sym] + int(extra)

		distSym, err := decodeSymbol(d.br, dist)
		if err != nil {
			return err
		}
		if distSym >= len(distBase) {
			return ErrInvalidBlock
		}
		distExtraBits, err := d.br.readBits(distExtra[distSym])
		if err != nil {
			return err
		}
		distance := distBase[distSym] + int(distExtraBits)
		if err := d.copyMatch(length, distance); err != nil {
			return err
		}
	}
}

func (d *decoder) block() (final bool, err error) {
	bfinal, err := d.br.readBits(1)
	if err != nil {
		return false, err
	}
	btype, err := d.br.readBits(2)
	if err != nil {
		return false, err
	}
	switch btype {
	case 0:
		d.br.alignByte()
		lenLo, err := d.br.readByte()
		if err != nil {
			return false, err
		}
		lenHi, err := d.br.readByte()
		if err != nil {
			return false, err
		}
		if _, err := d.br.readByte(); err != nil { // NLEN low
			return false, err
		}
		if _, err := d.br.readByte(); err != nil { // NLEN high
			return false, err
		}
		n := int(lenLo) | int(lenHi)<<8
		for i := 0; i < n; i++ {
			b, err := d.br.readByte()
			if err != nil {
				return false, err
			}
			if err := d.emit(b); err != nil {
				return false, err
			}
		}
	case 1:
		if err := d.decodeBlockCodes(fixedLitTree, fixedDistTree); err != nil {
			return false, err
		}
	case 2:
		lit, dist, err := d.readDynamicTrees()
		if err != nil {
			return false, err
		}
		if err := d.decodeBlockCodes(lit, dist); err != nil {
			return false, err
		}
	default:
		return false, ErrInvalidBlock
	}
	return bfinal == 1, nil
}

// AccessPoint is a resumable mid-stream checkpoint: the compressed
// position at which decoding may restart, primed with the preceding
// window, to produce output starting at UncompressedOffset.
type AccessPoint struct {
	UncompressedOffset int64
	CompressedOffset   int64
	BitOffset          int
	Window             []byte
}

// Inflate decodes one raw-deflate member starting at startByte, writing
// all uncompressed output to out. Whenever at least everyUncompressed
// bytes have been produced since the last checkpoint, onCheckpoint is
// called with the current position's access point, sampled at the next
// block boundary (deflate has no mid-block restart points, matching
// zlib's Z_BLOCK behavior that Zindex.cpp relies on). everyUncompressed
// <= 0 disables checkpointing.
func Inflate(ra io.ReaderAt, startByte int64, out io.Writer, everyUncompressed int64, onCheckpoint func(AccessPoint)) (total int64, err error) {
	d := &decoder{br: newBitReader(ra, startByte), out: out}
	var lastCheckpointTotal int64
	for {
		final, err := d.block()
		if err != nil {
			return d.win.total, err
		}
		if !final && onCheckpoint != nil && everyUncompressed > 0 {
			if d.win.total-lastCheckpointTotal >= everyUncompressed {
				bytePos, bitOffset, priorByte, cerr := d.br.checkpoint()
				if cerr == nil {
					ap := AccessPoint{
						UncompressedOffset: d.win.total,
						CompressedOffset:   bytePos,
						BitOffset:          bitOffset,
						Window:             d.win.snapshot(),
					}
					if bitOffset > 0 {
						ap.Window = append(ap.Window, priorByte)
					}
					onCheckpoint(ap)
					lastCheckpointTotal = d.win.total
				}
			}
		}
		if final {
			return d.win.total, nil
		}
	}
}

// InflateFrom resumes decoding at compressedOffset/bitOffset (as
// produced by an AccessPoint), priming the window with dict, and writes
// up to maxOut bytes of uncompressed output to out. Returns io.EOF if
// the stream ends before maxOut bytes are produced.
func InflateFrom(ra io.ReaderAt, compressedOffset int64, bitOffset int, dict []byte, out io.Writer, maxOut int64) (int64, error) {
	lw := &limitedWriter{w: out, max: maxOut}
	d := &decoder{br: newBitReader(ra, compressedOffset), out: lw}
	if len(dict) > 0 {
		if bitOffset > 0 {
			d.win.preset(dict[:len(dict)-1])
			d.br.prime(compressedOffset, bitOffset, dict[len(dict)-1])
		} else {
			d.win.preset(dict)
		}
	}
	for {
		final, err := d.block()
		if err != nil {
			if lw.n >= maxOut {
				return lw.n, nil
			}
			return lw.n, err
		}
		if lw.n >= maxOut {
			return lw.n, nil
		}
		if final {
			return lw.n, io.EOF
		}
	}
}

type limitedWriter struct {
	w   io.Writer
	max int64
	n   int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if l.n >= l.max {
		return len(p), nil // already satisfied; decoder keeps decoding the block but output is discarded
	}
	room := l.max - l.n
	if int64(len(p)) > room {
		p = p[:room]
	}
	n, err := l.w.Write(p)
	l.n += int64(n)
	return len(p), err
}

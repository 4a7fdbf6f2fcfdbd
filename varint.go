package austream

import "encoding/binary"

// maxVarintBytes bounds a valid unsigned varint: 10 bytes covers a full
// 64-bit value at 7 bits per byte. A longer sequence is a structural error.
const maxVarintBytes = 10

// putUvarint appends the LEB128-style encoding of v to dst and returns the
// extended slice. Low 7 bits per byte, high bit set while more bytes follow.
func putUvarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// readUvarint reads an unsigned varint from src at its current position.
// Returns the value, or an error if the varint runs past maxVarintBytes
// without terminating or src is exhausted.
func readUvarint(src ByteSource) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; i < maxVarintBytes; i++ {
		b, err := src.Next()
		if err != nil {
			return 0, err
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
	return 0, newParseError(src.Pos(), "varint exceeds %d bytes", maxVarintBytes)
}

// putDouble appends the 8-byte little-endian IEEE-754 encoding of bits.
func putDouble(dst []byte, bits uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], bits)
	return append(dst, buf[:]...)
}

// readFixed8 reads 8 raw little-endian bytes (used for D and t markers).
func readFixed8(src ByteSource) (uint64, error) {
	buf, err := src.ReadN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf), nil
}

// putPacked64 appends v as 8 raw little-endian bytes (PosInt64/NegInt64
// packed forms). The encoder never calls this; it exists so the decoder's
// symmetry holds and so test fixtures can construct packed-form records.
func putPacked64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

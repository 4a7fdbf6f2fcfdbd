package austream

// Record type bytes. Every record is framed as one of these followed by
// a type-specific payload and terminated by recordEnd.
const (
	recHeader byte = 'H' // format version + optional metadata
	recClear  byte = 'C' // resets the active dictionary
	recAdd    byte = 'A' // appends strings to the active dictionary
	recValue  byte = 'V' // one JSON value
)

// recordEnd terminates every record: 'E' then '\n'.
var recordEnd = [2]byte{'E', '\n'}

// Value markers. Decoders must accept all of these; encoders emit only
// the canonical choice documented next to each.
const (
	markTrue      byte = 'T'
	markFalse     byte = 'F'
	markNull      byte = 'N'
	markPosInt    byte = 'I' // unsigned varint
	markNegInt    byte = 'J' // unsigned varint holding the absolute value
	markDouble    byte = 'D' // 8 raw little-endian bytes
	markTimestamp byte = 't' // 8 raw little-endian bytes, signed ns since epoch
	markString    byte = 'S' // varint length + raw bytes
	markDictRef   byte = 'X' // varint index into the active dictionary
	markArrayOpen byte = '['
	markArrayEnd  byte = ']'
	markObjOpen   byte = '{'
	markObjEnd    byte = '}'

	// Packed 8-byte integer forms. The wire byte is not fixed by the
	// historical format; decoders must accept them unconditionally per
	// the design notes, so this module assigns P/Q. The encoder never
	// emits them (varint covers the supported range).
	markPosInt64Packed byte = 'P'
	markNegInt64Packed byte = 'Q'
)

// Header signature bytes: the canonical probe is H, I, varint(1), E, \n.
var headerSignature = []byte{recHeader, markPosInt, 0x01, 'E', '\n'}

// Legacy 4-byte signature some sources use for sniffing only; never emitted.
var legacyHeaderSignature = []byte{'H', 'A', 'U', 0x61}

// Gzip magic bytes.
var gzipMagic = [2]byte{0x1f, 0x8b}

// Format version written in the H record.
const formatVersion = 1

// Defaults from the spec's encoder and StringIntern sections.
const (
	defaultTinyStr         = 4
	defaultInternThreshold = 10
	defaultCacheSize       = 10000
	defaultPurgeInterval   = 250_000
	defaultPurgeThreshold  = 50
	defaultClearThreshold  = 1400
)

// ByteSource buffering policy (spec §5).
const (
	minHistory    = 1024
	growChunkSize = 256 * 1024
)

// Bisect thresholds (spec §4.9).
const (
	scanThreshold = 256 * 1024
	prefixAmount  = 512 * 1024
	suffixAmount  = scanThreshold + prefixAmount + 266*1024
)

// Gzip index constants (spec §4.10).
const (
	defaultIndexEvery = 8 * 1024 * 1024
	windowSize        = 32 * 1024
	zindexVersion     = 1
)

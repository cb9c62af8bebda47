// Package constants defines the fixed sizes and defaults shared across the
// on-disk format and the engine that reads and writes it.
package constants

const (
	// HeaderMagic identifies a kvengine data file. A file that has a
	// non-zero length but does not start with this magic is a hard
	// load error, not a record-corruption error.
	HeaderMagic = "KVS1"

	// HeaderSize is the fixed size in bytes of the file header:
	// 4 bytes magic + 8 bytes little-endian compaction threshold.
	HeaderSize = len(HeaderMagic) + 8

	// LenPrefixSize is the size in bytes of the length prefix that
	// precedes every framed record payload.
	LenPrefixSize = 8

	// ChecksumSize is the size in bytes of the murmur3 checksum
	// trailer appended to every serialized record payload.
	ChecksumSize = 4

	// DefaultCompactThreshold is the file size, in bytes, past which
	// set triggers a synchronous compaction when load was not given
	// an explicit threshold and no header value already exists.
	DefaultCompactThreshold = 1 << 20 // 1 MiB

	// ReaderPoolWarmSize is the number of read-only handles opened
	// eagerly by load, before any caller has issued a get.
	ReaderPoolWarmSize = 4

	// ReaderPoolMaxIdle is the number of idle handles the pool will
	// retain on release; a release beyond this closes the handle
	// instead of stashing it.
	ReaderPoolMaxIdle = 8

	// CompactShrinkNumerator and CompactShrinkDenominator express the
	// minimum shrink ratio (25%) a compaction must achieve before the
	// engine leaves the compaction threshold alone. A compaction that
	// falls short doubles the threshold so a large live set doesn't
	// retrigger compaction on every subsequent write.
	CompactShrinkNumerator   = 3
	CompactShrinkDenominator = 4
)

// Package persistence provides the binary snapshot primitives for bigsi
// indexes: the self-describing header, raw word-slice encoding, CRC32
// integrity checking, optional block compression and atomic file I/O.
package persistence

import "errors"

const (
	// MagicNumber identifies bigsi snapshot files (ASCII: "BSI1").
	MagicNumber uint32 = 0x42534931
	// Version is the current snapshot format version.
	Version uint32 = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrCorrupt        = errors.New("corrupt snapshot")
)

// Header is the fixed-size header at the start of every snapshot.
// All multi-byte fields are little-endian.
type Header struct {
	Magic          uint32 // 0x42534931 ("BSI1")
	Version        uint32 // Snapshot format version
	Compression    uint8  // CompressionNone/LZ4/ZSTD
	Reserved       [3]byte
	NumHashes      uint32 // Hash functions per value
	RowCount       uint64 // Rows (hash buckets)
	AccessionCount uint64 // Accession slots
}

// HeaderSize is the encoded size of Header in bytes.
const HeaderSize = 32

// TrailerSize is the size of the CRC32 trailer in bytes.
const TrailerSize = 4

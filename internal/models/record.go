// Package models defines the logical record stored in a kvengine data file
// and the byte-exact encoding used to serialize it inside a framed record.
package models

import (
	"encoding/binary"
	"fmt"

	"github.com/spaolacci/murmur3"

	"github.com/avhimaz/kvengine/internal/constants"
)

// Record is the logical unit appended to the log. A Record with
// Tombstone set to true carries no meaningful Value and marks Key as
// deleted as of Timestamp.
type Record struct {
	Timestamp uint64
	Key       []byte
	Value     []byte
	Tombstone bool
}

// ErrChecksumMismatch is returned by Deserialize when the trailing
// murmur3 checksum does not match the decoded payload. It is a
// corruption error per the engine's error taxonomy.
var ErrChecksumMismatch = fmt.Errorf("models: checksum mismatch")

// Serialize encodes r into the payload placed after a record's length
// prefix. Layout: 8 bytes timestamp_ms (LE) | 4 bytes key length (LE) |
// key | 1 byte presence (0 tombstone, 1 present) | [4 bytes value
// length (LE) | value] | 4 bytes murmur3 checksum (LE) of everything
// preceding it.
func (r Record) Serialize() []byte {
	presenceLen := 1
	valueLen := 0
	if !r.Tombstone {
		valueLen = 4 + len(r.Value)
	}

	body := make([]byte, 8+4+len(r.Key)+presenceLen+valueLen)
	off := 0

	binary.LittleEndian.PutUint64(body[off:], r.Timestamp)
	off += 8

	binary.LittleEndian.PutUint32(body[off:], uint32(len(r.Key)))
	off += 4

	off += copy(body[off:], r.Key)

	if r.Tombstone {
		body[off] = 0
		off++
	} else {
		body[off] = 1
		off++
		binary.LittleEndian.PutUint32(body[off:], uint32(len(r.Value)))
		off += 4
		off += copy(body[off:], r.Value)
	}

	checksum := murmur3.Sum32(body)
	out := make([]byte, len(body)+constants.ChecksumSize)
	copy(out, body)
	binary.LittleEndian.PutUint32(out[len(body):], checksum)

	return out
}

// Deserialize decodes a payload produced by Serialize. It returns
// ErrChecksumMismatch if the trailing checksum does not match, and a
// generic error if the payload is too short or internally inconsistent
// to have come from Serialize.
func Deserialize(payload []byte) (Record, error) {
	var r Record

	if len(payload) < 8+4+1+constants.ChecksumSize {
		return r, fmt.Errorf("models: payload too short (%d bytes)", len(payload))
	}

	body := payload[:len(payload)-constants.ChecksumSize]
	wantChecksum := binary.LittleEndian.Uint32(payload[len(body):])
	gotChecksum := murmur3.Sum32(body)
	if wantChecksum != gotChecksum {
		return r, ErrChecksumMismatch
	}

	off := 0
	r.Timestamp = binary.LittleEndian.Uint64(body[off:])
	off += 8

	keyLen := int(binary.LittleEndian.Uint32(body[off:]))
	off += 4

	if off+keyLen > len(body) {
		return Record{}, fmt.Errorf("models: key length %d exceeds payload", keyLen)
	}
	r.Key = append([]byte(nil), body[off:off+keyLen]...)
	off += keyLen

	if off >= len(body) {
		return Record{}, fmt.Errorf("models: payload missing presence byte")
	}
	presence := body[off]
	off++

	switch presence {
	case 0:
		r.Tombstone = true
	case 1:
		if off+4 > len(body) {
			return Record{}, fmt.Errorf("models: payload missing value length")
		}
		valueLen := int(binary.LittleEndian.Uint32(body[off:]))
		off += 4
		if off+valueLen != len(body) {
			return Record{}, fmt.Errorf("models: value length %d does not match payload", valueLen)
		}
		r.Value = append([]byte(nil), body[off:off+valueLen]...)
	default:
		return Record{}, fmt.Errorf("models: unrecognized presence byte %d", presence)
	}

	return r, nil
}

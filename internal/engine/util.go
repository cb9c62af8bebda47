package engine

import (
	"encoding/binary"

	"github.com/avhimaz/kvengine/internal/constants"
)

func leUint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func leBytes(v uint64) []byte {
	buf := make([]byte, constants.LenPrefixSize)
	binary.LittleEndian.PutUint64(buf, v)
	return buf
}

package engine

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/avhimaz/kvengine/internal/constants"
)

// ensureHeader reads the existing header if the file is non-empty, or
// writes a fresh one carrying defaultThreshold if the file is new. It
// returns the compaction threshold that should govern this engine
// instance: the persisted value for an existing file, or the caller's
// default for a brand new one.
func ensureHeader(f *os.File, defaultThreshold uint64) (uint64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("ensureHeader: stat: %w", err)
	}

	if info.Size() == 0 {
		if err := writeHeader(f, defaultThreshold); err != nil {
			return 0, err
		}
		return defaultThreshold, nil
	}

	if info.Size() < int64(constants.HeaderSize) {
		return 0, fmt.Errorf("ensureHeader: file too short to hold a header (%d bytes)", info.Size())
	}

	buf := make([]byte, constants.HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return 0, fmt.Errorf("ensureHeader: read: %w", err)
	}

	if string(buf[:len(constants.HeaderMagic)]) != constants.HeaderMagic {
		return 0, fmt.Errorf("ensureHeader: missing %q magic, file is not a kvengine data file", constants.HeaderMagic)
	}

	threshold := binary.LittleEndian.Uint64(buf[len(constants.HeaderMagic):])
	return threshold, nil
}

func writeHeader(f *os.File, threshold uint64) error {
	buf := make([]byte, constants.HeaderSize)
	copy(buf, constants.HeaderMagic)
	binary.LittleEndian.PutUint64(buf[len(constants.HeaderMagic):], threshold)

	if _, err := f.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("writeHeader: %w", err)
	}
	return nil
}

package engine

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"

	"github.com/avhimaz/kvengine/internal/constants"
)

// writer is the exclusive owner of the append-only data file handle.
// It tracks the file's current size so callers never need an extra
// stat to learn where the next record will land.
type writer struct {
	mu   sync.Mutex
	file *os.File
	size uint64
}

func openWriter(path string, size uint64) (*writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("openWriter: %w", err)
	}
	return &writer{file: f, size: size}, nil
}

// appendPayload writes the length-prefixed payload at the current end
// of the file and returns the offset of the payload itself (i.e. past
// the length prefix) and the new total file size. A failed write is
// truncated back to the size recorded before the call, so file_size
// continues to reflect the file's real length.
func (w *writer) appendPayload(payload []byte) (offset uint64, newSize uint64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	base := w.size

	var prefix [constants.LenPrefixSize]byte
	binary.LittleEndian.PutUint64(prefix[:], uint64(len(payload)))

	if _, err = w.file.WriteAt(prefix[:], int64(base)); err != nil {
		_ = w.file.Truncate(int64(base))
		return 0, 0, fmt.Errorf("appendPayload: length prefix: %w", err)
	}
	payloadOffset := base + constants.LenPrefixSize
	if _, err = w.file.WriteAt(payload, int64(payloadOffset)); err != nil {
		_ = w.file.Truncate(int64(base))
		return 0, 0, fmt.Errorf("appendPayload: payload: %w", err)
	}

	w.size = payloadOffset + uint64(len(payload))
	return payloadOffset, w.size, nil
}

func (w *writer) currentSize() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *writer) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// Package engine implements the Bitcask-style storage core: an
// append-only log, an in-memory offset index, a bounded reader pool,
// and the compaction protocol that keeps space amplification bounded.
//
// Locks are always acquired in the order writer lock -> index lock ->
// reader-pool lock, never the reverse, so the engine cannot deadlock
// against itself.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avhimaz/kvengine/internal/constants"
	"github.com/avhimaz/kvengine/internal/models"
)

// Engine orchestrates the writer, index, and reader pool over a single
// data file. An Engine value is safe for concurrent use by multiple
// goroutines.
type Engine struct {
	path string

	writerMu sync.Mutex // the "writer lock": serializes Set, Del, and Compact
	w        *writer

	idx  *index
	pool *readerPool

	thresholdMu sync.Mutex
	threshold   uint64
}

// Load opens the data file at path, creating it if absent, replays it
// to rebuild the index, and returns a ready Engine. It uses the
// persisted compaction threshold if the file already has one, or
// DefaultCompactThreshold for a brand new file.
func Load(path string) (*Engine, error) {
	return LoadWithThreshold(path, constants.DefaultCompactThreshold)
}

// LoadWithThreshold behaves like Load but uses threshold as the
// compaction trigger for a brand new file. threshold is ignored for
// an existing file, whose header already carries one.
func LoadWithThreshold(path string, threshold uint64) (*Engine, error) {
	if threshold == 0 {
		return nil, fmt.Errorf("engine: threshold must be greater than zero")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("Load: open: %w", err)
	}

	persistedThreshold, err := ensureHeader(f, threshold)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Load: %w", err)
	}

	fileSize, err := recoverTail(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Load: %w", err)
	}

	idx, err := rebuildIndex(f, fileSize)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("Load: %w", err)
	}

	f.Close()

	w, err := openWriter(path, fileSize)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	pool := newReaderPool(path)
	pool.warm(constants.ReaderPoolWarmSize)

	e := &Engine{
		path:      path,
		w:         w,
		idx:       idx,
		pool:      pool,
		threshold: persistedThreshold,
	}

	logger.Info().Str("path", path).Uint64("file_size", fileSize).
		Uint64("threshold", persistedThreshold).Int("keys", idx.len()).
		Msg("engine loaded")

	return e, nil
}

// recoverTail scans the record stream for a torn trailing append (a
// short read on the length prefix or the payload) and truncates the
// file back to the last clean record boundary if one is found. It
// returns the resulting file length.
func recoverTail(f *os.File) (uint64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("recover: stat: %w", err)
	}

	cursor := uint64(constants.HeaderSize)
	total := uint64(info.Size())

	for cursor < total {
		lenBuf := make([]byte, constants.LenPrefixSize)
		n, _ := f.ReadAt(lenBuf, int64(cursor))
		if uint64(n) < constants.LenPrefixSize {
			// torn trailing append: not even a full length prefix.
			if err := f.Truncate(int64(cursor)); err != nil {
				return 0, fmt.Errorf("recover: truncate: %w", err)
			}
			return cursor, nil
		}

		payloadLen := leUint64(lenBuf)
		payloadStart := cursor + constants.LenPrefixSize
		payloadEnd := payloadStart + payloadLen

		if payloadEnd > total {
			// torn trailing append: length prefix present, payload isn't.
			if err := f.Truncate(int64(cursor)); err != nil {
				return 0, fmt.Errorf("recover: truncate: %w", err)
			}
			return cursor, nil
		}

		cursor = payloadEnd
	}

	return cursor, nil
}

// rebuildIndex replays the record stream from the header boundary to
// fileSize (assumed already truncated to a clean boundary) and
// returns the resulting index.
func rebuildIndex(f *os.File, fileSize uint64) (*index, error) {
	idx := newIndex()
	cursor := uint64(constants.HeaderSize)

	for cursor < fileSize {
		lenBuf := make([]byte, constants.LenPrefixSize)
		if _, err := f.ReadAt(lenBuf, int64(cursor)); err != nil {
			return nil, fmt.Errorf("rebuildIndex: length prefix: %w", err)
		}
		payloadLen := leUint64(lenBuf)
		payloadStart := cursor + constants.LenPrefixSize

		payload := make([]byte, payloadLen)
		if _, err := f.ReadAt(payload, int64(payloadStart)); err != nil {
			return nil, fmt.Errorf("rebuildIndex: payload: %w", err)
		}

		rec, err := models.Deserialize(payload)
		if err != nil {
			return nil, fmt.Errorf("rebuildIndex: %w: %v", ErrCorrupt, err)
		}

		if rec.Tombstone {
			idx.remove(string(rec.Key))
		} else {
			idx.put(string(rec.Key), indexEntry{offset: payloadStart, length: payloadLen})
		}

		cursor = payloadStart + payloadLen
	}

	return idx, nil
}

// Threshold returns the compaction threshold currently in effect. It
// can grow over the engine's lifetime (see Compact).
func (e *Engine) Threshold() uint64 {
	e.thresholdMu.Lock()
	defer e.thresholdMu.Unlock()
	return e.threshold
}

// Set appends value under key and publishes it in the index. If the
// append pushes the file past the compaction threshold, Compact runs
// synchronously before Set returns.
func (e *Engine) Set(key, value []byte) error {
	rec := models.Record{Timestamp: nowMillis(), Key: key, Value: value}
	payload := rec.Serialize()

	e.writerMu.Lock()
	offset, newSize, err := e.w.appendPayload(payload)
	if err != nil {
		e.writerMu.Unlock()
		return fmt.Errorf("Set: %w", err)
	}

	e.idx.mu.Lock()
	e.idx.put(string(key), indexEntry{offset: offset, length: uint64(len(payload))})
	e.idx.mu.Unlock()
	e.writerMu.Unlock()

	logger.Debug().Str("key", string(key)).Uint64("offset", offset).Uint64("file_size", newSize).Msg("set")

	if newSize > e.Threshold() {
		if err := e.Compact(); err != nil {
			return fmt.Errorf("Set: auto-compact: %w", err)
		}
	}

	return nil
}

// Del appends a tombstone for key, whether or not the key is
// currently live, and removes it from the index. Deleting an absent
// key is not an error.
func (e *Engine) Del(key []byte) error {
	rec := models.Record{Timestamp: nowMillis(), Key: key, Tombstone: true}
	payload := rec.Serialize()

	e.writerMu.Lock()
	_, _, err := e.w.appendPayload(payload)
	if err != nil {
		e.writerMu.Unlock()
		return fmt.Errorf("Del: %w", err)
	}

	e.idx.mu.Lock()
	e.idx.remove(string(key))
	e.idx.mu.Unlock()
	e.writerMu.Unlock()

	logger.Debug().Str("key", string(key)).Msg("del")
	return nil
}

// Get returns the current value for key, or ok == false if the key is
// absent or was last deleted. The index read lock is held across the
// entire file read so a concurrent Compact's swap can never tear it.
func (e *Engine) Get(key []byte) (value []byte, ok bool, err error) {
	e.idx.mu.RLock()
	defer e.idx.mu.RUnlock()

	entry, found := e.idx.get(string(key))
	if !found {
		return nil, false, nil
	}

	f, err := e.pool.acquire()
	if err != nil {
		return nil, false, fmt.Errorf("Get: %w", err)
	}

	payload := make([]byte, entry.length)
	_, readErr := f.ReadAt(payload, int64(entry.offset))
	e.pool.release(f, readErr == nil)
	if readErr != nil {
		return nil, false, fmt.Errorf("Get: %w", readErr)
	}

	rec, err := models.Deserialize(payload)
	if err != nil {
		return nil, false, fmt.Errorf("Get: %w: %v", ErrCorrupt, err)
	}
	if rec.Tombstone || string(rec.Key) != string(key) {
		return nil, false, fmt.Errorf("Get: %w: index entry for %q resolved to a mismatched record", ErrCorrupt, key)
	}

	return rec.Value, true, nil
}

// Compact rewrites the log into a fresh file containing exactly one
// record per live key, then swaps it in for the current data file.
// Any failure before the rename leaves the engine's on-disk state and
// index untouched.
func (e *Engine) Compact() error {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	e.idx.mu.RLock()
	snapshot := e.idx.snapshot()
	e.idx.mu.RUnlock()

	oldSize := e.w.currentSize()
	threshold := e.Threshold()

	tmpPath := filepath.Join(filepath.Dir(e.path), fmt.Sprintf(".%s.compact-%s", filepath.Base(e.path), uuid.NewString()))

	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("Compact: create temp file: %w", err)
	}
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if err := writeHeader(tmp, threshold); err != nil {
		tmp.Close()
		return fmt.Errorf("Compact: %w", err)
	}

	oldFile, err := os.OpenFile(e.path, os.O_RDONLY, 0)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("Compact: open old file: %w", err)
	}
	defer oldFile.Close()

	newIdx := newIndex()
	cursor := uint64(constants.HeaderSize)

	for key, entry := range snapshot {
		payload := make([]byte, entry.length)
		if _, err := oldFile.ReadAt(payload, int64(entry.offset)); err != nil {
			tmp.Close()
			return fmt.Errorf("Compact: read %q: %w", key, err)
		}

		rec, err := models.Deserialize(payload)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("Compact: decode %q: %w: %v", key, ErrCorrupt, err)
		}
		if rec.Tombstone || string(rec.Key) != key {
			tmp.Close()
			return fmt.Errorf("Compact: %w: entry for %q resolved to a mismatched record", ErrCorrupt, key)
		}

		if _, err := tmp.WriteAt(leBytes(entry.length), int64(cursor)); err != nil {
			tmp.Close()
			return fmt.Errorf("Compact: write length prefix: %w", err)
		}
		newOffset := cursor + constants.LenPrefixSize
		if _, err := tmp.WriteAt(payload, int64(newOffset)); err != nil {
			tmp.Close()
			return fmt.Errorf("Compact: write payload: %w", err)
		}

		newIdx.put(key, indexEntry{offset: newOffset, length: entry.length})
		cursor = newOffset + entry.length
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("Compact: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("Compact: close temp file: %w", err)
	}

	e.idx.mu.Lock()
	defer e.idx.mu.Unlock()

	if err := os.Rename(tmpPath, e.path); err != nil {
		return fmt.Errorf("Compact: rename: %w", err)
	}

	if err := e.w.close(); err != nil {
		logger.Warn().Err(err).Msg("compact: failed to close old writer handle")
	}
	newWriter, err := openWriter(e.path, cursor)
	if err != nil {
		return fmt.Errorf("Compact: reopen writer: %w", err)
	}
	e.w = newWriter

	e.pool.drain()
	e.pool.retarget(e.path)
	e.pool.warm(constants.ReaderPoolWarmSize)

	e.idx.entries = newIdx.entries

	newSize := cursor
	if newSize*constants.CompactShrinkDenominator > oldSize*constants.CompactShrinkNumerator {
		e.thresholdMu.Lock()
		e.threshold *= 2
		updated := e.threshold
		e.thresholdMu.Unlock()

		if err := persistThreshold(e.path, updated); err != nil {
			logger.Warn().Err(err).Msg("compact: failed to persist raised threshold")
		}
	}

	logger.Info().Uint64("old_size", oldSize).Uint64("new_size", newSize).
		Int("live_keys", newIdx.len()).Msg("compact")

	return nil
}

// Close releases the writer handle and every pooled reader handle.
func (e *Engine) Close() error {
	e.writerMu.Lock()
	defer e.writerMu.Unlock()

	e.pool.drain()
	return e.w.close()
}

func persistThreshold(path string, threshold uint64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("persistThreshold: %w", err)
	}
	defer f.Close()
	return writeHeader(f, threshold)
}

func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}

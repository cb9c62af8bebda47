package engine

import "errors"

// ErrKeyNotFound describes a key that is absent from the index: it was
// never written, or its most recent record is a tombstone. Get itself
// reports absence as ok == false with a nil error and does not return
// this value; the HTTP adapter uses it as the body of its 404 reply.
var ErrKeyNotFound = errors.New("engine: key not found")

// ErrCorrupt wraps a decode failure that violates the invariant that a
// live index entry always points at a well-formed, matching, non-
// tombstone record. It is never returned by a successful load, which
// instead truncates a torn trailing append and surfaces only a
// mid-file inconsistency as this error.
var ErrCorrupt = errors.New("engine: corrupt record")

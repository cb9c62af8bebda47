package engine

import (
	"os"
	"sync"

	"github.com/avhimaz/kvengine/internal/constants"
)

// readerPool is a bounded LIFO cache of read-only handles to the
// current data file. Acquiring pops a handle or opens a fresh one;
// releasing pushes it back unless the pool is already at capacity, in
// which case the handle is closed instead of retained.
type readerPool struct {
	mu   sync.Mutex
	path string
	idle []*os.File
}

func newReaderPool(path string) *readerPool {
	return &readerPool{path: path}
}

// warm pre-opens n read-only handles, best-effort: a failure to open
// one is silently skipped, since acquire falls back to opening on
// demand anyway.
func (p *readerPool) warm(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < n; i++ {
		f, err := os.OpenFile(p.path, os.O_RDONLY, 0)
		if err != nil {
			continue
		}
		p.idle = append(p.idle, f)
	}
}

// acquire pops a cached handle or opens a new one against the current
// path if the pool is empty.
func (p *readerPool) acquire() (*os.File, error) {
	p.mu.Lock()
	if n := len(p.idle); n > 0 {
		f := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return f, nil
	}
	path := p.path
	p.mu.Unlock()

	return os.OpenFile(path, os.O_RDONLY, 0)
}

// release returns a handle to the pool, or closes it if the handle is
// broken (ok == false) or the pool is already at capacity.
func (p *readerPool) release(f *os.File, ok bool) {
	if !ok {
		f.Close()
		return
	}

	p.mu.Lock()
	if len(p.idle) >= constants.ReaderPoolMaxIdle {
		p.mu.Unlock()
		f.Close()
		return
	}
	p.idle = append(p.idle, f)
	p.mu.Unlock()
}

// drain closes and removes every idle handle. Called by compact after
// the data file has been swapped, so no pooled handle can outlive the
// file it was opened against.
func (p *readerPool) drain() {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	for _, f := range idle {
		f.Close()
	}
}

// retarget points future acquire calls at a new path. Existing idle
// handles must already have been drained by the caller.
func (p *readerPool) retarget(path string) {
	p.mu.Lock()
	p.path = path
	p.mu.Unlock()
}

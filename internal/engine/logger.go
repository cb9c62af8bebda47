package engine

import (
	"os"

	"github.com/phuslu/log"
)

// logger is the structured logger used on the append/read/compact
// paths. It defaults to INFO so a caller that never configures it
// still sees the same operational milestones the teacher logged with
// the standard library, just as structured fields instead of an
// interpolated string.
var logger = log.Logger{
	Level:  log.InfoLevel,
	Writer: &log.IOWriter{Writer: os.Stderr},
}

// SetLogger lets an embedding application redirect or relevel the
// engine's logger, e.g. to attach request-scoped fields or silence it
// in tests.
func SetLogger(l log.Logger) {
	logger = l
}

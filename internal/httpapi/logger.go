package httpapi

import (
	"os"

	"github.com/phuslu/log"
)

var logger = log.Logger{
	Level:  log.InfoLevel,
	Writer: &log.IOWriter{Writer: os.Stderr},
}

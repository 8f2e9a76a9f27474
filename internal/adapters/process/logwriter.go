package process

import (
	"bytes"
	"strings"

	"go.trai.ch/bld/internal/core/ports"
)

type logLevel uint8

const (
	levelInfo logLevel = iota
	levelWarn
)

// logWriter forwards child output to a Logger one line at a time.
type logWriter struct {
	logger ports.Logger
	level  logLevel
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Close flushes a trailing line that has no newline.
func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")

	if w.level == levelInfo {
		w.logger.Info(msg)
	} else {
		w.logger.Warn(msg)
	}
}

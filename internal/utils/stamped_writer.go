// Package utils holds small filesystem, validation and logging helpers shared
// by the client and the server.
package utils

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const stampFormat = "2006-01-02T15:04:05.000Z07:00"

// StampedWriter numbers and timestamps every line written through it. The
// workspace log file is appended to across runs, so the stamps keep
// interleaved sessions readable. Partial writes are buffered until a newline
// arrives.
type StampedWriter struct {
	mu  sync.Mutex
	dst io.Writer
	buf bytes.Buffer
	seq uint64
}

func NewStampedWriter(dst io.Writer) *StampedWriter {
	return &StampedWriter{dst: dst}
}

func (w *StampedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// incomplete line, keep it for the next write
			w.buf.WriteString(line)
			return len(p), nil
		}
		if err := w.stamp(strings.TrimRight(line, "\r\n")); err != nil {
			return len(p), err
		}
	}
}

// Close flushes a trailing line that never got its newline.
func (w *StampedWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() == 0 {
		return nil
	}
	line := strings.TrimRight(w.buf.String(), "\r\n")
	w.buf.Reset()
	return w.stamp(line)
}

func (w *StampedWriter) stamp(line string) error {
	w.seq++
	_, err := fmt.Fprintf(w.dst, "%06d %s %s\n", w.seq, time.Now().Format(stampFormat), line)
	return err
}

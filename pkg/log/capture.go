package log

import (
	"io"
	"strings"
	"sync"
)

// Capture is an append-only buffer of log lines. It implements io.Writer so
// it can be installed with SetOutput (usually teed with stderr) and exposes
// the accumulated entries in emission order. Entries are never mutated or
// removed; Lines returns a copy so callers can't either.
type Capture struct {
	mu      sync.Mutex
	entries []string
	partial strings.Builder
}

// NewCapture returns an empty capture buffer.
func NewCapture() *Capture {
	return &Capture{}
}

// Write splits p into lines and appends each complete line as one entry.
// A trailing fragment without a newline is held back until completed.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range p {
		if b == '\n' {
			c.entries = append(c.entries, c.partial.String())
			c.partial.Reset()
			continue
		}
		c.partial.WriteByte(b)
	}
	return len(p), nil
}

// Lines returns a snapshot of all captured entries in emission order.
func (c *Capture) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of captured entries.
func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Tee returns a writer that duplicates writes to the capture buffer and w.
func (c *Capture) Tee(w io.Writer) io.Writer {
	return io.MultiWriter(c, w)
}

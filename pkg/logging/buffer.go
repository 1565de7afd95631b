package logging

import (
	"strings"
	"sync"
)

// RingWriter is a thread-safe writer that keeps the most recent log lines in
// a fixed-size ring, so the API can serve a log tail without touching disk.
type RingWriter struct {
	mu    sync.RWMutex
	lines []string
	next  int
	full  bool
}

// Capture is the ring fed by the server log handler.
var Capture = NewRingWriter(256)

// NewRingWriter creates a ring holding up to capacity lines.
func NewRingWriter(capacity int) *RingWriter {
	if capacity < 1 {
		capacity = 1
	}
	return &RingWriter{lines: make([]string, capacity)}
}

// Write implements io.Writer. Each write is treated as one log line.
func (w *RingWriter) Write(p []byte) (n int, err error) {
	line := strings.TrimRight(string(p), "\n")
	if line == "" {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines[w.next] = line
	w.next = (w.next + 1) % len(w.lines)
	if w.next == 0 {
		w.full = true
	}
	return len(p), nil
}

// Tail returns up to n of the most recent lines, oldest first.
func (w *RingWriter) Tail(n int) []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	size := w.next
	if w.full {
		size = len(w.lines)
	}
	if n <= 0 || n > size {
		n = size
	}

	out := make([]string, 0, n)
	start := w.next - n
	if start < 0 {
		start += len(w.lines)
	}
	for i := 0; i < n; i++ {
		out = append(out, w.lines[(start+i)%len(w.lines)])
	}
	return out
}

// LastLine returns the most recent log line, or "" when empty.
func (w *RingWriter) LastLine() string {
	tail := w.Tail(1)
	if len(tail) == 0 {
		return ""
	}
	return tail[0]
}

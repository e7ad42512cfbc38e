package storeserver

import (
	"bytes"
	"sync"
)

// DefaultLogLines is the number of remapper output lines kept for /api/logs
const DefaultLogLines = 500

// LogBuffer keeps the most recent lines written to it. It is an io.Writer so
// it can sit directly on a child process's stdout and stderr; partial lines
// are held until their newline arrives.
type LogBuffer struct {
	mu      sync.Mutex
	lines   []string
	start   int
	size    int
	partial []byte
}

// NewLogBuffer creates a buffer holding at most capacity lines
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultLogLines
	}
	return &LogBuffer{lines: make([]string, capacity)}
}

// Write implements io.Writer
func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := append(b.partial, p...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		b.appendLocked(string(bytes.TrimRight(data[:i], "\r")))
		data = data[i+1:]
	}
	b.partial = append([]byte(nil), data...)
	return len(p), nil
}

// Append adds one line
func (b *LogBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.appendLocked(line)
}

func (b *LogBuffer) appendLocked(line string) {
	idx := (b.start + b.size) % len(b.lines)
	b.lines[idx] = line
	if b.size < len(b.lines) {
		b.size++
	} else {
		b.start = (b.start + 1) % len(b.lines)
	}
}

// Lines returns a copy of the buffered lines, oldest first
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.lines[(b.start+i)%len(b.lines)]
	}
	return out
}

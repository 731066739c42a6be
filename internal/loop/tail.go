package loop

import (
	"strings"
	"sync"
)

// tailWriter keeps the last maxLines complete lines written to it.
type tailWriter struct {
	mu       sync.Mutex
	maxLines int
	lines    []string
	buffer   string
}

func newTailWriter(maxLines int) *tailWriter {
	if maxLines <= 0 {
		maxLines = defaultStderrTailLines
	}
	return &tailWriter{maxLines: maxLines}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := strings.Split(t.buffer+string(p), "\n")
	t.buffer = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		if len(t.lines) >= t.maxLines {
			t.lines = t.lines[1:]
		}
		t.lines = append(t.lines, line)
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	lines := append([]string{}, t.lines...)
	if strings.TrimSpace(t.buffer) != "" {
		lines = append(lines, t.buffer)
	}
	return strings.Join(lines, "\n")
}

// limitOutputLines keeps the last maxLines lines of text.
func limitOutputLines(text string, maxLines int) string {
	if maxLines <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= maxLines {
		return text
	}
	return strings.Join(lines[len(lines)-maxLines:], "\n")
}

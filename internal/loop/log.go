package loop

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// sessionLog is the plain append-only record of loop events.
type sessionLog struct {
	file *os.File
	mu   sync.Mutex
	w    *bufio.Writer
	now  func() time.Time
}

// SessionLogPath returns the session log location under logDir.
func SessionLogPath(logDir string) string {
	return filepath.Join(logDir, "session.log")
}

func openSessionLog(path string) (*sessionLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open session log: %w", err)
	}
	return &sessionLog{file: file, w: bufio.NewWriter(file), now: time.Now}, nil
}

func (l *sessionLog) Write(p []byte) (int, error) {
	if l == nil {
		return len(p), nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	n, err := l.w.Write(p)
	if err != nil {
		return n, err
	}
	return n, l.w.Flush()
}

// WriteLine appends one timestamped line. A nil log discards it.
func (l *sessionLog) WriteLine(message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	stamp := l.now().UTC().Format(time.RFC3339)
	_, _ = l.w.WriteString("[" + stamp + "] " + message + "\n")
	_ = l.w.Flush()
}

func (l *sessionLog) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.w.Flush()
	_ = l.file.Close()
}

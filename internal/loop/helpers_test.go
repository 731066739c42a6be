package loop

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/harness"
	"github.com/tOgg1/afk/internal/models"
)

// recordingSink keeps every event it receives.
type recordingSink struct {
	mu     sync.Mutex
	events []events.Event
}

func (s *recordingSink) Send(e events.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) all() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

func (s *recordingSink) lines() []string {
	var out []string
	for _, e := range s.all() {
		if line, ok := e.(events.OutputLine); ok {
			out = append(out, line.Line)
		}
	}
	return out
}

// testConfig returns defaults with every session file inside a temp dir.
func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.AfkDir = filepath.Join(dir, ".afk")
	cfg.Paths.TasksFile = filepath.Join(dir, ".afk", "tasks.json")
	cfg.Paths.ProgressFile = filepath.Join(dir, ".afk", "progress.json")
	cfg.Archive.Directory = filepath.Join(dir, ".afk", "archive")
	return cfg, dir
}

func writeTasks(t *testing.T, path string, tasks ...models.Task) {
	t.Helper()
	data, err := json.MarshalIndent(models.TaskList{Tasks: tasks}, "", "  ")
	if err != nil {
		t.Fatalf("marshal tasks: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write tasks: %v", err)
	}
}

// scriptBuild runs script under sh instead of a real agent. The prompt is
// passed as $0.
func scriptBuild(script string) BuildFunc {
	return func(ctx context.Context, cli config.AICLIConfig, opts harness.Options) (*harness.Execution, error) {
		argv := []string{"sh", "-c", script, opts.Prompt}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Dir = opts.WorkDir
		return &harness.Execution{Cmd: cmd, Argv: argv}, nil
	}
}

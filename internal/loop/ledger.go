package loop

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultLedgerTailLines = 40

// ledgerHeader is the YAML front matter of a ledger file.
type ledgerHeader struct {
	SessionID string    `yaml:"session_id"`
	Project   string    `yaml:"project,omitempty"`
	Branch    string    `yaml:"branch,omitempty"`
	WorkDir   string    `yaml:"work_dir"`
	Command   string    `yaml:"command"`
	CreatedAt time.Time `yaml:"created_at"`
}

// ledgerEntry records one iteration.
type ledgerEntry struct {
	Iteration  int
	TaskID     string
	TaskTitle  string
	Success    bool
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    string
	Gates      []string
	Output     string
}

func ensureLedgerFile(path string, header ledgerHeader) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	front, err := yaml.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode ledger header: %w", err)
	}

	content := strings.Builder{}
	content.WriteString("---\n")
	content.Write(front)
	content.WriteString("---\n\n")
	content.WriteString("# afk ledger\n\n")

	return os.WriteFile(path, []byte(content.String()), 0o644)
}

func appendLedgerEntry(path string, entry ledgerEntry, tailLines int) error {
	if path == "" {
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	status := "success"
	if !entry.Success {
		status = "failed"
	}

	b := strings.Builder{}
	b.WriteString(fmt.Sprintf("## Iteration %d (%s)\n\n", entry.Iteration, entry.FinishedAt.UTC().Format(time.RFC3339)))
	if entry.TaskID != "" {
		b.WriteString(fmt.Sprintf("- task: %s - %s\n", entry.TaskID, entry.TaskTitle))
	}
	b.WriteString(fmt.Sprintf("- status: %s\n", status))
	if entry.Error != "" {
		b.WriteString(fmt.Sprintf("- error: %s\n", entry.Error))
	}
	b.WriteString(fmt.Sprintf("- started_at: %s\n", entry.StartedAt.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("- duration: %s\n", entry.FinishedAt.Sub(entry.StartedAt).Round(time.Millisecond)))
	if entry.Summary != "" {
		b.WriteString(fmt.Sprintf("- activity: %s\n", entry.Summary))
	}
	for _, gate := range entry.Gates {
		b.WriteString(fmt.Sprintf("- gate: %s\n", gate))
	}
	b.WriteString("\n")

	output := strings.TrimSpace(limitOutputLines(strings.TrimRight(entry.Output, "\n"), tailLines))
	if output != "" {
		b.WriteString("```\n")
		b.WriteString(output)
		b.WriteString("\n```\n\n")
	}

	_, err = f.WriteString(b.String())
	return err
}

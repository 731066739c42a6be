package loop

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Progress is the session state kept in progress.json.
type Progress struct {
	SessionID      string    `json:"session_id"`
	StartedAt      time.Time `json:"started_at"`
	Iterations     int       `json:"iterations"`
	TasksCompleted int       `json:"tasks_completed"`
	Branch         string    `json:"branch,omitempty"`
	LastUpdated    time.Time `json:"last_updated"`
}

// NewProgress starts a fresh session record.
func NewProgress(now time.Time) *Progress {
	return &Progress{
		SessionID:   uuid.NewString(),
		StartedAt:   now.UTC(),
		LastUpdated: now.UTC(),
	}
}

// LoadProgress reads path. A missing file returns nil and no error.
func LoadProgress(path string) (*Progress, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read progress: %w", err)
	}
	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse progress %s: %w", path, err)
	}
	if p.SessionID == "" {
		p.SessionID = uuid.NewString()
	}
	return &p, nil
}

// Save writes the progress file.
func (p *Progress) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create progress directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}

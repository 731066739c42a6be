package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tOgg1/afk/internal/models"
)

// Source supplies tasks during sync.
type Source interface {
	Name() string
	Tasks(ctx context.Context) ([]models.Task, error)
}

// JSONSource reads tasks from a JSON file. The file may hold a bare array of
// tasks or an object with a "userStories" or "tasks" array.
type JSONSource struct {
	Path string
}

// Name identifies the source.
func (s JSONSource) Name() string {
	return "json:" + s.Path
}

// Tasks reads the file.
func (s JSONSource) Tasks(ctx context.Context) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}

	var tasks []models.Task
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.Path, err)
		}
	} else {
		var doc struct {
			UserStories []models.Task `json:"userStories"`
			Tasks       []models.Task `json:"tasks"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", s.Path, err)
		}
		tasks = append(doc.UserStories, doc.Tasks...)
	}

	for i := range tasks {
		if tasks[i].Source == "" {
			tasks[i].Source = "json"
		}
	}
	return tasks, nil
}

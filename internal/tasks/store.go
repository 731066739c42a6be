// Package tasks reads and writes the session task list.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/tOgg1/afk/internal/logging"
	"github.com/tOgg1/afk/internal/models"
)

const syncedDescription = "Tasks synced from configured sources"

// Store is the task list the loop works from. Load always reads fresh state
// since the agent may rewrite the list between iterations.
type Store interface {
	// Load reads the current task list.
	Load(ctx context.Context) (*models.TaskList, error)

	// Sync refreshes the list from configured sources and returns it.
	Sync(ctx context.Context) (*models.TaskList, error)

	// HasSources reports whether Sync can discover new work.
	HasSources() bool
}

// FileStore keeps the task list in a JSON file.
type FileStore struct {
	Path    string
	Sources []Source

	// Project and Branch are recorded on sync when set.
	Project string
	Branch  string

	now    func() time.Time
	logger zerolog.Logger
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string, sources ...Source) *FileStore {
	return &FileStore{
		Path:    path,
		Sources: sources,
		now:     time.Now,
		logger:  logging.Component("tasks"),
	}
}

// HasSources reports whether any sources are configured.
func (s *FileStore) HasSources() bool {
	return len(s.Sources) > 0
}

// Load reads the task list. A missing file is an empty list.
func (s *FileStore) Load(ctx context.Context) (*models.TaskList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &models.TaskList{Tasks: []models.Task{}}, nil
		}
		return nil, fmt.Errorf("read task list: %w", err)
	}

	var list models.TaskList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse task list %s: %w", s.Path, err)
	}
	if list.Tasks == nil {
		list.Tasks = []models.Task{}
	}
	list.Normalize()
	return &list, nil
}

// Save writes the task list atomically.
func (s *FileStore) Save(list *models.TaskList) error {
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("encode task list: %w", err)
	}
	return writeFileAtomic(s.Path, append(data, '\n'))
}

// Sync aggregates tasks from all sources into the file. Completion state of
// known task ids is preserved. With no sources, or when every source comes
// back empty, the stored list is returned untouched.
func (s *FileStore) Sync(ctx context.Context) (*models.TaskList, error) {
	existing, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !s.HasSources() {
		return existing, nil
	}

	var aggregated []models.Task
	for _, source := range s.Sources {
		found, err := source.Tasks(ctx)
		if err != nil {
			return nil, fmt.Errorf("sync source %s: %w", source.Name(), err)
		}
		s.logger.Debug().Str("source", source.Name()).Int("tasks", len(found)).Msg("source loaded")
		aggregated = append(aggregated, found...)
	}
	if len(aggregated) == 0 && len(existing.Tasks) > 0 {
		return existing, nil
	}

	passes := make(map[string]bool, len(existing.Tasks))
	for _, task := range existing.Tasks {
		passes[task.ID] = task.Passes
	}
	for i := range aggregated {
		if done, ok := passes[aggregated[i].ID]; ok {
			aggregated[i].Passes = done
		}
	}

	synced := &models.TaskList{
		Project:     existing.Project,
		BranchName:  existing.BranchName,
		Description: existing.Description,
		Tasks:       aggregated,
		LastSynced:  s.now().Format(time.RFC3339),
	}
	synced.Normalize()
	sort.SliceStable(synced.Tasks, func(i, j int) bool {
		return synced.Tasks[i].Priority < synced.Tasks[j].Priority
	})
	if s.Project != "" {
		synced.Project = s.Project
	}
	if s.Branch != "" {
		synced.BranchName = s.Branch
	}
	if synced.Description == "" {
		synced.Description = syncedDescription
	}

	if err := s.Save(synced); err != nil {
		return nil, err
	}
	return synced, nil
}

// MarkComplete sets passes on the task with id and saves the list.
func (s *FileStore) MarkComplete(ctx context.Context, id string) error {
	list, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := list.MarkComplete(id); err != nil {
		return fmt.Errorf("%w: %s", err, id)
	}
	return s.Save(list)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// Package archive moves finished or interrupted session state aside so the
// next session starts clean.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tOgg1/afk/internal/logging"
	"github.com/tOgg1/afk/internal/models"
)

const (
	metadataFile    = "metadata.json"
	timestampLayout = "20060102_150405"
)

// Reasons recorded in archive metadata.
const (
	ReasonInterrupted = "interrupted"
	ReasonCompleted   = "completed"
	ReasonManual      = "manual"
)

// Metadata describes an archived session.
type Metadata struct {
	ArchivedAt     time.Time `json:"archived_at"`
	SessionID      string    `json:"session_id"`
	Branch         string    `json:"branch,omitempty"`
	Reason         string    `json:"reason"`
	Iterations     int       `json:"iterations"`
	TasksCompleted int       `json:"tasks_completed"`
	TasksPending   int       `json:"tasks_pending"`
}

// Entry is one archived session on disk.
type Entry struct {
	Name string
	Path string
	Metadata
}

// Archiver moves session files into timestamped directories.
type Archiver struct {
	// Dir holds one subdirectory per archived session.
	Dir string

	ProgressFile string
	TasksFile    string

	// RepoRoot is searched for .git/HEAD to record the branch.
	RepoRoot string

	now    func() time.Time
	logger zerolog.Logger
}

// New returns an archiver for the given archive directory and session files.
func New(dir, progressFile, tasksFile string) *Archiver {
	return &Archiver{
		Dir:          dir,
		ProgressFile: progressFile,
		TasksFile:    tasksFile,
		RepoRoot:     ".",
		now:          time.Now,
		logger:       logging.Component("archive"),
	}
}

// Archive moves the progress and task files into a new archive directory and
// writes metadata.json next to them. It returns models.ErrNothingToArchive
// when neither file exists.
func (a *Archiver) Archive(meta Metadata) (string, error) {
	sources := make(map[string]string, 2)
	for _, path := range []string{a.ProgressFile, a.TasksFile} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			sources[path] = filepath.Base(path)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if len(sources) == 0 {
		return "", models.ErrNothingToArchive
	}

	now := a.now().UTC()
	dest, err := a.createDir(now)
	if err != nil {
		return "", err
	}

	for _, src := range []string{a.ProgressFile, a.TasksFile} {
		name, ok := sources[src]
		if !ok {
			continue
		}
		if err := os.Rename(src, filepath.Join(dest, name)); err != nil {
			return "", fmt.Errorf("move %s: %w", src, err)
		}
	}

	meta.ArchivedAt = now
	if meta.SessionID == "" {
		meta.SessionID = uuid.NewString()
	}
	if meta.Branch == "" {
		meta.Branch = CurrentBranch(a.RepoRoot)
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode archive metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dest, metadataFile), append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write archive metadata: %w", err)
	}

	a.logger.Info().Str("path", dest).Str("reason", meta.Reason).Msg("session archived")
	return dest, nil
}

// createDir makes a fresh directory named after ts, suffixing on collision.
func (a *Archiver) createDir(ts time.Time) (string, error) {
	if err := os.MkdirAll(a.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}
	base := filepath.Join(a.Dir, ts.Format(timestampLayout))
	dest := base
	for i := 2; ; i++ {
		err := os.Mkdir(dest, 0o755)
		if err == nil {
			return dest, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create archive %s: %w", dest, err)
		}
		dest = fmt.Sprintf("%s_%d", base, i)
	}
}

// List returns archived sessions, newest first. Directories without readable
// metadata are skipped.
func (a *Archiver) List() ([]Entry, error) {
	entries, err := os.ReadDir(a.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read archive directory: %w", err)
	}

	var out []Entry
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(a.Dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(path, metadataFile))
		if err != nil {
			continue
		}
		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			a.logger.Debug().Err(err).Str("path", path).Msg("skipping archive with bad metadata")
			continue
		}
		out = append(out, Entry{Name: entry.Name(), Path: path, Metadata: meta})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ArchivedAt.Equal(out[j].ArchivedAt) {
			return out[i].Name > out[j].Name
		}
		return out[i].ArchivedAt.After(out[j].ArchivedAt)
	})
	return out, nil
}

// Clear removes the session progress file so the next run starts fresh.
// The task list is left in place.
func (a *Archiver) Clear() error {
	if a.ProgressFile == "" {
		return nil
	}
	if err := os.Remove(a.ProgressFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove progress file: %w", err)
	}
	return nil
}

// CurrentBranch returns the branch checked out in the repository at root, or
// "" when it cannot be determined or HEAD is detached.
func CurrentBranch(root string) string {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil {
		return ""
	}
	if !info.IsDir() {
		// Worktrees and submodules use a "gitdir: <path>" file.
		data, err := os.ReadFile(gitDir)
		if err != nil {
			return ""
		}
		target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
		if !ok {
			return ""
		}
		gitDir = strings.TrimSpace(target)
		if !filepath.IsAbs(gitDir) {
			gitDir = filepath.Join(root, gitDir)
		}
	}

	head, err := os.ReadFile(filepath.Join(gitDir, "HEAD"))
	if err != nil {
		return ""
	}
	ref, ok := strings.CutPrefix(strings.TrimSpace(string(head)), "ref:")
	if !ok {
		return ""
	}
	return strings.TrimPrefix(strings.TrimSpace(ref), "refs/heads/")
}

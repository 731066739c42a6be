package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/loop"
	"github.com/tOgg1/afk/internal/models"
)

func withConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	previous := appConfig
	appConfig = cfg
	t.Cleanup(func() { appConfig = previous })
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return buf.String(), err
}

func sessionConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Paths.AfkDir = filepath.Join(dir, ".afk")
	cfg.Paths.TasksFile = filepath.Join(dir, ".afk", "tasks.json")
	cfg.Paths.ProgressFile = filepath.Join(dir, ".afk", "progress.json")
	cfg.Archive.Directory = filepath.Join(dir, ".afk", "archive")
	require.NoError(t, os.MkdirAll(cfg.Paths.AfkDir, 0o755))
	return cfg
}

func TestVersionCommandJSON(t *testing.T) {
	setOutputFlags(t, true, false)
	buildVersion, buildCommit, buildDate = "1.2.3", "abc123", "2026-01-01"
	t.Cleanup(func() { buildVersion, buildCommit, buildDate = "dev", "none", "unknown" })

	out, err := runCommand(t, versionCmd)
	require.NoError(t, err)

	var info versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, versionInfo{Version: "1.2.3", Commit: "abc123", Date: "2026-01-01"}, info)
}

func TestVersionCommandHuman(t *testing.T) {
	setOutputFlags(t, false, false)

	out, err := runCommand(t, versionCmd)
	require.NoError(t, err)
	assert.Equal(t, "afk dev (commit: none, built: unknown)\n", out)
}

func TestVerifyWithoutGates(t *testing.T) {
	setOutputFlags(t, false, false)
	withConfig(t, config.DefaultConfig())

	out, err := runCommand(t, verifyCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "No quality gates configured")
}

func TestVerifyReportsFailures(t *testing.T) {
	setOutputFlags(t, false, false)
	cfg := config.DefaultConfig()
	cfg.FeedbackLoops.Lint = "true"
	cfg.FeedbackLoops.Test = "echo broken test; exit 1"
	withConfig(t, cfg)

	out, err := runCommand(t, verifyCmd)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.True(t, exitErr.Printed)
	assert.Contains(t, out, "lint")
	assert.Contains(t, out, "broken test")
	assert.Contains(t, out, "Failed: test")
}

func TestVerifyJSONAllPassed(t *testing.T) {
	setOutputFlags(t, true, false)
	cfg := config.DefaultConfig()
	cfg.FeedbackLoops.Build = "true"
	cfg.FeedbackLoops.Custom = map[string]string{"docs": "true"}
	withConfig(t, cfg)

	out, err := runCommand(t, verifyCmd)
	require.NoError(t, err)

	var report struct {
		AllPassed bool `json:"all_passed"`
		Gates     []struct {
			Name   string `json:"name"`
			Passed bool   `json:"passed"`
		} `json:"gates"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.AllPassed)
	require.Len(t, report.Gates, 2)
	assert.Equal(t, "build", report.Gates[0].Name)
	assert.Equal(t, "docs", report.Gates[1].Name)
}

func TestArchiveNowListAndClear(t *testing.T) {
	setOutputFlags(t, false, false)
	cfg := sessionConfig(t)
	withConfig(t, cfg)

	empty, err := runCommand(t, archiveListCmd)
	require.NoError(t, err)
	assert.Contains(t, empty, "No archived sessions.")

	progress := &loop.Progress{SessionID: "session-1", Iterations: 4, TasksCompleted: 2}
	data, err := json.Marshal(progress)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg.Paths.ProgressFile, data, 0o644))
	require.NoError(t, os.WriteFile(cfg.Paths.TasksFile,
		[]byte(`{"userStories":[{"id":"a","title":"A","passes":false}]}`), 0o644))

	out, err := runCommand(t, archiveNowCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Session archived to ")
	assert.NoFileExists(t, cfg.Paths.ProgressFile)
	assert.NoFileExists(t, cfg.Paths.TasksFile)

	listed, err := runCommand(t, archiveCmd)
	require.NoError(t, err)
	assert.Contains(t, listed, "manual")
	assert.Contains(t, listed, "REASON")

	_, err = runCommand(t, archiveNowCmd)
	assert.ErrorIs(t, err, models.ErrNothingToArchive)

	require.NoError(t, os.WriteFile(cfg.Paths.ProgressFile, data, 0o644))
	cleared, err := runCommand(t, archiveClearCmd)
	require.NoError(t, err)
	assert.Contains(t, cleared, "Session progress cleared.")
	assert.NoFileExists(t, cfg.Paths.ProgressFile)
}

func TestArchiveListJSON(t *testing.T) {
	setOutputFlags(t, true, false)
	withConfig(t, sessionConfig(t))

	out, err := runCommand(t, archiveListCmd)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

// Package config handles afk configuration loading and validation.
package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tOgg1/afk/internal/models"
)

// Config is the root configuration structure for afk.
type Config struct {
	// AICLI describes the agent command invoked each iteration.
	AICLI AICLIConfig `yaml:"ai_cli" mapstructure:"ai_cli"`

	// Limits bounds a session.
	Limits LimitsConfig `yaml:"limits" mapstructure:"limits"`

	// FeedbackLoops are the quality gate commands.
	FeedbackLoops FeedbackLoopsConfig `yaml:"feedback_loops" mapstructure:"feedback_loops"`

	// Archive settings
	Archive ArchiveConfig `yaml:"archive" mapstructure:"archive"`

	// Feedback controls live display.
	Feedback FeedbackConfig `yaml:"feedback" mapstructure:"feedback"`

	// Watcher settings
	Watcher WatcherConfig `yaml:"watcher" mapstructure:"watcher"`

	// Prompt settings
	Prompt PromptConfig `yaml:"prompt" mapstructure:"prompt"`

	// Paths to session state files.
	Paths PathsConfig `yaml:"paths" mapstructure:"paths"`

	// Task sources
	Tasks TasksConfig `yaml:"tasks" mapstructure:"tasks"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
}

// OutputFormat is the agent CLI's --output-format value.
type OutputFormat string

const (
	OutputText       OutputFormat = "text"
	OutputJSON       OutputFormat = "json"
	OutputStreamJSON OutputFormat = "stream-json"
)

// AICLIConfig describes the agent CLI.
type AICLIConfig struct {
	// Command is the executable name or path (default: claude).
	Command string `yaml:"command" mapstructure:"command"`

	// Args are passed before any generated flags.
	Args []string `yaml:"args" mapstructure:"args"`

	// OutputFormat is text, json, or stream-json.
	OutputFormat OutputFormat `yaml:"output_format" mapstructure:"output_format"`

	// StreamPartial requests partial message streaming when supported.
	StreamPartial bool `yaml:"stream_partial" mapstructure:"stream_partial"`

	// Models is the candidate list for --model. One is picked per iteration.
	Models []string `yaml:"models" mapstructure:"models"`

	// StreamFormat forces the stream schema (cursor, claude). Empty means detect.
	StreamFormat string `yaml:"stream_format" mapstructure:"stream_format"`
}

// UsesStreamJSON reports whether output is line-delimited JSON events.
func (c AICLIConfig) UsesStreamJSON() bool {
	return c.OutputFormat == OutputStreamJSON
}

// LimitsConfig bounds a session.
type LimitsConfig struct {
	// MaxIterations is the default iteration cap.
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations"`

	// TimeoutMinutes is the default session timeout. Zero disables it.
	TimeoutMinutes int `yaml:"timeout_minutes" mapstructure:"timeout_minutes"`
}

// FeedbackLoopsConfig lists quality gate commands.
type FeedbackLoopsConfig struct {
	Types  string            `yaml:"types" mapstructure:"types"`
	Lint   string            `yaml:"lint" mapstructure:"lint"`
	Test   string            `yaml:"test" mapstructure:"test"`
	Build  string            `yaml:"build" mapstructure:"build"`
	Custom map[string]string `yaml:"custom" mapstructure:"custom"`

	// GateTimeout bounds each gate. Zero disables the bound.
	GateTimeout time.Duration `yaml:"gate_timeout" mapstructure:"gate_timeout"`
}

// Gate is a named shell command.
type Gate struct {
	Name    string
	Command string
}

// Gates returns configured gates in run order: types, lint, test, build, then
// custom gates sorted by name.
func (c FeedbackLoopsConfig) Gates() []Gate {
	var gates []Gate
	for _, gate := range []Gate{
		{Name: "types", Command: c.Types},
		{Name: "lint", Command: c.Lint},
		{Name: "test", Command: c.Test},
		{Name: "build", Command: c.Build},
	} {
		if strings.TrimSpace(gate.Command) != "" {
			gates = append(gates, gate)
		}
	}

	names := make([]string, 0, len(c.Custom))
	for name := range c.Custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(c.Custom[name]) == "" {
			continue
		}
		gates = append(gates, Gate{Name: name, Command: c.Custom[name]})
	}
	return gates
}

// ArchiveConfig controls session archiving.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled" mapstructure:"enabled"`
	Directory string `yaml:"directory" mapstructure:"directory"`
}

// FeedbackConfig controls live display.
type FeedbackConfig struct {
	// Mode is none, minimal, or full.
	Mode string `yaml:"mode" mapstructure:"mode"`

	ShowMascot bool `yaml:"show_mascot" mapstructure:"show_mascot"`

	// MaxOutputLines caps the dashboard's output buffer.
	MaxOutputLines int `yaml:"max_output_lines" mapstructure:"max_output_lines"`

	// ActiveThreshold is how long after the last activity the agent counts as active.
	ActiveThreshold time.Duration `yaml:"active_threshold" mapstructure:"active_threshold"`

	// ThinkingThreshold is how long before a quiet agent counts as stalled.
	ThinkingThreshold time.Duration `yaml:"thinking_threshold" mapstructure:"thinking_threshold"`
}

// WatcherConfig controls the filesystem watcher.
type WatcherConfig struct {
	// Ignore replaces the default ignore patterns when non-empty.
	Ignore []string `yaml:"ignore" mapstructure:"ignore"`

	// ExtraIgnore is appended to the effective ignore patterns.
	ExtraIgnore []string `yaml:"extra_ignore" mapstructure:"extra_ignore"`

	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// PromptConfig controls the built-in prompt generator.
type PromptConfig struct {
	// File is an optional base prompt prepended to every iteration.
	File string `yaml:"file" mapstructure:"file"`

	// ContextFiles are listed in the prompt for the agent to read.
	ContextFiles []string `yaml:"context_files" mapstructure:"context_files"`
}

// PathsConfig locates session state.
type PathsConfig struct {
	AfkDir       string `yaml:"afk_dir" mapstructure:"afk_dir"`
	TasksFile    string `yaml:"tasks_file" mapstructure:"tasks_file"`
	ProgressFile string `yaml:"progress_file" mapstructure:"progress_file"`
}

// LogDir returns the directory for session logs.
func (p PathsConfig) LogDir() string {
	return filepath.Join(p.AfkDir, "logs")
}

// LedgerFile returns the iteration ledger path.
func (p PathsConfig) LedgerFile() string {
	return filepath.Join(p.AfkDir, "ledger.md")
}

// TasksConfig lists where tasks are synced from.
type TasksConfig struct {
	// Sources are JSON task files merged into the tasks file on sync.
	Sources []string `yaml:"sources" mapstructure:"sources"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		AICLI: AICLIConfig{
			Command:      "claude",
			Args:         []string{"--dangerously-skip-permissions", "-p"},
			OutputFormat: OutputStreamJSON,
		},
		Limits: LimitsConfig{
			MaxIterations:  200,
			TimeoutMinutes: 120,
		},
		FeedbackLoops: FeedbackLoopsConfig{
			Custom:      map[string]string{},
			GateTimeout: 5 * time.Minute,
		},
		Archive: ArchiveConfig{
			Enabled:   true,
			Directory: ".afk/archive",
		},
		Feedback: FeedbackConfig{
			Mode:              string(models.FeedbackFull),
			ShowMascot:        true,
			MaxOutputLines:    500,
			ActiveThreshold:   2 * time.Second,
			ThinkingThreshold: 10 * time.Second,
		},
		Watcher: WatcherConfig{
			PollInterval: 200 * time.Millisecond,
		},
		Paths: PathsConfig{
			AfkDir:       ".afk",
			TasksFile:    ".afk/tasks.json",
			ProgressFile: ".afk/progress.json",
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: false,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AICLI.Command) == "" {
		return fmt.Errorf("ai_cli.command is required")
	}
	switch c.AICLI.OutputFormat {
	case OutputText, OutputJSON, OutputStreamJSON:
	default:
		return fmt.Errorf("ai_cli.output_format must be one of text, json, stream-json")
	}
	switch strings.ToLower(strings.TrimSpace(c.AICLI.StreamFormat)) {
	case "", "auto", "cursor", "claude":
	default:
		return fmt.Errorf("ai_cli.stream_format must be one of auto, cursor, claude")
	}

	if c.Limits.MaxIterations < 1 {
		return fmt.Errorf("limits.max_iterations must be at least 1")
	}
	if c.Limits.TimeoutMinutes < 0 {
		return fmt.Errorf("limits.timeout_minutes must be zero or greater")
	}

	if c.FeedbackLoops.GateTimeout < 0 {
		return fmt.Errorf("feedback_loops.gate_timeout must be zero or greater")
	}

	if c.Archive.Enabled && strings.TrimSpace(c.Archive.Directory) == "" {
		return fmt.Errorf("archive.directory is required when archiving is enabled")
	}

	if _, err := models.ParseFeedbackMode(c.Feedback.Mode); err != nil {
		return fmt.Errorf("feedback.mode must be one of none, minimal, full")
	}
	if c.Feedback.MaxOutputLines < 1 {
		return fmt.Errorf("feedback.max_output_lines must be at least 1")
	}
	if c.Feedback.ThinkingThreshold < c.Feedback.ActiveThreshold {
		return fmt.Errorf("feedback.thinking_threshold must not be less than feedback.active_threshold")
	}

	if c.Watcher.PollInterval < 10*time.Millisecond {
		return fmt.Errorf("watcher.poll_interval must be at least 10ms")
	}

	if strings.TrimSpace(c.Paths.AfkDir) == "" {
		return fmt.Errorf("paths.afk_dir is required")
	}
	if strings.TrimSpace(c.Paths.TasksFile) == "" {
		return fmt.Errorf("paths.tasks_file is required")
	}
	if strings.TrimSpace(c.Paths.ProgressFile) == "" {
		return fmt.Errorf("paths.progress_file is required")
	}

	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be one of console, json")
	}

	return nil
}

// FeedbackMode returns the parsed feedback mode, falling back to minimal.
func (c *Config) FeedbackMode() models.FeedbackMode {
	mode, err := models.ParseFeedbackMode(c.Feedback.Mode)
	if err != nil {
		return models.FeedbackMinimal
	}
	return mode
}

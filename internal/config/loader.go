package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
	projectDir string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v:          viper.New(),
		projectDir: ".",
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// SetProjectDir sets the directory whose .afk/config.yaml is searched first.
func (l *Loader) SetProjectDir(dir string) {
	l.projectDir = dir
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// expandPaths expands ~ in all path-related config fields.
func expandPaths(cfg *Config) {
	cfg.AICLI.Command = expandTilde(cfg.AICLI.Command)
	cfg.Archive.Directory = expandTilde(cfg.Archive.Directory)
	cfg.Prompt.File = expandTilde(cfg.Prompt.File)
	cfg.Paths.AfkDir = expandTilde(cfg.Paths.AfkDir)
	cfg.Paths.TasksFile = expandTilde(cfg.Paths.TasksFile)
	cfg.Paths.ProgressFile = expandTilde(cfg.Paths.ProgressFile)
	for i, source := range cfg.Tasks.Sources {
		cfg.Tasks.Sources[i] = expandTilde(source)
	}
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// Project config wins over user config.
	v.AddConfigPath(filepath.Join(l.projectDir, ".afk"))
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "afk"))
	}
	homeDir, _ := os.UserHomeDir()
	if homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "afk"))
	}

	v.SetEnvPrefix("AFK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	l.setDefaults(cfg)
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// AI CLI
	v.SetDefault("ai_cli.command", cfg.AICLI.Command)
	v.SetDefault("ai_cli.args", cfg.AICLI.Args)
	v.SetDefault("ai_cli.output_format", string(cfg.AICLI.OutputFormat))
	v.SetDefault("ai_cli.stream_partial", cfg.AICLI.StreamPartial)
	v.SetDefault("ai_cli.models", cfg.AICLI.Models)
	v.SetDefault("ai_cli.stream_format", cfg.AICLI.StreamFormat)

	// Limits
	v.SetDefault("limits.max_iterations", cfg.Limits.MaxIterations)
	v.SetDefault("limits.timeout_minutes", cfg.Limits.TimeoutMinutes)

	// Feedback loops
	v.SetDefault("feedback_loops.types", cfg.FeedbackLoops.Types)
	v.SetDefault("feedback_loops.lint", cfg.FeedbackLoops.Lint)
	v.SetDefault("feedback_loops.test", cfg.FeedbackLoops.Test)
	v.SetDefault("feedback_loops.build", cfg.FeedbackLoops.Build)
	v.SetDefault("feedback_loops.custom", cfg.FeedbackLoops.Custom)
	v.SetDefault("feedback_loops.gate_timeout", cfg.FeedbackLoops.GateTimeout)

	// Archive
	v.SetDefault("archive.enabled", cfg.Archive.Enabled)
	v.SetDefault("archive.directory", cfg.Archive.Directory)

	// Feedback
	v.SetDefault("feedback.mode", cfg.Feedback.Mode)
	v.SetDefault("feedback.show_mascot", cfg.Feedback.ShowMascot)
	v.SetDefault("feedback.max_output_lines", cfg.Feedback.MaxOutputLines)
	v.SetDefault("feedback.active_threshold", cfg.Feedback.ActiveThreshold)
	v.SetDefault("feedback.thinking_threshold", cfg.Feedback.ThinkingThreshold)

	// Watcher
	v.SetDefault("watcher.ignore", cfg.Watcher.Ignore)
	v.SetDefault("watcher.extra_ignore", cfg.Watcher.ExtraIgnore)
	v.SetDefault("watcher.poll_interval", cfg.Watcher.PollInterval)

	// Prompt
	v.SetDefault("prompt.file", cfg.Prompt.File)
	v.SetDefault("prompt.context_files", cfg.Prompt.ContextFiles)

	// Paths
	v.SetDefault("paths.afk_dir", cfg.Paths.AfkDir)
	v.SetDefault("paths.tasks_file", cfg.Paths.TasksFile)
	v.SetDefault("paths.progress_file", cfg.Paths.ProgressFile)

	// Tasks
	v.SetDefault("tasks.sources", cfg.Tasks.Sources)

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Get returns a Viper value by key.
func (l *Loader) Get(key string) interface{} {
	return l.v.Get(key)
}

// Set sets a Viper value by key.
func (l *Loader) Set(key string, value interface{}) {
	l.v.Set(key, value)
}

// LoadFromFile loads configuration from a specific file.
func LoadFromFile(path string) (*Config, error) {
	loader := NewLoader()
	loader.SetConfigFile(path)
	return loader.Load()
}

// LoadDefault loads configuration with default search paths.
func LoadDefault() (*Config, error) {
	loader := NewLoader()
	return loader.Load()
}

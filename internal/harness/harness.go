// Package harness turns agent CLI configuration into a runnable command.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/models"
)

// Execution represents a prepared agent invocation.
type Execution struct {
	Cmd   *exec.Cmd
	Argv  []string
	Model string
	Env   []string
}

// Options carries per-iteration inputs to BuildExecution.
type Options struct {
	// Prompt is appended as the final positional argument.
	Prompt string

	// WorkDir is the directory the agent runs in.
	WorkDir string

	// Iteration and TaskID are exported to the agent's environment when set.
	Iteration int
	TaskID    string

	// Pick chooses an index in [0, n). Defaults to a uniform random pick.
	Pick func(n int) int
}

// BuildExecution prepares the agent command. The child's stdin is left unset
// so it reads from the null device.
func BuildExecution(ctx context.Context, cli config.AICLIConfig, opts Options) (*Execution, error) {
	command := strings.TrimSpace(cli.Command)
	if command == "" {
		return nil, models.ErrNoCommand
	}

	model := SelectModel(cli.Models, opts.Pick)
	args := BuildArgs(cli, model)
	args = append(args, opts.Prompt)

	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = opts.WorkDir
	env := baseEnv(opts)
	cmd.Env = env

	return &Execution{
		Cmd:   cmd,
		Argv:  append([]string{command}, args...),
		Model: model,
		Env:   env,
	}, nil
}

// BuildArgs returns the argument list without the prompt:
// configured args, then --model, then --output-format and any partial
// streaming flag.
func BuildArgs(cli config.AICLIConfig, model string) []string {
	args := append([]string{}, cli.Args...)

	if model != "" {
		args = append(args, "--model", model)
	}

	if cli.OutputFormat != "" && cli.OutputFormat != config.OutputText {
		args = append(args, "--output-format", string(cli.OutputFormat))
		if cli.UsesStreamJSON() && cli.StreamPartial {
			if flag := PartialFlag(cli.Command); flag != "" {
				args = append(args, flag)
			}
		}
	}

	return args
}

// PartialFlag returns the vendor flag enabling partial message streaming.
func PartialFlag(command string) string {
	lower := strings.ToLower(command)
	switch {
	case strings.Contains(lower, "cursor"):
		return "--stream-partial-output"
	case strings.Contains(lower, "claude"):
		return "--include-partial-messages"
	default:
		return ""
	}
}

// SpawnError converts a process start failure into a user-facing message.
// A missing executable gets a distinct, actionable message.
func SpawnError(command string, err error) error {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s. Is it installed and in your PATH?", models.ErrAgentNotFound, command)
	}
	return fmt.Errorf("failed to spawn AI CLI: %w", err)
}

func baseEnv(opts Options) []string {
	env := append([]string{}, defaultEnv()...)
	if opts.Iteration > 0 {
		env = append(env, "AFK_ITERATION="+strconv.Itoa(opts.Iteration))
	}
	if opts.TaskID != "" {
		env = append(env, "AFK_TASK_ID="+opts.TaskID)
	}
	return env
}

func defaultEnv() []string {
	return os.Environ()
}

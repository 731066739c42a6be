package loop

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tOgg1/afk/internal/adapters"
	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/harness"
	"github.com/tOgg1/afk/internal/logging"
	"github.com/tOgg1/afk/internal/metrics"
	"github.com/tOgg1/afk/internal/models"
	"github.com/tOgg1/afk/internal/stream"
)

const (
	defaultStderrTailLines = 20
	killWaitDelay          = 2 * time.Second
)

// BuildFunc prepares the agent command for one iteration.
type BuildFunc func(ctx context.Context, cli config.AICLIConfig, opts harness.Options) (*harness.Execution, error)

// IterationContext describes the iteration being run.
type IterationContext struct {
	Index     int
	Max       int
	TaskID    string
	TaskTitle string
}

// IterationRunner runs a single agent invocation and watches its output.
type IterationRunner struct {
	Config  *config.Config
	Sink    events.Sink
	Metrics *metrics.Collector
	Logger  zerolog.Logger

	// WorkDir is where the agent runs and what displayed paths are relative to.
	WorkDir string

	// Signals overrides CompletionSignals when non-empty.
	Signals []string

	Build BuildFunc
}

// NewIterationRunner creates a runner with default dependencies.
func NewIterationRunner(cfg *config.Config, sink events.Sink, collector *metrics.Collector, workDir string) *IterationRunner {
	if sink == nil {
		sink = events.Discard
	}
	if collector == nil {
		collector = metrics.NewCollector(cfg.Feedback.ActiveThreshold, cfg.Feedback.ThinkingThreshold)
	}
	return &IterationRunner{
		Config:  cfg,
		Sink:    sink,
		Metrics: collector,
		Logger:  logging.Component("iteration"),
		WorkDir: workDir,
		Build:   harness.BuildExecution,
	}
}

// Run executes one iteration with the given prompt. Prompts carrying a stop
// sentinel return immediately without starting a process.
func (r *IterationRunner) Run(ctx context.Context, prompt string, it IterationContext) models.IterationResult {
	if strings.Contains(prompt, models.SentinelComplete) {
		return models.IterationResult{Success: true, TaskID: it.TaskID, Error: models.SentinelComplete}
	}
	if strings.Contains(prompt, models.SentinelLimitReached) {
		return models.IterationResult{Success: false, TaskID: it.TaskID, Error: models.SentinelLimitReached}
	}

	result := r.execute(ctx, prompt, it)
	result.TaskID = it.TaskID
	return result
}

func (r *IterationRunner) execute(ctx context.Context, prompt string, it IterationContext) models.IterationResult {
	build := r.Build
	if build == nil {
		build = harness.BuildExecution
	}
	cli := r.Config.AICLI

	execPlan, err := build(ctx, cli, harness.Options{
		Prompt:    prompt,
		WorkDir:   r.WorkDir,
		Iteration: it.Index,
		TaskID:    it.TaskID,
	})
	if err != nil {
		return models.IterationFailed(err.Error(), "")
	}
	cmd := execPlan.Cmd
	cmd.Stdin = nil
	cmd.WaitDelay = killWaitDelay

	if len(execPlan.Argv) > 1 {
		r.Sink.Send(events.OutputLine{Line: "$ " + strings.Join(execPlan.Argv[:len(execPlan.Argv)-1], " ")})
	}
	if execPlan.Model != "" {
		r.Logger.Debug().Str("model", execPlan.Model).Msg("model selected")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return models.IterationFailed(fmt.Sprintf("failed to spawn AI CLI: %v", err), "")
	}
	stderr := newTailWriter(defaultStderrTailLines)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return models.IterationFailed(harness.SpawnError(cli.Command, err).Error(), "")
	}
	r.Logger.Debug().Int("pid", cmd.Process.Pid).Int("iteration", it.Index).Msg("agent started")

	handler := &lineHandler{
		scanner: adapters.NewScanner(),
		metrics: r.Metrics,
		sink:    r.Sink,
		workDir: r.WorkDir,
		signals: r.signals(),
	}
	if cli.UsesStreamJSON() {
		handler.parser = stream.NewParser(harness.StreamFormat(cli.StreamFormat, cli.Command))
	}

	reader := bufio.NewReader(stdout)
	for {
		line, readErr := reader.ReadString('\n')
		if line != "" && handler.handle(line) {
			r.Sink.Send(events.OutputLine{Line: "✓ Completion signal detected"})
			r.stop(cmd)
			return models.IterationSucceeded(handler.String())
		}
		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				r.Sink.Send(events.Warning{Message: fmt.Sprintf("Error reading output: %v", readErr)})
			}
			break
		}
	}

	output := handler.String()
	err = cmd.Wait()
	if err == nil {
		return models.IterationSucceeded(output)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if tail := strings.TrimSpace(stderr.String()); tail != "" {
			r.Sink.Send(events.Error{Message: tail})
		}
		return models.IterationFailed(fmt.Sprintf("AI CLI exited with code %d", exitErr.ExitCode()), output)
	}
	return models.IterationFailed(fmt.Sprintf("Failed to wait for AI CLI: %v", err), output)
}

// stop kills the agent after it signalled completion and reaps it in the
// background.
func (r *IterationRunner) stop(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		r.Logger.Debug().Err(err).Msg("kill agent")
	}
	go func() {
		_ = cmd.Wait()
	}()
}

func (r *IterationRunner) signals() []string {
	if len(r.Signals) > 0 {
		return r.Signals
	}
	return CompletionSignals
}

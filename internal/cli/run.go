package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/loop"
	"github.com/tOgg1/afk/internal/models"
	"github.com/tOgg1/afk/internal/tasks"
	"github.com/tOgg1/afk/internal/watcher"
)

var (
	runMaxIterations int
	runUntilComplete bool
	runTimeout       int
	runResume        bool
	runFeedback      string
	runNoMascot      bool
)

func init() {
	rootCmd.AddCommand(goCmd)

	goCmd.Flags().IntVarP(&runMaxIterations, "max-iterations", "n", 0, "maximum iterations (default from limits.max_iterations)")
	goCmd.Flags().BoolVarP(&runUntilComplete, "until-complete", "u", false, "ignore the iteration cap and run until every task passes")
	goCmd.Flags().IntVar(&runTimeout, "timeout", 0, "session timeout in minutes, 0 disables (default from limits.timeout_minutes)")
	goCmd.Flags().BoolVar(&runResume, "resume", false, "continue the previous session's progress")
	goCmd.Flags().StringVar(&runFeedback, "feedback", "", "live output: none, minimal or full (default from feedback.mode)")
	goCmd.Flags().BoolVar(&runNoMascot, "no-mascot", false, "hide the mascot")
}

var goCmd = &cobra.Command{
	Use:     "go [iterations]",
	Aliases: []string{"run"},
	Short:   "Run the agent loop",
	Long: `Run the AI CLI against the task list, one iteration at a time, until
every task passes, the iteration cap or timeout is reached, or you interrupt.

Press Ctrl+C to stop after the current iteration. The running agent is
always allowed to finish.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration not loaded")
		}
		opts, err := buildRunOptions(cmd, cfg, args)
		if err != nil {
			return err
		}
		formatter := NewFormatter(cmd.OutOrStdout())
		opts.FeedbackMode = resolveFeedbackMode(opts.FeedbackMode, hasTTY(), formatter.Structured())

		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}

		result, err := runSession(cmd.Context(), cfg, opts, workDir, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if err := formatter.Write(sessionSummary{result}); err != nil {
			return err
		}
		if result.StopReason == models.StopAgentError {
			return &ExitError{Code: 1, Err: errors.New(result.StopReason.Message()), Printed: true}
		}
		return nil
	},
}

// buildRunOptions merges flags and the optional positional iteration count.
func buildRunOptions(cmd *cobra.Command, cfg *config.Config, args []string) (models.RunOptions, error) {
	opts := models.DefaultRunOptions()
	opts.UntilComplete = runUntilComplete
	opts.Resume = runResume
	opts.ShowMascot = cfg.Feedback.ShowMascot && !runNoMascot
	opts.FeedbackMode = cfg.FeedbackMode()

	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return opts, fmt.Errorf("invalid iteration count %q: must be a positive integer", args[0])
		}
		opts.MaxIterations = &n
	}
	if cmd.Flags().Changed("max-iterations") {
		if runMaxIterations < 1 {
			return opts, fmt.Errorf("invalid --max-iterations %d: must be a positive integer", runMaxIterations)
		}
		n := runMaxIterations
		opts.MaxIterations = &n
	}
	if cmd.Flags().Changed("timeout") {
		if runTimeout < 0 {
			return opts, fmt.Errorf("invalid --timeout %d: must not be negative", runTimeout)
		}
		minutes := runTimeout
		opts.TimeoutMinutes = &minutes
	}
	if cmd.Flags().Changed("feedback") {
		mode, err := models.ParseFeedbackMode(runFeedback)
		if err != nil {
			return opts, fmt.Errorf("invalid --feedback: %w", err)
		}
		opts.FeedbackMode = mode
	}
	return opts, nil
}

func newTaskStore(cfg *config.Config) *tasks.FileStore {
	sources := make([]tasks.Source, 0, len(cfg.Tasks.Sources))
	for _, path := range cfg.Tasks.Sources {
		sources = append(sources, tasks.JSONSource{Path: path})
	}
	return tasks.NewFileStore(cfg.Paths.TasksFile, sources...)
}

func runSession(ctx context.Context, cfg *config.Config, opts models.RunOptions, workDir string, out io.Writer) (models.RunResult, error) {
	if opts.IsInteractive() {
		restore, err := loop.RedirectLogging(cfg.Paths.LogDir())
		if err != nil {
			logger.Warn().Err(err).Msg("session log unavailable, keeping stderr logging")
		}
		defer restore()
	}

	var sink events.Sink = events.Discard
	if opts.FeedbackMode == models.FeedbackMinimal {
		sink = events.NewConsole(out)
		printBanner(out, opts.ShowMascot, cfg.AICLI.Command, opts.EffectiveMaxIterations(cfg.Limits.MaxIterations))
	}

	controller := loop.NewController(cfg, opts, newTaskStore(cfg), sink, workDir)
	files := watcher.New(workDir).WithIgnorePatterns(ignorePatterns(cfg.Watcher))

	stopSignals := handleInterrupts(controller, opts.IsInteractive(), out)
	defer stopSignals()

	if opts.IsInteractive() {
		return loop.NewInteractive(controller, files, out).Run(ctx)
	}

	if err := files.Start(); err != nil {
		logger.Warn().Err(err).Msg("file watcher unavailable")
	} else {
		defer files.Stop()
		controller.Changes = files
	}
	return controller.Run(ctx), nil
}

// handleInterrupts turns SIGINT and SIGTERM into a graceful stop. The running
// agent is never killed; the loop ends once its iteration returns. The
// dashboard reads Ctrl+C as a key, so only SIGTERM reaches here while it runs.
func handleInterrupts(c *loop.Controller, interactive bool, out io.Writer) func() {
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go forwardInterrupts(signals, done, c, interactive, out)

	return func() {
		signal.Stop(signals)
		close(done)
	}
}

func forwardInterrupts(signals <-chan os.Signal, done <-chan struct{}, c *loop.Controller, interactive bool, out io.Writer) {
	for {
		select {
		case <-done:
			return
		case <-signals:
			repeated := c.Interrupted()
			c.Interrupt()
			if interactive {
				continue
			}
			if repeated {
				fmt.Fprintln(out, "\nAlready stopping, waiting for the current iteration to finish")
			} else {
				fmt.Fprintln(out, "\nInterrupt requested, stopping after current iteration")
			}
		}
	}
}

// sessionSummary is the end-of-run report.
type sessionSummary struct {
	models.RunResult
}

func (s sessionSummary) RenderHuman(out io.Writer) error {
	lines := []string{
		"",
		fmt.Sprintf("Session finished: %s", s.StopReason.Message()),
		fmt.Sprintf("  iterations:      %d", s.IterationsCompleted),
		fmt.Sprintf("  tasks completed: %d", s.TasksCompleted),
		fmt.Sprintf("  duration:        %.1fs", s.DurationSeconds),
	}
	if s.ArchivedTo != "" {
		lines = append(lines, fmt.Sprintf("  archived to:     %s", s.ArchivedTo))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

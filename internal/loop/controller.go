package loop

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/tOgg1/afk/internal/archive"
	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/gates"
	"github.com/tOgg1/afk/internal/logging"
	"github.com/tOgg1/afk/internal/metrics"
	"github.com/tOgg1/afk/internal/models"
	"github.com/tOgg1/afk/internal/tasks"
	"github.com/tOgg1/afk/internal/watcher"
)

// IterateFunc runs one iteration.
type IterateFunc func(ctx context.Context, prompt string, it IterationContext) models.IterationResult

// Archiver moves session state aside.
type Archiver interface {
	Archive(meta archive.Metadata) (string, error)
}

// GateRunner runs quality gates.
type GateRunner interface {
	Run(ctx context.Context, gates []config.Gate) *gates.Result
}

// ChangeSource yields buffered filesystem changes.
type ChangeSource interface {
	GetChanges() []watcher.FileChange
}

// Controller drives the session: it picks work, runs iterations and decides
// when to stop.
type Controller struct {
	Config  *config.Config
	Options models.RunOptions
	Tasks   tasks.Store
	Prompts PromptGenerator
	Iterate IterateFunc
	Sink    events.Sink

	// Runner is the default iteration runner behind Iterate, if any.
	Runner *IterationRunner

	Metrics *metrics.Collector
	Logger  zerolog.Logger

	// Optional collaborators.
	Archiver Archiver
	Gates    GateRunner
	Changes  ChangeSource

	// ProgressPath, LedgerPath and LogPath enable the session files when set.
	ProgressPath string
	LedgerPath   string
	LogPath      string

	WorkDir string

	// QuitDelay separates the final summary from the Quit event so a display
	// can show it. Zero sends Quit immediately.
	QuitDelay time.Duration

	interrupted atomic.Bool
	now         func() time.Time
}

// NewController wires a controller with the default prompt generator and
// iteration runner.
func NewController(cfg *config.Config, opts models.RunOptions, store tasks.Store, sink events.Sink, workDir string) *Controller {
	if sink == nil {
		sink = events.Discard
	}
	collector := metrics.NewCollector(cfg.Feedback.ActiveThreshold, cfg.Feedback.ThinkingThreshold)
	runner := NewIterationRunner(cfg, sink, collector, workDir)

	c := &Controller{
		Config:       cfg,
		Options:      opts,
		Tasks:        store,
		Prompts:      NewTemplatePrompt(cfg, workDir),
		Iterate:      runner.Run,
		Runner:       runner,
		Sink:         sink,
		Metrics:      collector,
		Logger:       logging.Component("loop"),
		ProgressPath: cfg.Paths.ProgressFile,
		LedgerPath:   cfg.Paths.LedgerFile(),
		LogPath:      SessionLogPath(cfg.Paths.LogDir()),
		WorkDir:      workDir,
		now:          time.Now,
	}
	if cfg.Archive.Enabled {
		a := archive.New(cfg.Archive.Directory, cfg.Paths.ProgressFile, cfg.Paths.TasksFile)
		a.RepoRoot = workDir
		c.Archiver = a
	}
	if gateList := cfg.FeedbackLoops.Gates(); len(gateList) > 0 {
		g := gates.NewRunner(cfg.FeedbackLoops.GateTimeout)
		g.Dir = workDir
		c.Gates = g
	}
	return c
}

// SetSink routes controller and runner events to sink.
func (c *Controller) SetSink(sink events.Sink) {
	c.Sink = sink
	if c.Runner != nil {
		c.Runner.Sink = sink
	}
}

// Interrupt asks the loop to stop before its next iteration. A running agent
// is left to finish.
func (c *Controller) Interrupt() {
	c.interrupted.Store(true)
}

// Interrupted reports whether Interrupt was called.
func (c *Controller) Interrupted() bool {
	return c.interrupted.Load()
}

// session carries per-run state through the loop.
type session struct {
	start          time.Time
	maxIterations  int
	timeout        time.Duration
	iterations     int
	tasksCompleted int
	resynced       bool
	progress       *Progress
	log            *sessionLog
}

// Run executes the session until a stop condition holds.
func (c *Controller) Run(ctx context.Context) models.RunResult {
	if c.now == nil {
		c.now = time.Now
	}
	if c.Sink == nil {
		c.Sink = events.Discard
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewCollector(0, 0)
	}

	s := &session{
		start:         c.now(),
		maxIterations: c.Options.EffectiveMaxIterations(c.Config.Limits.MaxIterations),
		timeout:       time.Duration(c.Options.EffectiveTimeoutMinutes(c.Config.Limits.TimeoutMinutes)) * time.Minute,
	}

	if c.LogPath != "" {
		log, err := openSessionLog(c.LogPath)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("session log unavailable")
		}
		s.log = log
	}
	defer s.log.Close()

	list, err := c.Tasks.Sync(ctx)
	if err != nil {
		msg := fmt.Sprintf("Failed to sync tasks: %v", err)
		s.log.WriteLine(msg)
		c.Sink.Send(events.Error{Message: msg})
		return c.finish(s, models.StopAgentError)
	}

	pending := list.Pending()
	if len(pending) == 0 {
		if len(list.Tasks) == 0 {
			return c.finish(s, models.StopNoTasks)
		}
		return c.finish(s, models.StopComplete)
	}

	s.progress = c.startProgress(s.start)
	c.prepareLedger(s.progress)
	s.log.WriteLine(fmt.Sprintf("session %s started (max_iterations=%d)", s.progress.SessionID, s.maxIterations))
	c.Sink.Send(events.TaskInfo{ID: pending[0].ID, Title: pending[0].Title})

	return c.finish(s, c.runLoop(ctx, s, list))
}

func (c *Controller) runLoop(ctx context.Context, s *session, list *models.TaskList) models.StopReason {
	for {
		if c.Interrupted() {
			return models.StopUserInterrupt
		}
		if s.timeout > 0 && c.now().Sub(s.start) >= s.timeout {
			return models.StopTimeout
		}
		if s.iterations >= s.maxIterations {
			return models.StopMaxIterations
		}

		current, err := c.Tasks.Load(ctx)
		if err != nil {
			c.Logger.Warn().Err(err).Msg("reload task list")
			current = list
		}

		if current.AllComplete() {
			if !c.Tasks.HasSources() || s.resynced {
				return models.StopComplete
			}
			s.resynced = true
			synced, err := c.Tasks.Sync(ctx)
			if err != nil || synced.AllComplete() {
				return models.StopComplete
			}
			s.log.WriteLine(fmt.Sprintf("re-sync found %d pending tasks", len(synced.Pending())))
			current = synced
		}

		pending := current.Pending()
		if len(pending) == 0 && !c.Options.UntilComplete {
			return models.StopNoTasks
		}
		list = current

		result, it := c.runIteration(ctx, s, current)

		if reason, ok := result.StopSentinel(); ok {
			s.log.WriteLine(fmt.Sprintf("iteration %d: %s", it.Index, result.Error))
			return reason
		}
		if !result.Success {
			s.log.WriteLine(fmt.Sprintf("iteration %d failed: %s", it.Index, result.Error))
			c.Sink.Send(events.Error{Message: result.Error})
			return models.StopAgentError
		}

		if updated, err := c.Tasks.Load(ctx); err == nil {
			if delta := updated.CompletedCount() - current.CompletedCount(); delta > 0 {
				s.tasksCompleted += delta
				s.log.WriteLine(fmt.Sprintf("iteration %d completed %d task(s)", it.Index, delta))
			}
			list = updated
		}
		c.saveProgress(s)
	}
}

func (c *Controller) runIteration(ctx context.Context, s *session, current *models.TaskList) (models.IterationResult, IterationContext) {
	it := IterationContext{Index: s.iterations + 1, Max: s.maxIterations}
	if task, ok := current.Next(); ok {
		it.TaskID = task.ID
		it.TaskTitle = task.Title
	}

	c.Metrics.Reset()
	c.Sink.Send(events.IterationStart{Current: it.Index, Max: it.Max})
	if it.TaskID != "" {
		c.Sink.Send(events.TaskInfo{ID: it.TaskID, Title: it.TaskTitle})
	}
	s.log.WriteLine(fmt.Sprintf("iteration %d start task=%s", it.Index, it.TaskID))

	started := c.now()
	var result models.IterationResult
	prompt, err := c.Prompts.Generate(ctx, PromptContext{
		Iteration:     it.Index,
		MaxIterations: it.Max,
		Tasks:         current,
	})
	if err != nil {
		result = models.IterationFailed(fmt.Sprintf("Failed to generate prompt: %v", err), "")
	} else {
		result = c.Iterate(ctx, prompt, it)
	}
	s.iterations++

	c.drainChanges()
	var gateLines []string
	if result.Success && result.Error == "" {
		gateLines = c.runGates(ctx)
	}
	finished := c.now()
	snapshot := c.Metrics.Snapshot()
	if result.Error == "" {
		c.Sink.Send(events.OutputLine{Line: "Iteration summary: " + snapshot.Summary()})
	}
	c.Sink.Send(events.IterationComplete{Duration: finished.Sub(started)})

	if _, stop := result.StopSentinel(); !stop {
		entry := ledgerEntry{
			Iteration:  it.Index,
			TaskID:     it.TaskID,
			TaskTitle:  it.TaskTitle,
			Success:    result.Success,
			Error:      result.Error,
			StartedAt:  started,
			FinishedAt: finished,
			Summary:    snapshot.Summary(),
			Gates:      gateLines,
			Output:     result.Output,
		}
		if err := appendLedgerEntry(c.LedgerPath, entry, defaultLedgerTailLines); err != nil {
			s.log.WriteLine(fmt.Sprintf("ledger append failed: %v", err))
		}
	}
	return result, it
}

// drainChanges folds watcher changes into the iteration metrics.
func (c *Controller) drainChanges() {
	if c.Changes == nil {
		return
	}
	for _, change := range c.Changes.GetChanges() {
		path := relativePath(c.WorkDir, change.Path)
		c.Metrics.RecordWatchedChange(path, change.ChangeType.String())
	}
}

// runGates checks configured gates after a successful iteration. Failures
// are reported but never stop the loop.
func (c *Controller) runGates(ctx context.Context) []string {
	if c.Gates == nil {
		return nil
	}
	gateList := c.Config.FeedbackLoops.Gates()
	if len(gateList) == 0 {
		return nil
	}
	result := c.Gates.Run(ctx, gateList)

	lines := make([]string, 0, len(result.Gates))
	for _, gate := range result.Gates {
		status := "passed"
		if !gate.Passed {
			status = "failed"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%.1fs)", gate.Name, status, gate.DurationSeconds()))
	}
	if result.AllPassed {
		c.Sink.Send(events.OutputLine{Line: fmt.Sprintf("✓ Quality gates passed (%d)", len(result.Gates))})
	} else {
		c.Sink.Send(events.Warning{Message: fmt.Sprintf("Quality gates failed: %v", result.FailedGates)})
	}
	return lines
}

func (c *Controller) finish(s *session, reason models.StopReason) models.RunResult {
	result := models.RunResult{
		IterationsCompleted: s.iterations,
		TasksCompleted:      s.tasksCompleted,
		StopReason:          reason,
	}
	if s.progress != nil {
		c.saveProgress(s)
	}
	s.log.WriteLine(fmt.Sprintf("session stopped: %s (iterations=%d tasks_completed=%d)", reason.Message(), s.iterations, s.tasksCompleted))

	if path, ok := c.archive(s, reason); ok {
		result.ArchivedTo = path
		s.log.WriteLine("session archived to " + path)
	}

	elapsed := c.now().Sub(s.start)
	result.DurationSeconds = elapsed.Seconds()

	c.Sink.Send(events.SessionComplete{
		Iterations:     s.iterations,
		TasksCompleted: s.tasksCompleted,
		Duration:       elapsed,
		Reason:         reason,
	})
	if c.QuitDelay > 0 {
		time.Sleep(c.QuitDelay)
	}
	c.Sink.Send(events.Quit{})
	return result
}

func (c *Controller) archive(s *session, reason models.StopReason) (string, bool) {
	if c.Archiver == nil || !c.Config.Archive.Enabled {
		return "", false
	}
	var label string
	switch {
	case reason == models.StopUserInterrupt:
		label = archive.ReasonInterrupted
	case reason == models.StopComplete && s.iterations > 0:
		label = archive.ReasonCompleted
	default:
		return "", false
	}

	meta := archive.Metadata{
		Reason:         label,
		Iterations:     s.iterations,
		TasksCompleted: s.tasksCompleted,
	}
	if s.progress != nil {
		meta.SessionID = s.progress.SessionID
		meta.Branch = s.progress.Branch
	}
	if list, err := c.Tasks.Load(context.Background()); err == nil {
		meta.TasksPending = len(list.Pending())
	}

	path, err := c.Archiver.Archive(meta)
	if err != nil {
		if !errors.Is(err, models.ErrNothingToArchive) {
			c.Logger.Warn().Err(err).Msg("archive session")
			c.Sink.Send(events.Warning{Message: fmt.Sprintf("Failed to archive session: %v", err)})
		}
		return "", false
	}
	return path, true
}

func (c *Controller) startProgress(now time.Time) *Progress {
	if c.Options.Resume && c.ProgressPath != "" {
		if existing, err := LoadProgress(c.ProgressPath); err != nil {
			c.Logger.Warn().Err(err).Msg("load progress")
		} else if existing != nil {
			return existing
		}
	}
	p := NewProgress(now)
	p.Branch = archive.CurrentBranch(c.WorkDir)
	return p
}

func (c *Controller) saveProgress(s *session) {
	if c.ProgressPath == "" || s.progress == nil {
		return
	}
	p := *s.progress
	p.Iterations += s.iterations
	p.TasksCompleted += s.tasksCompleted
	p.LastUpdated = c.now().UTC()
	if err := p.Save(c.ProgressPath); err != nil {
		c.Logger.Warn().Err(err).Msg("save progress")
	}
}

func (c *Controller) prepareLedger(p *Progress) {
	if c.LedgerPath == "" {
		return
	}
	header := ledgerHeader{
		SessionID: p.SessionID,
		Branch:    p.Branch,
		WorkDir:   c.WorkDir,
		Command:   c.Config.AICLI.Command,
		CreatedAt: c.now().UTC(),
	}
	if err := ensureLedgerFile(c.LedgerPath, header); err != nil {
		c.Logger.Warn().Err(err).Msg("prepare ledger")
	}
}

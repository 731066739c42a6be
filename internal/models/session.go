package models

import (
	"fmt"
	"math"
	"strings"
)

// StopReason explains why a loop session ended.
type StopReason string

const (
	StopComplete      StopReason = "complete"
	StopMaxIterations StopReason = "max_iterations"
	StopTimeout       StopReason = "timeout"
	StopNoTasks       StopReason = "no_tasks"
	StopUserInterrupt StopReason = "user_interrupt"
	StopAgentError    StopReason = "agent_error"
)

// Message returns the human-readable description of the stop reason.
func (r StopReason) Message() string {
	switch r {
	case StopComplete:
		return "All tasks completed"
	case StopMaxIterations:
		return "Maximum iterations reached"
	case StopTimeout:
		return "Session timeout reached"
	case StopNoTasks:
		return "No tasks available"
	case StopUserInterrupt:
		return "User interrupted"
	case StopAgentError:
		return "AI CLI error"
	default:
		return string(r)
	}
}

// FeedbackMode selects how much live output a session produces.
type FeedbackMode string

const (
	FeedbackNone    FeedbackMode = "none"
	FeedbackMinimal FeedbackMode = "minimal"
	FeedbackFull    FeedbackMode = "full"
)

// ParseFeedbackMode maps user input to a FeedbackMode. "off" and "quiet" are
// accepted as aliases for none.
func ParseFeedbackMode(value string) (FeedbackMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none", "off", "quiet":
		return FeedbackNone, nil
	case "", "minimal":
		return FeedbackMinimal, nil
	case "full", "tui":
		return FeedbackFull, nil
	default:
		return "", fmt.Errorf("unknown feedback mode %q", value)
	}
}

// UnboundedIterations is the effective cap in run-until-complete mode.
const UnboundedIterations = math.MaxInt32

// RunOptions holds per-session overrides. It is not modified once a session starts.
type RunOptions struct {
	// MaxIterations overrides limits.max_iterations when set.
	MaxIterations *int

	// UntilComplete ignores the iteration cap entirely.
	UntilComplete bool

	// TimeoutMinutes overrides limits.timeout_minutes when set.
	TimeoutMinutes *int

	// Resume continues a previous session's progress file.
	Resume bool

	FeedbackMode FeedbackMode
	ShowMascot   bool
}

// DefaultRunOptions returns options with minimal feedback and the mascot on.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		FeedbackMode: FeedbackMinimal,
		ShowMascot:   true,
	}
}

// EffectiveMaxIterations resolves the iteration cap against the configured default.
func (o RunOptions) EffectiveMaxIterations(configured int) int {
	if o.UntilComplete {
		return UnboundedIterations
	}
	if o.MaxIterations != nil {
		return *o.MaxIterations
	}
	return configured
}

// EffectiveTimeoutMinutes resolves the session timeout against the configured default.
func (o RunOptions) EffectiveTimeoutMinutes(configured int) int {
	if o.TimeoutMinutes != nil {
		return *o.TimeoutMinutes
	}
	return configured
}

// IsInteractive reports whether the dashboard was requested.
func (o RunOptions) IsInteractive() bool {
	return o.FeedbackMode == FeedbackFull
}

// RunResult summarizes a finished session.
type RunResult struct {
	IterationsCompleted int        `json:"iterations_completed"`
	TasksCompleted      int        `json:"tasks_completed"`
	StopReason          StopReason `json:"stop_reason"`
	DurationSeconds     float64    `json:"duration_seconds"`
	ArchivedTo          string     `json:"archived_to,omitempty"`
}

// Reserved prompt and error markers that stop the whole session.
const (
	SentinelComplete     = "AFK_COMPLETE"
	SentinelLimitReached = "AFK_LIMIT_REACHED"
)

// IterationResult is the outcome of a single agent invocation.
type IterationResult struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id,omitempty"`
	Error   string `json:"error,omitempty"`
	Output  string `json:"output,omitempty"`
}

// IterationSucceeded builds a successful result.
func IterationSucceeded(output string) IterationResult {
	return IterationResult{Success: true, Output: output}
}

// IterationFailed builds a failed result. Every failure carries a message.
func IterationFailed(message, output string) IterationResult {
	if strings.TrimSpace(message) == "" {
		message = "iteration failed"
	}
	return IterationResult{Success: false, Error: message, Output: output}
}

// StopSentinel reports which session-level stop the result asserts, if any.
func (r IterationResult) StopSentinel() (StopReason, bool) {
	switch r.Error {
	case SentinelComplete:
		return StopComplete, true
	case SentinelLimitReached:
		return StopMaxIterations, true
	default:
		return "", false
	}
}

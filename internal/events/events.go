// Package events defines the value messages the loop emits for live display
// and the sinks that deliver them.
package events

import (
	"time"

	"github.com/tOgg1/afk/internal/models"
)

// Event is a display message. Events are plain values and safe to send
// across goroutines.
type Event interface {
	isEvent()
}

// OutputLine is one line of agent output ready for display.
type OutputLine struct {
	Line string
}

// ToolCall reports a tool invocation by the agent.
type ToolCall struct {
	Name string
}

// FileChange reports a file touched by the agent or seen by the watcher.
type FileChange struct {
	Path       string
	ChangeType string
}

// Error reports an error line or event.
type Error struct {
	Message string
}

// Warning reports a warning line.
type Warning struct {
	Message string
}

// IterationStart opens an iteration. It precedes every output event of that
// iteration.
type IterationStart struct {
	Current int
	Max     int
}

// IterationComplete closes an iteration. It follows every output event of
// that iteration.
type IterationComplete struct {
	Duration time.Duration
}

// TaskInfo names the task the iteration works on.
type TaskInfo struct {
	ID    string
	Title string
}

// SessionComplete carries the final session summary.
type SessionComplete struct {
	Iterations     int
	TasksCompleted int
	Duration       time.Duration
	Reason         models.StopReason
}

// Quit asks the display to exit.
type Quit struct{}

func (OutputLine) isEvent()        {}
func (ToolCall) isEvent()          {}
func (FileChange) isEvent()        {}
func (Error) isEvent()             {}
func (Warning) isEvent()           {}
func (IterationStart) isEvent()    {}
func (IterationComplete) isEvent() {}
func (TaskInfo) isEvent()          {}
func (SessionComplete) isEvent()   {}
func (Quit) isEvent()              {}

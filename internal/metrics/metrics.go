// Package metrics tracks per-iteration agent activity.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Default activity thresholds.
const (
	DefaultActiveThreshold   = 2 * time.Second
	DefaultThinkingThreshold = 10 * time.Second
)

// File change kinds accepted by RecordFileChange.
const (
	ChangeCreated  = "created"
	ChangeModified = "modified"
	ChangeDeleted  = "deleted"
	ChangeRead     = "read"
)

// ActivityState describes how recently the agent did something observable.
type ActivityState int

const (
	Active ActivityState = iota
	Thinking
	Stalled
)

func (s ActivityState) String() string {
	switch s {
	case Active:
		return "active"
	case Thinking:
		return "thinking"
	case Stalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// IterationMetrics holds counters for one iteration.
type IterationMetrics struct {
	ToolCalls     int
	FilesModified map[string]struct{}
	FilesCreated  map[string]struct{}
	FilesDeleted  map[string]struct{}
	FilesRead     map[string]struct{}
	LinesAdded    int
	LinesRemoved  int
	Errors        int
	Warnings      int
}

func newIterationMetrics() IterationMetrics {
	return IterationMetrics{
		FilesModified: map[string]struct{}{},
		FilesCreated:  map[string]struct{}{},
		FilesDeleted:  map[string]struct{}{},
		FilesRead:     map[string]struct{}{},
	}
}

// TotalFileOps counts distinct paths across all change kinds.
func (m IterationMetrics) TotalFileOps() int {
	return len(m.FilesModified) + len(m.FilesCreated) + len(m.FilesDeleted) + len(m.FilesRead)
}

// Summary renders a one-line iteration summary.
func (m IterationMetrics) Summary() string {
	parts := []string{fmt.Sprintf("%d tool calls", m.ToolCalls)}
	if n := len(m.FilesCreated); n > 0 {
		parts = append(parts, fmt.Sprintf("%d created", n))
	}
	if n := len(m.FilesModified); n > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", n))
	}
	if n := len(m.FilesDeleted); n > 0 {
		parts = append(parts, fmt.Sprintf("%d deleted", n))
	}
	if m.LinesAdded > 0 || m.LinesRemoved > 0 {
		parts = append(parts, fmt.Sprintf("+%d/-%d lines", m.LinesAdded, m.LinesRemoved))
	}
	if m.Errors > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", m.Errors))
	}
	if m.Warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warnings", m.Warnings))
	}
	return strings.Join(parts, ", ")
}

// ChangedFiles returns created, modified and deleted paths sorted.
func (m IterationMetrics) ChangedFiles() []string {
	seen := map[string]struct{}{}
	for _, set := range []map[string]struct{}{m.FilesCreated, m.FilesModified, m.FilesDeleted} {
		for path := range set {
			seen[path] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Collector accumulates metrics for the running iteration. It is safe for
// concurrent use.
type Collector struct {
	mu           sync.Mutex
	metrics      IterationMetrics
	lastActivity time.Time

	activeThreshold   time.Duration
	thinkingThreshold time.Duration

	now func() time.Time
}

// NewCollector returns a collector with the given thresholds. Non-positive
// values fall back to the defaults.
func NewCollector(active, thinking time.Duration) *Collector {
	if active <= 0 {
		active = DefaultActiveThreshold
	}
	if thinking <= 0 {
		thinking = DefaultThinkingThreshold
	}
	return &Collector{
		metrics:           newIterationMetrics(),
		activeThreshold:   active,
		thinkingThreshold: thinking,
		now:               time.Now,
	}
}

func (c *Collector) touch() {
	c.lastActivity = c.now()
}

// RecordToolCall counts one tool invocation.
func (c *Collector) RecordToolCall(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.ToolCalls++
	c.touch()
}

// RecordFileChange adds path to the set for change. Unknown kinds only
// refresh the activity clock.
func (c *Collector) RecordFileChange(path, change string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch change {
	case ChangeCreated:
		c.metrics.FilesCreated[path] = struct{}{}
	case ChangeModified:
		c.metrics.FilesModified[path] = struct{}{}
	case ChangeDeleted:
		c.metrics.FilesDeleted[path] = struct{}{}
	case ChangeRead:
		c.metrics.FilesRead[path] = struct{}{}
	}
	c.touch()
}

// RecordWatchedChange records a change seen by the filesystem watcher unless
// the agent already reported the same file. It reports whether the change
// was recorded.
func (c *Collector) RecordWatchedChange(path, change string) bool {
	c.mu.Lock()
	recorded := c.alreadyRecorded(path)
	c.mu.Unlock()
	if recorded {
		return false
	}
	c.RecordFileChange(path, change)
	return true
}

// alreadyRecorded matches absolute watcher paths against the relative paths
// agents usually report.
func (c *Collector) alreadyRecorded(path string) bool {
	base := path[strings.LastIndex(path, "/")+1:]
	for _, set := range []map[string]struct{}{c.metrics.FilesCreated, c.metrics.FilesModified, c.metrics.FilesDeleted} {
		for recorded := range set {
			if path == recorded || strings.HasSuffix(path, "/"+recorded) {
				return true
			}
			if strings.HasSuffix(recorded, "/"+base) && strings.HasSuffix(recorded, path) {
				return true
			}
		}
	}
	return false
}

// RecordOutput refreshes the activity clock for a line of agent output.
func (c *Collector) RecordOutput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()
}

// RecordError counts one error.
func (c *Collector) RecordError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Errors++
	c.touch()
}

// RecordWarning counts one warning.
func (c *Collector) RecordWarning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Warnings++
	c.touch()
}

// RecordLineChanges adds estimated line deltas.
func (c *Collector) RecordLineChanges(added, removed int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.LinesAdded += added
	c.metrics.LinesRemoved += removed
	c.touch()
}

// Reset clears all counters and the activity clock.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics = newIterationMetrics()
	c.lastActivity = time.Time{}
}

// Snapshot returns a copy of the current metrics.
func (c *Collector) Snapshot() IterationMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.metrics
	out.FilesModified = copySet(c.metrics.FilesModified)
	out.FilesCreated = copySet(c.metrics.FilesCreated)
	out.FilesDeleted = copySet(c.metrics.FilesDeleted)
	out.FilesRead = copySet(c.metrics.FilesRead)
	return out
}

func copySet(in map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(in))
	for k := range in {
		out[k] = struct{}{}
	}
	return out
}

// ActivityState classifies the time since the last recorded activity. With
// no activity yet the agent is considered thinking.
func (c *Collector) ActivityState() ActivityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastActivity.IsZero() {
		return Thinking
	}
	elapsed := c.now().Sub(c.lastActivity)
	switch {
	case elapsed < c.activeThreshold:
		return Active
	case elapsed < c.thinkingThreshold:
		return Thinking
	default:
		return Stalled
	}
}

// SinceActivity returns the time since the last activity and false when
// nothing has been recorded.
func (c *Collector) SinceActivity() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastActivity.IsZero() {
		return 0, false
	}
	return c.now().Sub(c.lastActivity), true
}

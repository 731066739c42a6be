package looptui

import (
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/models"
)

func newTestModel(t *testing.T, ch chan events.Event, interrupt func()) model {
	t.Helper()
	m := newModel(Config{Events: ch, Interrupt: interrupt, MaxOutputLines: 5})
	return updateModel(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
}

func TestTickDrainsEvents(t *testing.T) {
	ch := make(chan events.Event, 16)
	m := newTestModel(t, ch, nil)

	ch <- events.IterationStart{Current: 2, Max: 10}
	ch <- events.TaskInfo{ID: "task-1", Title: "Add login"}
	ch <- events.OutputLine{Line: "hello"}
	ch <- events.ToolCall{Name: "Read"}
	ch <- events.FileChange{Path: "src/main.go", ChangeType: "created"}
	ch <- events.FileChange{Path: "src/lib.go", ChangeType: "modified"}
	ch <- events.Error{Message: "boom"}
	ch <- events.Warning{Message: "careful"}

	m = updateModel(t, m, tickMsg{})

	if m.iteration != 2 || m.maxIterations != 10 {
		t.Fatalf("unexpected iteration %d/%d", m.iteration, m.maxIterations)
	}
	if m.taskID != "task-1" || m.taskTitle != "Add login" {
		t.Fatalf("unexpected task %q %q", m.taskID, m.taskTitle)
	}
	want := stats{toolCalls: 1, filesChanged: 2, filesCreated: 1, errors: 1, warnings: 1}
	if m.stats != want {
		t.Fatalf("unexpected stats %+v", m.stats)
	}
	if got := strings.Join(m.lines, "|"); got != "hello|✗ boom|⚠ careful" {
		t.Fatalf("unexpected output %q", got)
	}
	if len(m.recentFiles) != 2 || m.recentFiles[0] != "src/main.go (created)" {
		t.Fatalf("unexpected recent files %v", m.recentFiles)
	}
	if !strings.Contains(m.View(), "Iteration 2/10") {
		t.Fatalf("expected iteration header in view")
	}
}

func TestOutputBufferIsCapped(t *testing.T) {
	ch := make(chan events.Event, 16)
	m := newTestModel(t, ch, nil)
	for i := 0; i < 8; i++ {
		ch <- events.OutputLine{Line: fmt.Sprintf("line %d", i)}
	}
	m = updateModel(t, m, tickMsg{})

	if len(m.lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(m.lines))
	}
	if m.lines[0] != "line 3" || m.lines[4] != "line 7" {
		t.Fatalf("unexpected lines %v", m.lines)
	}
}

func TestRecentListsHoldEightAndResetPerIteration(t *testing.T) {
	ch := make(chan events.Event, 32)
	m := newTestModel(t, ch, nil)
	for i := 0; i < 10; i++ {
		ch <- events.ToolCall{Name: fmt.Sprintf("tool-%d", i)}
	}
	m = updateModel(t, m, tickMsg{})
	if len(m.recentTools) != recentLimit || m.recentTools[0] != "tool-2" {
		t.Fatalf("unexpected recent tools %v", m.recentTools)
	}

	ch <- events.IterationStart{Current: 2, Max: 3}
	m = updateModel(t, m, tickMsg{})
	if len(m.recentTools) != 0 {
		t.Fatalf("expected recent tools reset, got %v", m.recentTools)
	}
	if m.stats.toolCalls != 10 {
		t.Fatalf("expected session stats kept, got %d", m.stats.toolCalls)
	}
}

func TestCtrlCRequestsInterruptOnce(t *testing.T) {
	calls := 0
	m := newTestModel(t, make(chan events.Event, 1), func() { calls++ })

	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})

	if calls != 1 {
		t.Fatalf("expected one interrupt call, got %d", calls)
	}
	if m.quitting {
		t.Fatalf("ctrl+c should not close the UI")
	}
	if !strings.Contains(strings.Join(m.lines, "\n"), interruptNotice) {
		t.Fatalf("expected interrupt notice in output")
	}
	if !strings.Contains(m.View(), interruptNotice) {
		t.Fatalf("expected interrupt notice in view")
	}
}

func TestQuitKeysCloseUI(t *testing.T) {
	for _, key := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyEsc},
	} {
		t.Run(key.String(), func(t *testing.T) {
			interrupted := false
			m := newTestModel(t, make(chan events.Event, 1), func() { interrupted = true })
			next, cmd := m.Update(key)
			if cmd == nil {
				t.Fatalf("expected quit command")
			}
			if !next.(model).quitting {
				t.Fatalf("expected quitting state")
			}
			if !interrupted {
				t.Fatalf("expected loop interrupt on quit")
			}
		})
	}
}

func TestQuitEventAndClosedChannelStopUI(t *testing.T) {
	ch := make(chan events.Event, 1)
	m := newTestModel(t, ch, nil)
	ch <- events.Quit{}
	m = updateModel(t, m, tickMsg{})
	if !m.quitting {
		t.Fatalf("expected quit on Quit event")
	}

	closed := make(chan events.Event)
	close(closed)
	m = newTestModel(t, closed, nil)
	m = updateModel(t, m, tickMsg{})
	if !m.quitting {
		t.Fatalf("expected quit on closed channel")
	}
}

func TestSummaryShownUntilKeyPress(t *testing.T) {
	ch := make(chan events.Event, 1)
	m := newTestModel(t, ch, nil)
	ch <- events.SessionComplete{Iterations: 3, TasksCompleted: 2, Duration: 90 * time.Second, Reason: models.StopComplete}
	m = updateModel(t, m, tickMsg{})

	if m.quitting {
		t.Fatalf("summary should stay on screen")
	}
	view := m.View()
	if !strings.Contains(view, "Session complete") || !strings.Contains(view, "Tasks completed: 2") {
		t.Fatalf("unexpected summary view %q", view)
	}

	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if !m.quitting {
		t.Fatalf("expected any key to close the summary")
	}
}

func TestScrollKeysToggleAutoScroll(t *testing.T) {
	ch := make(chan events.Event, 8)
	m := newTestModel(t, ch, nil)
	if !m.autoScroll {
		t.Fatalf("auto-scroll should start enabled")
	}

	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	if m.autoScroll {
		t.Fatalf("scrolling up should pause auto-scroll")
	}
	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'G'}})
	if !m.autoScroll {
		t.Fatalf("G should resume auto-scroll")
	}
	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'g'}})
	if m.autoScroll {
		t.Fatalf("g should pause auto-scroll")
	}
	m = updateModel(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if !m.autoScroll {
		t.Fatalf("space should toggle auto-scroll back on")
	}
}

func TestFormatMax(t *testing.T) {
	if got := formatMax(models.UnboundedIterations); got != "∞" {
		t.Fatalf("expected infinity, got %q", got)
	}
	if got := formatMax(12); got != "12" {
		t.Fatalf("expected 12, got %q", got)
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefghij", 6); got != "abc..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateLine("short", 10); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
}

func updateModel(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	next, _ := m.Update(msg)
	updated, ok := next.(model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return updated
}

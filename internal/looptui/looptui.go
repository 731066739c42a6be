package looptui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/metrics"
	"github.com/tOgg1/afk/internal/models"
)

const (
	defaultTickInterval   = 100 * time.Millisecond
	defaultMaxOutputLines = 500
	maxEventsPerTick      = 256
	recentLimit           = 8
	sidebarWidth          = 34
	minOutputHeight       = 4

	interruptNotice = "Interrupt requested, stopping after current iteration"
)

type Config struct {
	Events            <-chan events.Event
	Interrupt         func()
	MaxOutputLines    int
	ShowMascot        bool
	TickInterval      time.Duration
	ActiveThreshold   time.Duration
	ThinkingThreshold time.Duration
}

// Run owns the terminal until the session sends Quit, the event channel
// closes, or the user quits.
func Run(cfg Config) error {
	model := newModel(cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type stats struct {
	toolCalls    int
	filesChanged int
	filesCreated int
	errors       int
	warnings     int
}

type model struct {
	events         <-chan events.Event
	interrupt      func()
	tickInterval   time.Duration
	maxOutputLines int
	showMascot     bool

	activity *metrics.Collector
	spinner  spinner.Model
	output   viewport.Model

	lines       []string
	recentTools []string
	recentFiles []string
	stats       stats

	iteration     int
	maxIterations int
	iterStarted   time.Time
	lastDuration  time.Duration
	taskID        string
	taskTitle     string

	summary            *events.SessionComplete
	autoScroll         bool
	interruptRequested bool
	width              int
	height             int
	quitting           bool
	now                func() time.Time
}

type tickMsg struct{}

func newModel(cfg Config) model {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.MaxOutputLines <= 0 {
		cfg.MaxOutputLines = defaultMaxOutputLines
	}
	if cfg.ActiveThreshold <= 0 {
		cfg.ActiveThreshold = metrics.DefaultActiveThreshold
	}
	if cfg.ThinkingThreshold <= 0 {
		cfg.ThinkingThreshold = metrics.DefaultThinkingThreshold
	}

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		events:         cfg.Events,
		interrupt:      cfg.Interrupt,
		tickInterval:   cfg.TickInterval,
		maxOutputLines: cfg.MaxOutputLines,
		showMascot:     cfg.ShowMascot,
		activity:       metrics.NewCollector(cfg.ActiveThreshold, cfg.ThinkingThreshold),
		spinner:        sp,
		output:         viewport.New(0, 0),
		autoScroll:     true,
		now:            time.Now,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil
	case tickMsg:
		if quit := m.drain(); quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, m.tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.summary != nil && key != "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch key {
	case "q", "esc":
		m.requestInterrupt()
		m.quitting = true
		return m, tea.Quit
	case "ctrl+c":
		if !m.interruptRequested {
			m.requestInterrupt()
			m.appendLine(interruptNotice)
		}
	case "up", "k":
		m.autoScroll = false
		m.output.LineUp(1)
	case "down", "j":
		m.output.LineDown(1)
		if m.output.AtBottom() {
			m.autoScroll = true
		}
	case "g":
		m.autoScroll = false
		m.output.GotoTop()
	case "G":
		m.autoScroll = true
		m.output.GotoBottom()
	case " ":
		m.autoScroll = !m.autoScroll
		if m.autoScroll {
			m.output.GotoBottom()
		}
	}
	return m, nil
}

// requestInterrupt asks the loop to stop after the current iteration. Leaving
// the UI without it would keep the agent running with no display.
func (m *model) requestInterrupt() {
	if m.interruptRequested {
		return
	}
	m.interruptRequested = true
	if m.interrupt != nil {
		m.interrupt()
	}
}

// drain applies pending events without blocking and reports whether the UI
// should exit.
func (m *model) drain() bool {
	if m.events == nil {
		return false
	}
	for i := 0; i < maxEventsPerTick; i++ {
		select {
		case ev, ok := <-m.events:
			if !ok {
				return true
			}
			if m.apply(ev) {
				return true
			}
		default:
			return false
		}
	}
	return false
}

func (m *model) apply(ev events.Event) bool {
	switch ev := ev.(type) {
	case events.OutputLine:
		m.activity.RecordOutput()
		m.appendLine(ev.Line)
	case events.ToolCall:
		m.stats.toolCalls++
		m.activity.RecordToolCall(ev.Name)
		m.recentTools = pushRecent(m.recentTools, ev.Name)
	case events.FileChange:
		m.stats.filesChanged++
		if ev.ChangeType == metrics.ChangeCreated {
			m.stats.filesCreated++
		}
		m.activity.RecordFileChange(ev.Path, ev.ChangeType)
		m.recentFiles = pushRecent(m.recentFiles, fmt.Sprintf("%s (%s)", ev.Path, ev.ChangeType))
	case events.Error:
		m.stats.errors++
		m.activity.RecordError()
		m.appendLine("✗ " + ev.Message)
	case events.Warning:
		m.stats.warnings++
		m.activity.RecordWarning()
		m.appendLine("⚠ " + ev.Message)
	case events.IterationStart:
		m.iteration = ev.Current
		m.maxIterations = ev.Max
		m.iterStarted = m.now()
		m.recentTools = nil
		m.recentFiles = nil
		m.activity.Reset()
	case events.IterationComplete:
		m.lastDuration = ev.Duration
		m.iterStarted = time.Time{}
	case events.TaskInfo:
		m.taskID = ev.ID
		m.taskTitle = ev.Title
	case events.SessionComplete:
		summary := ev
		m.summary = &summary
	case events.Quit:
		return true
	}
	return false
}

func (m *model) appendLine(line string) {
	for _, part := range strings.Split(strings.TrimRight(line, "\n"), "\n") {
		m.lines = append(m.lines, part)
	}
	if overflow := len(m.lines) - m.maxOutputLines; overflow > 0 {
		m.lines = append([]string(nil), m.lines[overflow:]...)
	}
	m.output.SetContent(strings.Join(m.lines, "\n"))
	if m.autoScroll {
		m.output.GotoBottom()
	}
}

func (m *model) resize() {
	width := m.width - sidebarWidth - 4
	if width < 20 {
		width = maxInt(20, m.width-4)
	}
	m.output.Width = width
	m.output.Height = maxInt(minOutputHeight, m.height-headerHeight(m.showMascot)-4)
	if m.autoScroll {
		m.output.GotoBottom()
	}
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if m.summary != nil {
		return m.renderSummary()
	}

	header := m.renderHeader()
	body := m.renderOutput()
	if m.width >= sidebarWidth+24 {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.renderSidebar())
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, body, m.renderSidebar())
	}
	return header + "\n" + body + "\n" + m.renderFooter()
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	mascotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

func headerHeight(mascot bool) int {
	if mascot {
		return 3
	}
	return 2
}

func (m model) renderHeader() string {
	iteration := "waiting for first iteration"
	if m.iteration > 0 {
		iteration = fmt.Sprintf("Iteration %d/%s", m.iteration, formatMax(m.maxIterations))
		if !m.iterStarted.IsZero() {
			iteration += fmt.Sprintf(" | %s", formatElapsed(m.now().Sub(m.iterStarted)))
		} else if m.lastDuration > 0 {
			iteration += fmt.Sprintf(" | last %s", formatElapsed(m.lastDuration))
		}
	}

	state := m.activity.ActivityState()
	status := fmt.Sprintf("%s %s", m.spinner.View(), state)
	if state == metrics.Stalled {
		status = warnStyle.Render(status)
	}

	lines := []string{titleStyle.Render("afk") + "  " + iteration + "  " + status}
	task := "-"
	if m.taskID != "" {
		task = m.taskID
		if m.taskTitle != "" {
			task += " - " + m.taskTitle
		}
	}
	lines = append(lines, truncateLine("Task: "+task, maxInt(20, m.width)))
	if m.showMascot {
		lines = append([]string{mascotStyle.Render(mascotFace(state))}, lines...)
	}
	return strings.Join(lines, "\n")
}

func (m model) renderOutput() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1)
	content := m.output.View()
	if len(m.lines) == 0 {
		content = dimStyle.Render("(no output yet)")
	}
	return style.Render(content)
}

func (m model) renderSidebar() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(sidebarWidth - 2)

	contentWidth := sidebarWidth - 4
	lines := []string{
		titleStyle.Render("Stats"),
		fmt.Sprintf("tool calls:    %d", m.stats.toolCalls),
		fmt.Sprintf("files changed: %d", m.stats.filesChanged),
		fmt.Sprintf("files created: %d", m.stats.filesCreated),
		fmt.Sprintf("errors:        %d", m.stats.errors),
		fmt.Sprintf("warnings:      %d", m.stats.warnings),
		"",
		titleStyle.Render("Recent tools"),
	}
	lines = append(lines, renderRecent(m.recentTools, contentWidth)...)
	lines = append(lines, "", titleStyle.Render("Recent files"))
	lines = append(lines, renderRecent(m.recentFiles, contentWidth)...)
	return style.Render(strings.Join(lines, "\n"))
}

func renderRecent(items []string, width int) []string {
	if len(items) == 0 {
		return []string{dimStyle.Render("-")}
	}
	out := make([]string, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, truncateLine(items[i], width))
	}
	return out
}

func (m model) renderFooter() string {
	scroll := "auto-scroll on"
	if !m.autoScroll {
		scroll = "auto-scroll off"
	}
	footer := dimStyle.Render(fmt.Sprintf("q quit | ctrl+c stop | ↑/↓ scroll | g/G top/bottom | space %s", scroll))
	if m.interruptRequested {
		footer = warnStyle.Render(interruptNotice) + "\n" + footer
	}
	return footer
}

func (m model) renderSummary() string {
	s := m.summary
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(1, 2)
	lines := []string{
		titleStyle.Render("Session complete"),
		"",
		fmt.Sprintf("Iterations:      %d", s.Iterations),
		fmt.Sprintf("Tasks completed: %d", s.TasksCompleted),
		fmt.Sprintf("Duration:        %s", formatElapsed(s.Duration)),
		fmt.Sprintf("Stopped:         %s", s.Reason.Message()),
		"",
		fmt.Sprintf("%d tool calls, %d files changed, %d errors", m.stats.toolCalls, m.stats.filesChanged, m.stats.errors),
		"",
		dimStyle.Render("press any key to exit"),
	}
	if m.showMascot {
		lines = append([]string{mascotStyle.Render(summaryFace(s.Reason))}, lines...)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func (m model) tickCmd() tea.Cmd {
	return tea.Tick(m.tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func mascotFace(state metrics.ActivityState) string {
	switch state {
	case metrics.Active:
		return "(•̀ᴗ•́)و  working"
	case metrics.Thinking:
		return "(￣～￣)  thinking"
	default:
		return "(－_－) zzZ"
	}
}

func summaryFace(reason models.StopReason) string {
	switch reason {
	case models.StopComplete:
		return "＼(^o^)／"
	case models.StopUserInterrupt:
		return "(・_・)ノ"
	default:
		return "(•_•)"
	}
}

func pushRecent(items []string, item string) []string {
	items = append(items, item)
	if len(items) > recentLimit {
		items = append([]string(nil), items[len(items)-recentLimit:]...)
	}
	return items
}

func formatMax(max int) string {
	if max <= 0 || max >= models.UnboundedIterations {
		return "∞"
	}
	return fmt.Sprintf("%d", max)
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return d.Truncate(time.Second).String()
}

func truncateLine(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	runes := []rune(text)
	if width <= 3 {
		return string(runes[:minInt(width, len(runes))])
	}
	return string(runes[:minInt(width-3, len(runes))]) + "..."
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

package events

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/tOgg1/afk/internal/models"
)

// Sink receives events. Implementations must be safe for concurrent use.
type Sink interface {
	Send(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Send calls f(e).
func (f SinkFunc) Send(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// ChannelSink forwards events to a channel. Sends never block once done is
// closed, so producers outlive a consumer that has gone away.
type ChannelSink struct {
	ch   chan<- Event
	done <-chan struct{}
}

// NewChannelSink returns a sink writing to ch until done is closed. A nil
// done channel never closes.
func NewChannelSink(ch chan<- Event, done <-chan struct{}) *ChannelSink {
	return &ChannelSink{ch: ch, done: done}
}

// Send delivers e or drops it if the consumer is gone.
func (s *ChannelSink) Send(e Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.ch <- e:
	case <-s.done:
	}
}

// Console renders events as plain lines for the minimal display mode.
type Console struct {
	mu  sync.Mutex
	out io.Writer

	header lipgloss.Style
	task   lipgloss.Style
	errS   lipgloss.Style
	warn   lipgloss.Style
	muted  lipgloss.Style
}

// NewConsole returns a console sink writing to out. Styling adapts to what
// out supports.
func NewConsole(out io.Writer) *Console {
	r := lipgloss.NewRenderer(out)
	return &Console{
		out:    out,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		task:   r.NewStyle().Foreground(lipgloss.Color("4")),
		errS:   r.NewStyle().Foreground(lipgloss.Color("1")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		muted:  r.NewStyle().Faint(true),
	}
}

// Send writes the console form of e. Tool and file notices are already part
// of the output lines and are not repeated.
func (c *Console) Send(e Event) {
	var line string
	switch ev := e.(type) {
	case OutputLine:
		line = ev.Line
	case Error:
		line = c.errS.Render("Error: " + ev.Message)
	case Warning:
		line = c.warn.Render("Warning: " + ev.Message)
	case IterationStart:
		line = "\n" + c.header.Render(fmt.Sprintf("━━━ Iteration %d/%s ━━━", ev.Current, iterationLimit(ev.Max)))
	case IterationComplete:
		line = c.muted.Render(fmt.Sprintf("Iteration finished in %.1fs", ev.Duration.Seconds()))
	case TaskInfo:
		line = c.task.Render(fmt.Sprintf("Task: %s - %s", ev.ID, ev.Title))
	default:
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.out, line)
}

func iterationLimit(max int) string {
	if max <= 0 || max >= models.UnboundedIterations {
		return "∞"
	}
	return fmt.Sprintf("%d", max)
}

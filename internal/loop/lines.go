package loop

import (
	"strings"

	"github.com/tOgg1/afk/internal/adapters"
	"github.com/tOgg1/afk/internal/events"
	"github.com/tOgg1/afk/internal/metrics"
	"github.com/tOgg1/afk/internal/stream"
)

// lineHandler turns agent stdout into display events and metrics, and
// detects completion signals. It is used by one iteration at a time.
type lineHandler struct {
	parser  *stream.Parser
	scanner *adapters.Scanner
	metrics *metrics.Collector
	sink    events.Sink
	workDir string
	signals []string

	output strings.Builder
}

// handle processes one stdout line and reports whether a completion signal
// was seen. Structured lines only complete on assistant text. Lines that do
// not parse fall back to raw scanning.
func (h *lineHandler) handle(line string) bool {
	line = strings.TrimRight(line, "\r\n")
	h.output.WriteString(line)
	h.output.WriteByte('\n')

	if h.parser != nil {
		if ev, ok := h.parser.ParseLine(line); ok {
			return h.handleEvent(ev)
		}
	}
	return h.handleRaw(line)
}

func (h *lineHandler) handleEvent(ev stream.Event) bool {
	if text, ok := FormatEvent(ev, h.workDir); ok {
		h.sink.Send(events.OutputLine{Line: text})
	}

	switch e := ev.(type) {
	case stream.AssistantMessage:
		return containsCompletionSignal(e.Text, h.signals)
	case stream.ToolStarted:
		h.metrics.RecordToolCall(e.ToolName)
		h.sink.Send(events.ToolCall{Name: e.ToolName})
		if e.ToolType.Class == stream.ToolRead && e.Path != "" {
			h.metrics.RecordFileChange(relativePath(h.workDir, e.Path), metrics.ChangeRead)
		}
	case stream.ToolCompleted:
		if !e.Success || e.Path == "" || !e.ToolType.IsFileMutation() {
			return false
		}
		path := relativePath(h.workDir, e.Path)
		change := toolChange(e.ToolType)
		h.metrics.RecordFileChange(path, change)
		if e.Lines != nil && e.ToolType.Class != stream.ToolDelete {
			h.metrics.RecordLineChanges(*e.Lines, 0)
		}
		h.sink.Send(events.FileChange{Path: path, ChangeType: change})
	case stream.Error:
		h.metrics.RecordError()
		h.sink.Send(events.Error{Message: e.Message})
	case stream.Result:
		if !e.Success {
			h.metrics.RecordError()
		}
	}
	return false
}

func toolChange(t stream.ToolType) string {
	switch t.Class {
	case stream.ToolWrite:
		return metrics.ChangeCreated
	case stream.ToolDelete:
		return metrics.ChangeDeleted
	default:
		return metrics.ChangeModified
	}
}

func (h *lineHandler) handleRaw(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	h.sink.Send(events.OutputLine{Line: line})

	sawFile := false
	for _, signal := range h.scanner.Scan(line) {
		switch signal.Kind {
		case adapters.SignalToolCall:
			h.metrics.RecordToolCall(signal.ToolName)
			h.sink.Send(events.ToolCall{Name: signal.ToolName})
		case adapters.SignalFileChange:
			sawFile = true
			path := relativePath(h.workDir, signal.Path)
			h.metrics.RecordFileChange(path, string(signal.Change))
			if signal.Change != adapters.ChangeRead {
				h.sink.Send(events.FileChange{Path: path, ChangeType: string(signal.Change)})
			}
		case adapters.SignalError:
			h.metrics.RecordError()
		case adapters.SignalWarning:
			h.metrics.RecordWarning()
		}
	}

	if !sawFile {
		if change, ok := guessChange(line); ok {
			if path := ExtractFilePath(line); path != "" {
				path = relativePath(h.workDir, path)
				h.metrics.RecordFileChange(path, change)
				h.sink.Send(events.FileChange{Path: path, ChangeType: change})
			}
		}
	}

	return containsCompletionSignal(line, h.signals)
}

// guessChange infers a change kind from verbs common in agent output.
func guessChange(line string) (string, bool) {
	switch {
	case strings.Contains(line, "Created") || strings.Contains(line, "write_file"):
		return metrics.ChangeCreated, true
	case strings.Contains(line, "Modified") || strings.Contains(line, "edit_file"):
		return metrics.ChangeModified, true
	case strings.Contains(line, "Deleted"):
		return metrics.ChangeDeleted, true
	default:
		return "", false
	}
}

// String returns everything handled so far.
func (h *lineHandler) String() string {
	return h.output.String()
}

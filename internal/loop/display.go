package loop

import (
	"fmt"
	"strings"

	"github.com/tOgg1/afk/internal/stream"
)

// Known source extensions, longest first so ".tsx" wins over ".ts".
var pathExtensions = []string{
	".json", ".yaml", ".yml", ".toml", ".scss", ".bash",
	".tsx", ".jsx", ".html",
	".rs", ".js", ".ts", ".py", ".go", ".java", ".css",
	".md", ".txt", ".sh", ".zsh",
}

// FormatEvent renders a stream event as one display line. User messages and
// unknown events are not displayed. Paths under workDir are shown relative.
func FormatEvent(ev stream.Event, workDir string) (string, bool) {
	switch e := ev.(type) {
	case stream.SystemInit:
		if e.Model == "" {
			return "● Session started", true
		}
		return fmt.Sprintf("● Session started (model: %s)", e.Model), true
	case stream.AssistantMessage:
		if strings.TrimSpace(e.Text) == "" {
			return "", false
		}
		return e.Text, true
	case stream.ToolStarted:
		return joinNonEmpty("▶", e.ToolName, relativePath(workDir, e.Path)), true
	case stream.ToolCompleted:
		mark := "✓"
		if !e.Success {
			mark = "✗"
		}
		line := joinNonEmpty(mark, e.ToolName, relativePath(workDir, e.Path))
		if e.Lines != nil {
			line += fmt.Sprintf(" (%d lines)", *e.Lines)
		}
		return line, true
	case stream.Result:
		status := "success"
		if !e.Success {
			status = "failed"
		}
		if e.DurationMs != nil {
			return fmt.Sprintf("Result: %s in %.1fs", status, float64(*e.DurationMs)/1000), true
		}
		return "Result: " + status, true
	case stream.Error:
		return "Error: " + e.Message, true
	default:
		return "", false
	}
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, " ")
}

// ExtractFilePath finds a file path with a known extension in a line of
// plain-text output. Extensions are tried longest first. The path runs back
// to the nearest whitespace, quote, backtick or colon. It returns "" when
// nothing path-like is found.
func ExtractFilePath(line string) string {
	for _, ext := range pathExtensions {
		pos := strings.Index(line, ext)
		if pos < 0 {
			continue
		}
		end := pos + len(ext)
		start := strings.LastIndexFunc(line[:pos], isPathDelimiter) + 1
		path := strings.TrimSpace(line[start:end])
		if path != "" && strings.ContainsAny(path, "/.") {
			return path
		}
	}
	return ""
}

func isPathDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '"', '\'', '`', ':':
		return true
	}
	return false
}

package harness

import (
	"math/rand/v2"
	"strings"

	"github.com/tOgg1/afk/internal/stream"
)

// SelectModel picks the model for one invocation. No candidates yields "",
// one candidate is always used, and several are chosen uniformly.
func SelectModel(models []string, pick func(n int) int) string {
	switch len(models) {
	case 0:
		return ""
	case 1:
		return models[0]
	}
	if pick == nil {
		pick = rand.IntN
	}
	index := pick(len(models))
	if index < 0 || index >= len(models) {
		index = 0
	}
	return models[index]
}

// DetectFormat guesses the stream schema from the command name.
func DetectFormat(command string) stream.Format {
	lower := strings.ToLower(command)
	switch {
	case strings.Contains(lower, "cursor"):
		return stream.FormatCursor
	case strings.Contains(lower, "claude"):
		return stream.FormatClaude
	default:
		return stream.FormatAuto
	}
}

// StreamFormat resolves the parser format from an explicit override or the
// command name.
func StreamFormat(override, command string) stream.Format {
	if format := stream.ParseFormat(override); format != stream.FormatAuto {
		return format
	}
	return DetectFormat(command)
}

package stream

import "strings"

// Format selects which vendor schema a parser decodes.
type Format int

const (
	// FormatAuto resolves to a concrete format on the first parseable line.
	FormatAuto Format = iota
	// FormatCursor wraps tool calls in a "tool_call" envelope with a subtype phase.
	FormatCursor
	// FormatClaude emits "tool_use" and "tool_result" events.
	FormatClaude
)

func (f Format) String() string {
	switch f {
	case FormatCursor:
		return "cursor"
	case FormatClaude:
		return "claude"
	default:
		return "auto"
	}
}

// ParseFormat maps a name to a Format, defaulting to FormatAuto.
func ParseFormat(value string) Format {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "cursor":
		return FormatCursor
	case "claude":
		return FormatClaude
	default:
		return FormatAuto
	}
}

// detectFormat inspects envelope markers unique to each vendor.
func detectFormat(obj map[string]any) Format {
	if _, ok := obj["tool_call"]; ok {
		return FormatCursor
	}
	if eventType, _ := obj["type"].(string); eventType == "tool_use" || eventType == "tool_result" {
		return FormatClaude
	}
	if _, ok := obj["subtype"]; ok {
		return FormatCursor
	}
	return FormatCursor
}

package adapters

import "regexp"

// ClaudeCode recognizes Claude Code's plain-text progress lines.
func ClaudeCode() *Adapter {
	return &Adapter{
		name: "claude",
		patterns: []pattern{
			{re: regexp.MustCompile(`Calling tool: (\w+)`), build: toolCall(1)},
			{re: regexp.MustCompile(`Writing to: (.+)`), build: fileChange(ChangeModified)},
			{re: regexp.MustCompile(`Reading: (.+)`), build: fileChange(ChangeRead)},
		},
	}
}

package adapters

import "regexp"

// Cursor recognizes cursor-agent's plain-text progress lines.
func Cursor() *Adapter {
	return &Adapter{
		name: "cursor",
		patterns: []pattern{
			{re: regexp.MustCompile(`⏺\s+(\w+)\(`), build: toolCall(1)},
			{re: regexp.MustCompile(`^Edited\s+(.+)$`), build: fileChange(ChangeModified)},
			{re: regexp.MustCompile(`^Created\s+(.+)$`), build: fileChange(ChangeCreated)},
			{re: regexp.MustCompile(`^Deleted\s+(.+)$`), build: fileChange(ChangeDeleted)},
		},
	}
}

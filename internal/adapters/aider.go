package adapters

import "regexp"

// Aider recognizes aider's edit and commit announcements.
func Aider() *Adapter {
	return &Adapter{
		name: "aider",
		patterns: []pattern{
			{re: regexp.MustCompile(`Applied edit to (.+)`), build: fileChange(ChangeModified)},
			{re: regexp.MustCompile(`^Wrote\s+(.+)$`), build: fileChange(ChangeModified)},
			{re: regexp.MustCompile(`Added (.+) to the chat`), build: fileChange(ChangeRead)},
			{re: regexp.MustCompile(`Commit ([a-f0-9]+)\s+(.+)`), build: namedToolCall("git_commit")},
		},
	}
}

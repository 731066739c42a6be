package loop

import "strings"

// CompletionSignals are markers an agent prints to end the session. Matching
// is a case-sensitive substring test.
var CompletionSignals = []string{
	"<promise>COMPLETE</promise>",
	"AFK_COMPLETE",
	"AFK_STOP",
}

func containsCompletionSignal(text string, signals []string) bool {
	for _, signal := range signals {
		if signal != "" && strings.Contains(text, signal) {
			return true
		}
	}
	return false
}

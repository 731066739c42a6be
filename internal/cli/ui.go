package cli

import (
	"os"

	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/models"
	"github.com/tOgg1/afk/internal/watcher"
	"golang.org/x/term"
)

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// resolveFeedbackMode downgrades the dashboard to console output when there
// is no terminal to draw on, or when output must stay machine-readable.
func resolveFeedbackMode(mode models.FeedbackMode, tty, structured bool) models.FeedbackMode {
	if structured && mode != models.FeedbackNone {
		return models.FeedbackNone
	}
	if mode == models.FeedbackFull && !tty {
		return models.FeedbackMinimal
	}
	return mode
}

// ignorePatterns returns the watcher's effective ignore list.
func ignorePatterns(cfg config.WatcherConfig) []string {
	base := watcher.DefaultIgnorePatterns
	if len(cfg.Ignore) > 0 {
		base = cfg.Ignore
	}
	patterns := make([]string, 0, len(base)+len(cfg.ExtraIgnore))
	patterns = append(patterns, base...)
	return append(patterns, cfg.ExtraIgnore...)
}

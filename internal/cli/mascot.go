package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/tOgg1/afk/internal/models"
)

var mascotArt = []string{
	`   ___  `,
	`  (o.o)   afk`,
	`  /| |\   away from keyboard,`,
	`   d b    not away from work`,
}

// printBanner writes the start-of-session banner for console output.
func printBanner(out io.Writer, mascot bool, command string, maxIterations int) {
	r := lipgloss.NewRenderer(out)
	accent := r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	muted := r.NewStyle().Faint(true)

	if mascot {
		fmt.Fprintln(out, accent.Render(strings.Join(mascotArt, "\n")))
	} else {
		fmt.Fprintln(out, accent.Render("afk"))
	}
	limit := fmt.Sprintf("%d", maxIterations)
	if maxIterations >= models.UnboundedIterations {
		limit = "until complete"
	}
	fmt.Fprintln(out, muted.Render(fmt.Sprintf("agent: %s | iterations: %s", command, limit)))
}

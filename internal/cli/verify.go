package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/tOgg1/afk/internal/gates"
)

func init() {
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the configured quality gates",
	Long: `Run every configured feedback loop (types, lint, test, build, then custom
gates by name) and report which passed. Exits non-zero when any gate fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration not loaded")
		}
		out := cmd.OutOrStdout()
		configured := cfg.FeedbackLoops.Gates()
		if len(configured) == 0 {
			return WriteOutput(out, verifyReport{Result: gates.NewResult()})
		}

		workDir, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve working directory: %w", err)
		}
		runner := gates.NewRunner(cfg.FeedbackLoops.GateTimeout)
		runner.Dir = workDir

		result := runner.Run(cmd.Context(), configured)
		if err := WriteOutput(out, verifyReport{Result: result}); err != nil {
			return err
		}
		if !result.AllPassed {
			return &ExitError{
				Code:    1,
				Err:     fmt.Errorf("quality gates failed: %s", strings.Join(result.FailedGates, ", ")),
				Printed: true,
			}
		}
		return nil
	},
}

type verifyReport struct {
	*gates.Result
}

func (r verifyReport) RenderHuman(out io.Writer) error {
	if len(r.Gates) == 0 {
		_, err := fmt.Fprintln(out, "No quality gates configured. Add commands under feedback_loops in .afk/config.yaml.")
		return err
	}

	renderer := lipgloss.NewRenderer(out)
	pass := renderer.NewStyle().Foreground(lipgloss.Color("2"))
	fail := renderer.NewStyle().Foreground(lipgloss.Color("1"))

	for _, gate := range r.Gates {
		mark := pass.Render("✓")
		if !gate.Passed {
			mark = fail.Render("✗")
		}
		fmt.Fprintf(out, "%s %s (%.1fs)\n", mark, gate.Name, gate.DurationSeconds())
		if !gate.Passed {
			for _, line := range tailLines(gate.Output, 20) {
				fmt.Fprintf(out, "    %s\n", line)
			}
		}
	}

	if r.AllPassed {
		_, err := fmt.Fprintln(out, pass.Render("All quality gates passed"))
		return err
	}
	_, err := fmt.Fprintln(out, fail.Render(fmt.Sprintf("Failed: %s", strings.Join(r.FailedGates, ", "))))
	return err
}

// tailLines returns at most n trailing non-empty lines of s.
func tailLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) == 1 && strings.TrimSpace(lines[0]) == "" {
		return nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

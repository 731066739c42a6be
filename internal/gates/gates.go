// Package gates runs quality gate commands (type check, lint, test, build)
// between loop iterations.
package gates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tOgg1/afk/internal/config"
	"github.com/tOgg1/afk/internal/logging"
)

// DefaultTimeout is used when no gate timeout is configured.
const DefaultTimeout = 5 * time.Minute

// GateResult is the outcome of one gate.
type GateResult struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// DurationSeconds returns the gate runtime in seconds.
func (g GateResult) DurationSeconds() float64 {
	return g.Duration.Seconds()
}

// Result aggregates gate outcomes in run order.
type Result struct {
	AllPassed   bool         `json:"all_passed"`
	Gates       []GateResult `json:"gates"`
	FailedGates []string     `json:"failed_gates"`
}

// NewResult returns an empty, passing aggregate.
func NewResult() *Result {
	return &Result{AllPassed: true, Gates: []GateResult{}, FailedGates: []string{}}
}

// Add records a gate outcome.
func (r *Result) Add(gate GateResult) {
	r.Gates = append(r.Gates, gate)
	if !gate.Passed {
		r.AllPassed = false
		r.FailedGates = append(r.FailedGates, gate.Name)
	}
}

// Runner executes gates sequentially through the platform shell.
type Runner struct {
	// Timeout bounds each gate. Zero disables the bound.
	Timeout time.Duration

	// Dir is the working directory for gate commands.
	Dir string

	// Shell and ShellFlag override the platform shell.
	Shell     string
	ShellFlag string

	logger zerolog.Logger
}

// NewRunner returns a runner with the given per-gate timeout.
func NewRunner(timeout time.Duration) *Runner {
	shell, flag := platformShell()
	return &Runner{
		Timeout:   timeout,
		Shell:     shell,
		ShellFlag: flag,
		logger:    logging.Component("gates"),
	}
}

func platformShell() (string, string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "sh", "-c"
}

// Run executes every gate in order. A failing gate does not stop later ones.
func (r *Runner) Run(ctx context.Context, gates []config.Gate) *Result {
	result := NewResult()
	for _, gate := range gates {
		gateResult := r.RunGate(ctx, gate)
		r.logger.Debug().
			Str("gate", gate.Name).
			Bool("passed", gateResult.Passed).
			Dur("duration", gateResult.Duration).
			Msg("gate finished")
		result.Add(gateResult)
	}
	return result
}

// RunGate executes a single gate and captures its combined output.
func (r *Runner) RunGate(ctx context.Context, gate config.Gate) GateResult {
	start := time.Now()
	result := GateResult{Name: gate.Name}

	command := strings.TrimSpace(gate.Command)
	if command == "" {
		result.Output = "gate command is required"
		result.Duration = time.Since(start)
		return result
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	shell, flag := r.Shell, r.ShellFlag
	if shell == "" {
		shell, flag = platformShell()
	}

	var output bytes.Buffer
	cmd := exec.CommandContext(runCtx, shell, flag, command)
	cmd.Dir = r.Dir
	cmd.Env = os.Environ()
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		result.Output = fmt.Sprintf("Failed to run command: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	err := cmd.Wait()
	result.Duration = time.Since(start)
	result.Output = output.String()

	switch {
	case err == nil:
		result.Passed = true
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Output += fmt.Sprintf("\ngate timed out after %s", r.Timeout)
	}
	return result
}

package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tOgg1/afk/internal/models"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     string
		exitCode int
		hasHint  bool
	}{
		{"agent not found", fmt.Errorf("spawn: %w", models.ErrAgentNotFound), "ERR_AGENT_NOT_FOUND", 2, true},
		{"no command", models.ErrNoCommand, "ERR_INVALID", 2, true},
		{"nothing to archive", models.ErrNothingToArchive, "ERR_NOTHING_TO_ARCHIVE", 1, false},
		{"task not found", models.ErrTaskNotFound, "ERR_NOT_FOUND", 1, true},
		{"unknown flag", errors.New("unknown flag: --bogus"), "ERR_INVALID_FLAG", 1, false},
		{"invalid value", errors.New(`invalid iteration count "x": must be a positive integer`), "ERR_INVALID", 1, false},
		{"operation failed", errors.New("failed to resolve working directory"), "ERR_OPERATION_FAILED", 2, false},
		{"other", errors.New("boom"), "ERR_UNKNOWN", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, message, hint, exitCode := classifyError(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err.Error(), message)
			assert.Equal(t, tt.exitCode, exitCode)
			assert.Equal(t, tt.hasHint, hint != "")
		})
	}
}

func TestHandleCLIErrorKeepsPrintedExitError(t *testing.T) {
	original := &ExitError{Code: 3, Err: errors.New("already shown"), Printed: true}

	err := handleCLIError(original)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	assert.Same(t, original, exitErr)
}

func TestHandleCLIErrorOverridesExitCode(t *testing.T) {
	setOutputFlags(t, true, false)

	err := handleCLIError(&ExitError{Code: 5, Err: models.ErrNothingToArchive})

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	assert.Equal(t, 5, exitErr.Code)
	assert.True(t, exitErr.Printed)
	assert.ErrorIs(t, exitErr, models.ErrNothingToArchive)
}

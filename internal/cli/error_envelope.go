package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tOgg1/afk/internal/models"
)

// ErrorEnvelope is the JSON/JSONL error response shape.
type ErrorEnvelope struct {
	Error ErrorPayload `json:"error"`
}

// ErrorPayload carries structured error details.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// ExitError carries an exit code and whether output was already printed.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func handleCLIError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Printed {
			return exitErr
		}
		if exitErr.Err != nil {
			err = exitErr.Err
		}
	}

	code, message, hint, exitCode := classifyError(err)
	if exitErr != nil && exitErr.Code != 0 {
		exitCode = exitErr.Code
	}

	if IsJSONOutput() || IsJSONLOutput() {
		_ = WriteOutput(os.Stdout, ErrorEnvelope{Error: ErrorPayload{Code: code, Message: message, Hint: hint}})
	} else {
		fmt.Fprintln(os.Stderr, "Error: "+message)
		if hint != "" {
			fmt.Fprintln(os.Stderr, "Hint: "+hint)
		}
	}

	return &ExitError{
		Code:    exitCode,
		Err:     err,
		Printed: true,
	}
}

func classifyError(err error) (code, message, hint string, exitCode int) {
	exitCode = 1
	if err == nil {
		return "ERR_UNKNOWN", "", "", exitCode
	}
	message = err.Error()

	switch {
	case errors.Is(err, models.ErrAgentNotFound):
		return "ERR_AGENT_NOT_FOUND", message, "Install the AI CLI or set ai_cli.command in .afk/config.yaml.", 2
	case errors.Is(err, models.ErrNoCommand):
		return "ERR_INVALID", message, "Set ai_cli.command in .afk/config.yaml.", 2
	case errors.Is(err, models.ErrNothingToArchive):
		return "ERR_NOTHING_TO_ARCHIVE", message, "", exitCode
	case errors.Is(err, models.ErrTaskNotFound):
		return "ERR_NOT_FOUND", message, "Check the task ids in .afk/tasks.json.", exitCode
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "unknown flag"):
		code = "ERR_INVALID_FLAG"
	case strings.Contains(lower, "invalid") || strings.Contains(lower, "required") || strings.Contains(lower, "must"):
		code = "ERR_INVALID"
	case strings.Contains(lower, "failed to") || strings.Contains(lower, "unable to"):
		code = "ERR_OPERATION_FAILED"
		exitCode = 2
	default:
		code = "ERR_UNKNOWN"
	}
	return code, message, hint, exitCode
}

package adapters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScannerCursorAndAider(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		line   string
		kind   SignalKind
		tool   string
		path   string
		change ChangeKind
	}{
		{line: "⏺ Read(src/lib.rs)", kind: SignalToolCall, tool: "Read"},
		{line: "Edited src/lib.rs", kind: SignalFileChange, path: "src/lib.rs", change: ChangeModified},
		{line: "Created docs/new.md", kind: SignalFileChange, path: "docs/new.md", change: ChangeCreated},
		{line: "Deleted old.txt", kind: SignalFileChange, path: "old.txt", change: ChangeDeleted},
		{line: "Applied edit to app.py", kind: SignalFileChange, path: "app.py", change: ChangeModified},
		{line: "Wrote app.py", kind: SignalFileChange, path: "app.py", change: ChangeModified},
		{line: "Added utils.py to the chat", kind: SignalFileChange, path: "utils.py", change: ChangeRead},
		{line: "Commit 1a2b3c4 fix: handle nil", kind: SignalToolCall, tool: "git_commit"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			signals := scanner.Scan(tt.line)
			require.Len(t, signals, 1)
			assert.Equal(t, tt.kind, signals[0].Kind)
			assert.Equal(t, tt.tool, signals[0].ToolName)
			assert.Equal(t, tt.path, signals[0].Path)
			assert.Equal(t, tt.change, signals[0].Change)
			assert.Equal(t, tt.line, signals[0].Line)
		})
	}
}

func TestScannerDiagnostics(t *testing.T) {
	scanner := NewScanner(Diagnostics())

	signals := scanner.Scan("[build] error: cannot find module")
	require.Len(t, signals, 1)
	assert.Equal(t, SignalError, signals[0].Kind)
	assert.Equal(t, "cannot find module", signals[0].Message)

	signals = scanner.Scan("ValueError Exception: bad value")
	require.Len(t, signals, 1)
	assert.Equal(t, "bad value", signals[0].Message)

	signals = scanner.Scan("Traceback (most recent call last):")
	require.Len(t, signals, 1)
	assert.Equal(t, "Python traceback detected", signals[0].Message)

	signals = scanner.Scan("WARNING: disk nearly full")
	require.Len(t, signals, 1)
	assert.Equal(t, SignalWarning, signals[0].Kind)
	assert.Equal(t, "disk nearly full", signals[0].Message)

	signals = scanner.Scan("x.py:3: DeprecationWarning: use y")
	require.Len(t, signals, 1)
	assert.Equal(t, "use y", signals[0].Message)

	// Both the generic warning and deprecation patterns fire.
	signals = scanner.Scan("Warning: DeprecationWarning: use y")
	require.Len(t, signals, 2)
	assert.Equal(t, SignalWarning, signals[0].Kind)
	assert.Equal(t, SignalWarning, signals[1].Kind)
}

func TestScannerSkipsBlankLines(t *testing.T) {
	assert.Empty(t, NewScanner().Scan("   \n"))
}

func TestScannerTrimsLineEndings(t *testing.T) {
	signals := NewScanner(Cursor()).Scan("Created main.go\r\n")
	require.Len(t, signals, 1)
	assert.Equal(t, "main.go", signals[0].Path)
}

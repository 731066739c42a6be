package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLineRejectsBlankAndInvalid(t *testing.T) {
	inputs := []string{
		"",
		"   \t  ",
		"plain text output",
		"{not json",
		`{"type": "assistant"`,
		`[1, 2, 3]`,
		`"just a string"`,
		`null`,
	}
	for _, input := range inputs {
		parser := NewParser(FormatAuto)
		event, ok := parser.ParseLine(input)
		if ok || event != nil {
			t.Fatalf("expected no event for %q, got %#v", input, event)
		}
	}
}

func TestParseLineMissingTypeYieldsNothing(t *testing.T) {
	parser := NewParser(FormatCursor)
	_, ok := parser.ParseLine(`{"message": {"text": "hi"}}`)
	assert.False(t, ok)
}

func TestCursorSystemInit(t *testing.T) {
	parser := NewParser(FormatCursor)
	event, ok := parser.ParseLine(`{"type":"system","model":"gpt-5","session_id":"abc"}`)
	require.True(t, ok)
	assert.Equal(t, SystemInit{Model: "gpt-5", SessionID: "abc"}, event)
}

func TestAssistantMessageContentParts(t *testing.T) {
	parser := NewParser(FormatCursor)
	event, ok := parser.ParseLine(`{"type":"assistant","message":{"content":[{"type":"text","text":"Hello "},{"type":"text","text":"world"}]}}`)
	require.True(t, ok)
	assert.Equal(t, AssistantMessage{Text: "Hello world"}, event)
}

func TestAssistantMessageWithoutTextPartsIsEmpty(t *testing.T) {
	parser := NewParser(FormatClaude)
	event, ok := parser.ParseLine(`{"type":"assistant","message":{"content":[{"type":"tool_use","id":"t1"}]}}`)
	require.True(t, ok)
	assert.Equal(t, AssistantMessage{Text: ""}, event)
}

func TestMessageTextFallbacks(t *testing.T) {
	parser := NewParser(FormatClaude)

	event, ok := parser.ParseLine(`{"type":"user","message":{"content":"plain"}}`)
	require.True(t, ok)
	assert.Equal(t, UserMessage{Text: "plain"}, event)

	event, ok = parser.ParseLine(`{"type":"assistant","message":{"text":"direct"}}`)
	require.True(t, ok)
	assert.Equal(t, AssistantMessage{Text: "direct"}, event)

	_, ok = parser.ParseLine(`{"type":"assistant","message":{"content":[]}}`)
	assert.False(t, ok)

	_, ok = parser.ParseLine(`{"type":"assistant"}`)
	assert.False(t, ok)
}

func TestCursorToolCallStarted(t *testing.T) {
	parser := NewParser(FormatCursor)
	event, ok := parser.ParseLine(`{"type":"tool_call","subtype":"started","tool_call":{"readToolCall":{"args":{"path":"src/main.rs"}}}}`)
	require.True(t, ok)
	assert.Equal(t, ToolStarted{ToolName: "Read", ToolType: Read, Path: "src/main.rs"}, event)
}

func TestCursorToolCallCompleted(t *testing.T) {
	parser := NewParser(FormatCursor)
	event, ok := parser.ParseLine(`{"type":"tool_call","subtype":"completed","tool_call":{"writeToolCall":{"args":{"path":"a.go"},"result":{"success":{"linesCreated":12,"fileSize":340}}}}}`)
	require.True(t, ok)

	completed, isCompleted := event.(ToolCompleted)
	require.True(t, isCompleted, "expected ToolCompleted, got %T", event)
	assert.Equal(t, "Write", completed.ToolName)
	assert.Equal(t, Write, completed.ToolType)
	assert.Equal(t, "a.go", completed.Path)
	assert.True(t, completed.Success)
	require.NotNil(t, completed.Lines)
	assert.Equal(t, 12, *completed.Lines)
	require.NotNil(t, completed.FileSize)
	assert.Equal(t, int64(340), *completed.FileSize)
}

func TestCursorToolCallCompletedFailure(t *testing.T) {
	parser := NewParser(FormatCursor)
	event, ok := parser.ParseLine(`{"type":"tool_call","subtype":"completed","tool_call":{"editToolCall":{"args":{"path":"a.go"},"result":{"error":{"message":"denied"}}}}}`)
	require.True(t, ok)
	completed := event.(ToolCompleted)
	assert.False(t, completed.Success)
	assert.Nil(t, completed.Lines)
}

func TestCursorToolTypeDependsOnlyOnKey(t *testing.T) {
	tests := []struct {
		key  string
		name string
		tool ToolType
	}{
		{"readToolCall", "Read", Read},
		{"writeToolCall", "Write", Write},
		{"editToolCall", "Edit", Edit},
		{"deleteToolCall", "Delete", Delete},
		{"bashToolCall", "Bash", Command},
		{"searchToolCall", "Search", Search},
		{"grepToolCall", "Grep", Search},
		{"globToolCall", "Glob", Search},
	}
	payloads := []string{
		`{"args":{"path":"x/y.txt"}}`,
		`{"args":{"path":"write_me_delete.sh"},"result":{"success":{}}}`,
		`{}`,
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			for _, payload := range payloads {
				parser := NewParser(FormatCursor)
				line := `{"type":"tool_call","subtype":"completed","tool_call":{"` + tt.key + `":` + payload + `}}`
				event, ok := parser.ParseLine(line)
				require.True(t, ok, line)
				completed := event.(ToolCompleted)
				assert.Equal(t, tt.name, completed.ToolName)
				assert.Equal(t, tt.tool, completed.ToolType)
			}
		})
	}
}

func TestCursorFunctionToolFallback(t *testing.T) {
	parser := NewParser(FormatCursor)
	event, ok := parser.ParseLine(`{"type":"tool_call","subtype":"started","tool_call":{"function":{"name":"run_command"}}}`)
	require.True(t, ok)
	assert.Equal(t, ToolStarted{ToolName: "run_command", ToolType: Command}, event)

	event, ok = parser.ParseLine(`{"type":"tool_call","subtype":"started","tool_call":{}}`)
	require.True(t, ok)
	assert.Equal(t, ToolStarted{ToolName: "Thinking...", ToolType: Other("Thinking...")}, event)
}

func TestCursorUnknownSubtype(t *testing.T) {
	parser := NewParser(FormatCursor)
	line := `{"type":"tool_call","subtype":"progress","tool_call":{}}`
	event, ok := parser.ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, Unknown{EventType: "tool_call.progress", Raw: line}, event)
}

func TestCursorResult(t *testing.T) {
	parser := NewParser(FormatCursor)
	event, ok := parser.ParseLine(`{"type":"result","subtype":"success","duration_ms":1500,"result":"done"}`)
	require.True(t, ok)
	result := event.(Result)
	assert.True(t, result.Success)
	require.NotNil(t, result.DurationMs)
	assert.Equal(t, int64(1500), *result.DurationMs)
	assert.Equal(t, "done", result.ResultText)

	event, ok = parser.ParseLine(`{"type":"result","is_error":false}`)
	require.True(t, ok)
	assert.True(t, event.(Result).Success)

	event, ok = parser.ParseLine(`{"type":"result","subtype":"error_max_turns","is_error":true}`)
	require.True(t, ok)
	assert.False(t, event.(Result).Success)
}

func TestClaudeEvents(t *testing.T) {
	parser := NewParser(FormatClaude)

	event, ok := parser.ParseLine(`{"type":"tool_use","name":"Bash","input":{"command":"ls"}}`)
	require.True(t, ok)
	assert.Equal(t, ToolStarted{ToolName: "Bash", ToolType: Command}, event)

	event, ok = parser.ParseLine(`{"type":"tool_use","input":{"path":"README.md"}}`)
	require.True(t, ok)
	assert.Equal(t, ToolStarted{ToolName: "unknown", ToolType: Other("unknown"), Path: "README.md"}, event)

	event, ok = parser.ParseLine(`{"type":"tool_result","content":"ok"}`)
	require.True(t, ok)
	assert.Equal(t, ToolCompleted{ToolName: "tool", ToolType: Other("tool"), Success: true}, event)

	event, ok = parser.ParseLine(`{"type":"result","subtype":"success","is_error":false}`)
	require.True(t, ok)
	assert.True(t, event.(Result).Success)

	event, ok = parser.ParseLine(`{"type":"result","is_error":false}`)
	require.True(t, ok)
	assert.False(t, event.(Result).Success)

	event, ok = parser.ParseLine(`{"type":"error"}`)
	require.True(t, ok)
	assert.Equal(t, Error{Message: "Unknown error"}, event)

	line := `{"type":"stream_event","event":{}}`
	event, ok = parser.ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, Unknown{EventType: "stream_event", Raw: line}, event)
}

func TestAutoDetectIsSticky(t *testing.T) {
	parser := NewParser(FormatAuto)
	assert.Equal(t, FormatAuto, parser.Format())

	_, ok := parser.ParseLine(`{"type":"tool_use","name":"Read","input":{"path":"a"}}`)
	require.True(t, ok)
	assert.Equal(t, FormatClaude, parser.Format())

	// A cursor-shaped line after resolution still decodes with the claude table.
	line := `{"type":"tool_call","subtype":"started","tool_call":{"readToolCall":{}}}`
	event, ok := parser.ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, Unknown{EventType: "tool_call", Raw: line}, event)
	assert.Equal(t, FormatClaude, parser.Format())
}

func TestAutoDetectIgnoresUnparseableLines(t *testing.T) {
	parser := NewParser(FormatAuto)
	_, ok := parser.ParseLine("not json")
	assert.False(t, ok)
	assert.Equal(t, FormatAuto, parser.Format())

	_, ok = parser.ParseLine(`{"type":"tool_call","subtype":"started","tool_call":{}}`)
	require.True(t, ok)
	assert.Equal(t, FormatCursor, parser.Format())

	_, ok = parser.ParseLine(`{"type":"tool_use","name":"Read"}`)
	require.True(t, ok)
	assert.Equal(t, FormatCursor, parser.Format())
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		obj  map[string]any
		want Format
	}{
		{"tool_call key", map[string]any{"type": "tool_call", "tool_call": map[string]any{}}, FormatCursor},
		{"tool_use", map[string]any{"type": "tool_use"}, FormatClaude},
		{"tool_result", map[string]any{"type": "tool_result"}, FormatClaude},
		{"subtype", map[string]any{"type": "system", "subtype": "init"}, FormatCursor},
		{"default", map[string]any{"type": "assistant"}, FormatCursor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectFormat(tt.obj))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "tool_completed", KindToolCompleted.String())
	assert.Equal(t, KindResult, Result{}.Kind())
	assert.Equal(t, "invalid", Kind(99).String())
}

package adapters

import "testing"

func TestClaudeCodePatterns(t *testing.T) {
	adapter := ClaudeCode()

	signals := adapter.Match("Calling tool: write_file")
	if len(signals) != 1 || signals[0].Kind != SignalToolCall || signals[0].ToolName != "write_file" {
		t.Fatalf("expected write_file tool call, got %+v", signals)
	}

	signals = adapter.Match("Writing to: src/main.go ")
	if len(signals) != 1 || signals[0].Path != "src/main.go" || signals[0].Change != ChangeModified {
		t.Fatalf("expected modified src/main.go, got %+v", signals)
	}

	signals = adapter.Match("Reading: README.md")
	if len(signals) != 1 || signals[0].Change != ChangeRead {
		t.Fatalf("expected read signal, got %+v", signals)
	}

	if signals := adapter.Match("nothing to see"); len(signals) != 0 {
		t.Fatalf("expected no signals, got %+v", signals)
	}
}

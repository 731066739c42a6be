package stream

import "testing"

func TestClassifyToolName(t *testing.T) {
	tests := []struct {
		name string
		want ToolType
	}{
		{"Read", Read},
		{"read_file", Read},
		{"Write", Write},
		{"MultiEdit", Edit},
		{"delete_file", Delete},
		{"RemoveDir", Delete},
		{"Bash", Command},
		{"run_command", Command},
		{"exec", Command},
		{"Grep", Search},
		{"Glob", Search},
		{"WebSearch", Search},
		{"TodoWrite", Write},
		{"Task", Other("Task")},
	}
	for _, tt := range tests {
		if got := ClassifyToolName(tt.name); got != tt.want {
			t.Fatalf("ClassifyToolName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestToolTypeString(t *testing.T) {
	if Command.String() != "Command" {
		t.Fatalf("expected Command, got %q", Command.String())
	}
	if Other("Thinking...").String() != "Thinking..." {
		t.Fatalf("expected other name, got %q", Other("Thinking...").String())
	}
	if !Edit.IsFileMutation() || Read.IsFileMutation() {
		t.Fatalf("unexpected file mutation classification")
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("Cursor") != FormatCursor || ParseFormat("claude") != FormatClaude || ParseFormat("x") != FormatAuto {
		t.Fatalf("unexpected ParseFormat mapping")
	}
	if FormatClaude.String() != "claude" {
		t.Fatalf("unexpected format string %q", FormatClaude.String())
	}
}

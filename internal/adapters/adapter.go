// Package adapters recognizes tool calls, file changes, errors and warnings in
// plain-text agent output. It is the fallback for agents, or lines, that do not
// use structured streaming.
package adapters

import (
	"regexp"
	"strings"
)

// SignalKind identifies what a Signal reports.
type SignalKind int

const (
	SignalToolCall SignalKind = iota
	SignalFileChange
	SignalError
	SignalWarning
)

func (k SignalKind) String() string {
	switch k {
	case SignalToolCall:
		return "tool_call"
	case SignalFileChange:
		return "file_change"
	case SignalError:
		return "error"
	case SignalWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// ChangeKind describes a file change reported in agent output.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeRead     ChangeKind = "read"
)

// Signal is one fact recognized in a line of output.
type Signal struct {
	Kind     SignalKind
	ToolName string
	Path     string
	Change   ChangeKind
	Message  string
	Line     string
}

type pattern struct {
	re    *regexp.Regexp
	build func(match []string) Signal
}

// Adapter holds the output patterns of one agent CLI.
type Adapter struct {
	name     string
	patterns []pattern
}

// Name returns the adapter name.
func (a *Adapter) Name() string {
	return a.name
}

// Match applies the adapter's patterns to a single line.
func (a *Adapter) Match(line string) []Signal {
	var signals []Signal
	for _, p := range a.patterns {
		match := p.re.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		signal := p.build(match)
		signal.Line = line
		signals = append(signals, signal)
	}
	return signals
}

func toolCall(group int) func([]string) Signal {
	return func(match []string) Signal {
		return Signal{Kind: SignalToolCall, ToolName: match[group]}
	}
}

func namedToolCall(name string) func([]string) Signal {
	return func([]string) Signal {
		return Signal{Kind: SignalToolCall, ToolName: name}
	}
}

func fileChange(change ChangeKind) func([]string) Signal {
	return func(match []string) Signal {
		return Signal{Kind: SignalFileChange, Path: strings.TrimSpace(match[1]), Change: change}
	}
}

func errorMessage(match []string) Signal {
	return Signal{Kind: SignalError, Message: match[1]}
}

func fixedError(message string) func([]string) Signal {
	return func([]string) Signal {
		return Signal{Kind: SignalError, Message: message}
	}
}

func warningMessage(match []string) Signal {
	return Signal{Kind: SignalWarning, Message: match[1]}
}

// Scanner runs a set of adapters over output lines.
type Scanner struct {
	adapters []*Adapter
}

// NewScanner returns a scanner using the given adapters, or every built-in
// adapter when none are given.
func NewScanner(adapters ...*Adapter) *Scanner {
	if len(adapters) == 0 {
		adapters = []*Adapter{ClaudeCode(), Cursor(), Aider(), Diagnostics()}
	}
	return &Scanner{adapters: adapters}
}

// Scan returns every signal found in line, in adapter order. A single line
// may yield several signals.
func (s *Scanner) Scan(line string) []Signal {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	var signals []Signal
	for _, adapter := range s.adapters {
		signals = append(signals, adapter.Match(line)...)
	}
	return signals
}

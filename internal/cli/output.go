package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
)

// HumanRenderer is implemented by values with a custom plain-text form.
type HumanRenderer interface {
	RenderHuman(out io.Writer) error
}

// Formatter renders command output as human-readable, JSON, or JSONL.
type Formatter struct {
	out   io.Writer
	json  bool
	jsonl bool
}

// NewFormatter builds a formatter using the current CLI flags.
func NewFormatter(out io.Writer) *Formatter {
	return &Formatter{
		out:   out,
		json:  IsJSONOutput(),
		jsonl: IsJSONLOutput(),
	}
}

// Structured reports whether output is machine-readable.
func (f *Formatter) Structured() bool {
	return f.json || f.jsonl
}

// Write formats and writes output based on CLI flags.
func (f *Formatter) Write(value any) error {
	if f.jsonl {
		return writeJSONL(f.out, value)
	}
	if f.json {
		return writeJSON(f.out, value)
	}
	if r, ok := value.(HumanRenderer); ok {
		return r.RenderHuman(f.out)
	}
	_, err := fmt.Fprintln(f.out, value)
	return err
}

// WriteOutput is a convenience wrapper around NewFormatter.
func WriteOutput(out io.Writer, value any) error {
	return NewFormatter(out).Write(value)
}

func writeJSON(out io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func writeJSONL(out io.Writer, value any) error {
	val := reflect.ValueOf(value)
	if val.IsValid() && (val.Kind() == reflect.Slice || val.Kind() == reflect.Array) {
		for i := 0; i < val.Len(); i++ {
			data, err := json.Marshal(val.Index(i).Interface())
			if err != nil {
				return fmt.Errorf("failed to marshal JSONL: %w", err)
			}
			if _, err := fmt.Fprintln(out, string(data)); err != nil {
				return err
			}
		}
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSONL: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

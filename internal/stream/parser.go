package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

type decodeFunc func(obj map[string]any, raw string) (Event, bool)

var decoders = map[Format]decodeFunc{
	FormatCursor: decodeCursor,
	FormatClaude: decodeClaude,
}

// Parser converts output lines into events. A parser is bound to one agent
// session; its format decision is made at most once and never revisited.
// A Parser is not safe for concurrent use.
type Parser struct {
	format   Format
	detected Format
}

// NewParser returns a parser for the given format.
func NewParser(format Format) *Parser {
	return &Parser{format: format}
}

// Format returns the resolved format, or the configured one if nothing has
// been resolved yet.
func (p *Parser) Format() Format {
	if p.detected != FormatAuto {
		return p.detected
	}
	return p.format
}

// ParseLine parses one line. It returns false for blank lines and lines that
// are not a JSON object, which callers should treat as plain text.
func (p *Parser) ParseLine(line string) (Event, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil, false
	}

	obj, ok := decodeObject(trimmed)
	if !ok {
		return nil, false
	}

	if p.format == FormatAuto && p.detected == FormatAuto {
		p.detected = detectFormat(obj)
	}

	decode, ok := decoders[p.Format()]
	if !ok {
		decode = decodeCursor
	}
	return decode(obj, trimmed)
}

func decodeObject(line string) (map[string]any, bool) {
	decoder := json.NewDecoder(bytes.NewReader([]byte(line)))
	decoder.UseNumber()

	var obj map[string]any
	if err := decoder.Decode(&obj); err != nil {
		return nil, false
	}
	if obj == nil || decoder.More() {
		return nil, false
	}
	return obj, true
}

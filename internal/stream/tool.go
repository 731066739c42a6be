package stream

import "strings"

// ToolClass is the coarse category of a tool call.
type ToolClass int

const (
	ToolRead ToolClass = iota
	ToolWrite
	ToolEdit
	ToolDelete
	ToolCommand
	ToolSearch
	ToolOther
)

// ToolType classifies a tool call independently of vendor naming. Name is
// only meaningful for ToolOther.
type ToolType struct {
	Class ToolClass
	Name  string
}

var (
	Read    = ToolType{Class: ToolRead}
	Write   = ToolType{Class: ToolWrite}
	Edit    = ToolType{Class: ToolEdit}
	Delete  = ToolType{Class: ToolDelete}
	Command = ToolType{Class: ToolCommand}
	Search  = ToolType{Class: ToolSearch}
)

// Other returns an unclassified tool type carrying the vendor's name.
func Other(name string) ToolType {
	return ToolType{Class: ToolOther, Name: name}
}

func (t ToolType) String() string {
	switch t.Class {
	case ToolRead:
		return "Read"
	case ToolWrite:
		return "Write"
	case ToolEdit:
		return "Edit"
	case ToolDelete:
		return "Delete"
	case ToolCommand:
		return "Command"
	case ToolSearch:
		return "Search"
	default:
		return t.Name
	}
}

// IsFileMutation reports whether the tool changes files on disk.
func (t ToolType) IsFileMutation() bool {
	return t.Class == ToolWrite || t.Class == ToolEdit || t.Class == ToolDelete
}

var toolVerbs = []struct {
	verbs []string
	tool  ToolType
}{
	{[]string{"read"}, Read},
	{[]string{"write"}, Write},
	{[]string{"edit"}, Edit},
	{[]string{"delete", "remove"}, Delete},
	{[]string{"bash", "command", "exec"}, Command},
	{[]string{"search", "grep", "glob"}, Search},
}

// ClassifyToolName maps a tool name to a ToolType by case-insensitive
// substring match on known verbs. Earlier verbs win.
func ClassifyToolName(name string) ToolType {
	lower := strings.ToLower(name)
	for _, entry := range toolVerbs {
		for _, verb := range entry.verbs {
			if strings.Contains(lower, verb) {
				return entry.tool
			}
		}
	}
	return Other(name)
}

// Package stream normalizes line-delimited JSON output from agent CLIs into a
// vendor-independent event stream.
package stream

// Kind identifies the concrete type of an Event.
type Kind int

const (
	KindSystemInit Kind = iota
	KindUserMessage
	KindAssistantMessage
	KindToolStarted
	KindToolCompleted
	KindResult
	KindError
	KindUnknown
)

var kindNames = [...]string{
	KindSystemInit:       "system_init",
	KindUserMessage:      "user_message",
	KindAssistantMessage: "assistant_message",
	KindToolStarted:      "tool_started",
	KindToolCompleted:    "tool_completed",
	KindResult:           "result",
	KindError:            "error",
	KindUnknown:          "unknown",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// Event is one parsed line of agent output. The set of implementations is
// closed; consumers type-switch on the concrete value.
type Event interface {
	Kind() Kind
	isEvent()
}

// SystemInit is emitted once when the agent session starts.
type SystemInit struct {
	Model     string
	SessionID string
}

// UserMessage echoes the prompt or user turn.
type UserMessage struct {
	Text string
}

// AssistantMessage carries text produced by the model. Text may be empty when
// the message held only non-text parts.
type AssistantMessage struct {
	Text string
}

// ToolStarted marks the beginning of a tool invocation.
type ToolStarted struct {
	ToolName string
	ToolType ToolType
	Path     string
}

// ToolCompleted marks the end of a tool invocation.
type ToolCompleted struct {
	ToolName string
	ToolType ToolType
	Path     string
	Success  bool
	Lines    *int
	FileSize *int64
}

// Result is the terminal summary of an agent run.
type Result struct {
	Success    bool
	DurationMs *int64
	ResultText string
}

// Error is an agent-reported error.
type Error struct {
	Message string
}

// Unknown is a well-formed event the parser does not recognize.
type Unknown struct {
	EventType string
	Raw       string
}

func (SystemInit) Kind() Kind       { return KindSystemInit }
func (UserMessage) Kind() Kind      { return KindUserMessage }
func (AssistantMessage) Kind() Kind { return KindAssistantMessage }
func (ToolStarted) Kind() Kind      { return KindToolStarted }
func (ToolCompleted) Kind() Kind    { return KindToolCompleted }
func (Result) Kind() Kind           { return KindResult }
func (Error) Kind() Kind            { return KindError }
func (Unknown) Kind() Kind          { return KindUnknown }

func (SystemInit) isEvent()       {}
func (UserMessage) isEvent()      {}
func (AssistantMessage) isEvent() {}
func (ToolStarted) isEvent()      {}
func (ToolCompleted) isEvent()    {}
func (Result) isEvent()           {}
func (Error) isEvent()            {}
func (Unknown) isEvent()          {}

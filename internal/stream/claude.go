package stream

func decodeClaude(obj map[string]any, raw string) (Event, bool) {
	eventType, ok := stringField(obj, "type")
	if !ok {
		return nil, false
	}
	if isMessageType(eventType) {
		return decodeMessage(eventType, obj)
	}

	switch eventType {
	case "tool_use":
		name, ok := stringField(obj, "name")
		if !ok {
			name = "unknown"
		}
		path := ""
		if input, ok := objectField(obj, "input"); ok {
			path, _ = stringField(input, "path")
		}
		return ToolStarted{ToolName: name, ToolType: ClassifyToolName(name), Path: path}, true
	case "tool_result":
		// Results do not name the tool they answer.
		return ToolCompleted{ToolName: "tool", ToolType: Other("tool"), Success: true}, true
	case "result":
		subtype, _ := stringField(obj, "subtype")
		return resultEvent(obj, subtype == "success"), true
	case "error":
		message, ok := stringField(obj, "message")
		if !ok {
			message = "Unknown error"
		}
		return Error{Message: message}, true
	default:
		return Unknown{EventType: eventType, Raw: raw}, true
	}
}

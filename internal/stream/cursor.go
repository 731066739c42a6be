package stream

var cursorToolKeys = []struct {
	key  string
	tool ToolType
	name string
}{
	{"readToolCall", Read, "Read"},
	{"writeToolCall", Write, "Write"},
	{"editToolCall", Edit, "Edit"},
	{"deleteToolCall", Delete, "Delete"},
	{"bashToolCall", Command, "Bash"},
	{"searchToolCall", Search, "Search"},
	{"grepToolCall", Search, "Grep"},
	{"globToolCall", Search, "Glob"},
}

var cursorResultKeys = []string{"readToolCall", "writeToolCall", "editToolCall", "deleteToolCall"}

const thinkingToolName = "Thinking..."

func decodeCursor(obj map[string]any, raw string) (Event, bool) {
	eventType, ok := stringField(obj, "type")
	if !ok {
		return nil, false
	}
	if isMessageType(eventType) {
		return decodeMessage(eventType, obj)
	}

	switch eventType {
	case "tool_call":
		subtype, ok := stringField(obj, "subtype")
		if !ok {
			return nil, false
		}
		call, ok := objectField(obj, "tool_call")
		if !ok {
			return nil, false
		}
		name, toolType, path := cursorToolInfo(call)
		switch subtype {
		case "started":
			return ToolStarted{ToolName: name, ToolType: toolType, Path: path}, true
		case "completed":
			event := ToolCompleted{ToolName: name, ToolType: toolType, Path: path}
			event.Success, event.Lines, event.FileSize = cursorToolResult(call)
			return event, true
		default:
			return Unknown{EventType: "tool_call." + subtype, Raw: raw}, true
		}
	case "result":
		subtype, _ := stringField(obj, "subtype")
		isError, hasIsError := boolField(obj, "is_error")
		success := subtype == "success" || (hasIsError && !isError)
		return resultEvent(obj, success), true
	default:
		return Unknown{EventType: eventType, Raw: raw}, true
	}
}

func cursorToolInfo(call map[string]any) (string, ToolType, string) {
	for _, entry := range cursorToolKeys {
		inner, ok := objectField(call, entry.key)
		if !ok {
			continue
		}
		path := ""
		if args, ok := objectField(inner, "args"); ok {
			path, _ = stringField(args, "path")
		}
		return entry.name, entry.tool, path
	}

	if function, ok := objectField(call, "function"); ok {
		name, ok := stringField(function, "name")
		if !ok {
			name = thinkingToolName
		}
		return name, ClassifyToolName(name), ""
	}

	return thinkingToolName, Other(thinkingToolName), ""
}

func cursorToolResult(call map[string]any) (bool, *int, *int64) {
	for _, key := range cursorResultKeys {
		inner, ok := objectField(call, key)
		if !ok {
			continue
		}
		result, ok := objectField(inner, "result")
		if !ok {
			continue
		}
		success, ok := objectField(result, "success")
		if !ok {
			_, present := result["success"]
			return present, nil, nil
		}

		var lines *int
		if total, ok := uintField(success, "totalLines"); ok {
			value := int(total)
			lines = &value
		} else if created, ok := uintField(success, "linesCreated"); ok {
			value := int(created)
			lines = &value
		}

		var size *int64
		if fileSize, ok := uintField(success, "fileSize"); ok {
			size = &fileSize
		}
		return true, lines, size
	}
	return true, nil, nil
}

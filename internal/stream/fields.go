package stream

import (
	"encoding/json"
	"strings"
)

func stringField(obj map[string]any, key string) (string, bool) {
	value, ok := obj[key].(string)
	return value, ok
}

func objectField(obj map[string]any, key string) (map[string]any, bool) {
	value, ok := obj[key].(map[string]any)
	return value, ok
}

func boolField(obj map[string]any, key string) (bool, bool) {
	value, ok := obj[key].(bool)
	return value, ok
}

// uintField returns a non-negative integer field.
func uintField(obj map[string]any, key string) (int64, bool) {
	number, ok := obj[key].(json.Number)
	if !ok {
		return 0, false
	}
	value, err := number.Int64()
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// messageText extracts text from a message object. Content lists are joined;
// a non-empty list without text parts yields an empty string rather than no
// result, so callers can tell a textless message from an unparseable one.
func messageText(message map[string]any) (string, bool) {
	if content, ok := message["content"]; ok {
		if parts, ok := content.([]any); ok {
			var texts []string
			for _, part := range parts {
				partObj, ok := part.(map[string]any)
				if !ok {
					continue
				}
				if text, ok := stringField(partObj, "text"); ok {
					texts = append(texts, text)
				}
			}
			if len(texts) > 0 {
				return strings.Join(texts, ""), true
			}
			if len(parts) > 0 {
				return "", true
			}
		}
		if text, ok := content.(string); ok {
			return text, true
		}
	}
	if text, ok := stringField(message, "text"); ok {
		return text, true
	}
	return "", false
}

// decodeMessage handles the shared system/user/assistant envelope.
func decodeMessage(eventType string, obj map[string]any) (Event, bool) {
	switch eventType {
	case "system":
		model, _ := stringField(obj, "model")
		sessionID, _ := stringField(obj, "session_id")
		return SystemInit{Model: model, SessionID: sessionID}, true
	case "user", "assistant":
		message, ok := objectField(obj, "message")
		if !ok {
			return nil, false
		}
		text, ok := messageText(message)
		if !ok {
			return nil, false
		}
		if eventType == "user" {
			return UserMessage{Text: text}, true
		}
		return AssistantMessage{Text: text}, true
	}
	return nil, false
}

func isMessageType(eventType string) bool {
	return eventType == "system" || eventType == "user" || eventType == "assistant"
}

func resultEvent(obj map[string]any, success bool) Result {
	result := Result{Success: success}
	if duration, ok := uintField(obj, "duration_ms"); ok {
		result.DurationMs = &duration
	}
	result.ResultText, _ = stringField(obj, "result")
	return result
}

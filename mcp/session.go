package mcp

import (
	"regexp"
)

// sessionIDPattern matches the textual forms providers use to announce a
// session identity, such as "Session ID: abc-123" or "session_id=abc-123".
var sessionIDPattern = regexp.MustCompile(`(?i)session[ _-]?id\s*[:=]\s*"?([A-Za-z0-9_-]+)"?`)

// extractSessionID finds a session identity in a tool response. Structured
// fields win over free text: providers that return JSON are authoritative
// about their own keys, while the regexp is a fallback for plain-text
// responses.
func extractSessionID(data map[string]any, text string) string {
	if id := structuredSessionID(data); id != "" {
		return id
	}

	if m := sessionIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func structuredSessionID(data map[string]any) string {
	if data == nil {
		return ""
	}

	for _, key := range []string{"session_id", "sessionId", "sessionID"} {
		if id, ok := data[key].(string); ok && id != "" {
			return id
		}
	}

	if session, ok := data["session"].(map[string]any); ok {
		if id, ok := session["id"].(string); ok && id != "" {
			return id
		}
	}

	if id, ok := data["id"].(string); ok && id != "" {
		return id
	}
	return ""
}

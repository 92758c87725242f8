package mcp

import (
	"encoding/json"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/m-mizutani/browserpilot"
)

// parseResult normalizes an MCP tool response. Providers disagree on how
// they encode payloads, so everything is derived from the content list:
// concatenated text, a structured map when the text is a JSON object, a
// snapshot when any encoding strategy finds one, and the session identity
// when the provider emitted one.
func parseResult(resp *mcpgo.CallToolResult) *browserpilot.ToolResult {
	texts := make([]string, 0, len(resp.Content))
	for _, content := range resp.Content {
		if txt, ok := mcpgo.AsTextContent(content); ok {
			texts = append(texts, txt.Text)
		}
	}
	text := strings.Join(texts, "\n")

	if resp.IsError {
		msg := text
		if msg == "" {
			msg = "tool reported an error"
		}
		return &browserpilot.ToolResult{Error: msg}
	}

	result := &browserpilot.ToolResult{
		Text: text,
	}

	if data := parseJSONObject(text); data != nil {
		result.Data = data
	}
	result.Snapshot = extractSnapshot(resp.Content, text)
	result.SessionID = extractSessionID(result.Data, text)

	return result
}

// parseJSONObject returns the text parsed as a JSON object, or nil when the
// text is not one. Non-object JSON values are left as plain text.
func parseJSONObject(text string) map[string]any {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}

	var v map[string]any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil
	}
	return v
}

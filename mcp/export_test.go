package mcp

// Exported for testing
var (
	ExtractSessionID = extractSessionID
	ExtractSnapshot  = extractSnapshot
	ParseResult      = parseResult
	ToolToSpec       = toolToSpec
)

package gemini

// Export convert functions for testing
var (
	ConvertTool              = convertTool
	ConvertParameterToSchema = convertParameterToSchema
)

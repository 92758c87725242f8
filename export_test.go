package browserpilot

// Exported for testing
var (
	NewArgumentValidator = newArgumentValidator
	ClassifyToolForTest  = classifyTool
	ToolMutatesPage      = toolMutatesPage
)

type ArgumentValidator = argumentValidator
type ToolKind = toolKind

const (
	ToolKindSession     = toolKindSession
	ToolKindNavigation  = toolKindNavigation
	ToolKindInteraction = toolKindInteraction
	ToolKindExtraction  = toolKindExtraction
	ToolKindSnapshot    = toolKindSnapshot
	ToolKindInfo        = toolKindInfo
)

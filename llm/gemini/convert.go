package gemini

import (
	"google.golang.org/genai"

	"github.com/m-mizutani/browserpilot"
)

func convertTool(tool browserpilot.ToolSpec) *genai.FunctionDeclaration {
	// Gemini requires an empty slice, not nil.
	required := tool.Required
	if required == nil {
		required = []string{}
	}

	parameters := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema),
		Required:   required,
	}

	for name, param := range tool.Parameters {
		parameters.Properties[name] = convertParameterToSchema(param)
	}

	return &genai.FunctionDeclaration{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  parameters,
	}
}

func convertParameterToSchema(param *browserpilot.Parameter) *genai.Schema {
	schema := &genai.Schema{
		Type:        getGeminiType(param.Type),
		Description: param.Description,
		Title:       param.Title,
	}

	if len(param.Enum) > 0 {
		schema.Enum = param.Enum
	}

	if param.Properties != nil {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range param.Properties {
			schema.Properties[name] = convertParameterToSchema(prop)
		}
		if len(param.Required) > 0 {
			schema.Required = param.Required
		} else {
			schema.Required = []string{}
		}
	}

	if param.Items != nil {
		schema.Items = convertParameterToSchema(param.Items)
	}

	return schema
}

func getGeminiType(paramType browserpilot.ParameterType) genai.Type {
	switch paramType {
	case browserpilot.TypeString:
		return genai.TypeString
	case browserpilot.TypeNumber:
		return genai.TypeNumber
	case browserpilot.TypeInteger:
		return genai.TypeInteger
	case browserpilot.TypeBoolean:
		return genai.TypeBoolean
	case browserpilot.TypeArray:
		return genai.TypeArray
	case browserpilot.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

package gpt

import (
	"github.com/sashabaranov/go-openai"

	"github.com/m-mizutani/browserpilot"
)

func convertTool(tool browserpilot.ToolSpec) openai.Tool {
	properties := make(map[string]any)
	for name, param := range tool.Parameters {
		properties[name] = convertParameterToSchema(param)
	}

	parameters := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(tool.Required) > 0 {
		parameters["required"] = tool.Required
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		},
	}
}

func convertParameterToSchema(param *browserpilot.Parameter) map[string]any {
	schema := map[string]any{
		"type": string(param.Type),
	}
	if param.Description != "" {
		schema["description"] = param.Description
	}

	if len(param.Enum) > 0 {
		schema["enum"] = param.Enum
	}

	if param.Properties != nil {
		properties := make(map[string]any)
		for name, prop := range param.Properties {
			properties[name] = convertParameterToSchema(prop)
		}
		schema["properties"] = properties
		if len(param.Required) > 0 {
			schema["required"] = param.Required
		}
	}

	if param.Items != nil {
		schema["items"] = convertParameterToSchema(param.Items)
	}

	if param.Default != nil {
		schema["default"] = param.Default
	}

	return schema
}

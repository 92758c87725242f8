package claude

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/m-mizutani/browserpilot"
)

func convertTool(tool browserpilot.ToolSpec) anthropic.ToolUnionParam {
	schema := convertParametersToJSONSchema(tool.Parameters)

	inputSchema := anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
	if len(tool.Required) > 0 {
		inputSchema.ExtraFields = map[string]any{
			"required": tool.Required,
		}
	}

	union := anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
	if union.OfTool != nil && tool.Description != "" {
		union.OfTool.Description = anthropic.String(tool.Description)
	}
	return union
}

type jsonSchema struct {
	Type        string                `json:"type"`
	Properties  map[string]jsonSchema `json:"properties,omitempty"`
	Required    []string              `json:"required,omitempty"`
	Items       *jsonSchema           `json:"items,omitempty"`
	Default     any                   `json:"default,omitempty"`
	Enum        []any                 `json:"enum,omitempty"`
	Description string                `json:"description,omitempty"`
	Title       string                `json:"title,omitempty"`
}

func convertParametersToJSONSchema(params map[string]*browserpilot.Parameter) jsonSchema {
	properties := make(map[string]jsonSchema)

	for name, param := range params {
		properties[name] = convertParameterToSchema(param)
	}

	return jsonSchema{
		Type:       "object",
		Properties: properties,
	}
}

func convertParameterToSchema(param *browserpilot.Parameter) jsonSchema {
	schema := jsonSchema{
		Type:        string(param.Type),
		Description: param.Description,
		Title:       param.Title,
	}

	if len(param.Enum) > 0 {
		enum := make([]any, len(param.Enum))
		for i, v := range param.Enum {
			enum[i] = v
		}
		schema.Enum = enum
	}

	if param.Properties != nil {
		properties := make(map[string]jsonSchema)
		for name, prop := range param.Properties {
			properties[name] = convertParameterToSchema(prop)
		}
		schema.Properties = properties
		if len(param.Required) > 0 {
			schema.Required = param.Required
		}
	}

	if param.Items != nil {
		items := convertParameterToSchema(param.Items)
		schema.Items = &items
	}

	if param.Default != nil {
		schema.Default = param.Default
	}

	return schema
}

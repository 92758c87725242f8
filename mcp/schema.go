package mcp

import (
	"github.com/m-mizutani/goerr/v2"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/m-mizutani/browserpilot"
)

func valueOrEmpty[T any](v any) T {
	var empty T
	if v == nil {
		return empty
	}
	if v, ok := v.(T); ok {
		return v
	}
	return empty
}

// toolToSpec converts an MCP tool declaration into a ToolSpec. The session
// identity argument is stripped: the client injects it on every call, so it
// must never appear in the schema shown to callers.
func toolToSpec(tool mcpgo.Tool) (browserpilot.ToolSpec, error) {
	parameters, err := inputSchemaToParameters(tool.InputSchema)
	if err != nil {
		return browserpilot.ToolSpec{}, err
	}
	delete(parameters, browserpilot.SessionIDKey)

	required := make([]string, 0, len(tool.InputSchema.Required))
	for _, name := range tool.InputSchema.Required {
		if name == browserpilot.SessionIDKey {
			continue
		}
		required = append(required, name)
	}

	spec := browserpilot.ToolSpec{
		Name:        tool.Name,
		Description: tool.Description,
		Parameters:  parameters,
		Required:    required,
	}
	if err := spec.Validate(); err != nil {
		return browserpilot.ToolSpec{}, err
	}
	return spec, nil
}

func inputSchemaToParameters(inputSchema mcpgo.ToolInputSchema) (map[string]*browserpilot.Parameter, error) {
	parameters := map[string]*browserpilot.Parameter{}

	for name, property := range inputSchema.Properties {
		prop, ok := property.(map[string]any)
		if !ok {
			return nil, goerr.Wrap(browserpilot.ErrInvalidParameter, "invalid property", goerr.V("property", name))
		}

		parameter, err := propertyToParameter(name, prop)
		if err != nil {
			return nil, err
		}
		parameters[name] = parameter
	}

	return parameters, nil
}

func propertyToParameter(name string, prop map[string]any) (*browserpilot.Parameter, error) {
	var properties map[string]*browserpilot.Parameter
	var items *browserpilot.Parameter
	propType := valueOrEmpty[string](prop["type"])

	if propType == "object" {
		properties = map[string]*browserpilot.Parameter{}
		for k, v := range valueOrEmpty[map[string]any](prop["properties"]) {
			nested, ok := v.(map[string]any)
			if !ok {
				return nil, goerr.Wrap(browserpilot.ErrInvalidParameter, "invalid nested property", goerr.V("property", k))
			}
			objParam, err := propertyToParameter(k, nested)
			if err != nil {
				return nil, err
			}
			properties[k] = objParam
		}
	}

	if propType == "array" {
		nested, ok := prop["items"].(map[string]any)
		if !ok {
			return nil, goerr.Wrap(browserpilot.ErrInvalidParameter, "array property without items", goerr.V("property", name))
		}
		v, err := propertyToParameter(name, nested)
		if err != nil {
			return nil, err
		}
		items = v
	}

	return &browserpilot.Parameter{
		Type:        browserpilot.ParameterType(propType),
		Title:       valueOrEmpty[string](prop["title"]),
		Description: valueOrEmpty[string](prop["description"]),
		Required:    stringSlice(prop["required"]),
		Enum:        stringSlice(prop["enum"]),
		Properties:  properties,
		Items:       items,
		Default:     prop["default"],
	}, nil
}

// stringSlice coerces a JSON-decoded array into []string. JSON decoding
// yields []any, so a plain type assertion would always miss.
func stringSlice(v any) []string {
	switch vs := v.(type) {
	case []string:
		return vs
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

package browserpilot

import (
	"github.com/m-mizutani/goerr/v2"
)

// ToolSpec is the specification of a remote tool exposed by the provider.
type ToolSpec struct {
	// Name is the unique identifier for the tool.
	Name string

	// Description is a human-readable description of what the tool does.
	Description string

	// Parameters defines the input parameters that the tool accepts.
	Parameters map[string]*Parameter

	// Required is the list of required parameter names.
	Required []string
}

// Validate validates the tool specification.
func (s *ToolSpec) Validate() error {
	eb := goerr.NewBuilder(goerr.V("tool", s.Name))
	if s.Name == "" {
		return eb.Wrap(ErrInvalidTool, "name is required")
	}

	for name, param := range s.Parameters {
		if err := param.Validate(); err != nil {
			return eb.Wrap(err, "invalid parameter", goerr.V("parameter", name))
		}
	}

	return nil
}

// SchemaDocument renders the spec as a JSON-schema object document. It is
// used both for provider-facing tool declarations and for validating
// oracle-emitted arguments before invocation.
func (s *ToolSpec) SchemaDocument() map[string]any {
	properties := make(map[string]any, len(s.Parameters))
	for name, param := range s.Parameters {
		properties[name] = param.schemaDocument()
	}

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(s.Required) > 0 {
		required := make([]any, len(s.Required))
		for i, r := range s.Required {
			required[i] = r
		}
		doc["required"] = required
	}
	return doc
}

// ParameterType is the type of a parameter.
type ParameterType string

const (
	TypeString  ParameterType = "string"
	TypeNumber  ParameterType = "number"
	TypeInteger ParameterType = "integer"
	TypeBoolean ParameterType = "boolean"
	TypeArray   ParameterType = "array"
	TypeObject  ParameterType = "object"
)

// Parameter is a single input parameter of a tool.
type Parameter struct {
	// Title is the user-friendly name of the parameter. Optional.
	Title string

	// Type is the type of the parameter. Required.
	Type ParameterType

	// Description explains the purpose and expected format of the parameter.
	Description string

	// Required is the list of required field names when Type is Object.
	Required []string

	// Enum is the list of allowed values for the parameter.
	Enum []string

	// Properties is the structure of the parameter for object types.
	Properties map[string]*Parameter

	// Items is the element type for array parameters.
	Items *Parameter

	// Default value used when the parameter is omitted.
	Default any
}

// Validate validates the parameter.
func (p *Parameter) Validate() error {
	eb := goerr.NewBuilder(goerr.V("type", string(p.Type)))

	if p.Type == "" {
		return eb.Wrap(ErrInvalidParameter, "type is required")
	}

	if p.Type == TypeObject {
		for name, prop := range p.Properties {
			if err := prop.Validate(); err != nil {
				return eb.Wrap(err, "invalid property", goerr.V("property", name))
			}
		}
		for _, req := range p.Required {
			if _, ok := p.Properties[req]; !ok {
				return eb.Wrap(ErrInvalidParameter, "required field not found in properties", goerr.V("field", req))
			}
		}
	}

	if p.Type == TypeArray {
		if p.Items == nil {
			return eb.Wrap(ErrInvalidParameter, "items is required for array type")
		}
		if err := p.Items.Validate(); err != nil {
			return eb.Wrap(err, "invalid items")
		}
	}

	return nil
}

func (p *Parameter) schemaDocument() map[string]any {
	doc := map[string]any{
		"type": string(p.Type),
	}
	if p.Description != "" {
		doc["description"] = p.Description
	}
	if p.Title != "" {
		doc["title"] = p.Title
	}
	if len(p.Enum) > 0 {
		enum := make([]any, len(p.Enum))
		for i, v := range p.Enum {
			enum[i] = v
		}
		doc["enum"] = enum
	}
	if p.Type == TypeObject && p.Properties != nil {
		properties := make(map[string]any, len(p.Properties))
		for name, prop := range p.Properties {
			properties[name] = prop.schemaDocument()
		}
		doc["properties"] = properties
		if len(p.Required) > 0 {
			required := make([]any, len(p.Required))
			for i, r := range p.Required {
				required[i] = r
			}
			doc["required"] = required
		}
	}
	if p.Type == TypeArray && p.Items != nil {
		doc["items"] = p.Items.schemaDocument()
	}
	if p.Default != nil {
		doc["default"] = p.Default
	}
	return doc
}

package browserpilot

import (
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// argumentValidator checks LLM-emitted tool arguments against the tool's
// declared schema before invocation. A violation is a recoverable per-call
// failure, reported back to the LLM like any other tool error.
type argumentValidator struct {
	schemas map[string]*jsonschema.Schema
}

func newArgumentValidator(specs []ToolSpec) (*argumentValidator, error) {
	v := &argumentValidator{
		schemas: make(map[string]*jsonschema.Schema, len(specs)),
	}

	for _, spec := range specs {
		compiler := jsonschema.NewCompiler()
		url := fmt.Sprintf("mem://tools/%s.json", spec.Name)
		if err := compiler.AddResource(url, spec.SchemaDocument()); err != nil {
			return nil, goerr.Wrap(err, "failed to add tool schema", goerr.V("tool", spec.Name))
		}
		schema, err := compiler.Compile(url)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to compile tool schema", goerr.V("tool", spec.Name))
		}
		v.schemas[spec.Name] = schema
	}

	return v, nil
}

// Validate returns an error when args violate the tool's schema. Tools
// without a known schema pass: the provider is the authority on its own
// argument shapes.
func (v *argumentValidator) Validate(name string, args map[string]any) error {
	schema, ok := v.schemas[name]
	if !ok {
		return nil
	}

	doc := make(map[string]any, len(args))
	for k, val := range args {
		doc[k] = val
	}

	if err := schema.Validate(doc); err != nil {
		return goerr.Wrap(err, "tool arguments do not match schema", goerr.V("tool", name))
	}
	return nil
}

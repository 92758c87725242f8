package gemini_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"google.golang.org/genai"

	"github.com/m-mizutani/browserpilot"
	"github.com/m-mizutani/browserpilot/llm/gemini"
)

func TestConvertTool(t *testing.T) {
	tool := browserpilot.ToolSpec{
		Name:        "navigate-url",
		Description: "Navigate the browser to a URL",
		Parameters: map[string]*browserpilot.Parameter{
			"url": {Type: browserpilot.TypeString, Description: "Target URL"},
		},
		Required: []string{"url"},
	}

	decl := gemini.ConvertTool(tool)
	gt.Equal(t, decl.Name, "navigate-url")
	gt.Equal(t, decl.Parameters.Type, genai.TypeObject)
	gt.Equal(t, decl.Parameters.Required, []string{"url"})
	gt.Equal(t, decl.Parameters.Properties["url"].Type, genai.TypeString)
}

func TestConvertToolRequiredNeverNil(t *testing.T) {
	tool := browserpilot.ToolSpec{
		Name:       "take-screenshot",
		Parameters: map[string]*browserpilot.Parameter{},
	}

	decl := gemini.ConvertTool(tool)
	gt.NotEqual(t, decl.Parameters.Required, nil)
	gt.Array(t, decl.Parameters.Required).Length(0)
}

func TestConvertParameterNested(t *testing.T) {
	param := &browserpilot.Parameter{
		Type: browserpilot.TypeArray,
		Items: &browserpilot.Parameter{
			Type: browserpilot.TypeObject,
			Properties: map[string]*browserpilot.Parameter{
				"name": {Type: browserpilot.TypeString},
			},
			Required: []string{"name"},
		},
	}

	schema := gemini.ConvertParameterToSchema(param)
	gt.Equal(t, schema.Type, genai.TypeArray)
	gt.NotEqual(t, schema.Items, nil)
	gt.Equal(t, schema.Items.Type, genai.TypeObject)
	gt.Equal(t, schema.Items.Required, []string{"name"})
}

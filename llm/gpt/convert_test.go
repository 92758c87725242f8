package gpt_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sashabaranov/go-openai"

	"github.com/m-mizutani/browserpilot"
	"github.com/m-mizutani/browserpilot/llm/gpt"
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

	converted := gpt.ConvertTool(tool)
	gt.Equal(t, converted.Type, openai.ToolTypeFunction)
	gt.Equal(t, converted.Function.Name, "navigate-url")

	params := gt.Cast[map[string]any](t, converted.Function.Parameters)
	gt.Equal(t, params["type"], "object")
	gt.Equal[any](t, params["required"], []string{"url"})

	props := gt.Cast[map[string]any](t, params["properties"])
	urlSchema := gt.Cast[map[string]any](t, props["url"])
	gt.Equal(t, urlSchema["type"], "string")
	gt.Equal(t, urlSchema["description"], "Target URL")
}

func TestConvertParameterNested(t *testing.T) {
	param := &browserpilot.Parameter{
		Type: browserpilot.TypeObject,
		Properties: map[string]*browserpilot.Parameter{
			"mode": {Type: browserpilot.TypeString, Enum: []string{"fast", "slow"}},
		},
		Required: []string{"mode"},
	}

	schema := gpt.ConvertParameterToSchema(param)
	gt.Equal(t, schema["type"], "object")
	gt.Equal[any](t, schema["required"], []string{"mode"})

	props := gt.Cast[map[string]any](t, schema["properties"])
	mode := gt.Cast[map[string]any](t, props["mode"])
	gt.Equal[any](t, mode["enum"], []string{"fast", "slow"})
}

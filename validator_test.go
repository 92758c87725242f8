package browserpilot_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/browserpilot"
)

func TestArgumentValidator(t *testing.T) {
	v := gt.R1(browserpilot.NewArgumentValidator([]browserpilot.ToolSpec{
		navigateTool(),
		{
			Name: "set-viewport",
			Parameters: map[string]*browserpilot.Parameter{
				"width":  {Type: browserpilot.TypeInteger},
				"height": {Type: browserpilot.TypeInteger},
			},
			Required: []string{"width", "height"},
		},
	})).NoError(t)

	t.Run("valid arguments pass", func(t *testing.T) {
		gt.NoError(t, v.Validate(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com"}))
		gt.NoError(t, v.Validate("set-viewport", map[string]any{"width": float64(1280), "height": float64(720)}))
	})

	t.Run("missing required argument fails", func(t *testing.T) {
		gt.Error(t, v.Validate(browserpilot.ToolNavigate, map[string]any{}))
		gt.Error(t, v.Validate("set-viewport", map[string]any{"width": float64(1280)}))
	})

	t.Run("wrong type fails", func(t *testing.T) {
		gt.Error(t, v.Validate(browserpilot.ToolNavigate, map[string]any{"url": float64(42)}))
	})

	t.Run("unknown tool passes", func(t *testing.T) {
		gt.NoError(t, v.Validate("mystery-tool", map[string]any{"anything": "goes"}))
	})
}

func TestToolClassification(t *testing.T) {
	cases := []struct {
		name string
		kind browserpilot.ToolKind
	}{
		{browserpilot.ToolCreateSession, browserpilot.ToolKindSession},
		{browserpilot.ToolCloseSession, browserpilot.ToolKindSession},
		{"launch-browser", browserpilot.ToolKindSession},
		{browserpilot.ToolNavigate, browserpilot.ToolKindNavigation},
		{"goto-page", browserpilot.ToolKindNavigation},
		{browserpilot.ToolScreenshot, browserpilot.ToolKindSnapshot},
		{"list-tabs", browserpilot.ToolKindInfo},
		{"describe-page", browserpilot.ToolKindInfo},
		{"extract-text", browserpilot.ToolKindExtraction},
		{"get-title", browserpilot.ToolKindExtraction},
		{"click-element", browserpilot.ToolKindInteraction},
		{"type-text", browserpilot.ToolKindInteraction},
		{"totally-unknown", browserpilot.ToolKindInteraction},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, browserpilot.ClassifyToolForTest(tc.name), tc.kind)
		})
	}
}

func TestToolMutatesPage(t *testing.T) {
	gt.True(t, browserpilot.ToolMutatesPage(browserpilot.ToolNavigate))
	gt.True(t, browserpilot.ToolMutatesPage("click-element"))
	gt.False(t, browserpilot.ToolMutatesPage("extract-text"))
	gt.False(t, browserpilot.ToolMutatesPage(browserpilot.ToolScreenshot))
	gt.False(t, browserpilot.ToolMutatesPage("list-tabs"))
}

package browserpilot_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/browserpilot"
)

func TestRecorderFirstNavigationBecomesStartURL(t *testing.T) {
	r := browserpilot.NewRecorder()
	r.SetSessionID("sess-1")
	r.Observe(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com"})

	state := r.State()
	gt.Equal(t, state.SessionID, "sess-1")
	gt.Equal(t, state.StartURL, "https://example.com")
	gt.Array(t, state.Actions).Length(0)
}

func TestRecorderLaterNavigationsAreActions(t *testing.T) {
	r := browserpilot.NewRecorder()
	r.SetSessionID("sess-1")
	r.Observe(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com"})
	r.Observe("click-element", map[string]any{"selector": "#login"})
	r.Observe(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com/next"})

	state := r.State()
	gt.Equal(t, state.StartURL, "https://example.com")
	gt.Array(t, state.Actions).Length(2)
	gt.Equal(t, state.Actions[0].Tool, "click-element")
	gt.Equal(t, state.Actions[1].Tool, browserpilot.ToolNavigate)
	gt.Equal(t, state.Actions[1].Arguments["url"], "https://example.com/next")
}

func TestRecorderDedupsConsecutiveNavigations(t *testing.T) {
	r := browserpilot.NewRecorder()
	r.SetSessionID("sess-1")
	r.Observe(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com"})
	r.Observe(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com"})

	gt.Array(t, r.State().Actions).Length(0)

	r.Observe("click-element", map[string]any{"selector": "#a"})
	r.Observe(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com/b"})
	r.Observe(browserpilot.ToolNavigate, map[string]any{"url": "https://example.com/b"})

	state := r.State()
	gt.Array(t, state.Actions).Length(2)
	gt.Equal(t, state.Actions[1].Arguments["url"], "https://example.com/b")
}

func TestRecorderSkipsSessionAndInfoTools(t *testing.T) {
	r := browserpilot.NewRecorder()
	r.SetSessionID("sess-1")
	r.Observe(browserpilot.ToolCreateSession, nil)
	r.Observe("list-tabs", nil)
	r.Observe("describe-page", nil)

	gt.Array(t, r.State().Actions).Length(0)
	gt.Equal(t, r.State().StartURL, "")
}

func TestRecorderStripsSessionID(t *testing.T) {
	r := browserpilot.NewRecorder()
	r.SetSessionID("sess-1")
	r.Observe("click-element", map[string]any{
		"selector":                "#submit",
		browserpilot.SessionIDKey: "sess-1",
	})

	state := r.State()
	gt.Array(t, state.Actions).Length(1)
	_, ok := state.Actions[0].Arguments[browserpilot.SessionIDKey]
	gt.False(t, ok)
	gt.Equal(t, state.Actions[0].Arguments["selector"], "#submit")
}

func TestReplayStateValid(t *testing.T) {
	var nilState *browserpilot.ReplayState
	gt.False(t, nilState.Valid())
	gt.False(t, (&browserpilot.ReplayState{}).Valid())
	gt.True(t, (&browserpilot.ReplayState{SessionID: "s"}).Valid())
}

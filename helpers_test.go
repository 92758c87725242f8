package browserpilot_test

import (
	"context"
	"errors"

	"github.com/m-mizutani/browserpilot"
)

// fakeSessionClient is a scriptable tool provider for tests.
type fakeSessionClient struct {
	tools      []browserpilot.ToolSpec
	connectErr error
	createErr  error
	mintedID   string

	// callFn decides the result of each tool call. Defaults to a success
	// with an empty payload.
	callFn func(name string, args map[string]any) *browserpilot.ToolResult

	sessionID    string
	adoptedID    string
	calls        []toolCall
	closeCount   int
	clientClosed bool
}

type toolCall struct {
	Name string
	Args map[string]any
}

func newFakeSessionClient(tools ...browserpilot.ToolSpec) *fakeSessionClient {
	return &fakeSessionClient{
		tools:    tools,
		mintedID: "sess-fake-1",
	}
}

func (f *fakeSessionClient) Connect(ctx context.Context) error {
	return f.connectErr
}

func (f *fakeSessionClient) ListTools(ctx context.Context) ([]browserpilot.ToolSpec, error) {
	return f.tools, nil
}

func (f *fakeSessionClient) CreateSession(ctx context.Context, adopted string) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if adopted != "" {
		f.adoptedID = adopted
		f.sessionID = adopted
		return adopted, nil
	}
	f.sessionID = f.mintedID
	return f.sessionID, nil
}

func (f *fakeSessionClient) SessionID() string {
	return f.sessionID
}

func (f *fakeSessionClient) CallTool(ctx context.Context, name string, args map[string]any) *browserpilot.ToolResult {
	f.calls = append(f.calls, toolCall{Name: name, Args: args})
	if f.callFn != nil {
		return f.callFn(name, args)
	}
	return &browserpilot.ToolResult{Text: "ok"}
}

func (f *fakeSessionClient) CloseSession(ctx context.Context) error {
	f.closeCount++
	f.sessionID = ""
	return nil
}

func (f *fakeSessionClient) Close(ctx context.Context) error {
	f.clientClosed = true
	return nil
}

// calledTools returns the tool names invoked so far, in order.
func (f *fakeSessionClient) calledTools() []string {
	names := make([]string, len(f.calls))
	for i, c := range f.calls {
		names[i] = c.Name
	}
	return names
}

// fakeLLMClient replays a scripted sequence of responses.
type fakeLLMClient struct {
	script []*browserpilot.Response
	err    error

	sessions []*fakeLLMSession
}

func (f *fakeLLMClient) NewSession(ctx context.Context, options ...browserpilot.SessionOption) (browserpilot.LLMSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	session := &fakeLLMSession{
		config: browserpilot.NewSessionConfig(options...),
		script: f.script,
	}
	f.sessions = append(f.sessions, session)
	return session, nil
}

type fakeLLMSession struct {
	config browserpilot.SessionConfig
	script []*browserpilot.Response
	turn   int

	// received records the inputs of each GenerateContent call.
	received [][]browserpilot.Input
}

var errScriptExhausted = errors.New("llm script exhausted")

func (f *fakeLLMSession) GenerateContent(ctx context.Context, input ...browserpilot.Input) (*browserpilot.Response, error) {
	f.received = append(f.received, input)
	if f.turn >= len(f.script) {
		return nil, errScriptExhausted
	}
	resp := f.script[f.turn]
	f.turn++
	return resp, nil
}

func errorIs(err, target error) bool {
	return errors.Is(err, target)
}

func textResponse(text string) *browserpilot.Response {
	return &browserpilot.Response{Texts: []string{text}}
}

func toolResponse(calls ...*browserpilot.FunctionCall) *browserpilot.Response {
	return &browserpilot.Response{FunctionCalls: calls}
}

func call(id, name string, args map[string]any) *browserpilot.FunctionCall {
	return &browserpilot.FunctionCall{ID: id, Name: name, Arguments: args}
}

func navigateTool() browserpilot.ToolSpec {
	return browserpilot.ToolSpec{
		Name:        browserpilot.ToolNavigate,
		Description: "Navigate the browser to a URL",
		Parameters: map[string]*browserpilot.Parameter{
			"url": {Type: browserpilot.TypeString, Description: "Target URL"},
		},
		Required: []string{"url"},
	}
}

func clickTool() browserpilot.ToolSpec {
	return browserpilot.ToolSpec{
		Name:        "click-element",
		Description: "Click an element on the page",
		Parameters: map[string]*browserpilot.Parameter{
			"selector": {Type: browserpilot.TypeString},
		},
		Required: []string{"selector"},
	}
}

func extractTool() browserpilot.ToolSpec {
	return browserpilot.ToolSpec{
		Name:        "extract-text",
		Description: "Extract text content from the page",
		Parameters: map[string]*browserpilot.Parameter{
			"selector": {Type: browserpilot.TypeString},
		},
	}
}

func screenshotTool() browserpilot.ToolSpec {
	return browserpilot.ToolSpec{
		Name:        browserpilot.ToolScreenshot,
		Description: "Capture a screenshot of the current page",
		Parameters:  map[string]*browserpilot.Parameter{},
	}
}

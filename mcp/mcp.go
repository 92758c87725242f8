// Package mcp provides the session client for remote browser-tool providers
// speaking the Model Context Protocol. It owns one browser-session identity
// and transparently injects it into every tool invocation.
package mcp

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/m-mizutani/browserpilot"
)

const clientName = "browserpilot"
const clientVersion = "0.0.1"

// Client talks to one MCP server over stdio or SSE and implements
// browserpilot.SessionClient.
type Client struct {
	// For local MCP server
	path    string
	args    []string
	envVars []string

	// For remote MCP server
	baseURL string
	headers map[string]string

	client     *client.Client
	initResult *mcpgo.InitializeResult
	initMutex  sync.Mutex

	sessionMutex sync.Mutex
	sessionID    string
}

// StdioOption configures a stdio-backed client.
type StdioOption func(*Client)

// WithEnvVars appends environment variables passed to the local MCP server
// process.
func WithEnvVars(envVars []string) StdioOption {
	return func(c *Client) {
		c.envVars = append(c.envVars, envVars...)
	}
}

// NewStdio creates a client that spawns a local MCP server executable and
// speaks to it over stdio.
func NewStdio(path string, args []string, options ...StdioOption) *Client {
	c := &Client{
		path: path,
		args: args,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// SSEOption configures an SSE-backed client.
type SSEOption func(*Client)

// WithHeaders sets the HTTP headers sent to the remote MCP server. It
// replaces the existing headers setting.
func WithHeaders(headers map[string]string) SSEOption {
	return func(c *Client) {
		c.headers = headers
	}
}

// NewSSE creates a client that speaks to a remote MCP server over HTTP SSE.
func NewSSE(baseURL string, options ...SSEOption) *Client {
	c := &Client{
		baseURL: baseURL,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Connect establishes the transport and performs the MCP initialize
// handshake. Idempotent.
func (c *Client) Connect(ctx context.Context) error {
	c.initMutex.Lock()
	defer c.initMutex.Unlock()

	if c.initResult != nil {
		return nil
	}

	var tp transport.Interface
	if c.path != "" {
		tp = transport.NewStdio(c.path, c.envVars, c.args...)
	}

	if c.baseURL != "" {
		sse, err := transport.NewSSE(c.baseURL, transport.WithHeaders(c.headers))
		if err != nil {
			return goerr.Wrap(err, "failed to create SSE transport")
		}
		tp = sse
	}

	if tp == nil {
		return goerr.New("no transport: either path or baseURL is required")
	}

	c.client = client.NewClient(tp)

	if err := c.client.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start MCP client")
	}

	var initRequest mcpgo.InitializeRequest
	initRequest.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcpgo.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}

	resp, err := c.client.Initialize(ctx, initRequest)
	if err != nil {
		return goerr.Wrap(err, "failed to initialize MCP client")
	}
	c.initResult = resp

	return nil
}

// ListTools returns the provider's invocable tools. Session-lifecycle tools
// are managed by this client and hidden from the caller.
func (c *Client) ListTools(ctx context.Context) ([]browserpilot.ToolSpec, error) {
	if c.initResult == nil {
		return nil, goerr.New("MCP client not initialized")
	}

	resp, err := c.client.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list tools")
	}

	specs := make([]browserpilot.ToolSpec, 0, len(resp.Tools))
	for _, tool := range resp.Tools {
		if browserpilot.IsSessionTool(tool.Name) {
			continue
		}
		spec, err := toolToSpec(tool)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert tool schema", goerr.V("tool", tool.Name))
		}
		specs = append(specs, spec)
	}

	return specs, nil
}

// CreateSession acquires a browser-session identity. A non-empty adopted ID
// is taken over without a remote call; otherwise the provider's
// session-creation tool is invoked and the identity extracted from its
// response.
func (c *Client) CreateSession(ctx context.Context, adopted string) (string, error) {
	c.sessionMutex.Lock()
	defer c.sessionMutex.Unlock()

	if adopted != "" {
		c.sessionID = adopted
		return adopted, nil
	}

	result := c.invoke(ctx, browserpilot.ToolCreateSession, map[string]any{})
	if result.Failed() {
		return "", goerr.New("session creation tool failed", goerr.V("error", result.Error))
	}
	if result.SessionID == "" {
		return "", goerr.New("provider response carries no session identity", goerr.V("response", result.Text))
	}

	c.sessionID = result.SessionID
	return c.sessionID, nil
}

// SessionID returns the currently held session identity, or "".
func (c *Client) SessionID() string {
	c.sessionMutex.Lock()
	defer c.sessionMutex.Unlock()
	return c.sessionID
}

// CallTool injects the held session identity and invokes the remote tool.
// Failures are reported in the result, never as a Go error.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) *browserpilot.ToolResult {
	return c.invoke(ctx, name, c.injectSessionID(args))
}

func (c *Client) invoke(ctx context.Context, name string, args map[string]any) *browserpilot.ToolResult {
	if c.initResult == nil {
		return &browserpilot.ToolResult{Error: "MCP client not initialized"}
	}

	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	resp, err := c.client.CallTool(ctx, req)
	if err != nil {
		return &browserpilot.ToolResult{Error: err.Error()}
	}

	return parseResult(resp)
}

// CloseSession releases the held identity via the provider's close tool.
// The identity is dropped even when the remote call fails, so a retry never
// targets a half-closed session.
func (c *Client) CloseSession(ctx context.Context) error {
	c.sessionMutex.Lock()
	id := c.sessionID
	c.sessionID = ""
	c.sessionMutex.Unlock()

	if id == "" {
		return nil
	}

	result := c.invoke(ctx, browserpilot.ToolCloseSession, map[string]any{
		browserpilot.SessionIDKey: id,
	})
	if result.Failed() {
		return goerr.New("failed to close session", goerr.V("session_id", id), goerr.V("error", result.Error))
	}
	return nil
}

// Close releases the session and tears down the transport.
func (c *Client) Close(ctx context.Context) error {
	if err := c.CloseSession(ctx); err != nil {
		browserpilot.LoggerFromContext(ctx).Warn("failed to close session on shutdown", "error", err)
	}

	c.initMutex.Lock()
	defer c.initMutex.Unlock()
	if c.client == nil {
		return nil
	}
	if err := c.client.Close(); err != nil {
		return goerr.Wrap(err, "failed to close MCP client")
	}
	c.client = nil
	c.initResult = nil
	return nil
}

// injectSessionID returns args with the held identity added. The caller's
// map is never mutated. An identity already present in args is preserved.
func (c *Client) injectSessionID(args map[string]any) map[string]any {
	c.sessionMutex.Lock()
	id := c.sessionID
	c.sessionMutex.Unlock()

	if id == "" {
		return args
	}
	if _, ok := args[browserpilot.SessionIDKey]; ok {
		return args
	}

	injected := make(map[string]any, len(args)+1)
	for k, v := range args {
		injected[k] = v
	}
	injected[browserpilot.SessionIDKey] = id
	return injected
}

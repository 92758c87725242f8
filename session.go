package browserpilot

import (
	"context"
	"encoding/base64"
	"strings"
)

// Reserved tool names known to the session client. The provider must expose
// create/close session tools under these names; navigation and screenshot
// names are used by the orchestrator and replay executor.
const (
	ToolCreateSession = "create-session"
	ToolCloseSession  = "close-session"
	ToolNavigate      = "navigate-url"
	ToolScreenshot    = "take-screenshot"
)

// SessionIDKey is the argument key carrying the session identity on every
// remote call. The session client injects it; the trace recorder strips it.
const SessionIDKey = "session_id"

// SessionClient is the single point of contact with the remote tool
// provider. It owns one browser-session identity and hides identity
// bookkeeping from callers.
type SessionClient interface {
	// Connect establishes the underlying transport. Idempotent.
	Connect(ctx context.Context) error

	// ListTools returns the invocable tools. An empty set is not an error.
	ListTools(ctx context.Context) ([]ToolSpec, error)

	// CreateSession acquires a session identity. When adopted is non-empty
	// it is taken over directly without a remote call (replay path);
	// otherwise a fresh identity is minted via the provider's
	// session-creation tool.
	CreateSession(ctx context.Context, adopted string) (string, error)

	// SessionID returns the currently held session identity, or "".
	SessionID() string

	// CallTool injects the held identity and invokes the remote tool.
	// Invocation failures are data, not errors: the result carries an error
	// string so the orchestration loop can report a failed step to the LLM
	// and keep going.
	CallTool(ctx context.Context, name string, args map[string]any) *ToolResult

	// CloseSession releases the held identity via the provider's close
	// tool. Safe to call multiple times; never panics past its boundary.
	CloseSession(ctx context.Context) error

	// Close releases the session and tears down the transport.
	Close(ctx context.Context) error
}

// Snapshot is a visual capture of page state, normalized to one embeddable
// representation regardless of which encoding the provider used.
type Snapshot struct {
	MediaType string
	Data      []byte
}

// Base64 returns the base64 encoded snapshot data.
func (s *Snapshot) Base64() string {
	return base64.StdEncoding.EncodeToString(s.Data)
}

// DataURL returns the snapshot as an embeddable data URL.
func (s *Snapshot) DataURL() string {
	return "data:" + s.MediaType + ";base64," + s.Base64()
}

// ToolResult is the normalized outcome of one remote tool invocation.
type ToolResult struct {
	// Text is the concatenated text content of the response.
	Text string

	// Data is the structured payload when the response text was a JSON
	// object, nil otherwise.
	Data map[string]any

	// Snapshot is the extracted visual capture, if any.
	Snapshot *Snapshot

	// SessionID is the session identity learned from the response, if the
	// provider emitted one.
	SessionID string

	// Error is the invocation failure, if any. A non-empty Error means the
	// call did not take effect.
	Error string
}

// Failed reports whether the invocation failed.
func (r *ToolResult) Failed() bool {
	return r.Error != ""
}

// Payload returns the result as a map suitable for feeding back to the LLM.
func (r *ToolResult) Payload() map[string]any {
	if r.Data != nil {
		return r.Data
	}
	return map[string]any{"result": r.Text}
}

type toolKind int

const (
	toolKindSession toolKind = iota
	toolKindNavigation
	toolKindInteraction
	toolKindExtraction
	toolKindSnapshot
	toolKindInfo
)

var interactionVerbs = []string{"click", "type", "press", "fill", "select", "scroll", "hover", "drag", "act", "interact", "submit"}
var extractionVerbs = []string{"extract", "get-", "read", "query", "snapshot-dom", "evaluate"}

// classifyTool decides how a tool participates in tracing and snapshot
// policy. Unknown tools default to interaction: recording too much is
// recoverable at replay time, dropping a state change is not.
func classifyTool(name string) toolKind {
	lower := strings.ToLower(name)

	switch lower {
	case ToolCreateSession, ToolCloseSession,
		"launch-browser", "shutdown-browser", "attach-session", "fork-session":
		return toolKindSession
	case ToolScreenshot, "screenshot":
		return toolKindSnapshot
	}

	if strings.Contains(lower, "navigate") || strings.Contains(lower, "goto") {
		return toolKindNavigation
	}
	if strings.HasPrefix(lower, "list-") || strings.HasPrefix(lower, "describe-") {
		return toolKindInfo
	}
	for _, verb := range extractionVerbs {
		if strings.Contains(lower, verb) {
			return toolKindExtraction
		}
	}
	for _, verb := range interactionVerbs {
		if strings.Contains(lower, verb) {
			return toolKindInteraction
		}
	}

	return toolKindInteraction
}

// IsSessionTool reports whether the tool manages session lifecycle. Such
// tools are driven by the session client itself and are hidden from callers.
func IsSessionTool(name string) bool {
	return classifyTool(name) == toolKindSession
}

// toolMutatesPage reports whether the tool plausibly changed visible page
// state, which triggers a proactive snapshot when the call itself returned
// none.
func toolMutatesPage(name string) bool {
	switch classifyTool(name) {
	case toolKindNavigation, toolKindInteraction:
		return true
	}
	return false
}

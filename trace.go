package browserpilot

// RecordedAction is one state-changing tool invocation stored for later
// replay. The session identity is stripped from the arguments because it is
// re-injected at replay time.
type RecordedAction struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ReplayState is the durable record needed to replay a task: the session
// identity, an optional primary URL, and the ordered actions in exact
// execution order.
type ReplayState struct {
	SessionID string           `json:"session_id"`
	StartURL  string           `json:"start_url,omitempty"`
	Actions   []RecordedAction `json:"actions"`
}

// Valid reports whether the trace is persistable. A trace with zero actions
// is legitimate (navigation-only tasks); one without a session identity is
// not.
func (s *ReplayState) Valid() bool {
	return s != nil && s.SessionID != ""
}

// Recorder accumulates the replay record as a side effect of the
// orchestration loop's tool calls. Observe must be called in strict call
// order, only for calls that succeeded.
type Recorder struct {
	state ReplayState
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// SetSessionID binds the trace to a session identity.
func (r *Recorder) SetSessionID(id string) {
	r.state.SessionID = id
}

// Observe inspects one completed tool call and decides whether and how to
// append it to the trace. It is a pure function of (tool name, arguments):
//   - navigation calls capture their target URL, the first one specially as
//     the primary URL; consecutive identical navigations are collapsed
//   - interaction, extraction and snapshot calls are appended verbatim with
//     the session identity stripped
//   - session-lifecycle and purely informational calls are not recorded
func (r *Recorder) Observe(name string, args map[string]any) {
	switch classifyTool(name) {
	case toolKindSession, toolKindInfo:
		return

	case toolKindNavigation:
		url, _ := args["url"].(string)
		if url != "" && url == r.lastNavigationURL() {
			return
		}
		if r.state.StartURL == "" && len(r.state.Actions) == 0 {
			r.state.StartURL = url
			return
		}
		r.append(name, args)

	default:
		r.append(name, args)
	}
}

// State returns the accumulated replay state. Ownership transfers to the
// caller once the task terminates; the recorder must not be reused after.
func (r *Recorder) State() *ReplayState {
	return &r.state
}

func (r *Recorder) append(name string, args map[string]any) {
	r.state.Actions = append(r.state.Actions, RecordedAction{
		Tool:      name,
		Arguments: stripSessionID(args),
	})
}

// lastNavigationURL returns the URL of the most recent recorded action if it
// was a navigation, or the primary URL when no action has been recorded yet.
func (r *Recorder) lastNavigationURL() string {
	if len(r.state.Actions) == 0 {
		return r.state.StartURL
	}
	last := r.state.Actions[len(r.state.Actions)-1]
	if classifyTool(last.Tool) != toolKindNavigation {
		return ""
	}
	url, _ := last.Arguments["url"].(string)
	return url
}

func stripSessionID(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	stripped := make(map[string]any, len(args))
	for k, v := range args {
		if k == SessionIDKey {
			continue
		}
		stripped[k] = v
	}
	return stripped
}

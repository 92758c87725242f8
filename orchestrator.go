package browserpilot

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultLoopLimit bounds runaway plan-act-observe loops.
const DefaultLoopLimit = 16

// DefaultSystemPrompt instructs the LLM how to drive the browser tools. The
// session identity is deliberately not mentioned: the session client injects
// it into every call.
const DefaultSystemPrompt = `You are a browser automation assistant. You control a real browser through the provided tools.

Work step by step: navigate first, observe the page, then interact. Prefer
extraction and observation tools before clicking or typing. When the task is
done, reply with a plain text summary of the outcome and stop calling tools.`

type orchestratorConfig struct {
	loopLimit    int
	systemPrompt string
	logger       *slog.Logger
	sink         LogSink
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*orchestratorConfig)

// WithLoopLimit sets the maximum number of plan-act-observe iterations.
func WithLoopLimit(limit int) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		cfg.loopLimit = limit
	}
}

// WithSystemPrompt overrides the built-in system prompt.
func WithSystemPrompt(prompt string) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		cfg.systemPrompt = prompt
	}
}

// WithLogger sets the logger. Default is a discard logger.
func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		cfg.logger = logger
	}
}

// WithLogSink sets the sink receiving task log entries.
func WithLogSink(sink LogSink) OrchestratorOption {
	return func(cfg *orchestratorConfig) {
		cfg.sink = sink
	}
}

// Orchestrator turns one natural-language prompt into a bounded sequence of
// tool invocations, producing a final answer or a definitive failure while
// recording a replayable trace. One instance drives exactly one task.
type Orchestrator struct {
	llm     LLMClient
	session SessionClient
	config  orchestratorConfig

	cancelled atomic.Bool
	recorder  *Recorder
}

// NewOrchestrator creates an orchestrator bound to one LLM client and one
// session client. The session client's identity is exclusively owned by this
// instance for the duration of the task.
func NewOrchestrator(llm LLMClient, session SessionClient, options ...OrchestratorOption) *Orchestrator {
	cfg := orchestratorConfig{
		loopLimit:    DefaultLoopLimit,
		systemPrompt: DefaultSystemPrompt,
		logger:       defaultLogger,
		sink:         discardSink{},
	}
	for _, opt := range options {
		opt(&cfg)
	}

	return &Orchestrator{
		llm:      llm,
		session:  session,
		config:   cfg,
		recorder: NewRecorder(),
	}
}

// Cancel requests cooperative cancellation. The flag is observed at the top
// of each loop iteration, immediately after each LLM response and between
// the tool calls of a turn; at most one in-flight tool call completes after
// the request.
func (x *Orchestrator) Cancel() {
	x.cancelled.Store(true)
}

// Trace returns the replay state accumulated so far. After Execute returns,
// the trace is immutable and ownership transfers to the caller.
func (x *Orchestrator) Trace() *ReplayState {
	return x.recorder.State()
}

// Execute drives the task to a terminal status. Fatal errors never escape:
// they are converted to a failed status with a human-readable message, and
// the session is closed on every exit path. The accumulated trace is
// attached to the task regardless of success or failure.
func (x *Orchestrator) Execute(ctx context.Context, task *Task) error {
	logger := x.config.logger.With("task_id", task.ID)
	ctx = ctxWithLogger(ctx, logger)
	emitter := newLogEmitter(task.ID, x.config.sink)

	task.markRunning()
	logger.Info("task started", "prompt", task.Prompt)
	emitter.info(ctx, "Task started", map[string]any{"prompt": task.Prompt})

	result, err := x.run(ctx, task, emitter)

	if trace := x.recorder.State(); trace.Valid() {
		task.Trace = trace
	}

	if err != nil {
		task.fail(err)
		logger.Error("task failed", "error", err)
		emitter.error(ctx, "Task failed: "+err.Error(), nil)
		return err
	}

	task.complete(result)
	logger.Info("task completed", "result", result)
	emitter.success(ctx, "Task completed", map[string]any{"result": result})
	return nil
}

func (x *Orchestrator) run(ctx context.Context, task *Task, emitter *logEmitter) (string, error) {
	logger := LoggerFromContext(ctx)

	if err := x.session.Connect(ctx); err != nil {
		return "", goerr.Wrap(ErrConnectionFailed, "cannot reach tool provider", goerr.V("cause", err.Error()))
	}
	defer x.closeSession(ctx, emitter)

	tools, err := x.session.ListTools(ctx)
	if err != nil {
		return "", goerr.Wrap(ErrConnectionFailed, "failed to enumerate tools", goerr.V("cause", err.Error()))
	}
	if len(tools) == 0 {
		return "", goerr.Wrap(ErrNoToolsAvailable, "provider reported no tools")
	}

	validator, err := newArgumentValidator(tools)
	if err != nil {
		logger.Warn("tool schema compilation failed, argument validation disabled", "error", err)
		validator = &argumentValidator{}
	}

	sessionID, err := x.session.CreateSession(ctx, "")
	if err != nil {
		return "", goerr.Wrap(ErrSessionCreationFailed, "provider did not yield a session identity", goerr.V("cause", err.Error()))
	}
	x.recorder.SetSessionID(sessionID)
	emitter.info(ctx, "Browser session created", map[string]any{"session_id": sessionID})

	llmSession, err := x.llm.NewSession(ctx,
		WithSessionSystemPrompt(x.config.systemPrompt),
		WithSessionTools(tools...),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open LLM session")
	}

	input := []Input{Text(task.Prompt)}

	for i := 0; i < x.config.loopLimit; i++ {
		if x.cancelled.Load() {
			return "", goerr.Wrap(ErrCancelled, "cancelled by user")
		}

		logger.Debug("llm turn", "loop", i, "inputs", len(input))
		resp, err := llmSession.GenerateContent(ctx, input...)
		if err != nil {
			return "", goerr.Wrap(err, "LLM request failed", goerr.V("loop", i))
		}

		if x.cancelled.Load() {
			return "", goerr.Wrap(ErrCancelled, "cancelled by user")
		}

		if !resp.HasToolCalls() {
			return resp.Text(), nil
		}

		input = x.executeToolCalls(ctx, resp.FunctionCalls, validator, emitter)
	}

	return "", goerr.Wrap(ErrLoopLimitExceeded, "task did not converge", goerr.V("loop_limit", x.config.loopLimit))
}

// executeToolCalls runs one LLM turn's tool calls sequentially in emission
// order. All results are collected before the next LLM turn so the LLM never
// sees interleaved partial results.
func (x *Orchestrator) executeToolCalls(ctx context.Context, calls []*FunctionCall, validator *argumentValidator, emitter *logEmitter) []Input {
	logger := LoggerFromContext(ctx)
	input := make([]Input, 0, len(calls))

	for _, call := range calls {
		if x.cancelled.Load() {
			// Remaining calls are abandoned; the loop top reports the
			// cancellation before anything reaches the LLM.
			break
		}

		logger.Debug("tool call", "name", call.Name, "args", call.Arguments)
		emitter.info(ctx, "Executing tool: "+call.Name, map[string]any{"arguments": call.Arguments})

		if err := validator.Validate(call.Name, call.Arguments); err != nil {
			logger.Info("tool arguments rejected", "name", call.Name, "error", err)
			emitter.warning(ctx, "Invalid arguments for "+call.Name, map[string]any{"error": err.Error()})
			input = append(input, FunctionResponse{ID: call.ID, Name: call.Name, Error: err})
			continue
		}

		result := x.session.CallTool(ctx, call.Name, call.Arguments)
		if result.Failed() {
			logger.Info("tool call failed", "name", call.Name, "error", result.Error)
			emitter.error(ctx, "Tool "+call.Name+" failed: "+result.Error, nil)
			input = append(input, FunctionResponse{
				ID:    call.ID,
				Name:  call.Name,
				Error: errors.New(result.Error),
			})
			continue
		}

		x.recorder.Observe(call.Name, call.Arguments)
		emitter.emit(ctx, LogLevelSuccess, "Tool "+call.Name+" succeeded", nil, result.Snapshot)

		input = append(input, FunctionResponse{
			ID:   call.ID,
			Name: call.Name,
			Data: result.Payload(),
		})

		if snapshot := x.visualFeedback(ctx, call.Name, result, emitter); snapshot != nil {
			if img, err := NewImage(snapshot.Data, snapshot.MediaType); err == nil {
				input = append(input, img)
			}
		}
	}

	return input
}

// visualFeedback returns the snapshot to attach to the conversation after a
// tool call: the call's own snapshot when it produced one, otherwise a
// proactively captured one for tools that plausibly changed visible page
// state. Capture failures are warnings, not task failures.
func (x *Orchestrator) visualFeedback(ctx context.Context, toolName string, result *ToolResult, emitter *logEmitter) *Snapshot {
	if result.Snapshot != nil {
		return result.Snapshot
	}
	// A proactive capture is a fresh remote call; never issue one after a
	// cancellation request.
	if x.cancelled.Load() || !toolMutatesPage(toolName) {
		return nil
	}

	shot := x.session.CallTool(ctx, ToolScreenshot, map[string]any{})
	if shot.Failed() || shot.Snapshot == nil {
		LoggerFromContext(ctx).Warn("snapshot capture failed", "tool", toolName, "error", shot.Error)
		emitter.warning(ctx, "Snapshot capture failed after "+toolName, nil)
		return nil
	}
	emitter.emit(ctx, LogLevelInfo, "Page snapshot captured", nil, shot.Snapshot)
	return shot.Snapshot
}

// closeSession is the guaranteed cleanup step. It must always complete, so
// failures are logged and swallowed.
func (x *Orchestrator) closeSession(ctx context.Context, emitter *logEmitter) {
	if err := x.session.CloseSession(ctx); err != nil {
		LoggerFromContext(ctx).Warn("failed to close browser session", "error", err)
		emitter.warning(ctx, "Failed to close browser session", map[string]any{"error": err.Error()})
		return
	}
	emitter.info(ctx, "Browser session closed", nil)
}

package browserpilot

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
)

// ReplayExecutor re-runs a recorded trace against a session client without
// consulting the LLM. It adopts the recorded session identity, performs the
// primary navigation, then issues the recorded actions one by one in order.
type ReplayExecutor struct {
	session SessionClient
	config  orchestratorConfig

	cancelled atomic.Bool
}

// NewReplayExecutor creates a replay executor bound to one session client.
// It accepts the same options as the orchestrator; the loop limit and system
// prompt are ignored.
func NewReplayExecutor(session SessionClient, options ...OrchestratorOption) *ReplayExecutor {
	cfg := orchestratorConfig{
		logger: defaultLogger,
		sink:   discardSink{},
	}
	for _, opt := range options {
		opt(&cfg)
	}

	return &ReplayExecutor{
		session: session,
		config:  cfg,
	}
}

// Cancel requests cooperative cancellation, observed between actions.
func (x *ReplayExecutor) Cancel() {
	x.cancelled.Store(true)
}

// Execute replays the trace and drives the task to a terminal status. The
// primary navigation must succeed; individual recorded actions may fail
// without aborting the run. The session is closed on every exit path.
func (x *ReplayExecutor) Execute(ctx context.Context, task *Task, trace *ReplayState) error {
	logger := x.config.logger.With("task_id", task.ID)
	ctx = ctxWithLogger(ctx, logger)
	emitter := newLogEmitter(task.ID, x.config.sink)

	task.markRunning()
	logger.Info("replay started", "replay_of", task.ReplayOf, "actions", traceLen(trace))
	emitter.info(ctx, "Replay started", map[string]any{"replay_of": task.ReplayOf})

	result, err := x.run(ctx, trace, emitter)
	if err != nil {
		task.fail(err)
		logger.Error("replay failed", "error", err)
		emitter.error(ctx, "Replay failed: "+err.Error(), nil)
		return err
	}

	task.complete(result)
	logger.Info("replay completed", "result", result)
	emitter.success(ctx, "Replay completed", map[string]any{"result": result})
	return nil
}

func (x *ReplayExecutor) run(ctx context.Context, trace *ReplayState, emitter *logEmitter) (string, error) {
	if trace == nil {
		return "", goerr.Wrap(ErrNoTrace, "task has no recorded trace")
	}
	if !trace.Valid() {
		return "", goerr.Wrap(ErrInvalidTrace, "trace has no session identity")
	}

	logger := LoggerFromContext(ctx)

	if err := x.session.Connect(ctx); err != nil {
		return "", goerr.Wrap(ErrConnectionFailed, "cannot reach tool provider", goerr.V("cause", err.Error()))
	}
	defer func() {
		if err := x.session.CloseSession(ctx); err != nil {
			logger.Warn("failed to close browser session", "error", err)
		}
	}()

	if _, err := x.session.CreateSession(ctx, trace.SessionID); err != nil {
		return "", goerr.Wrap(ErrSessionCreationFailed, "failed to adopt recorded session", goerr.V("cause", err.Error()))
	}
	emitter.info(ctx, "Adopted recorded session", map[string]any{"session_id": trace.SessionID})

	if trace.StartURL != "" {
		if err := x.navigate(ctx, trace.StartURL, emitter); err != nil {
			return "", err
		}
	}

	failed := 0
	for i, action := range trace.Actions {
		if x.cancelled.Load() {
			return "", goerr.Wrap(ErrCancelled, "cancelled by user")
		}

		logger.Debug("replay action", "index", i, "tool", action.Tool, "args", action.Arguments)
		emitter.info(ctx, fmt.Sprintf("Replaying step %d/%d: %s", i+1, len(trace.Actions), action.Tool),
			map[string]any{"arguments": action.Arguments})

		result := x.session.CallTool(ctx, action.Tool, action.Arguments)
		if result.Failed() {
			failed++
			logger.Info("replay action failed", "index", i, "tool", action.Tool, "error", result.Error)
			emitter.error(ctx, fmt.Sprintf("Step %d failed: %s", i+1, result.Error), nil)
			continue
		}

		emitter.emit(ctx, LogLevelSuccess, fmt.Sprintf("Step %d succeeded", i+1), nil, result.Snapshot)
		x.captureAfter(ctx, action.Tool, result, emitter)
	}

	return replaySummary(len(trace.Actions), failed), nil
}

// navigate performs the primary navigation. Unlike recorded actions, this
// failure is fatal: every subsequent action assumes the page it targets.
func (x *ReplayExecutor) navigate(ctx context.Context, url string, emitter *logEmitter) error {
	emitter.info(ctx, "Navigating to "+url, nil)
	result := x.session.CallTool(ctx, ToolNavigate, map[string]any{"url": url})
	if result.Failed() {
		return goerr.Wrap(ErrNavigationFailed, "primary navigation failed",
			goerr.V("url", url), goerr.V("cause", result.Error))
	}
	emitter.emit(ctx, LogLevelSuccess, "Navigation succeeded", nil, result.Snapshot)
	x.captureAfter(ctx, ToolNavigate, result, emitter)
	return nil
}

// captureAfter records a fresh snapshot in the log stream after a
// page-mutating action, so a replay has the same visual record as the
// original run. Failures are only logged.
func (x *ReplayExecutor) captureAfter(ctx context.Context, toolName string, result *ToolResult, emitter *logEmitter) {
	if result.Snapshot != nil || !toolMutatesPage(toolName) {
		return
	}
	shot := x.session.CallTool(ctx, ToolScreenshot, map[string]any{})
	if shot.Failed() || shot.Snapshot == nil {
		LoggerFromContext(ctx).Warn("snapshot capture failed during replay", "tool", toolName, "error", shot.Error)
		return
	}
	emitter.emit(ctx, LogLevelInfo, "Page snapshot captured", nil, shot.Snapshot)
}

func replaySummary(total, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("Replayed %d recorded actions", total)
	}
	return fmt.Sprintf("Replayed %d recorded actions (%d failed)", total, failed)
}

func traceLen(trace *ReplayState) int {
	if trace == nil {
		return 0
	}
	return len(trace.Actions)
}

package browserpilot

import (
	"context"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// SessionClientFactory produces a fresh session client per task. Each task
// must own its session identity exclusively, so clients are never shared
// across executions.
type SessionClientFactory func(ctx context.Context) (SessionClient, error)

type canceller interface {
	Cancel()
}

type managerConfig struct {
	tasks        TaskRepository
	logs         LogRepository
	sink         LogSink
	orchestrator []OrchestratorOption
}

// ManagerOption configures a Manager.
type ManagerOption func(*managerConfig)

// WithTaskRepository overrides the default in-memory task store.
func WithTaskRepository(repo TaskRepository) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.tasks = repo
	}
}

// WithLogRepository overrides the default in-memory log store.
func WithLogRepository(repo LogRepository) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.logs = repo
	}
}

// WithManagerLogSink adds a sink receiving every log entry in addition to
// the log repository.
func WithManagerLogSink(sink LogSink) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.sink = sink
	}
}

// WithOrchestratorOptions passes options through to each task's orchestrator
// and replay executor.
func WithOrchestratorOptions(options ...OrchestratorOption) ManagerOption {
	return func(cfg *managerConfig) {
		cfg.orchestrator = append(cfg.orchestrator, options...)
	}
}

// Manager owns the task lifecycle: it accepts prompts and replay requests,
// enforces the one-running-task invariant, runs each task on its own
// goroutine with a fresh session client, and persists tasks and logs.
type Manager struct {
	llm     LLMClient
	factory SessionClientFactory
	config  managerConfig

	mu      sync.Mutex
	wg      sync.WaitGroup
	running canceller
	current string
}

// NewManager creates a manager. The LLM client is shared across tasks; the
// factory is invoked once per task.
func NewManager(llm LLMClient, factory SessionClientFactory, options ...ManagerOption) *Manager {
	store := NewMemoryStore()
	cfg := managerConfig{
		tasks: store,
		logs:  store,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	return &Manager{
		llm:     llm,
		factory: factory,
		config:  cfg,
	}
}

// Submit validates the prompt, registers the task and starts executing it in
// the background. It returns immediately with a snapshot of the task in
// running state; the live task is owned by the execution goroutine.
func (m *Manager) Submit(ctx context.Context, prompt string) (*Task, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, goerr.Wrap(ErrEmptyPrompt, "prompt must not be empty")
	}

	task := NewTask(prompt)
	run := func(ctx context.Context, session SessionClient) (canceller, func(context.Context) error) {
		orch := NewOrchestrator(m.llm, session, m.orchestratorOptions(task)...)
		return orch, func(ctx context.Context) error {
			return orch.Execute(ctx, task)
		}
	}

	return m.start(ctx, task, run)
}

// Replay registers a new task that re-runs the recorded trace of the given
// task. The trace is consumed: once a replay has been started the source
// task no longer carries it.
func (m *Manager) Replay(ctx context.Context, taskID string) (*Task, error) {
	source, err := m.config.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	trace := source.Trace
	if !trace.Valid() {
		return nil, goerr.Wrap(ErrNoTrace, "task has no recorded trace", goerr.V("task_id", taskID))
	}

	task := NewReplayTask(source)
	run := func(ctx context.Context, session SessionClient) (canceller, func(context.Context) error) {
		exec := NewReplayExecutor(session, m.orchestratorOptions(task)...)
		return exec, func(ctx context.Context) error {
			return exec.Execute(ctx, task, trace)
		}
	}

	snapshot, err := m.start(ctx, task, run)
	if err != nil {
		return nil, err
	}

	source.Trace = nil
	if err := m.config.tasks.PutTask(ctx, source); err != nil {
		LoggerFromContext(ctx).Warn("failed to clear consumed trace", "task_id", source.ID, "error", err)
	}
	return snapshot, nil
}

// Cancel requests cooperative cancellation of the given running task.
func (m *Manager) Cancel(ctx context.Context, taskID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running == nil || m.current != taskID {
		task, err := m.config.tasks.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		return goerr.Wrap(ErrInvalidInput, "task is not running", goerr.V("task_id", taskID), goerr.V("status", task.Status))
	}

	m.running.Cancel()
	return nil
}

// Task returns one task by ID.
func (m *Manager) Task(ctx context.Context, taskID string) (*Task, error) {
	return m.config.tasks.GetTask(ctx, taskID)
}

// Tasks returns all tasks, newest first.
func (m *Manager) Tasks(ctx context.Context) ([]*Task, error) {
	return m.config.tasks.ListTasks(ctx)
}

// Logs returns the log stream of one task in emission order.
func (m *Manager) Logs(ctx context.Context, taskID string) ([]*LogEntry, error) {
	if _, err := m.config.tasks.GetTask(ctx, taskID); err != nil {
		return nil, err
	}
	return m.config.logs.ListLogs(ctx, taskID)
}

// Wait blocks until no task is running. Intended for tests and shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

type taskRun func(ctx context.Context, session SessionClient) (canceller, func(context.Context) error)

// start claims the single execution slot, marks the task running, persists
// it and launches the run on a background goroutine. The returned task is a
// snapshot taken before the goroutine starts; after that the live task
// belongs exclusively to the goroutine. The slot is released when the run
// terminates.
func (m *Manager) start(ctx context.Context, task *Task, run taskRun) (*Task, error) {
	m.mu.Lock()
	if m.running != nil {
		m.mu.Unlock()
		return nil, goerr.Wrap(ErrTaskAlreadyRunning, "another task is running", goerr.V("running_task_id", m.current))
	}

	session, err := m.factory(ctx)
	if err != nil {
		m.mu.Unlock()
		return nil, goerr.Wrap(ErrConnectionFailed, "failed to create session client", goerr.V("cause", err.Error()))
	}

	cancel, execute := run(ctx, session)
	m.running = cancel
	m.current = task.ID
	m.wg.Add(1)
	m.mu.Unlock()

	task.markRunning()
	if err := m.config.tasks.PutTask(ctx, task); err != nil {
		m.release()
		_ = session.Close(ctx)
		return nil, err
	}
	snapshot := task.clone()

	logger := LoggerFromContext(ctx)
	go func() {
		// Detach from the request context: the task outlives the HTTP call
		// that submitted it.
		runCtx := ctxWithLogger(context.Background(), logger)
		defer m.release()
		defer func() {
			if err := session.Close(runCtx); err != nil {
				logger.Warn("failed to close session client", "task_id", task.ID, "error", err)
			}
		}()

		_ = execute(runCtx)
		if err := m.config.tasks.PutTask(runCtx, task); err != nil {
			logger.Error("failed to persist finished task", "task_id", task.ID, "error", err)
		}
	}()

	return snapshot, nil
}

func (m *Manager) release() {
	m.mu.Lock()
	m.running = nil
	m.current = ""
	m.mu.Unlock()
	m.wg.Done()
}

// orchestratorOptions assembles the per-task option set: configured options
// plus a sink that persists every entry and forwards to the external sink.
func (m *Manager) orchestratorOptions(task *Task) []OrchestratorOption {
	sink := MultiSink{m.storeSink()}
	if m.config.sink != nil {
		sink = append(sink, m.config.sink)
	}

	options := make([]OrchestratorOption, 0, len(m.config.orchestrator)+1)
	options = append(options, m.config.orchestrator...)
	options = append(options, WithLogSink(sink))
	return options
}

func (m *Manager) storeSink() LogSink {
	return LogSinkFunc(func(ctx context.Context, entry *LogEntry) {
		if err := m.config.logs.AppendLog(ctx, entry); err != nil {
			LoggerFromContext(ctx).Warn("failed to persist log entry", "task_id", entry.TaskID, "error", err)
		}
	})
}

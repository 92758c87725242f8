package browserpilot

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// LogLevel is the severity of an observable event.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelSuccess LogLevel = "success"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// LogEntry is one observable event emitted during task execution.
// Append-only; produced by the orchestration loop and the replay executor,
// consumed by external observers.
type LogEntry struct {
	ID        string         `json:"id"`
	TaskID    string         `json:"task_id"`
	Level     LogLevel       `json:"level"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Snapshot  string         `json:"snapshot,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// LogSink receives log entries as they are emitted. Implementations must not
// block the execution loop; slow consumers should buffer internally.
type LogSink interface {
	Emit(ctx context.Context, entry *LogEntry)
}

// LogSinkFunc adapts a function to the LogSink interface.
type LogSinkFunc func(ctx context.Context, entry *LogEntry)

func (f LogSinkFunc) Emit(ctx context.Context, entry *LogEntry) {
	f(ctx, entry)
}

// MultiSink fans out entries to multiple sinks in order.
type MultiSink []LogSink

func (m MultiSink) Emit(ctx context.Context, entry *LogEntry) {
	for _, sink := range m {
		sink.Emit(ctx, entry)
	}
}

type discardSink struct{}

func (discardSink) Emit(context.Context, *LogEntry) {}

type logEmitter struct {
	taskID string
	sink   LogSink
}

func newLogEmitter(taskID string, sink LogSink) *logEmitter {
	if sink == nil {
		sink = discardSink{}
	}
	return &logEmitter{taskID: taskID, sink: sink}
}

func (e *logEmitter) emit(ctx context.Context, level LogLevel, msg string, details map[string]any, snapshot *Snapshot) {
	entry := &LogEntry{
		ID:        uuid.New().String(),
		TaskID:    e.taskID,
		Level:     level,
		Message:   msg,
		Details:   details,
		Timestamp: time.Now(),
	}
	if snapshot != nil {
		entry.Snapshot = snapshot.DataURL()
	}
	e.sink.Emit(ctx, entry)
}

func (e *logEmitter) info(ctx context.Context, msg string, details map[string]any) {
	e.emit(ctx, LogLevelInfo, msg, details, nil)
}

func (e *logEmitter) success(ctx context.Context, msg string, details map[string]any) {
	e.emit(ctx, LogLevelSuccess, msg, details, nil)
}

func (e *logEmitter) warning(ctx context.Context, msg string, details map[string]any) {
	e.emit(ctx, LogLevelWarning, msg, details, nil)
}

func (e *logEmitter) error(ctx context.Context, msg string, details map[string]any) {
	e.emit(ctx, LogLevelError, msg, details, nil)
}

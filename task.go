package browserpilot

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle status of a task.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task is one user-initiated automation request. It is created by the
// caller when a prompt is submitted and mutated only by the lifecycle
// transitions below; tasks are never deleted, only appended to history.
type Task struct {
	ID          string        `json:"id"`
	Prompt      string        `json:"prompt"`
	Status      TaskStatus    `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt time.Time     `json:"completed_at,omitzero"`
	Duration    time.Duration `json:"duration,omitempty"`
	Result      string        `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	Trace       *ReplayState  `json:"trace,omitempty"`

	// ReplayOf holds the originating task ID when this task re-runs a
	// recorded trace instead of a prompt.
	ReplayOf string `json:"replay_of,omitempty"`
}

// NewTask creates a pending task for the given prompt.
func NewTask(prompt string) *Task {
	return &Task{
		ID:        uuid.New().String(),
		Prompt:    prompt,
		Status:    TaskStatusPending,
		CreatedAt: time.Now(),
	}
}

// NewReplayTask creates a pending task that will replay the trace of the
// given source task.
func NewReplayTask(source *Task) *Task {
	t := NewTask(source.Prompt)
	t.ReplayOf = source.ID
	return t
}

func (t *Task) markRunning() {
	t.Status = TaskStatusRunning
}

func (t *Task) complete(result string) {
	t.Status = TaskStatusCompleted
	t.Result = result
	t.finish()
}

func (t *Task) fail(err error) {
	t.Status = TaskStatusFailed
	t.Error = err.Error()
	t.finish()
}

func (t *Task) finish() {
	t.CompletedAt = time.Now()
	t.Duration = t.CompletedAt.Sub(t.CreatedAt)
}

// clone returns a copy safe to hand to another goroutine. The trace's action
// list is copied; recorded argument maps are immutable after recording and
// stay shared.
func (t *Task) clone() *Task {
	c := *t
	if t.Trace != nil {
		trace := *t.Trace
		trace.Actions = append([]RecordedAction(nil), t.Trace.Actions...)
		c.Trace = &trace
	}
	return &c
}

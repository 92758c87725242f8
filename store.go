package browserpilot

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// TaskRepository persists tasks. Tasks are append-only: they are stored once
// and updated in place through their lifecycle, never deleted.
// Implementations must store and return copies; the execution goroutine keeps
// mutating its own task instance after a Put.
type TaskRepository interface {
	PutTask(ctx context.Context, task *Task) error
	GetTask(ctx context.Context, id string) (*Task, error)
	ListTasks(ctx context.Context) ([]*Task, error)
}

// LogRepository persists the per-task log stream.
type LogRepository interface {
	AppendLog(ctx context.Context, entry *LogEntry) error
	ListLogs(ctx context.Context, taskID string) ([]*LogEntry, error)
}

// MemoryStore is an in-memory TaskRepository and LogRepository. It is the
// default backing store for the manager and the HTTP server.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string
	logs  map[string][]*LogEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks: make(map[string]*Task),
		logs:  make(map[string][]*LogEntry),
	}
}

func (s *MemoryStore) PutTask(_ context.Context, task *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[task.ID]; !ok {
		s.order = append(s.order, task.ID)
	}
	s.tasks[task.ID] = task.clone()
	return nil
}

func (s *MemoryStore) GetTask(_ context.Context, id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, goerr.Wrap(ErrTaskNotFound, "unknown task", goerr.V("task_id", id))
	}
	return task.clone(), nil
}

// ListTasks returns all tasks, newest first.
func (s *MemoryStore) ListTasks(_ context.Context) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*Task, 0, len(s.order))
	for _, id := range s.order {
		tasks = append(tasks, s.tasks[id].clone())
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (s *MemoryStore) AppendLog(_ context.Context, entry *LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[entry.TaskID] = append(s.logs[entry.TaskID], entry)
	return nil
}

// ListLogs returns the task's log entries in emission order.
func (s *MemoryStore) ListLogs(_ context.Context, taskID string) ([]*LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.logs[taskID]
	out := make([]*LogEntry, len(entries))
	copy(out, entries)
	return out, nil
}

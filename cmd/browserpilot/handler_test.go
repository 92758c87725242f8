package main_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/m-mizutani/browserpilot"
	main "github.com/m-mizutani/browserpilot/cmd/browserpilot"
)

// stubSession is a tool provider whose every call succeeds.
type stubSession struct {
	sessionID string
}

func (s *stubSession) Connect(ctx context.Context) error { return nil }

func (s *stubSession) ListTools(ctx context.Context) ([]browserpilot.ToolSpec, error) {
	return []browserpilot.ToolSpec{
		{
			Name: browserpilot.ToolNavigate,
			Parameters: map[string]*browserpilot.Parameter{
				"url": {Type: browserpilot.TypeString},
			},
			Required: []string{"url"},
		},
	}, nil
}

func (s *stubSession) CreateSession(ctx context.Context, adopted string) (string, error) {
	if adopted != "" {
		s.sessionID = adopted
	} else {
		s.sessionID = "stub-session"
	}
	return s.sessionID, nil
}

func (s *stubSession) SessionID() string { return s.sessionID }

func (s *stubSession) CallTool(ctx context.Context, name string, args map[string]any) *browserpilot.ToolResult {
	return &browserpilot.ToolResult{Text: "ok"}
}

func (s *stubSession) CloseSession(ctx context.Context) error { return nil }
func (s *stubSession) Close(ctx context.Context) error        { return nil }

// stubLLM immediately answers with text, so every task completes in one turn.
type stubLLM struct{}

func (stubLLM) NewSession(ctx context.Context, options ...browserpilot.SessionOption) (browserpilot.LLMSession, error) {
	return stubLLMSession{}, nil
}

type stubLLMSession struct{}

func (stubLLMSession) GenerateContent(ctx context.Context, input ...browserpilot.Input) (*browserpilot.Response, error) {
	return &browserpilot.Response{Texts: []string{"done"}}, nil
}

func newTestManager() *browserpilot.Manager {
	factory := func(ctx context.Context) (browserpilot.SessionClient, error) {
		return &stubSession{}, nil
	}
	return browserpilot.NewManager(stubLLM{}, factory)
}

func TestHandleHealth(t *testing.T) {
	s := main.NewTestServer(newTestManager())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	gt.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.Equal(t, "ok", resp["status"])
}

func TestHandleSubmitTask(t *testing.T) {
	manager := newTestManager()
	s := main.NewTestServer(manager)

	t.Run("accepts a prompt", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"prompt": "open example.com"}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		gt.Equal(t, http.StatusAccepted, rec.Code)

		var task browserpilot.Task
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
		gt.NotEqual(t, task.ID, "")
		gt.Equal(t, task.Prompt, "open example.com")
		manager.Wait()
	})

	t.Run("rejects empty prompt", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader(`{"prompt": ""}`))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/tasks",
			strings.NewReader("not json"))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		gt.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleGetTask(t *testing.T) {
	manager := newTestManager()
	s := main.NewTestServer(manager)

	task := gt.R1(manager.Submit(context.Background(), "a task")).NoError(t)
	manager.Wait()

	t.Run("existing task", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		gt.Equal(t, http.StatusOK, rec.Code)

		var got browserpilot.Task
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		gt.Equal(t, got.ID, task.ID)
		gt.Equal(t, got.Status, browserpilot.TaskStatusCompleted)
	})

	t.Run("unknown task", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tasks/nope", nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		gt.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleTaskLogs(t *testing.T) {
	manager := newTestManager()
	s := main.NewTestServer(manager)

	task := gt.R1(manager.Submit(context.Background(), "a task")).NoError(t)
	manager.Wait()

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/"+task.ID+"/logs", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	gt.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Logs []*browserpilot.LogEntry `json:"logs"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	gt.True(t, len(resp.Logs) > 0)
}

func TestHandleReplayWithoutTrace(t *testing.T) {
	manager := newTestManager()
	s := main.NewTestServer(manager)

	// The stub LLM answers without any tool call, so no trace is recorded.
	task := gt.R1(manager.Submit(context.Background(), "a task")).NoError(t)
	manager.Wait()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID+"/replay", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	gt.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleCancelNotRunning(t *testing.T) {
	manager := newTestManager()
	s := main.NewTestServer(manager)

	task := gt.R1(manager.Submit(context.Background(), "a task")).NoError(t)
	manager.Wait()

	req := httptest.NewRequest(http.MethodPost, "/api/tasks/"+task.ID+"/cancel", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	gt.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusForError(t *testing.T) {
	gt.Equal(t, main.StatusForError(browserpilot.ErrTaskNotFound), http.StatusNotFound)
	gt.Equal(t, main.StatusForError(browserpilot.ErrTaskAlreadyRunning), http.StatusConflict)
	gt.Equal(t, main.StatusForError(browserpilot.ErrEmptyPrompt), http.StatusBadRequest)
	gt.Equal(t, main.StatusForError(browserpilot.ErrNoTrace), http.StatusBadRequest)
	gt.Equal(t, main.StatusForError(context.DeadlineExceeded), http.StatusInternalServerError)
}

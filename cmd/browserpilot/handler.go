package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/m-mizutani/browserpilot"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), apiError{Error: err.Error()})
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, browserpilot.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, browserpilot.ErrTaskAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, browserpilot.ErrEmptyPrompt),
		errors.Is(err, browserpilot.ErrNoTrace),
		errors.Is(err, browserpilot.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitTaskRequest struct {
	Prompt string `json:"prompt"`
}

func (s *server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	var req submitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Error: "invalid request body"})
		return
	}

	task, err := s.manager.Submit(r.Context(), req.Prompt)
	if err != nil {
		s.logger.Warn("task submission rejected", "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, task)
}

type listTasksResponse struct {
	Tasks []*browserpilot.Task `json:"tasks"`
}

func (s *server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.manager.Tasks(r.Context())
	if err != nil {
		s.logger.Error("failed to list tasks", "error", err)
		writeError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*browserpilot.Task{}
	}

	writeJSON(w, http.StatusOK, listTasksResponse{Tasks: tasks})
}

func (s *server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.manager.Task(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

type taskLogsResponse struct {
	Logs []*browserpilot.LogEntry `json:"logs"`
}

func (s *server) handleTaskLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.manager.Logs(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []*browserpilot.LogEntry{}
	}

	writeJSON(w, http.StatusOK, taskLogsResponse{Logs: logs})
}

func (s *server) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Cancel(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelling"})
}

func (s *server) handleReplayTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.manager.Replay(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Warn("replay rejected", "task_id", r.PathValue("id"), "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, task)
}

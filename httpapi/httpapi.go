// Package httpapi provides the HTTP inspection and operations surface for
// the cortex engine. It delegates all business logic to the engine.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/j0hanz/cortex"
	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/logging"
)

// Handler provides the HTTP API for the cortex engine.
type Handler struct {
	engine *cortex.Engine
	logger logging.Logger
	router chi.Router
}

// New creates a new HTTP API handler.
func New(eng *cortex.Engine, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	h := &Handler{engine: eng, logger: logger}
	h.router = h.buildRouter()
	return h
}

// Router returns the HTTP router.
func (h *Handler) Router() chi.Router {
	return h.router
}

func (h *Handler) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Post("/sessions", h.handleCreateSession)
		r.Get("/sessions", h.handleListSessions)
		r.Get("/sessions/{id}", h.handleGetSession)
		r.Get("/sessions/{id}/view", h.handleSessionView)
		r.Post("/sessions/{id}/thoughts", h.handleAppendThought)
		r.Put("/sessions/{id}/thoughts/{index}", h.handleReviseThought)
		r.Post("/sessions/{id}/status", h.handleSetStatus)
		r.Delete("/sessions/{id}", h.handleDeleteSession)

		r.Get("/tasks/{id}", h.handleGetTask)
		r.Get("/tasks/{id}/result", h.handleTaskResult)
		r.Post("/tasks/{id}/cancel", h.handleCancelTask)

		r.Get("/levels", h.handleLevels)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	return r
}

// --- Request/Response types ---

type createSessionRequest struct {
	Level          string `json:"level"`
	TargetThoughts int    `json:"target_thoughts,omitempty"`
}

type appendThoughtRequest struct {
	Content     string `json:"content"`
	StepSummary string `json:"step_summary,omitempty"`
}

type reviseThoughtRequest struct {
	Content string `json:"content"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type thoughtResponse struct {
	SessionID       string       `json:"session_id"`
	Thought         core.Thought `json:"thought"`
	RemainingTokens int          `json:"remaining_tokens"`
}

type taskResultResponse struct {
	TaskID string `json:"task_id"`
	Result any    `json:"result"`
}

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// --- Handlers ---

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	level := core.Level(strings.TrimSpace(req.Level))
	if level == "" {
		level = core.LevelNormal
	}

	sess, err := h.engine.CreateSession(level, req.TargetThoughts)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, sess)
}

func (h *Handler) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids := h.engine.ListSessionIDs()
	if ids == nil {
		ids = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"session_ids": ids})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.engine.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleSessionView(w http.ResponseWriter, r *http.Request) {
	redacted := r.URL.Query().Get("redacted") == "true"
	view, err := h.engine.SessionView(chi.URLParam(r, "id"), redacted)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleAppendThought(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req appendThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	thought, err := h.engine.AppendThought(id, req.Content, req.StepSummary)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	remaining := 0
	if sess, err := h.engine.GetSession(id); err == nil {
		remaining = sess.RemainingTokens()
	}

	h.writeJSON(w, http.StatusCreated, thoughtResponse{
		SessionID: id, Thought: thought, RemainingTokens: remaining,
	})
}

func (h *Handler) handleReviseThought(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req reviseThoughtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Content == "" {
		h.writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	thought, err := h.engine.ReviseThought(id, index, req.Content)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	remaining := 0
	if sess, err := h.engine.GetSession(id); err == nil {
		remaining = sess.RemainingTokens()
	}

	h.writeJSON(w, http.StatusOK, thoughtResponse{
		SessionID: id, Thought: thought, RemainingTokens: remaining,
	})
}

func (h *Handler) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.engine.SetSessionStatus(id, core.Status(req.Status)); err != nil {
		h.writeEngineError(w, err)
		return
	}

	sess, err := h.engine.GetSession(id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteSession(chi.URLParam(r, "id")); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.engine.GetTask(chi.URLParam(r, "id"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, task)
}

func (h *Handler) handleTaskResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.engine.TaskResult(id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, taskResultResponse{TaskID: id, Result: result})
}

func (h *Handler) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.engine.CancelTask(id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	task, err := h.engine.GetTask(id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, task)
}

func (h *Handler) handleLevels(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.engine.Levels())
}

// --- Helpers ---

// statusFor maps the engine's error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrThoughtNotFound),
		errors.Is(err, core.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidLevel):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrSessionNotActive),
		errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrAlreadyTerminal),
		errors.Is(err, core.ErrResultNotReady):
		return http.StatusConflict
	case errors.Is(err, core.ErrAdmissionRejected),
		errors.Is(err, core.ErrGlobalBudgetExceeded):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.ErrorWithStack(h.logger, err, "unexpected engine error")
	}
	h.writeError(w, status, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("response encode failed", "error", err.Error())
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

package cortex

import (
	"context"

	"github.com/j0hanz/cortex/core"
)

// Request is the validated parameter object handed to the engine by a
// transport. Fields are optional; the populated combination selects the
// operation:
//
//   - Content set: append a thought, creating the session first when
//     SessionID is empty (Level and TargetThoughts apply to creation only)
//   - TaskID set: poll a task, including its result once terminal
//   - SessionID set, Content empty: return a session view
//   - nothing set: list current session ids
type Request struct {
	SessionID      string     `json:"session_id,omitempty"`
	Level          core.Level `json:"level,omitempty"`
	Content        string     `json:"content,omitempty"`
	StepSummary    string     `json:"step_summary,omitempty"`
	TargetThoughts int        `json:"target_thoughts,omitempty"`
	Redacted       bool       `json:"redacted,omitempty"`
	TaskID         string     `json:"task_id,omitempty"`
}

// Response is the structured success/error envelope returned to transports.
// OK is false exactly when Error is set; the remaining fields are populated
// per operation.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	SessionID       string            `json:"session_id,omitempty"`
	Thought         *core.Thought     `json:"thought,omitempty"`
	RemainingTokens int               `json:"remaining_tokens,omitempty"`
	View            *core.SessionView `json:"view,omitempty"`
	SessionIDs      []string          `json:"session_ids,omitempty"`
	Task            *core.Task        `json:"task,omitempty"`
	Result          any               `json:"result,omitempty"`
}

func okResponse() Response           { return Response{OK: true} }
func errResponse(err error) Response { return Response{Error: err.Error()} }

// Handle routes a validated request to the matching engine operation and
// wraps the outcome in a Response envelope. It never panics on caller errors;
// failures surface as OK=false with the error message.
func (e *Engine) Handle(ctx context.Context, req Request) Response {
	switch {
	case req.Content != "":
		return e.handleThink(ctx, req)
	case req.TaskID != "":
		return e.handleTaskStatus(req)
	case req.SessionID != "":
		return e.handleView(req)
	default:
		resp := okResponse()
		resp.SessionIDs = e.ListSessionIDs()
		return resp
	}
}

func (e *Engine) handleThink(_ context.Context, req Request) Response {
	sessionID := req.SessionID
	if sessionID == "" {
		level := req.Level
		if level == "" {
			level = core.LevelNormal
		}
		sess, err := e.CreateSession(level, req.TargetThoughts)
		if err != nil {
			return errResponse(err)
		}
		sessionID = sess.ID
	}

	thought, err := e.AppendThought(sessionID, req.Content, req.StepSummary)
	if err != nil {
		return errResponse(err)
	}

	sess, err := e.GetSession(sessionID)
	if err != nil {
		return errResponse(err)
	}

	resp := okResponse()
	resp.SessionID = sessionID
	resp.Thought = &thought
	resp.RemainingTokens = sess.RemainingTokens()
	return resp
}

func (e *Engine) handleView(req Request) Response {
	view, err := e.SessionView(req.SessionID, req.Redacted)
	if err != nil {
		return errResponse(err)
	}

	resp := okResponse()
	resp.SessionID = req.SessionID
	resp.View = &view
	return resp
}

func (e *Engine) handleTaskStatus(req Request) Response {
	t, err := e.GetTask(req.TaskID)
	if err != nil {
		return errResponse(err)
	}

	resp := okResponse()
	resp.Task = t
	if t.Status.Terminal() {
		result, err := e.TaskResult(req.TaskID)
		if err == nil {
			resp.Result = result
		}
	}
	return resp
}

package tool

import (
	"context"
	"errors"

	"github.com/j0hanz/cortex"
	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/logging"
)

// EngineTools returns the standard contract table binding the engine's
// operations: think, session_view and task_status.
func EngineTools(e *cortex.Engine, logger logging.Logger) []Tool {
	return []Tool{
		NewThinkTool(e, logger),
		NewSessionViewTool(e, logger),
		NewTaskStatusTool(e, logger),
	}
}

// NewThinkTool records one reasoning step, opening a new session when no
// session_id is supplied.
func NewThinkTool(e *cortex.Engine, logger logging.Logger) *FunctionTool {
	return NewFunctionTool(
		"think",
		"Record one reasoning step in a session, creating the session on first use",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"content":         map[string]any{"type": "string", "description": "The thought content"},
				"session_id":      map[string]any{"type": "string", "description": "Existing session to append to"},
				"level":           map[string]any{"type": "string", "description": "Reasoning level for a new session (basic, normal, high, expert)"},
				"step_summary":    map[string]any{"type": "string", "description": "Optional one-line summary of the step"},
				"target_thoughts": map[string]any{"type": "integer", "description": "Requested thought count for a new session, clamped to the level's bounds"},
			},
			"required": []string{"content"},
		},
		logger,
		func(ctx context.Context, args map[string]any) (any, error) {
			req := cortex.Request{
				SessionID:      argString(args, "session_id"),
				Level:          levelArg(args),
				Content:        argString(args, "content"),
				StepSummary:    argString(args, "step_summary"),
				TargetThoughts: argInt(args, "target_thoughts"),
			}
			return handle(ctx, e, req)
		},
	)
}

// NewSessionViewTool returns a read-only session view, redacted on request.
func NewSessionViewTool(e *cortex.Engine, logger logging.Logger) *FunctionTool {
	return NewFunctionTool(
		"session_view",
		"Inspect a session's thoughts, optionally with contents redacted",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"session_id": map[string]any{"type": "string", "description": "Session to inspect"},
				"redacted":   map[string]any{"type": "boolean", "description": "Replace thought contents with a placeholder"},
			},
			"required": []string{"session_id"},
		},
		logger,
		func(ctx context.Context, args map[string]any) (any, error) {
			req := cortex.Request{
				SessionID: argString(args, "session_id"),
				Redacted:  argBool(args, "redacted"),
			}
			return handle(ctx, e, req)
		},
	)
}

// NewTaskStatusTool polls a background task, including its result once the
// task is terminal.
func NewTaskStatusTool(e *cortex.Engine, logger logging.Logger) *FunctionTool {
	return NewFunctionTool(
		"task_status",
		"Poll a background task's status and retrieve its result when finished",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_id": map[string]any{"type": "string", "description": "Task to poll"},
			},
			"required": []string{"task_id"},
		},
		logger,
		func(ctx context.Context, args map[string]any) (any, error) {
			req := cortex.Request{TaskID: argString(args, "task_id")}
			return handle(ctx, e, req)
		},
	)
}

func handle(ctx context.Context, e *cortex.Engine, req cortex.Request) (any, error) {
	resp := e.Handle(ctx, req)
	if !resp.OK {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

func levelArg(args map[string]any) core.Level {
	return core.Level(argString(args, "level"))
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

// argInt tolerates float64, the type JSON numbers decode to.
func argInt(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j0hanz/cortex"
	"github.com/j0hanz/cortex/core"
)

func TestFunctionTool_Metadata(t *testing.T) {
	ft := NewFunctionTool("echo", "Echo the input", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, nil, func(ctx context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})

	assert.Equal(t, "echo", ft.Name())
	assert.Equal(t, "Echo the input", ft.Description())
	assert.Contains(t, ft.Parameters(), "properties")
}

func TestFunctionTool_ValidationError(t *testing.T) {
	ft := NewFunctionTool("echo", "Echo the input", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string"},
		},
		"required": []string{"text"},
	}, nil, func(ctx context.Context, args map[string]any) (any, error) {
		return args["text"], nil
	})

	_, err := ft.Call(context.Background(), map[string]any{})
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)

	_, err = ft.Call(context.Background(), map[string]any{"text": 42})
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "VALIDATION_ERROR", toolErr.Code)
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	ft := NewFunctionTool("boom", "Always fails", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, nil, func(ctx context.Context, args map[string]any) (any, error) {
		return nil, errors.New("kaput")
	})

	_, err := ft.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
	assert.Equal(t, "kaput", toolErr.Message)
}

func TestFunctionTool_CustomToolErrorForwarded(t *testing.T) {
	custom := &ToolError{Tool: "boom", Message: "quota", Code: "RATE_LIMITED"}
	ft := NewFunctionTool("boom", "Always fails", map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}, nil, func(ctx context.Context, args map[string]any) (any, error) {
		return nil, custom
	})

	_, err := ft.Call(context.Background(), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Same(t, custom, toolErr)
}

func TestThinkTool_CreatesSessionAndAppends(t *testing.T) {
	e := cortex.New()
	think := NewThinkTool(e, nil)

	result, err := think.Call(context.Background(), map[string]any{
		"content": "step one",
		"level":   "high",
	})
	require.NoError(t, err)

	resp, ok := result.(cortex.Response)
	require.True(t, ok)
	assert.True(t, resp.OK)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 0, resp.Thought.Index)

	// JSON-decoded numbers arrive as float64; target_thoughts must survive.
	result, err = think.Call(context.Background(), map[string]any{
		"content":    "step two",
		"session_id": resp.SessionID,
	})
	require.NoError(t, err)
	resp = result.(cortex.Response)
	assert.Equal(t, 1, resp.Thought.Index)
}

func TestSessionViewTool_Redacts(t *testing.T) {
	e := cortex.New()
	sess, err := e.CreateSession(core.LevelBasic, 3)
	require.NoError(t, err)
	_, err = e.AppendThought(sess.ID, "secret", "hint")
	require.NoError(t, err)

	view := NewSessionViewTool(e, nil)
	result, err := view.Call(context.Background(), map[string]any{
		"session_id": sess.ID,
		"redacted":   true,
	})
	require.NoError(t, err)

	resp := result.(cortex.Response)
	require.NotNil(t, resp.View)
	assert.Equal(t, core.RedactedPlaceholder, resp.View.Thoughts[0].Content)
}

func TestTaskStatusTool_UnknownTask(t *testing.T) {
	e := cortex.New()
	status := NewTaskStatusTool(e, nil)

	_, err := status.Call(context.Background(), map[string]any{"task_id": "nope"})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "EXECUTION_ERROR", toolErr.Code)
}

func TestEngineTools_ContractTable(t *testing.T) {
	e := cortex.New()

	tools := EngineTools(e, nil)
	names := make([]string, 0, len(tools))
	for _, tl := range tools {
		names = append(names, tl.Name())
		assert.NotEmpty(t, tl.Description())
		assert.NotNil(t, tl.Parameters())
	}
	assert.Equal(t, []string{"think", "session_view", "task_status"}, names)
}

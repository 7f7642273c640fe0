package cortex

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j0hanz/cortex/core"
	"github.com/j0hanz/cortex/session"
)

func TestHandle_ThinkCreatesSession(t *testing.T) {
	e := New()

	resp := e.Handle(context.Background(), Request{Content: "first observation"})
	require.True(t, resp.OK, resp.Error)

	assert.NotEmpty(t, resp.SessionID)
	require.NotNil(t, resp.Thought)
	assert.Equal(t, 0, resp.Thought.Index)
	assert.Equal(t, "first observation", resp.Thought.Content)
	assert.Positive(t, resp.RemainingTokens)

	sess, err := e.GetSession(resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, core.LevelNormal, sess.Level)
}

func TestHandle_ThinkReusesSession(t *testing.T) {
	e := New()

	first := e.Handle(context.Background(), Request{Content: "one", Level: core.LevelHigh})
	require.True(t, first.OK, first.Error)

	second := e.Handle(context.Background(), Request{SessionID: first.SessionID, Content: "two"})
	require.True(t, second.OK, second.Error)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, 1, second.Thought.Index)
}

func TestHandle_ThinkUnknownLevel(t *testing.T) {
	e := New()

	resp := e.Handle(context.Background(), Request{Content: "x", Level: core.Level("galactic")})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "galactic")
}

func TestHandle_ViewRedacted(t *testing.T) {
	e := New()

	created := e.Handle(context.Background(), Request{Content: "secret sauce", StepSummary: "summary"})
	require.True(t, created.OK, created.Error)

	resp := e.Handle(context.Background(), Request{SessionID: created.SessionID, Redacted: true})
	require.True(t, resp.OK, resp.Error)
	require.NotNil(t, resp.View)
	require.Len(t, resp.View.Thoughts, 1)
	assert.Equal(t, core.RedactedPlaceholder, resp.View.Thoughts[0].Content)
	assert.Equal(t, core.RedactedPlaceholder, resp.View.Thoughts[0].StepSummary)
}

func TestHandle_ViewUnknownSession(t *testing.T) {
	e := New()

	resp := e.Handle(context.Background(), Request{SessionID: "nope"})
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}

func TestHandle_ListSessionIDs(t *testing.T) {
	e := New()

	a := e.Handle(context.Background(), Request{Content: "a"})
	b := e.Handle(context.Background(), Request{Content: "b"})
	require.True(t, a.OK)
	require.True(t, b.OK)

	resp := e.Handle(context.Background(), Request{})
	require.True(t, resp.OK)
	assert.ElementsMatch(t, []string{a.SessionID, b.SessionID}, resp.SessionIDs)
}

func TestHandle_TaskStatusAndResult(t *testing.T) {
	e := New()

	task, err := e.LaunchTask(context.Background(), func(ctx context.Context) (any, error) {
		return "payload", nil
	})
	require.NoError(t, err)

	deadline := time.After(2 * time.Second)
	for {
		resp := e.Handle(context.Background(), Request{TaskID: task.ID})
		require.True(t, resp.OK, resp.Error)
		require.NotNil(t, resp.Task)
		if resp.Task.Status == core.TaskCompleted {
			assert.Equal(t, "payload", resp.Result)
			break
		}
		select {
		case <-deadline:
			t.Fatalf("task stuck in %s", resp.Task.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHandle_TaskUnknown(t *testing.T) {
	e := New()

	resp := e.Handle(context.Background(), Request{TaskID: "nope"})
	assert.False(t, resp.OK)
}

func TestEngine_BudgetExhaustionFlowsThroughHandle(t *testing.T) {
	levels := map[core.Level]core.LevelConfig{
		core.LevelBasic: {MinThoughts: 1, MaxThoughts: 10, TokenBudget: 10},
	}
	e := New(func(o *Options) { o.Levels = levels })

	var exhausted []core.Event
	e.Bus().Subscribe(core.KindBudgetExhausted, func(ev core.Event) { exhausted = append(exhausted, ev) })

	resp := e.Handle(context.Background(), Request{Content: strings.Repeat("a", 100), Level: core.LevelBasic})
	require.True(t, resp.OK, resp.Error)

	assert.Equal(t, 0, resp.RemainingTokens)
	assert.True(t, strings.HasSuffix(resp.Thought.Content, "..."))
	require.Len(t, exhausted, 1)
	assert.Equal(t, resp.SessionID, exhausted[0].SessionID)
}

func TestEngine_StartStopSweeps(t *testing.T) {
	e := New(func(o *Options) {
		o.Limits = session.Limits{TTL: time.Millisecond}
		o.SweepInterval = 10 * time.Millisecond
	})

	resp := e.Handle(context.Background(), Request{Content: "ephemeral"})
	require.True(t, resp.OK, resp.Error)

	require.NoError(t, e.Start())
	defer e.Stop()

	deadline := time.After(2 * time.Second)
	for len(e.ListSessionIDs()) > 0 {
		select {
		case <-deadline:
			t.Fatal("expired session never swept")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestEngine_StartIsIdempotent(t *testing.T) {
	e := New(func(o *Options) { o.SweepInterval = time.Hour })

	require.NoError(t, e.Start())
	require.NoError(t, e.Start())
	e.Stop()
	e.Stop()
}

func TestEngine_CancelTask(t *testing.T) {
	e := New()
	started := make(chan struct{})

	task, err := e.LaunchTask(context.Background(), func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-started

	require.NoError(t, e.CancelTask(task.ID))

	deadline := time.After(2 * time.Second)
	for {
		got, err := e.GetTask(task.ID)
		require.NoError(t, err)
		if got.Status == core.TaskCancelled {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("task stuck in %s", got.Status)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

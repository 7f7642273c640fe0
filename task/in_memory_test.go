package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j0hanz/cortex/core"
)

func TestInMemoryStore_CreateTask(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, 2*time.Second)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, core.TaskPending, task.Status)
	assert.Equal(t, time.Minute, task.TTL)
	assert.Equal(t, 2*time.Second, task.PollIntervalHint)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
}

func TestInMemoryStore_GetTaskReturnsClone(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)

	got, err := store.GetTask(task.ID)
	require.NoError(t, err)
	got.Status = core.TaskFailed

	again, err := store.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, core.TaskPending, again.Status)
}

func TestInMemoryStore_GetTaskUnknown(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.GetTask("nope")
	assert.ErrorIs(t, err, core.ErrTaskNotFound)
}

func TestInMemoryStore_UpdateTaskStatus(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)

	require.NoError(t, store.UpdateTaskStatus(task.ID, core.TaskRunning, "started"))

	got, err := store.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, core.TaskRunning, got.Status)
	assert.Equal(t, "started", got.Message)
}

func TestInMemoryStore_UpdateTaskStatusIllegal(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)

	// pending -> completed must go through running.
	err = store.UpdateTaskStatus(task.ID, core.TaskCompleted, "")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)

	require.NoError(t, store.UpdateTaskStatus(task.ID, core.TaskCancelled, ""))
	err = store.UpdateTaskStatus(task.ID, core.TaskRunning, "")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestInMemoryStore_StoreTaskResult(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)
	require.NoError(t, store.UpdateTaskStatus(task.ID, core.TaskRunning, ""))

	require.NoError(t, store.StoreTaskResult(task.ID, core.TaskCompleted, map[string]int{"answer": 42}))

	got, err := store.GetTask(task.ID)
	require.NoError(t, err)
	assert.Equal(t, core.TaskCompleted, got.Status)

	result, err := store.GetTaskResult(task.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"answer": 42}, result)
}

func TestInMemoryStore_StoreTaskResultAlreadyTerminal(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)
	require.NoError(t, store.UpdateTaskStatus(task.ID, core.TaskRunning, ""))
	require.NoError(t, store.StoreTaskResult(task.ID, core.TaskFailed, "boom"))

	err = store.StoreTaskResult(task.ID, core.TaskCompleted, "late")
	assert.ErrorIs(t, err, core.ErrAlreadyTerminal)

	// The original payload survives.
	result, err := store.GetTaskResult(task.ID)
	require.NoError(t, err)
	assert.Equal(t, "boom", result)
}

func TestInMemoryStore_StoreTaskResultRejectsNonTerminalStatus(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)

	err = store.StoreTaskResult(task.ID, core.TaskRunning, nil)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestInMemoryStore_GetTaskResultNotReady(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)

	_, err = store.GetTaskResult(task.ID)
	assert.ErrorIs(t, err, core.ErrResultNotReady)
	assert.NotErrorIs(t, err, core.ErrTaskNotFound)

	require.NoError(t, store.UpdateTaskStatus(task.ID, core.TaskRunning, ""))
	_, err = store.GetTaskResult(task.ID)
	assert.ErrorIs(t, err, core.ErrResultNotReady)
}

func TestInMemoryStore_GetTaskResultCancelledYieldsNil(t *testing.T) {
	store := NewInMemoryStore()

	task, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)
	require.NoError(t, store.UpdateTaskStatus(task.ID, core.TaskCancelled, ""))

	result, err := store.GetTaskResult(task.ID)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestInMemoryStore_PruneRemovesExpiredTerminal(t *testing.T) {
	now := time.Now()
	store := NewInMemoryStore().WithClock(func() time.Time { return now })

	old, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)
	require.NoError(t, store.UpdateTaskStatus(old.ID, core.TaskCancelled, ""))

	running, err := store.CreateTask(time.Minute, time.Second)
	require.NoError(t, err)
	require.NoError(t, store.UpdateTaskStatus(running.ID, core.TaskRunning, ""))

	now = now.Add(time.Minute)

	// Only the terminal task past its TTL goes; the running one stays even
	// though its TTL elapsed.
	assert.Equal(t, 1, store.Prune())
	assert.Equal(t, 1, store.Len())

	_, err = store.GetTask(old.ID)
	assert.ErrorIs(t, err, core.ErrTaskNotFound)
	_, err = store.GetTask(running.ID)
	assert.NoError(t, err)
}

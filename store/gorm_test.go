package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
)

func newTestGormStore(t *testing.T) *GormStore {
	t.Helper()

	config := DefaultGormConfig()
	config.DSN = filepath.Join(t.TempDir(), "records.db")

	s, err := NewGormStore(config, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleCheckpoint(workflowID string, layer int) *types.Checkpoint {
	now := time.Now()
	state := types.NewWorkflowState(workflowID)
	state.CurrentLayer = layer + 1
	state.Tasks = []types.TaskResult{{TaskID: "a", Status: types.TaskStatusSuccess, Output: "done"}}

	return &types.Checkpoint{
		ID:         "cp-" + workflowID,
		WorkflowID: workflowID,
		DAG: types.DAGStructure{Tasks: []types.Task{
			{ID: "a", Kind: types.TaskKindMCPTool, Tool: "fs:read"},
		}},
		Intent:    "sample intent",
		Layer:     layer,
		State:     state,
		CreatedAt: now,
		ExpiresAt: now.Add(types.DefaultCheckpointTTL),
	}
}

// ---------------------------------------------------------------------------
// GormStore
// ---------------------------------------------------------------------------

func TestGormStore_SaveAndGet(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleCheckpoint("wf-1", 0)))

	cp, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", cp.WorkflowID)
	assert.Equal(t, "sample intent", cp.Intent)
	assert.Equal(t, 0, cp.Layer)
	require.Len(t, cp.DAG.Tasks, 1)
	require.NotNil(t, cp.State)
	assert.Equal(t, 1, cp.State.CurrentLayer)
	assert.Len(t, cp.State.Tasks, 1)
}

func TestGormStore_SaveUpserts(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleCheckpoint("wf-1", 0)))
	require.NoError(t, s.Save(ctx, sampleCheckpoint("wf-1", 2)))

	cp, err := s.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, 2, cp.Layer)
}

func TestGormStore_GetMissing(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)

	_, err := s.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, types.ErrWorkflowNotFound, types.GetErrorCode(err))
}

func TestGormStore_GetFiltersExpired(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	cp := sampleCheckpoint("wf-exp", 0)
	cp.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, s.Save(ctx, cp))

	_, err := s.Get(ctx, "wf-exp")
	require.Error(t, err)
	assert.Equal(t, types.ErrWorkflowNotFound, types.GetErrorCode(err))
}

func TestGormStore_TouchRefreshesTTL(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	cp := sampleCheckpoint("wf-touch", 0)
	cp.ExpiresAt = time.Now().Add(time.Minute)
	require.NoError(t, s.Save(ctx, cp))

	require.NoError(t, s.Touch(ctx, "wf-touch"))

	got, err := s.Get(ctx, "wf-touch")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(types.DefaultCheckpointTTL), got.ExpiresAt, time.Minute)
}

func TestGormStore_TouchMissing(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)

	err := s.Touch(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, types.ErrWorkflowNotFound, types.GetErrorCode(err))
}

func TestGormStore_UpdateNeverCreates(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	err := s.Update(ctx, sampleCheckpoint("ghost", 1))
	require.Error(t, err)
	assert.Equal(t, types.ErrWorkflowNotFound, types.GetErrorCode(err))

	_, err = s.Get(ctx, "ghost")
	require.Error(t, err)
}

func TestGormStore_UpdateExisting(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleCheckpoint("wf-up", 0)))

	next := sampleCheckpoint("wf-up", 3)
	next.Intent = "revised intent"
	require.NoError(t, s.Update(ctx, next))

	cp, err := s.Get(ctx, "wf-up")
	require.NoError(t, err)
	assert.Equal(t, 3, cp.Layer)
	assert.Equal(t, "revised intent", cp.Intent)
}

func TestGormStore_Delete(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleCheckpoint("wf-del", 0)))
	require.NoError(t, s.Delete(ctx, "wf-del"))

	_, err := s.Get(ctx, "wf-del")
	require.Error(t, err)

	// Deleting an absent record is not an error.
	require.NoError(t, s.Delete(ctx, "wf-del"))
}

func TestGormStore_CleanupRemovesExpired(t *testing.T) {
	t.Parallel()

	s := newTestGormStore(t)
	ctx := context.Background()

	live := sampleCheckpoint("wf-live", 0)
	require.NoError(t, s.Save(ctx, live))

	dead := sampleCheckpoint("wf-dead", 0)
	dead.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, s.Save(ctx, dead))

	removed, err := s.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = s.Get(ctx, "wf-live")
	require.NoError(t, err)
}

func TestNewGormStore_UnsupportedDriver(t *testing.T) {
	t.Parallel()

	config := DefaultGormConfig()
	config.Driver = "oracle"

	_, err := NewGormStore(config, zap.NewNop())
	require.Error(t, err)
	assert.Equal(t, types.ErrStoreFailure, types.GetErrorCode(err))
}

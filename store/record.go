package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Casys-AI/flowgrid/types"
)

// RecordStore persists one workflow record per workflow id with a rolling
// TTL. Save upserts; Get filters expired records; Update never creates.
// The Save/Get/Touch subset satisfies the engine's checkpoint contract.
type RecordStore interface {
	Save(ctx context.Context, cp *types.Checkpoint) error
	Get(ctx context.Context, workflowID string) (*types.Checkpoint, error)
	Touch(ctx context.Context, workflowID string) error
	Update(ctx context.Context, cp *types.Checkpoint) error
	Delete(ctx context.Context, workflowID string) error
	Cleanup(ctx context.Context) (int64, error)
	Close() error
}

var (
	_ RecordStore = (*GormStore)(nil)
	_ RecordStore = (*RedisStore)(nil)
)

// checkpointRecord is the relational shape of a workflow record. DAG and
// state snapshots are stored as JSON blobs; the engine owns their schema.
type checkpointRecord struct {
	WorkflowID   string    `gorm:"column:workflow_id;primaryKey;size:64"`
	CheckpointID string    `gorm:"column:checkpoint_id;size:64"`
	DAG          []byte    `gorm:"column:dag"`
	Intent       string    `gorm:"column:intent"`
	Layer        int       `gorm:"column:layer"`
	State        []byte    `gorm:"column:state"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	ExpiresAt    time.Time `gorm:"column:expires_at;index"`
}

func (checkpointRecord) TableName() string { return "workflow_records" }

func toRecord(cp *types.Checkpoint) (*checkpointRecord, error) {
	dag, err := json.Marshal(&cp.DAG)
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "encode dag snapshot").WithCause(err)
	}

	var state []byte
	if cp.State != nil {
		state, err = json.Marshal(cp.State)
		if err != nil {
			return nil, types.NewError(types.ErrStoreFailure, "encode state snapshot").WithCause(err)
		}
	}

	return &checkpointRecord{
		WorkflowID:   cp.WorkflowID,
		CheckpointID: cp.ID,
		DAG:          dag,
		Intent:       cp.Intent,
		Layer:        cp.Layer,
		State:        state,
		CreatedAt:    cp.CreatedAt,
		ExpiresAt:    cp.ExpiresAt,
	}, nil
}

func fromRecord(rec *checkpointRecord) (*types.Checkpoint, error) {
	cp := &types.Checkpoint{
		ID:         rec.CheckpointID,
		WorkflowID: rec.WorkflowID,
		Intent:     rec.Intent,
		Layer:      rec.Layer,
		CreatedAt:  rec.CreatedAt,
		ExpiresAt:  rec.ExpiresAt,
	}

	if err := json.Unmarshal(rec.DAG, &cp.DAG); err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "decode dag snapshot").WithCause(err)
	}
	if len(rec.State) > 0 {
		cp.State = &types.WorkflowState{}
		if err := json.Unmarshal(rec.State, cp.State); err != nil {
			return nil, types.NewError(types.ErrStoreFailure, "decode state snapshot").WithCause(err)
		}
	}
	return cp, nil
}

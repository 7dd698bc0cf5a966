package types

import "time"

// DefaultCheckpointTTL is the rolling lifetime of a persisted workflow
// record, refreshed on every continuation or approval.
const DefaultCheckpointTTL = time.Hour

// Checkpoint is the durable snapshot of a workflow's DAG and progress that
// enables stateless resumption after a process restart. One record exists
// per workflow id; saves upsert.
type Checkpoint struct {
	ID         string         `json:"id"`
	WorkflowID string         `json:"workflow_id"`
	DAG        DAGStructure   `json:"dag"`
	Intent     string         `json:"intent"`
	Layer      int            `json:"layer"`
	State      *WorkflowState `json:"state,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
}

// Expired reports whether the record's TTL has lapsed at the given instant.
func (c *Checkpoint) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

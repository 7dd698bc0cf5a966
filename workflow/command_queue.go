package workflow

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
)

// CommandQueue is the validated control-message mailbox of a running
// workflow. Commands are admitted only when their shape matches their
// variant; invalid commands are rejected, counted, and reported to the
// caller, never silently dropped.
type CommandQueue struct {
	queue  *AsyncQueue[*types.Command]
	logger *zap.Logger

	total     atomic.Int64
	processed atomic.Int64
	rejected  atomic.Int64
}

// CommandQueueStats exposes queue counters for observability.
type CommandQueueStats struct {
	Total     int64 `json:"total"`
	Processed int64 `json:"processed"`
	Rejected  int64 `json:"rejected"`
	Pending   int   `json:"pending"`
}

// NewCommandQueue creates an empty command queue.
func NewCommandQueue(logger *zap.Logger) *CommandQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandQueue{
		queue:  NewAsyncQueue[*types.Command](),
		logger: logger.With(zap.String("component", "command_queue")),
	}
}

// Enqueue validates and admits a command.
func (cq *CommandQueue) Enqueue(cmd *types.Command) error {
	if err := cmd.Validate(); err != nil {
		cq.rejected.Add(1)
		cq.logger.Warn("rejected invalid command",
			zap.String("type", string(cmd.Type)),
			zap.Error(err),
		)
		return err
	}

	if err := cq.queue.Enqueue(cmd); err != nil {
		cq.rejected.Add(1)
		return err
	}

	cq.total.Add(1)
	cq.logger.Debug("command enqueued", zap.String("type", string(cmd.Type)))
	return nil
}

// Dequeue blocks until the next command arrives.
func (cq *CommandQueue) Dequeue(ctx context.Context) (*types.Command, error) {
	cmd, err := cq.queue.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	cq.processed.Add(1)
	return cmd, nil
}

// DrainSync returns and clears whatever is already queued, without waiting.
func (cq *CommandQueue) DrainSync() []*types.Command {
	drained := cq.queue.DrainSync()
	cq.processed.Add(int64(len(drained)))
	return drained
}

// DrainAll dequeues until the queue is observed empty, blocking on items
// that are mid-enqueue.
func (cq *CommandQueue) DrainAll(ctx context.Context) ([]*types.Command, error) {
	var out []*types.Command
	for cq.queue.Len() > 0 {
		cmd, err := cq.Dequeue(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

// DrainByType removes only commands of the given type, re-enqueueing the
// rest in their original relative order.
func (cq *CommandQueue) DrainByType(cmdType types.CommandType) []*types.Command {
	drained := cq.queue.DrainSync()

	var matched, rest []*types.Command
	for _, cmd := range drained {
		if cmd.Type == cmdType {
			matched = append(matched, cmd)
		} else {
			rest = append(rest, cmd)
		}
	}

	for _, cmd := range rest {
		// Re-admission of already-validated commands cannot fail shape
		// checks; a closed queue drops the remainder and is logged.
		if err := cq.queue.Enqueue(cmd); err != nil {
			cq.logger.Warn("failed to re-enqueue command after drain",
				zap.String("type", string(cmd.Type)),
				zap.Error(err),
			)
		}
	}

	cq.processed.Add(int64(len(matched)))
	return matched
}

// WaitForCommand races the next command against a timer. It returns
// (nil, nil) on timeout rather than polling.
func (cq *CommandQueue) WaitForCommand(ctx context.Context, timeout time.Duration) (*types.Command, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd, err := cq.queue.Dequeue(waitCtx)
	if err != nil {
		if waitCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, nil
		}
		return nil, err
	}
	cq.processed.Add(1)
	return cmd, nil
}

// Len returns the number of pending commands.
func (cq *CommandQueue) Len() int {
	return cq.queue.Len()
}

// Close closes the underlying queue.
func (cq *CommandQueue) Close() {
	cq.queue.Close()
}

// Stats returns queue counters.
func (cq *CommandQueue) Stats() CommandQueueStats {
	return CommandQueueStats{
		Total:     cq.total.Load(),
		Processed: cq.processed.Load(),
		Rejected:  cq.rejected.Load(),
		Pending:   cq.queue.Len(),
	}
}

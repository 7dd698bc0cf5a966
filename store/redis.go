package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/types"
)

const redisKeyPrefix = "flowgrid:workflow:"

// RedisConfig configures the Redis-backed record store.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	// TTL is the rolling record lifetime; zero means one hour.
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	MaxRetries   int `yaml:"max_retries" json:"max_retries"`
	PoolSize     int `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// DefaultRedisConfig returns the Redis store defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		TTL:          types.DefaultCheckpointTTL,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// RedisStore is a RecordStore that leans on Redis's native key expiry for
// the rolling TTL. Expired records disappear without a cleanup pass.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(config RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = types.DefaultCheckpointTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "connect to redis").WithCause(err).WithRetryable(true)
	}

	logger = logger.With(zap.String("component", "record_store"))
	logger.Info("record store initialized",
		zap.String("driver", "redis"),
		zap.String("addr", config.Addr),
		zap.Duration("ttl", config.TTL),
	)

	return &RedisStore{client: client, ttl: config.TTL, logger: logger}, nil
}

func recordKey(workflowID string) string { return redisKeyPrefix + workflowID }

// Save upserts the record and resets its TTL.
func (s *RedisStore) Save(ctx context.Context, cp *types.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return types.NewError(types.ErrStoreFailure, "encode workflow record").WithCause(err)
	}
	if err := s.client.Set(ctx, recordKey(cp.WorkflowID), payload, s.ttl).Err(); err != nil {
		return types.NewError(types.ErrStoreFailure, "save workflow record").WithCause(err).WithRetryable(true)
	}
	return nil
}

// Get returns the live record for a workflow id. Redis has already dropped
// expired keys; the embedded expiry is recomputed from the key's remaining
// TTL so callers see a consistent deadline.
func (s *RedisStore) Get(ctx context.Context, workflowID string) (*types.Checkpoint, error) {
	key := recordKey(workflowID)

	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, types.NewErrorf(types.ErrWorkflowNotFound,
			"no live record for workflow %s", workflowID)
	}
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "load workflow record").WithCause(err).WithRetryable(true)
	}

	var cp types.Checkpoint
	if err := json.Unmarshal(payload, &cp); err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "decode workflow record").WithCause(err)
	}

	if remaining, err := s.client.TTL(ctx, key).Result(); err == nil && remaining > 0 {
		cp.ExpiresAt = time.Now().Add(remaining)
	}
	return &cp, nil
}

// Touch refreshes the record's TTL without rewriting its payload.
func (s *RedisStore) Touch(ctx context.Context, workflowID string) error {
	ok, err := s.client.Expire(ctx, recordKey(workflowID), s.ttl).Result()
	if err != nil {
		return types.NewError(types.ErrStoreFailure, "refresh record ttl").WithCause(err).WithRetryable(true)
	}
	if !ok {
		return types.NewErrorf(types.ErrWorkflowNotFound,
			"no record for workflow %s", workflowID)
	}
	return nil
}

// Update overwrites an existing record, failing when none exists.
func (s *RedisStore) Update(ctx context.Context, cp *types.Checkpoint) error {
	payload, err := json.Marshal(cp)
	if err != nil {
		return types.NewError(types.ErrStoreFailure, "encode workflow record").WithCause(err)
	}

	set, err := s.client.SetXX(ctx, recordKey(cp.WorkflowID), payload, s.ttl).Result()
	if err != nil {
		return types.NewError(types.ErrStoreFailure, "update workflow record").WithCause(err).WithRetryable(true)
	}
	if !set {
		return types.NewErrorf(types.ErrWorkflowNotFound,
			"no record for workflow %s", cp.WorkflowID)
	}
	return nil
}

// Delete removes the record for a workflow id.
func (s *RedisStore) Delete(ctx context.Context, workflowID string) error {
	if err := s.client.Del(ctx, recordKey(workflowID)).Err(); err != nil {
		return types.NewError(types.ErrStoreFailure, "delete workflow record").WithCause(err).WithRetryable(true)
	}
	return nil
}

// Cleanup is a no-op: Redis evicts expired keys natively.
func (s *RedisStore) Cleanup(ctx context.Context) (int64, error) {
	return 0, nil
}

// Close releases the client's connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

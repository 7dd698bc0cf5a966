package store

import (
	"context"
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Casys-AI/flowgrid/types"
)

// GormConfig configures the relational record store.
type GormConfig struct {
	// Driver selects the dialect: sqlite (default), postgres, mysql.
	Driver string `yaml:"driver" json:"driver"`
	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn" json:"dsn"`
	// TTL is the rolling record lifetime; zero means one hour.
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
}

// DefaultGormConfig returns the relational store defaults.
func DefaultGormConfig() GormConfig {
	return GormConfig{
		Driver:          "sqlite",
		DSN:             "flowgrid.db",
		TTL:             types.DefaultCheckpointTTL,
		MaxIdleConns:    5,
		MaxOpenConns:    25,
		ConnMaxLifetime: time.Hour,
	}
}

// GormStore is a RecordStore backed by a relational database through GORM.
type GormStore struct {
	db     *gorm.DB
	ttl    time.Duration
	logger *zap.Logger
}

// NewGormStore opens the configured database, migrates the record table and
// applies the pool settings.
func NewGormStore(config GormConfig, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TTL <= 0 {
		config.TTL = types.DefaultCheckpointTTL
	}

	var dialector gorm.Dialector
	switch config.Driver {
	case "", "sqlite":
		dialector = sqlite.Open(config.DSN)
	case "postgres":
		dialector = postgres.Open(config.DSN)
	case "mysql":
		dialector = mysql.Open(config.DSN)
	default:
		return nil, types.NewErrorf(types.ErrStoreFailure, "unsupported driver: %s", config.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "open database").WithCause(err).WithRetryable(true)
	}

	if err := db.AutoMigrate(&checkpointRecord{}); err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "migrate record table").WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "access sql.DB").WithCause(err)
	}
	if config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	logger = logger.With(zap.String("component", "record_store"))
	logger.Info("record store initialized",
		zap.String("driver", config.Driver),
		zap.Duration("ttl", config.TTL),
	)

	return &GormStore{db: db, ttl: config.TTL, logger: logger}, nil
}

// Save upserts the record keyed by workflow id, refreshing its TTL.
func (s *GormStore) Save(ctx context.Context, cp *types.Checkpoint) error {
	rec, err := toRecord(cp)
	if err != nil {
		return err
	}
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = time.Now().Add(s.ttl)
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "workflow_id"}},
			UpdateAll: true,
		}).
		Create(rec).Error
	if err != nil {
		return types.NewError(types.ErrStoreFailure, "save workflow record").WithCause(err).WithRetryable(true)
	}
	return nil
}

// Get returns the live record for a workflow id. Expired records are
// invisible to readers even before physical cleanup.
func (s *GormStore) Get(ctx context.Context, workflowID string) (*types.Checkpoint, error) {
	var rec checkpointRecord
	err := s.db.WithContext(ctx).
		Where("workflow_id = ? AND expires_at > ?", workflowID, time.Now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, types.NewErrorf(types.ErrWorkflowNotFound,
			"no live record for workflow %s", workflowID)
	}
	if err != nil {
		return nil, types.NewError(types.ErrStoreFailure, "load workflow record").WithCause(err).WithRetryable(true)
	}
	return fromRecord(&rec)
}

// Touch refreshes the record's TTL without changing its payload.
func (s *GormStore) Touch(ctx context.Context, workflowID string) error {
	res := s.db.WithContext(ctx).
		Model(&checkpointRecord{}).
		Where("workflow_id = ?", workflowID).
		Update("expires_at", time.Now().Add(s.ttl))
	if res.Error != nil {
		return types.NewError(types.ErrStoreFailure, "refresh record ttl").WithCause(res.Error).WithRetryable(true)
	}
	if res.RowsAffected == 0 {
		return types.NewErrorf(types.ErrWorkflowNotFound,
			"no record for workflow %s", workflowID)
	}
	return nil
}

// Update overwrites an existing record. A missing record is an error, never
// an implicit create.
func (s *GormStore) Update(ctx context.Context, cp *types.Checkpoint) error {
	rec, err := toRecord(cp)
	if err != nil {
		return err
	}
	if rec.ExpiresAt.IsZero() {
		rec.ExpiresAt = time.Now().Add(s.ttl)
	}

	res := s.db.WithContext(ctx).
		Model(&checkpointRecord{}).
		Where("workflow_id = ?", rec.WorkflowID).
		Updates(map[string]any{
			"checkpoint_id": rec.CheckpointID,
			"dag":           rec.DAG,
			"intent":        rec.Intent,
			"layer":         rec.Layer,
			"state":         rec.State,
			"expires_at":    rec.ExpiresAt,
		})
	if res.Error != nil {
		return types.NewError(types.ErrStoreFailure, "update workflow record").WithCause(res.Error).WithRetryable(true)
	}
	if res.RowsAffected == 0 {
		return types.NewErrorf(types.ErrWorkflowNotFound,
			"no record for workflow %s", rec.WorkflowID)
	}
	return nil
}

// Delete removes the record for a workflow id. Deleting an absent record is
// not an error.
func (s *GormStore) Delete(ctx context.Context, workflowID string) error {
	err := s.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Delete(&checkpointRecord{}).Error
	if err != nil {
		return types.NewError(types.ErrStoreFailure, "delete workflow record").WithCause(err).WithRetryable(true)
	}
	return nil
}

// Cleanup physically deletes expired records and returns how many were
// removed.
func (s *GormStore) Cleanup(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", time.Now()).
		Delete(&checkpointRecord{})
	if res.Error != nil {
		return 0, types.NewError(types.ErrStoreFailure, "cleanup expired records").WithCause(res.Error).WithRetryable(true)
	}
	if res.RowsAffected > 0 {
		s.logger.Info("expired records removed", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

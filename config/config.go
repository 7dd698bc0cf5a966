package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Casys-AI/flowgrid/types"
	"github.com/Casys-AI/flowgrid/workflow"
)

// Config is the complete flowgrid configuration.
type Config struct {
	// Engine tunes the scheduler and task routing.
	Engine EngineConfig `yaml:"engine" env:"ENGINE"`

	// Store selects and configures workflow record persistence.
	Store StoreConfig `yaml:"store" env:"STORE"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// EngineConfig tunes the scheduler and task routing.
type EngineConfig struct {
	// MaxParallel bounds concurrent task execution per layer; zero means
	// the whole layer at once.
	MaxParallel int64 `yaml:"max_parallel" env:"MAX_PARALLEL"`
	// LayerValidation suspends the workflow after every layer for approval.
	LayerValidation bool `yaml:"layer_validation" env:"LAYER_VALIDATION"`
	// DefaultKind classifies tasks that carry no kind.
	DefaultKind string `yaml:"default_kind" env:"DEFAULT_KIND"`
	// SandboxTimeout bounds one sandboxed execution.
	SandboxTimeout time.Duration `yaml:"sandbox_timeout" env:"SANDBOX_TIMEOUT"`
	// SandboxMemoryMB is the sandbox memory budget in megabytes.
	SandboxMemoryMB int `yaml:"sandbox_memory_mb" env:"SANDBOX_MEMORY_MB"`
	// ToolTimeout bounds one external tool invocation.
	ToolTimeout time.Duration `yaml:"tool_timeout" env:"TOOL_TIMEOUT"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	// Backend: database (default), redis, none.
	Backend string `yaml:"backend" env:"BACKEND"`
	// TTL is the rolling record lifetime.
	TTL time.Duration `yaml:"ttl" env:"TTL"`

	Database DatabaseConfig `yaml:"database" env:"DATABASE"`
	Redis    RedisConfig    `yaml:"redis" env:"REDIS"`
}

// DatabaseConfig configures the relational record store.
type DatabaseConfig struct {
	// Driver: sqlite, postgres, mysql.
	Driver   string `yaml:"driver" env:"DRIVER"`
	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE"`

	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RedisConfig configures the Redis record store.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json, console.
	Format string `yaml:"format" env:"FORMAT"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxParallel:     0,
			LayerValidation: false,
			DefaultKind:     string(types.TaskKindMCPTool),
			SandboxTimeout:  30 * time.Second,
			SandboxMemoryMB: 256,
			ToolTimeout:     60 * time.Second,
		},
		Store: StoreConfig{
			Backend: "database",
			TTL:     types.DefaultCheckpointTTL,
			Database: DatabaseConfig{
				Driver:          "sqlite",
				Name:            "flowgrid.db",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: time.Hour,
			},
			Redis: RedisConfig{
				Addr:         "localhost:6379",
				PoolSize:     10,
				MinIdleConns: 2,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "flowgrid",
		},
	}
}

// Validate checks configuration coherence.
func (c *Config) Validate() error {
	var errs []string

	switch c.Store.Backend {
	case "database", "redis", "none":
	default:
		errs = append(errs, fmt.Sprintf("unknown store backend: %s", c.Store.Backend))
	}

	switch c.Store.Database.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("unknown database driver: %s", c.Store.Database.Driver))
	}

	switch types.TaskKind(c.Engine.DefaultKind) {
	case types.TaskKindCodeExecution, types.TaskKindCapability, types.TaskKindMCPTool:
	default:
		errs = append(errs, fmt.Sprintf("unknown default task kind: %s", c.Engine.DefaultKind))
	}

	if c.Engine.MaxParallel < 0 {
		errs = append(errs, "max_parallel must be >= 0")
	}
	if c.Store.TTL <= 0 {
		errs = append(errs, "store ttl must be positive")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("unknown log level: %s", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Routing maps the engine section onto a routing configuration.
func (e *EngineConfig) Routing() workflow.RoutingConfig {
	return workflow.RoutingConfig{
		DefaultKind:     types.TaskKind(e.DefaultKind),
		SandboxTimeout:  e.SandboxTimeout,
		SandboxMemoryMB: e.SandboxMemoryMB,
		ToolTimeout:     e.ToolTimeout,
	}
}

// DSN returns the driver-specific connection string.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "mysql":
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			d.User, d.Password, d.Host, d.Port, d.Name,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Casys-AI/flowgrid/config"
	"github.com/Casys-AI/flowgrid/internal/metrics"
	"github.com/Casys-AI/flowgrid/store"
	"github.com/Casys-AI/flowgrid/types"
	"github.com/Casys-AI/flowgrid/workflow"
)

// Version information, injected at build time.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		runValidate(os.Args[2:])
	case "run":
		runWorkflow(os.Args[2:])
	case "resume":
		runResume(os.Args[2:])
	case "version":
		fmt.Printf("flowgrid %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `flowgrid - layered workflow execution engine

Usage:
  flowgrid validate <dag.json|dag.yaml>        Validate a DAG file
  flowgrid run [flags] <dag.json|dag.yaml>     Execute a DAG
  flowgrid resume [flags] <workflow-id>        Resume a persisted workflow
  flowgrid version                             Show version information

Run flags:
  --config <path>        Config file (YAML)
  --workflow-id <id>     Explicit workflow id
  --intent <text>        Originating intent stored with checkpoints
  --layer-validation     Pause for approval after every layer

Resume flags:
  --config <path>        Config file (YAML)
`)
}

// ---------------------------------------------------------------------------
// validate
// ---------------------------------------------------------------------------

func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "validate requires exactly one DAG file")
		os.Exit(1)
	}

	dag, err := workflow.LoadDAGFromFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid DAG: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("OK: %d tasks\n", len(dag.Tasks))
}

// ---------------------------------------------------------------------------
// run
// ---------------------------------------------------------------------------

func runWorkflow(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	workflowID := fs.String("workflow-id", "", "Explicit workflow id")
	intent := fs.String("intent", "", "Originating intent")
	layerValidation := fs.Bool("layer-validation", false, "Pause for approval after every layer")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "run requires exactly one DAG file")
		os.Exit(1)
	}

	cfg, logger := mustSetup(*configPath)
	defer logger.Sync()

	dag, err := workflow.LoadDAGFromFile(fs.Arg(0))
	if err != nil {
		logger.Fatal("invalid DAG", zap.Error(err))
	}

	checkpoints, closeStore := openStore(cfg, logger)
	defer closeStore()

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, nil, logger)
	}

	opts := workflow.SchedulerOptions{
		LayerValidation: *layerValidation || cfg.Engine.LayerValidation,
		MaxParallel:     cfg.Engine.MaxParallel,
	}

	scheduler, err := workflow.NewScheduler(workflow.SchedulerConfig{
		WorkflowID:  *workflowID,
		Intent:      *intent,
		DAG:         dag,
		Tools:       localTools(cfg, logger),
		Checkpoints: checkpoints,
		Router:      workflow.NewTaskRouter(cfg.Engine.Routing(), logger),
		Options:     opts,
		Logger:      logger,
		Metrics:     collector,
	})
	if err != nil {
		logger.Fatal("failed to build scheduler", zap.Error(err))
	}

	drive(scheduler, logger)
}

// ---------------------------------------------------------------------------
// resume
// ---------------------------------------------------------------------------

func runResume(args []string) {
	fs := flag.NewFlagSet("resume", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "resume requires exactly one workflow id")
		os.Exit(1)
	}

	cfg, logger := mustSetup(*configPath)
	defer logger.Sync()

	checkpoints, closeStore := openStore(cfg, logger)
	defer closeStore()
	if checkpoints == nil {
		logger.Fatal("resume requires a record store; set store.backend")
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace, nil, logger)
	}

	scheduler, err := workflow.ResumeFromCheckpoint(context.Background(), workflow.SchedulerConfig{
		WorkflowID:  fs.Arg(0),
		Tools:       localTools(cfg, logger),
		Checkpoints: checkpoints,
		Router:      workflow.NewTaskRouter(cfg.Engine.Routing(), logger),
		Options: workflow.SchedulerOptions{
			LayerValidation: cfg.Engine.LayerValidation,
			MaxParallel:     cfg.Engine.MaxParallel,
		},
		Logger:  logger,
		Metrics: collector,
	})
	if err != nil {
		logger.Fatal("failed to resume workflow", zap.Error(err))
	}

	drive(scheduler, logger)
}

// ---------------------------------------------------------------------------
// shared wiring
// ---------------------------------------------------------------------------

func mustSetup(configPath string) (*config.Config, *zap.Logger) {
	loader := config.NewLoader().
		WithValidator(func(c *config.Config) error { return c.Validate() })
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return cfg, logger
}

func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	return zcfg.Build()
}

// openStore builds the configured record store. Backend "none" disables
// checkpointing; the returned close function is always safe to call.
func openStore(cfg *config.Config, logger *zap.Logger) (store.RecordStore, func()) {
	switch cfg.Store.Backend {
	case "none":
		return nil, func() {}
	case "redis":
		s, err := store.NewRedisStore(store.RedisConfig{
			Addr:         cfg.Store.Redis.Addr,
			Password:     cfg.Store.Redis.Password,
			DB:           cfg.Store.Redis.DB,
			TTL:          cfg.Store.TTL,
			PoolSize:     cfg.Store.Redis.PoolSize,
			MinIdleConns: cfg.Store.Redis.MinIdleConns,
		}, logger)
		if err != nil {
			logger.Fatal("failed to open redis store", zap.Error(err))
		}
		return s, func() { _ = s.Close() }
	default:
		s, err := store.NewGormStore(store.GormConfig{
			Driver:          cfg.Store.Database.Driver,
			DSN:             cfg.Store.Database.DSN(),
			TTL:             cfg.Store.TTL,
			MaxIdleConns:    cfg.Store.Database.MaxIdleConns,
			MaxOpenConns:    cfg.Store.Database.MaxOpenConns,
			ConnMaxLifetime: cfg.Store.Database.ConnMaxLifetime,
		}, logger)
		if err != nil {
			logger.Fatal("failed to open database store", zap.Error(err))
		}
		return s, func() { _ = s.Close() }
	}
}

// localTools registers the built-in shell tool server.
func localTools(cfg *config.Config, logger *zap.Logger) *workflow.ToolInvoker {
	invoker := workflow.NewToolInvoker(logger)
	invoker.RegisterClient("shell", NewShellToolClient(cfg.Engine.ToolTimeout, logger))
	return invoker
}

// drive runs the scheduler loop, forwarding SIGINT/SIGTERM as an abort
// command so partial results are reported instead of lost.
func drive(scheduler *workflow.Scheduler, logger *zap.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		_ = scheduler.Commands().Enqueue(&types.Command{
			Type:   types.CommandAbort,
			Reason: "interrupted by signal",
		})
	}()

	outcome, err := scheduler.Run(context.Background())
	if err != nil {
		logger.Fatal("workflow failed", zap.Error(err))
	}

	switch outcome.Status {
	case workflow.StepCompleted:
		logger.Info("workflow complete", zap.Int("results", len(outcome.Executed)))
	case workflow.StepAborted:
		logger.Warn("workflow aborted",
			zap.String("reason", outcome.Reason),
			zap.Int("partial_results", len(outcome.Executed)),
		)
		os.Exit(2)
	case workflow.StepAwaitingApproval:
		logger.Info("workflow awaiting approval",
			zap.String("workflow_id", scheduler.WorkflowID()),
			zap.String("checkpoint_id", outcome.CheckpointID),
		)
	}

	for _, r := range outcome.Executed {
		fmt.Printf("%-20s %-12s %v\n", r.TaskID, r.Status, r.Output)
	}
}

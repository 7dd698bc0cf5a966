// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector gathers scheduler and command-channel metrics.
type Collector struct {
	workflowsActive   prometheus.Gauge
	workflowsTotal    *prometheus.CounterVec
	layersTotal       prometheus.Counter
	layerDuration     prometheus.Histogram
	layerSize         prometheus.Histogram
	tasksTotal        *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	commandsTotal     *prometheus.CounterVec
	checkpointsTotal  prometheus.Counter

	logger *zap.Logger
}

// NewCollector creates a collector registered against reg. A nil reg uses
// the default registry.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.workflowsActive = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "workflows_active",
		Help:      "Number of workflows currently executing",
	})

	c.workflowsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "workflows_total",
		Help:      "Total number of finished workflows",
	}, []string{"status"})

	c.layersTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "layers_total",
		Help:      "Total number of executed layers",
	})

	c.layerDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layer_duration_seconds",
		Help:      "Layer execution duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	c.layerSize = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "layer_size_tasks",
		Help:      "Number of tasks per executed layer",
		Buckets:   prometheus.LinearBuckets(1, 2, 10),
	})

	c.tasksTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tasks_total",
		Help:      "Total number of executed tasks",
	}, []string{"kind", "status"})

	c.taskDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Task execution duration in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})

	c.commandsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Total number of control commands applied at layer boundaries",
	}, []string{"type"})

	c.checkpointsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkpoints_total",
		Help:      "Total number of persisted checkpoints",
	})

	return c
}

// WorkflowStarted marks one workflow as active.
func (c *Collector) WorkflowStarted() {
	c.workflowsActive.Inc()
}

// WorkflowFinished marks one workflow as finished with the given status.
func (c *Collector) WorkflowFinished(status string) {
	c.workflowsActive.Dec()
	c.workflowsTotal.WithLabelValues(status).Inc()
}

// LayerExecuted records one executed layer.
func (c *Collector) LayerExecuted(size int, duration time.Duration) {
	c.layersTotal.Inc()
	c.layerDuration.Observe(duration.Seconds())
	c.layerSize.Observe(float64(size))
}

// TaskExecuted records one task attempt.
func (c *Collector) TaskExecuted(kind, status string, duration time.Duration) {
	c.tasksTotal.WithLabelValues(kind, status).Inc()
	c.taskDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// CommandProcessed records one applied control command.
func (c *Collector) CommandProcessed(cmdType string) {
	c.commandsTotal.WithLabelValues(cmdType).Inc()
}

// CheckpointSaved records one persisted checkpoint.
func (c *Collector) CheckpointSaved() {
	c.checkpointsTotal.Inc()
}

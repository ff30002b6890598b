// Package temporal connects the sync workflows to a Temporal cluster.
package temporal

import (
	"fmt"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/workflows"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/config"
)

// Dial connects to the cluster of cfg
func Dial(cfg config.TemporalConfig, logger *zap.Logger) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  cfg.HostPort,
		Namespace: cfg.Namespace,
		Logger:    NewLogger(logger.Named("temporal")),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal: dial %s: %w", cfg.HostPort, err)
	}
	return c, nil
}

// Worker polls the sync task queue
type Worker struct {
	worker    worker.Worker
	taskQueue string
	logger    *zap.Logger
}

// NewWorker registers MarketplaceSyncWorkflow and its activities on taskQueue
func NewWorker(c client.Client, taskQueue string, activities *workflows.Activities, logger *zap.Logger) *Worker {
	w := worker.New(c, taskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(workflows.MarketplaceSyncWorkflow, workflow.RegisterOptions{
		Name: "MarketplaceSyncWorkflow",
	})
	w.RegisterActivity(activities)
	return &Worker{worker: w, taskQueue: taskQueue, logger: logger}
}

// Start begins polling; it does not block
func (w *Worker) Start() error {
	if err := w.worker.Start(); err != nil {
		return fmt.Errorf("temporal: start worker: %w", err)
	}
	w.logger.Info("Temporal worker started", zap.String("task_queue", w.taskQueue))
	return nil
}

// Stop waits for running activities to return
func (w *Worker) Stop() {
	w.worker.Stop()
	w.logger.Info("Temporal worker stopped")
}

// zapLogger adapts zap to the SDK logger
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewLogger returns an SDK logger writing to l
func NewLogger(l *zap.Logger) log.Logger {
	return &zapLogger{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

var _ log.WithLogger = (*zapLogger)(nil)

func (l *zapLogger) Debug(msg string, keyvals ...interface{}) { l.s.Debugw(msg, keyvals...) }
func (l *zapLogger) Info(msg string, keyvals ...interface{})  { l.s.Infow(msg, keyvals...) }
func (l *zapLogger) Warn(msg string, keyvals ...interface{})  { l.s.Warnw(msg, keyvals...) }
func (l *zapLogger) Error(msg string, keyvals ...interface{}) { l.s.Errorw(msg, keyvals...) }

func (l *zapLogger) With(keyvals ...interface{}) log.Logger {
	return &zapLogger{s: l.s.With(keyvals...)}
}

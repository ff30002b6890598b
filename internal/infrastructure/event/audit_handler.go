package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
)

// AuditLogHandler writes one structured log line per lifecycle event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates the handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("job_audit")}
}

// EventTypes returns nil: the handler receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("user_id", event.UserID().String()),
	}
	switch e := event.(type) {
	case *job.JobEvent:
		fields = append(fields,
			zap.String("marketplace", string(e.Marketplace)),
			zap.String("action", string(e.Action)),
			zap.String("status", string(e.Status)),
			zap.Int("retry_count", e.RetryCount),
		)
		if e.ErrorMessage != "" {
			fields = append(fields, zap.String("error", e.ErrorMessage))
		}
	case *job.BatchEvent:
		fields = append(fields,
			zap.String("batch_id", e.BatchID),
			zap.String("status", string(e.Status)),
			zap.Int("total", e.TotalCount),
			zap.Int("completed", e.CompletedCount),
			zap.Int("failed", e.FailedCount),
		)
	}
	logger.Enrich(ctx, h.logger).Info("Job lifecycle event", fields...)
	return nil
}

package job

import (
	"context"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// EventPublisher delivers job lifecycle events to downstream consumers
type EventPublisher interface {
	Publish(ctx context.Context, events ...shared.DomainEvent) error
}

// TransactionalRepositories exposes repositories bound to one transaction
type TransactionalRepositories interface {
	JobRepo() job.JobRepository
	BatchRepo() job.BatchRepository
}

// TransactionScope runs fn atomically
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }

// NoopPublisher drops every event
func NoopPublisher() EventPublisher {
	return noopPublisher{}
}

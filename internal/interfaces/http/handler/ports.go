package handler

import (
	"context"

	"github.com/google/uuid"

	jobapp "github.com/matthiasrib29/StoFlow-sub000/internal/application/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/workflows"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/auth"
)

// JobService is the part of MarketplaceJobService used by the API
type JobService interface {
	CreateJob(ctx context.Context, in jobapp.CreateJobInput) (*job.MarketplaceJob, error)
	GetJob(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error)
	ListJobs(ctx context.Context, filter job.JobFilter) ([]job.MarketplaceJob, int64, error)
	CancelJob(ctx context.Context, userID, id uuid.UUID) (*jobapp.CancelResult, error)
	RetryJob(ctx context.Context, userID, id uuid.UUID) (*job.MarketplaceJob, error)
	Stats(ctx context.Context, userID uuid.UUID) (*jobapp.JobStats, error)
}

// BatchService is the part of BatchJobService used by the API
type BatchService interface {
	CreateBatch(ctx context.Context, in jobapp.CreateBatchInput) (*jobapp.BatchView, error)
	GetBatch(ctx context.Context, userID uuid.UUID, reference string) (*jobapp.BatchView, error)
	ListBatches(ctx context.Context, filter job.BatchFilter) ([]job.BatchJob, int64, error)
	BatchJobs(ctx context.Context, userID uuid.UUID, reference string, statuses ...job.Status) ([]job.MarketplaceJob, error)
	CancelBatch(ctx context.Context, userID uuid.UUID, reference string) (*jobapp.BatchView, int, error)
	RetryFailed(ctx context.Context, userID uuid.UUID, reference string) (*jobapp.BatchView, int, error)
}

// QueueNotifier wakes the job runner once new work is queued
type QueueNotifier interface {
	Notify()
}

// MappingService resolves Vinted catalog ids
type MappingService interface {
	ResolveCategory(ctx context.Context, q vinted.CategoryQuery) (int64, error)
	MatchAttribute(ctx context.Context, kind vinted.AttributeKind, value, sizeGroup string) (vinted.AttributeMatch, error)
}

// ProductFinder loads a product owned by a user
type ProductFinder interface {
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*catalog.Product, error)
}

// SyncWorkflows starts and inspects durable sync runs
type SyncWorkflows interface {
	Start(ctx context.Context, in workflows.SyncInput) (*workflows.RunInfo, error)
	Status(ctx context.Context, userID uuid.UUID, workflowID string) (*workflows.RunStatus, error)
}

// PluginTokenIssuer mints tokens for the browser extension
type PluginTokenIssuer interface {
	GeneratePluginToken(userID uuid.UUID) (*auth.IssuedToken, error)
}

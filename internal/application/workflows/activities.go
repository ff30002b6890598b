package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
)

// Activities are registered on the worker as a struct; the workflow refers
// to them through a nil *Activities.
type Activities struct {
	dispatcher *jobhandler.Dispatcher
	logger     *zap.Logger
}

// NewActivities creates the sync activities over the job handlers
func NewActivities(dispatcher *jobhandler.Dispatcher, logger *zap.Logger) *Activities {
	return &Activities{dispatcher: dispatcher, logger: logger.Named("sync_activities")}
}

// SyncScope runs one scope through the job handler of its action. The job is
// transient: it only carries the routing fields and is never stored.
func (a *Activities) SyncScope(ctx context.Context, in ScopeInput) (job.Payload, error) {
	action, ok := in.Scope.Action()
	if !ok {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("unknown sync scope %q", in.Scope), errTypePermanent, nil)
	}
	spec, err := marketplace.LookupAction(in.Marketplace, action)
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), errTypePermanent, err)
	}

	info := activity.GetInfo(ctx)
	log := a.logger.With(
		zap.String("user_id", in.UserID.String()),
		zap.String("marketplace", string(in.Marketplace)),
		zap.String("scope", string(in.Scope)),
		zap.String("workflow_id", info.WorkflowExecution.ID),
		zap.Int32("attempt", info.Attempt),
	)

	ctx = jobhandler.WithProgress(ctx, func(processed, total int, stage string) {
		activity.RecordHeartbeat(ctx, processed, total, stage)
	})

	j := job.NewMarketplaceJob(in.UserID, spec, nil, nil)
	result, err := a.dispatcher.Dispatch(ctx, j)
	if err != nil {
		if !jobhandler.IsRetryable(err) {
			log.Warn("Sync scope failed permanently", zap.Error(err))
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), errTypePermanent, err)
		}
		log.Info("Sync scope failed, will retry", zap.Error(err))
		return nil, err
	}

	log.Info("Sync scope completed")
	return result, nil
}

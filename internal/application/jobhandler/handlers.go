package jobhandler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"go.uber.org/zap"
)

// ProductContext is what a listing strategy receives
type ProductContext struct {
	JobID   uuid.UUID
	Product *catalog.Product
	Input   job.Payload
}

// Strategies groups the per-marketplace implementations
type Strategies struct {
	Listings  map[marketplace.Marketplace]ListingStrategy
	Syncs     map[marketplace.Marketplace]ListingSyncStrategy
	Orders    map[marketplace.Marketplace]OrderSyncStrategy
	Messages  map[marketplace.Marketplace]MessageSyncStrategy
	Inquiries map[marketplace.Marketplace]InquirySyncStrategy
	Policies  map[marketplace.Marketplace]PolicySyncStrategy
}

func strategyFor[T any](m map[marketplace.Marketplace]T, j *job.MarketplaceJob) (T, error) {
	s, ok := m[j.Marketplace]
	if !ok {
		var zero T
		return zero, Permanent(fmt.Errorf("%w: %s on %s", marketplace.ErrUnsupportedAction, j.Action, j.Marketplace))
	}
	return s, nil
}

// NewHandlers builds every handler over the given strategies
func NewHandlers(products catalog.ProductRepository, s Strategies, logger *zap.Logger) []JobHandler {
	return []JobHandler{
		&PublishJobHandler{products: products, strategies: s.Listings, logger: logger},
		&UpdateJobHandler{products: products, strategies: s.Listings, logger: logger},
		&DeleteJobHandler{strategies: s.Listings, logger: logger},
		&SyncJobHandler{strategies: s.Syncs},
		&OrdersSyncJobHandler{strategies: s.Orders},
		&MessagesSyncJobHandler{strategies: s.Messages},
		&InquiriesSyncJobHandler{strategies: s.Inquiries},
		&PoliciesSyncJobHandler{strategies: s.Policies},
	}
}

// loadPublishable loads the job's product and validates it for the marketplace
func loadPublishable(ctx context.Context, products catalog.ProductRepository, j *job.MarketplaceJob) (*ProductContext, error) {
	if j.ProductID == nil {
		return nil, Permanent(job.ErrProductRequired)
	}
	p, err := products.FindByIDForUser(ctx, j.UserID, *j.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, Permanent(err)
		}
		return nil, err
	}
	if err := mapping.ValidateForMarketplace(p, j.Marketplace); err != nil {
		return nil, Permanent(err)
	}
	return &ProductContext{JobID: j.ID, Product: p, Input: j.InputData}, nil
}

// ---------------------------------------------------------------------------
// Listing handlers
// ---------------------------------------------------------------------------

// PublishJobHandler creates a listing for a product
type PublishJobHandler struct {
	products   catalog.ProductRepository
	strategies map[marketplace.Marketplace]ListingStrategy
	logger     *zap.Logger
}

func (h *PublishJobHandler) Action() marketplace.Action { return marketplace.ActionPublish }

func (h *PublishJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	pc, err := loadPublishable(ctx, h.products, j)
	if err != nil {
		return nil, err
	}
	if err := Checkpoint(ctx); err != nil {
		return nil, err
	}

	res, err := strategy.Publish(ctx, pc)
	if err != nil {
		if errors.Is(err, ErrAlreadyPublished) {
			return nil, Permanent(err)
		}
		return nil, err
	}

	pc.Product.MarkPublished(time.Now())
	if err := h.products.Save(ctx, pc.Product); err != nil {
		h.logger.Warn("Failed to mark product published",
			zap.String("product_id", pc.Product.ID.String()),
			zap.Error(err),
		)
	}
	return res.Payload(), nil
}

// UpdateJobHandler pushes product changes to the remote listing
type UpdateJobHandler struct {
	products   catalog.ProductRepository
	strategies map[marketplace.Marketplace]ListingStrategy
	logger     *zap.Logger
}

func (h *UpdateJobHandler) Action() marketplace.Action { return marketplace.ActionUpdate }

func (h *UpdateJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	pc, err := loadPublishable(ctx, h.products, j)
	if err != nil {
		return nil, err
	}
	res, err := strategy.Update(ctx, pc)
	if err != nil {
		return nil, err
	}
	return res.Payload(), nil
}

// DeleteJobHandler removes the remote listing
type DeleteJobHandler struct {
	strategies map[marketplace.Marketplace]ListingStrategy
	logger     *zap.Logger
}

func (h *DeleteJobHandler) Action() marketplace.Action { return marketplace.ActionDelete }

func (h *DeleteJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	if j.ProductID == nil {
		return nil, Permanent(job.ErrProductRequired)
	}
	res, err := strategy.Delete(ctx, j.UserID, *j.ProductID)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Remote listing removed",
		zap.String("job_id", j.ID.String()),
		zap.String("marketplace", j.Marketplace.String()),
		zap.String("remote_id", res.RemoteID),
	)
	return res.Payload(), nil
}

// ---------------------------------------------------------------------------
// Sync handlers
// ---------------------------------------------------------------------------

// SyncJobHandler reconciles remote listings
type SyncJobHandler struct {
	strategies map[marketplace.Marketplace]ListingSyncStrategy
}

func (h *SyncJobHandler) Action() marketplace.Action { return marketplace.ActionSync }

func (h *SyncJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	return summaryPayload(strategy.SyncListings(ctx, j.UserID))
}

// OrdersSyncJobHandler imports orders. InputData may carry "since" (RFC 3339).
type OrdersSyncJobHandler struct {
	strategies map[marketplace.Marketplace]OrderSyncStrategy
}

func (h *OrdersSyncJobHandler) Action() marketplace.Action { return marketplace.ActionOrdersSync }

func (h *OrdersSyncJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	var since *time.Time
	if raw := j.InputString("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, Permanent(fmt.Errorf("invalid since %q: %w", raw, err))
		}
		since = &t
	}
	return summaryPayload(strategy.SyncOrders(ctx, j.UserID, since))
}

// MessagesSyncJobHandler imports inbox threads
type MessagesSyncJobHandler struct {
	strategies map[marketplace.Marketplace]MessageSyncStrategy
}

func (h *MessagesSyncJobHandler) Action() marketplace.Action { return marketplace.ActionMessagesSync }

func (h *MessagesSyncJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	return summaryPayload(strategy.SyncMessages(ctx, j.UserID))
}

// InquiriesSyncJobHandler imports buyer inquiries
type InquiriesSyncJobHandler struct {
	strategies map[marketplace.Marketplace]InquirySyncStrategy
}

func (h *InquiriesSyncJobHandler) Action() marketplace.Action {
	return marketplace.ActionInquiriesSync
}

func (h *InquiriesSyncJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	return summaryPayload(strategy.SyncInquiries(ctx, j.UserID))
}

// PoliciesSyncJobHandler refreshes business policies
type PoliciesSyncJobHandler struct {
	strategies map[marketplace.Marketplace]PolicySyncStrategy
}

func (h *PoliciesSyncJobHandler) Action() marketplace.Action { return marketplace.ActionPoliciesSync }

func (h *PoliciesSyncJobHandler) Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	strategy, err := strategyFor(h.strategies, j)
	if err != nil {
		return nil, err
	}
	return summaryPayload(strategy.SyncPolicies(ctx, j.UserID))
}

func summaryPayload(s *SyncSummary, err error) (job.Payload, error) {
	if err != nil {
		return nil, err
	}
	return s.Payload(), nil
}

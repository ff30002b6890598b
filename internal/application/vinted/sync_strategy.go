package vinted

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"go.uber.org/zap"
)

// Sync defaults
const (
	DefaultOrdersLookback      = 30 * 24 * time.Hour
	DefaultMaxPages            = 50
	DefaultMaxConversationPage = 5
)

// SyncStrategy imports listings, orders and conversations from Vinted
type SyncStrategy struct {
	gateway       vinted.Gateway
	links         vinted.ProductRepository
	orders        vinted.OrderRepository
	conversations vinted.ConversationRepository
	products      catalog.ProductRepository
	logger        *zap.Logger
	now           func() time.Time

	maxPages             int
	maxConversationPages int
}

// NewSyncStrategy creates the strategy
func NewSyncStrategy(
	gateway vinted.Gateway,
	links vinted.ProductRepository,
	orders vinted.OrderRepository,
	conversations vinted.ConversationRepository,
	products catalog.ProductRepository,
	logger *zap.Logger,
) *SyncStrategy {
	return &SyncStrategy{
		gateway:              gateway,
		links:                links,
		orders:               orders,
		conversations:        conversations,
		products:             products,
		logger:               logger.Named("vinted_sync"),
		now:                  time.Now,
		maxPages:             DefaultMaxPages,
		maxConversationPages: DefaultMaxConversationPage,
	}
}

var (
	_ jobhandler.ListingSyncStrategy = (*SyncStrategy)(nil)
	_ jobhandler.OrderSyncStrategy   = (*SyncStrategy)(nil)
	_ jobhandler.MessageSyncStrategy = (*SyncStrategy)(nil)
)

// SyncListings pages through the wardrobe and reconciles local links.
// Live links missing from the wardrobe are marked deleted, but only when the
// whole wardrobe was read.
func (s *SyncStrategy) SyncListings(ctx context.Context, userID uuid.UUID) (*jobhandler.SyncSummary, error) {
	summary := &jobhandler.SyncSummary{Scope: "listings", Truncated: true}
	seen := make(map[int64]struct{})
	now := s.now()

	for page := 1; page <= s.maxPages; page++ {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		res, err := s.gateway.ListWardrobe(ctx, userID, page)
		if err != nil {
			return nil, fmt.Errorf("list wardrobe page %d: %w", page, err)
		}
		summary.Pages++

		for _, item := range res.Items {
			summary.Fetched++
			seen[item.ID] = struct{}{}

			link, err := s.links.FindByVintedID(ctx, userID, item.ID)
			if errors.Is(err, vinted.ErrLinkNotFound) {
				summary.Unlinked = append(summary.Unlinked, item.ID)
				continue
			}
			if err != nil {
				return nil, err
			}
			link.ApplyRemote(item, now)
			if err := s.links.Save(ctx, link); err != nil {
				return nil, err
			}
			summary.Updated++
		}
		jobhandler.ReportProgress(ctx, page, res.TotalPages, "listings")
		if !res.HasNext() {
			summary.Truncated = false
			break
		}
	}

	if summary.Truncated {
		s.logger.Warn("Vinted wardrobe exceeds the page limit, skipping deletions",
			zap.String("user_id", userID.String()),
			zap.Int("pages", summary.Pages),
		)
		return summary, nil
	}

	live, err := s.links.FindLive(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range live {
		if _, ok := seen[live[i].VintedID]; ok {
			continue
		}
		live[i].MarkDeleted(now)
		if err := s.links.Save(ctx, &live[i]); err != nil {
			return nil, err
		}
		summary.Deleted++
	}

	s.logger.Info("Vinted listings synchronized",
		zap.String("user_id", userID.String()),
		zap.Int("fetched", summary.Fetched),
		zap.Int("updated", summary.Updated),
		zap.Int("deleted", summary.Deleted),
		zap.Int("unlinked", len(summary.Unlinked)),
	)
	return summary, nil
}

// SyncOrders imports sold orders newer than since (default: last imported order, else 30 days)
func (s *SyncStrategy) SyncOrders(ctx context.Context, userID uuid.UUID, since *time.Time) (*jobhandler.SyncSummary, error) {
	cutoff, err := s.ordersCutoff(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	summary := &jobhandler.SyncSummary{Scope: "orders"}

pages:
	for page := 1; page <= s.maxPages; page++ {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		res, err := s.gateway.ListMyOrders(ctx, userID, page)
		if err != nil {
			return nil, fmt.Errorf("list orders page %d: %w", page, err)
		}
		summary.Pages++

		for i := range res.Orders {
			o := &res.Orders[i]
			if o.OrderedAt != nil && o.OrderedAt.Before(cutoff) {
				break pages
			}
			summary.Fetched++
			if err := s.importOrder(ctx, userID, o, summary); err != nil {
				return nil, err
			}
		}
		jobhandler.ReportProgress(ctx, page, res.TotalPages, "orders")
		if !res.HasNext() {
			break
		}
	}
	return summary, nil
}

func (s *SyncStrategy) ordersCutoff(ctx context.Context, userID uuid.UUID, since *time.Time) (time.Time, error) {
	if since != nil {
		return *since, nil
	}
	latest, err := s.orders.LatestOrderedAt(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if latest != nil {
		return *latest, nil
	}
	return s.now().Add(-DefaultOrdersLookback), nil
}

func (s *SyncStrategy) importOrder(ctx context.Context, userID uuid.UUID, o *vinted.VintedOrder, summary *jobhandler.SyncSummary) error {
	o.UserID = userID
	var sold []*vinted.VintedProduct
	for i := range o.Items {
		link, err := s.links.FindByVintedID(ctx, userID, o.Items[i].VintedItemID)
		if errors.Is(err, vinted.ErrLinkNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		pid := link.ProductID
		o.Items[i].ProductID = &pid
		sold = append(sold, link)
	}

	created, err := s.orders.Upsert(ctx, o)
	if err != nil {
		return fmt.Errorf("upsert order %d: %w", o.TransactionID, err)
	}
	if created {
		summary.Created++
	} else {
		summary.Updated++
	}

	if !o.IsSale() {
		return nil
	}
	now := s.now()
	for _, link := range sold {
		if link.Status != vinted.ListingSold {
			link.Status = vinted.ListingSold
			link.LastSyncedAt = &now
			link.UpdatedAt = now
			if err := s.links.Save(ctx, link); err != nil {
				return err
			}
		}
		product, err := s.products.FindByIDForUser(ctx, userID, link.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				continue
			}
			return err
		}
		if product.Status != catalog.ProductStatusSold {
			product.MarkSold(now)
			if err := s.products.Save(ctx, product); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncMessages imports the most recent inbox threads with their messages
func (s *SyncStrategy) SyncMessages(ctx context.Context, userID uuid.UUID) (*jobhandler.SyncSummary, error) {
	summary := &jobhandler.SyncSummary{Scope: "messages"}

	for page := 1; page <= s.maxConversationPages; page++ {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		res, err := s.gateway.ListConversations(ctx, userID, page)
		if err != nil {
			return nil, fmt.Errorf("list conversations page %d: %w", page, err)
		}
		summary.Pages++

		for _, c := range res.Conversations {
			if err := jobhandler.Checkpoint(ctx); err != nil {
				return nil, err
			}
			full, err := s.gateway.GetConversation(ctx, userID, c.ConversationID)
			if err != nil {
				return nil, fmt.Errorf("get conversation %d: %w", c.ConversationID, err)
			}
			full.UserID = userID
			summary.Fetched++
			created, err := s.conversations.Upsert(ctx, full)
			if err != nil {
				return nil, err
			}
			if created {
				summary.Created++
			} else {
				summary.Updated++
			}
		}
		jobhandler.ReportProgress(ctx, page, res.TotalPages, "messages")
		if !res.HasNext() {
			break
		}
	}
	return summary, nil
}

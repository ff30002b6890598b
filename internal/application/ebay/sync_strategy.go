package ebay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"go.uber.org/zap"
)

// Sync defaults
const (
	DefaultOrdersLookback = 30 * 24 * time.Hour
	inventoryPageSize     = 100
	ordersPageSize        = 50
	inquiriesPageSize     = 25
	maxPages              = 100
)

// SyncStrategy imports listings, orders and inquiries from eBay
type SyncStrategy struct {
	inventory   ebay.InventoryGateway
	fulfillment ebay.FulfillmentGateway
	postOrder   ebay.PostOrderGateway
	links       ebay.ProductRepository
	orders      ebay.OrderRepository
	inquiries   ebay.InquiryRepository
	products    catalog.ProductRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewSyncStrategy creates the strategy
func NewSyncStrategy(
	inventory ebay.InventoryGateway,
	fulfillment ebay.FulfillmentGateway,
	postOrder ebay.PostOrderGateway,
	links ebay.ProductRepository,
	orders ebay.OrderRepository,
	inquiries ebay.InquiryRepository,
	products catalog.ProductRepository,
	logger *zap.Logger,
) *SyncStrategy {
	return &SyncStrategy{
		inventory:   inventory,
		fulfillment: fulfillment,
		postOrder:   postOrder,
		links:       links,
		orders:      orders,
		inquiries:   inquiries,
		products:    products,
		logger:      logger.Named("ebay_sync"),
		now:         time.Now,
	}
}

var (
	_ jobhandler.ListingSyncStrategy = (*SyncStrategy)(nil)
	_ jobhandler.OrderSyncStrategy   = (*SyncStrategy)(nil)
	_ jobhandler.InquirySyncStrategy = (*SyncStrategy)(nil)
)

// SyncListings reconciles inventory items and their offers with local links.
// Published links whose SKU disappeared are marked ended once the whole
// inventory was read.
func (s *SyncStrategy) SyncListings(ctx context.Context, userID uuid.UUID) (*jobhandler.SyncSummary, error) {
	summary := &jobhandler.SyncSummary{Scope: "listings", Truncated: true}
	seen := make(map[string]struct{})
	now := s.now()

	offset := 0
	for page := 0; page < maxPages; page++ {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		res, err := s.inventory.ListInventoryItems(ctx, userID, offset, inventoryPageSize)
		if err != nil {
			return nil, fmt.Errorf("list inventory items: %w", err)
		}
		summary.Pages++

		for _, item := range res.Items {
			summary.Fetched++
			seen[item.SKU] = struct{}{}

			link, err := s.links.FindBySKU(ctx, userID, item.SKU)
			if errors.Is(err, ebay.ErrLinkNotFound) {
				summary.UnlinkedSKUs = append(summary.UnlinkedSKUs, item.SKU)
				continue
			}
			if err != nil {
				return nil, err
			}
			offers, err := s.inventory.GetOffers(ctx, userID, item.SKU)
			if err != nil && !errors.Is(err, ebay.ErrResourceNotFound) {
				return nil, fmt.Errorf("get offers for %s: %w", item.SKU, err)
			}
			applyOffers(link, item, offers, now)
			if err := s.links.Save(ctx, link); err != nil {
				return nil, err
			}
			summary.Updated++
		}
		jobhandler.ReportProgress(ctx, summary.Fetched, res.Total, "listings")
		if !res.HasNext() || len(res.Items) == 0 {
			summary.Truncated = false
			break
		}
		offset = res.NextOffset()
	}

	if summary.Truncated {
		s.logger.Warn("eBay inventory exceeds the page limit, skipping ended listings",
			zap.String("user_id", userID.String()),
			zap.Int("pages", summary.Pages),
		)
		return summary, nil
	}

	published, err := s.links.FindPublished(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range published {
		if _, ok := seen[published[i].SKU]; ok {
			continue
		}
		published[i].MarkEnded(now)
		if err := s.links.Save(ctx, &published[i]); err != nil {
			return nil, err
		}
		summary.Deleted++
	}

	s.logger.Info("eBay listings synchronized",
		zap.String("user_id", userID.String()),
		zap.Int("fetched", summary.Fetched),
		zap.Int("updated", summary.Updated),
		zap.Int("ended", summary.Deleted),
	)
	return summary, nil
}

func applyOffers(link *ebay.EbayProduct, item ebay.InventoryItem, offers []ebay.Offer, now time.Time) {
	link.Quantity = item.Quantity
	if o := offerFor(link.MarketplaceID, offers); o != nil {
		link.OfferID = o.OfferID
		if o.ListingID != "" {
			link.ListingID = o.ListingID
		}
		if !o.Price.IsZero() {
			link.Price = o.Price
			link.Currency = o.Currency
		}
		switch o.Status {
		case "PUBLISHED":
			link.Status = ebay.ListingPublished
		case "UNPUBLISHED":
			if link.Status == ebay.ListingPublished {
				link.Status = ebay.ListingEnded
			}
		}
	}
	if link.Status == ebay.ListingPublished && item.Quantity == 0 {
		link.Status = ebay.ListingSold
	}
	link.LastSyncedAt = &now
	link.UpdatedAt = now
}

// offerFor returns the offer on marketplaceID, or the first one when unknown
func offerFor(marketplaceID string, offers []ebay.Offer) *ebay.Offer {
	for i := range offers {
		if marketplaceID == "" || offers[i].MarketplaceID == "" || offers[i].MarketplaceID == marketplaceID {
			return &offers[i]
		}
	}
	return nil
}

// SyncOrders imports orders created after since (default: last imported order, else 30 days)
func (s *SyncStrategy) SyncOrders(ctx context.Context, userID uuid.UUID, since *time.Time) (*jobhandler.SyncSummary, error) {
	cutoff, err := s.ordersCutoff(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	summary := &jobhandler.SyncSummary{Scope: "orders"}

	offset := 0
	for page := 0; page < maxPages; page++ {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		res, err := s.fulfillment.ListOrders(ctx, userID, cutoff, offset, ordersPageSize)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		summary.Pages++

		for i := range res.Orders {
			o := &res.Orders[i]
			o.UserID = userID
			summary.Fetched++
			created, err := s.orders.Upsert(ctx, o)
			if err != nil {
				return nil, fmt.Errorf("upsert order %s: %w", o.OrderID, err)
			}
			if created {
				summary.Created++
			} else {
				summary.Updated++
			}
			if o.IsPaid() {
				if err := s.markSold(ctx, userID, o); err != nil {
					return nil, err
				}
			}
		}
		jobhandler.ReportProgress(ctx, summary.Fetched, res.Total, "orders")
		if !res.HasNext() || len(res.Orders) == 0 {
			break
		}
		offset = res.NextOffset()
	}
	return summary, nil
}

func (s *SyncStrategy) ordersCutoff(ctx context.Context, userID uuid.UUID, since *time.Time) (time.Time, error) {
	if since != nil {
		return *since, nil
	}
	latest, err := s.orders.LatestCreatedAt(ctx, userID)
	if err != nil {
		return time.Time{}, err
	}
	if latest != nil {
		return *latest, nil
	}
	return s.now().Add(-DefaultOrdersLookback), nil
}

func (s *SyncStrategy) markSold(ctx context.Context, userID uuid.UUID, o *ebay.EbayOrder) error {
	now := s.now()
	for _, li := range o.LineItems {
		if li.SKU == "" {
			continue
		}
		link, err := s.links.FindBySKU(ctx, userID, li.SKU)
		if errors.Is(err, ebay.ErrLinkNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if link.Status != ebay.ListingSold {
			link.Status = ebay.ListingSold
			link.LastSyncedAt = &now
			link.UpdatedAt = now
			if err := s.links.Save(ctx, link); err != nil {
				return err
			}
		}
		product, err := s.products.FindByIDForUser(ctx, userID, link.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			continue
		}
		if err != nil {
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

// SyncInquiries imports buyer inquiries
func (s *SyncStrategy) SyncInquiries(ctx context.Context, userID uuid.UUID) (*jobhandler.SyncSummary, error) {
	summary := &jobhandler.SyncSummary{Scope: "inquiries"}

	offset := 0
	for page := 0; page < maxPages; page++ {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		res, err := s.postOrder.SearchInquiries(ctx, userID, offset, inquiriesPageSize)
		if err != nil {
			return nil, fmt.Errorf("search inquiries: %w", err)
		}
		summary.Pages++

		for i := range res.Inquiries {
			inq := &res.Inquiries[i]
			inq.UserID = userID
			summary.Fetched++
			created, err := s.inquiries.Upsert(ctx, inq)
			if err != nil {
				return nil, fmt.Errorf("upsert inquiry %s: %w", inq.InquiryID, err)
			}
			if created {
				summary.Created++
			} else {
				summary.Updated++
			}
		}
		if !res.HasNext() || len(res.Inquiries) == 0 {
			break
		}
		offset = res.NextOffset()
	}
	return summary, nil
}

// Package ebay implements the eBay side of the job handlers on top of the
// Sell and Post-Order API gateways.
package ebay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"go.uber.org/zap"
)

// ListingStrategy publishes, updates and withdraws eBay offers
type ListingStrategy struct {
	inventory   ebay.InventoryGateway
	mapper      *mapping.EbayMapper
	links       ebay.ProductRepository
	credentials ebay.CredentialRepository
	policies    *PolicyService
	images      jobhandler.ImageResolver
	logger      *zap.Logger
	now         func() time.Time
}

// NewListingStrategy creates the strategy
func NewListingStrategy(
	inventory ebay.InventoryGateway,
	mapper *mapping.EbayMapper,
	links ebay.ProductRepository,
	credentials ebay.CredentialRepository,
	policies *PolicyService,
	images jobhandler.ImageResolver,
	logger *zap.Logger,
) *ListingStrategy {
	if images == nil {
		images = jobhandler.PassthroughImages()
	}
	return &ListingStrategy{
		inventory:   inventory,
		mapper:      mapper,
		links:       links,
		credentials: credentials,
		policies:    policies,
		images:      images,
		logger:      logger.Named("ebay_listing"),
		now:         time.Now,
	}
}

var _ jobhandler.ListingStrategy = (*ListingStrategy)(nil)

// Publish upserts the inventory item, creates or updates the offer and publishes it
func (s *ListingStrategy) Publish(ctx context.Context, pc *jobhandler.ProductContext) (*jobhandler.ListingResult, error) {
	p := pc.Product
	link, err := s.findLink(ctx, p.UserID, p.ID)
	if err != nil {
		return nil, err
	}
	if link != nil && link.Status == ebay.ListingPublished {
		return nil, jobhandler.ErrAlreadyPublished
	}

	cred, err := s.credentials.FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		link = ebay.NewEbayProduct(p.UserID, p.ID, cred.MarketplaceID)
	}

	policies, err := s.policies.Defaults(ctx, p.UserID, link.MarketplaceID)
	if err != nil {
		return nil, err
	}
	listing, offer, err := s.prepare(ctx, p, link, cred, policies)
	if err != nil {
		return nil, err
	}

	if link.OfferID == "" {
		offerID, err := s.inventory.CreateOffer(ctx, p.UserID, offer)
		if err != nil {
			return nil, fmt.Errorf("create offer: %w", err)
		}
		link.OfferID = offerID
		// saved before publishing: a retry must update this offer, not create another
		if err := s.links.Save(ctx, link); err != nil {
			return nil, fmt.Errorf("save ebay link: %w", err)
		}
	} else if err := s.inventory.UpdateOffer(ctx, p.UserID, link.OfferID, offer); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}

	if err := jobhandler.Checkpoint(ctx); err != nil {
		return nil, err
	}
	listingID, err := s.inventory.PublishOffer(ctx, p.UserID, link.OfferID)
	if err != nil {
		return nil, fmt.Errorf("publish offer: %w", err)
	}

	link.MarkPublished(link.OfferID, listingID, s.now())
	if err := s.links.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("save ebay link: %w", err)
	}

	s.logger.Info("eBay offer published",
		zap.String("product_id", p.ID.String()),
		zap.String("sku", link.SKU),
		zap.String("offer_id", link.OfferID),
		zap.String("listing_id", listingID),
		zap.String("category_id", listing.CategoryID),
	)
	return &jobhandler.ListingResult{RemoteID: listingID, URL: listingURL(listingID), Status: string(link.Status)}, nil
}

// Update refreshes the inventory item and offer of a published product
func (s *ListingStrategy) Update(ctx context.Context, pc *jobhandler.ProductContext) (*jobhandler.ListingResult, error) {
	p := pc.Product
	link, err := s.findLink(ctx, p.UserID, p.ID)
	if err != nil {
		return nil, err
	}
	if link == nil || link.Status != ebay.ListingPublished || link.OfferID == "" {
		return nil, jobhandler.ErrNotPublished
	}

	cred, err := s.credentials.FindByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	policies := ebay.PolicySet{
		FulfillmentPolicyID: link.FulfillmentPolicyID,
		PaymentPolicyID:     link.PaymentPolicyID,
		ReturnPolicyID:      link.ReturnPolicyID,
	}
	if !policies.Complete() {
		if policies, err = s.policies.Defaults(ctx, p.UserID, link.MarketplaceID); err != nil {
			return nil, err
		}
	}
	_, offer, err := s.prepare(ctx, p, link, cred, policies)
	if err != nil {
		return nil, err
	}
	if err := s.inventory.UpdateOffer(ctx, p.UserID, link.OfferID, offer); err != nil {
		return nil, fmt.Errorf("update offer: %w", err)
	}

	now := s.now()
	link.LastSyncedAt = &now
	link.UpdatedAt = now
	if err := s.links.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("save ebay link: %w", err)
	}
	return &jobhandler.ListingResult{RemoteID: link.ListingID, URL: listingURL(link.ListingID), Status: string(link.Status)}, nil
}

// Delete withdraws the offer and removes the inventory item
func (s *ListingStrategy) Delete(ctx context.Context, userID, productID uuid.UUID) (*jobhandler.ListingResult, error) {
	link, err := s.findLink(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, jobhandler.ErrNotPublished
	}

	if link.OfferID != "" && link.Status == ebay.ListingPublished {
		if err := s.inventory.WithdrawOffer(ctx, userID, link.OfferID); err != nil && !errors.Is(err, ebay.ErrResourceNotFound) {
			return nil, fmt.Errorf("withdraw offer: %w", err)
		}
	}
	if err := s.inventory.DeleteInventoryItem(ctx, userID, link.SKU); err != nil && !errors.Is(err, ebay.ErrResourceNotFound) {
		return nil, fmt.Errorf("delete inventory item: %w", err)
	}

	link.MarkEnded(s.now())
	if err := s.links.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("save ebay link: %w", err)
	}
	return &jobhandler.ListingResult{RemoteID: link.ListingID, Status: string(link.Status)}, nil
}

// prepare maps the product, upserts the inventory item and returns the offer body
func (s *ListingStrategy) prepare(ctx context.Context, p *catalog.Product, link *ebay.EbayProduct, cred *ebay.Credential, policies ebay.PolicySet) (*mapping.EbayListing, ebay.OfferRequest, error) {
	listing, err := s.mapper.Build(p)
	if err != nil {
		return nil, ebay.OfferRequest{}, err
	}
	images := make([]string, 0, len(listing.ImageURLs))
	for _, ref := range listing.ImageURLs {
		url, err := s.images.ResolveImageURL(ctx, ref)
		if err != nil {
			return nil, ebay.OfferRequest{}, fmt.Errorf("resolve image: %w", err)
		}
		images = append(images, url)
	}

	err = s.inventory.PutInventoryItem(ctx, p.UserID, ebay.InventoryItemRequest{
		SKU:         link.SKU,
		Title:       listing.Title,
		Description: listing.Description,
		Condition:   listing.Condition,
		Aspects:     listing.Aspects,
		ImageURLs:   images,
		Quantity:    listing.Quantity,
	})
	if err != nil {
		return nil, ebay.OfferRequest{}, fmt.Errorf("put inventory item: %w", err)
	}

	link.CategoryID = listing.CategoryID
	link.Aspects = listing.Aspects
	link.Price = listing.Price.Amount()
	link.Currency = string(listing.Price.Currency())
	link.Quantity = listing.Quantity
	link.FulfillmentPolicyID = policies.FulfillmentPolicyID
	link.PaymentPolicyID = policies.PaymentPolicyID
	link.ReturnPolicyID = policies.ReturnPolicyID
	link.MerchantLocationKey = cred.MerchantLocationKey

	return listing, ebay.OfferRequest{
		SKU:                 link.SKU,
		MarketplaceID:       link.MarketplaceID,
		CategoryID:          listing.CategoryID,
		Description:         listing.Description,
		Price:               link.Price,
		Currency:            link.Currency,
		Quantity:            listing.Quantity,
		Policies:            policies,
		MerchantLocationKey: cred.MerchantLocationKey,
	}, nil
}

func (s *ListingStrategy) findLink(ctx context.Context, userID, productID uuid.UUID) (*ebay.EbayProduct, error) {
	link, err := s.links.FindByProduct(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, ebay.ErrLinkNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return link, nil
}

func listingURL(listingID string) string {
	if listingID == "" {
		return ""
	}
	return "https://www.ebay.fr/itm/" + listingID
}

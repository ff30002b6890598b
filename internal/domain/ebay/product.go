// Package ebay models Stoflow's eBay integration: offers, orders, buyer
// inquiries, business policies and the per-user OAuth credential.
package ebay

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListingStatus is the state of an offer on eBay
type ListingStatus string

const (
	ListingDraft     ListingStatus = "DRAFT"
	ListingPublished ListingStatus = "PUBLISHED"
	ListingEnded     ListingStatus = "ENDED"
	ListingSold      ListingStatus = "SOLD"
)

// DefaultMarketplaceID is the eBay site Stoflow lists on
const DefaultMarketplaceID = "EBAY_FR"

// EbayProduct links a catalog product to an eBay inventory item and offer
type EbayProduct struct {
	shared.BaseEntity
	UserID              uuid.UUID
	ProductID           uuid.UUID
	SKU                 string
	OfferID             string
	ListingID           string
	MarketplaceID       string
	CategoryID          string
	Aspects             map[string][]string
	Price               decimal.Decimal
	Currency            string
	Quantity            int
	FulfillmentPolicyID string
	PaymentPolicyID     string
	ReturnPolicyID      string
	MerchantLocationKey string
	Status              ListingStatus
	PublishedAt         *time.Time
	LastSyncedAt        *time.Time
}

// NewEbayProduct creates a draft link; the SKU is derived from the product id
func NewEbayProduct(userID, productID uuid.UUID, marketplaceID string) *EbayProduct {
	if marketplaceID == "" {
		marketplaceID = DefaultMarketplaceID
	}
	return &EbayProduct{
		BaseEntity:    shared.NewBaseEntity(),
		UserID:        userID,
		ProductID:     productID,
		SKU:           SKUFor(productID),
		MarketplaceID: marketplaceID,
		Currency:      "EUR",
		Quantity:      1,
		Status:        ListingDraft,
	}
}

// SKUFor returns the inventory SKU used for a product
func SKUFor(productID uuid.UUID) string {
	return "STF-" + productID.String()
}

// OwnerID implements shared.UserOwned
func (p *EbayProduct) OwnerID() uuid.UUID {
	return p.UserID
}

// MarkPublished stores the offer and listing ids
func (p *EbayProduct) MarkPublished(offerID, listingID string, now time.Time) {
	p.OfferID = offerID
	p.ListingID = listingID
	p.Status = ListingPublished
	p.PublishedAt = &now
	p.LastSyncedAt = &now
	p.UpdatedAt = now
}

// MarkEnded flags the listing as withdrawn
func (p *EbayProduct) MarkEnded(now time.Time) {
	p.Status = ListingEnded
	p.LastSyncedAt = &now
	p.UpdatedAt = now
}

// InventoryItem is an item returned by the Inventory API listing
type InventoryItem struct {
	SKU       string
	Title     string
	Quantity  int
	Condition string
}

// Offer is the subset of an eBay offer Stoflow tracks
type Offer struct {
	OfferID       string
	SKU           string
	ListingID     string
	Status        string
	Price         decimal.Decimal
	Currency      string
	Quantity      int
	MarketplaceID string
}

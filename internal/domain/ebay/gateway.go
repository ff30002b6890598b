package ebay

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Port Interfaces
// ---------------------------------------------------------------------------

// InventoryItemRequest is the body of an inventory item upsert
type InventoryItemRequest struct {
	SKU         string
	Title       string
	Description string
	Condition   string
	Aspects     map[string][]string
	ImageURLs   []string
	Quantity    int
}

// OfferRequest is the body of an offer create or update
type OfferRequest struct {
	SKU                 string
	MarketplaceID       string
	CategoryID          string
	Description         string
	Price               decimal.Decimal
	Currency            string
	Quantity            int
	Policies            PolicySet
	MerchantLocationKey string
}

// PageInfo is eBay's offset pagination
type PageInfo struct {
	Offset int
	Limit  int
	Total  int
}

// HasNext reports whether another page follows
func (p PageInfo) HasNext() bool {
	return p.Offset+p.Limit < p.Total
}

// NextOffset returns the offset of the following page
func (p PageInfo) NextOffset() int {
	return p.Offset + p.Limit
}

// InventoryPage is one page of inventory items
type InventoryPage struct {
	PageInfo
	Items []InventoryItem
}

// OrdersPage is one page of Fulfillment API orders
type OrdersPage struct {
	PageInfo
	Orders []EbayOrder
}

// InquiriesPage is one page of Post-Order inquiries
type InquiriesPage struct {
	PageInfo
	Inquiries []EbayInquiry
}

// InventoryGateway covers the Sell Inventory API
type InventoryGateway interface {
	PutInventoryItem(ctx context.Context, userID uuid.UUID, req InventoryItemRequest) error
	DeleteInventoryItem(ctx context.Context, userID uuid.UUID, sku string) error
	ListInventoryItems(ctx context.Context, userID uuid.UUID, offset, limit int) (*InventoryPage, error)
	GetOffers(ctx context.Context, userID uuid.UUID, sku string) ([]Offer, error)
	CreateOffer(ctx context.Context, userID uuid.UUID, req OfferRequest) (offerID string, err error)
	UpdateOffer(ctx context.Context, userID uuid.UUID, offerID string, req OfferRequest) error
	PublishOffer(ctx context.Context, userID uuid.UUID, offerID string) (listingID string, err error)
	WithdrawOffer(ctx context.Context, userID uuid.UUID, offerID string) error
}

// FulfillmentGateway covers the Sell Fulfillment API
type FulfillmentGateway interface {
	ListOrders(ctx context.Context, userID uuid.UUID, createdAfter time.Time, offset, limit int) (*OrdersPage, error)
}

// AccountGateway covers the Sell Account API
type AccountGateway interface {
	ListPolicies(ctx context.Context, userID uuid.UUID, policyType PolicyType, marketplaceID string) ([]BusinessPolicy, error)
}

// PostOrderGateway covers the Post-Order API
type PostOrderGateway interface {
	SearchInquiries(ctx context.Context, userID uuid.UUID, offset, limit int) (*InquiriesPage, error)
}

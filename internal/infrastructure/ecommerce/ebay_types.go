package ecommerce

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Common eBay API Types
// ---------------------------------------------------------------------------

// EbayAmount is eBay's money representation
type EbayAmount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// EbayPagination is the paging block of Sell API list responses
type EbayPagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ---------------------------------------------------------------------------
// Inventory API Types
// ---------------------------------------------------------------------------

// EbayShipToLocationAvailability holds the sellable quantity
type EbayShipToLocationAvailability struct {
	Quantity int `json:"quantity"`
}

// EbayAvailability wraps the quantity block
type EbayAvailability struct {
	ShipToLocationAvailability EbayShipToLocationAvailability `json:"shipToLocationAvailability"`
}

// EbayInventoryProduct is the product block of an inventory item
type EbayInventoryProduct struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Aspects     map[string][]string `json:"aspects,omitempty"`
	ImageURLs   []string            `json:"imageUrls,omitempty"`
}

// EbayInventoryItem is the body of createOrReplaceInventoryItem and an entry of getInventoryItems
type EbayInventoryItem struct {
	SKU          string               `json:"sku,omitempty"`
	Availability EbayAvailability     `json:"availability"`
	Condition    string               `json:"condition,omitempty"`
	Product      EbayInventoryProduct `json:"product"`
}

// EbayInventoryItemsResponse is a page of inventory items
type EbayInventoryItemsResponse struct {
	EbayPagination
	InventoryItems []EbayInventoryItem `json:"inventoryItems"`
}

// EbayListingPolicies attaches business policies to an offer
type EbayListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId,omitempty"`
	PaymentPolicyID     string `json:"paymentPolicyId,omitempty"`
	ReturnPolicyID      string `json:"returnPolicyId,omitempty"`
}

// EbayPricingSummary holds the offer price
type EbayPricingSummary struct {
	Price EbayAmount `json:"price"`
}

// EbayOfferListing is the live listing of a published offer
type EbayOfferListing struct {
	ListingID     string `json:"listingId"`
	ListingStatus string `json:"listingStatus"`
}

// EbayOffer is the body of createOffer/updateOffer and an entry of getOffers
type EbayOffer struct {
	OfferID             string              `json:"offerId,omitempty"`
	SKU                 string              `json:"sku"`
	MarketplaceID       string              `json:"marketplaceId"`
	Format              string              `json:"format"`
	AvailableQuantity   int                 `json:"availableQuantity"`
	CategoryID          string              `json:"categoryId"`
	ListingDescription  string              `json:"listingDescription,omitempty"`
	ListingPolicies     EbayListingPolicies `json:"listingPolicies"`
	PricingSummary      EbayPricingSummary  `json:"pricingSummary"`
	MerchantLocationKey string              `json:"merchantLocationKey,omitempty"`
	Status              string              `json:"status,omitempty"`
	Listing             *EbayOfferListing   `json:"listing,omitempty"`
}

// EbayOffersResponse lists the offers of a SKU
type EbayOffersResponse struct {
	EbayPagination
	Offers []EbayOffer `json:"offers"`
}

// EbayOfferIDResponse is returned by createOffer
type EbayOfferIDResponse struct {
	OfferID string `json:"offerId"`
}

// EbayListingIDResponse is returned by publishOffer and withdrawOffer
type EbayListingIDResponse struct {
	ListingID string `json:"listingId"`
}

// ---------------------------------------------------------------------------
// Fulfillment API Types
// ---------------------------------------------------------------------------

// EbayOrderBuyer identifies the buyer
type EbayOrderBuyer struct {
	Username string `json:"username"`
}

// EbayOrderPricingSummary holds the order total
type EbayOrderPricingSummary struct {
	Total EbayAmount `json:"total"`
}

// EbayLineItem is a line of an order
type EbayLineItem struct {
	LineItemID string     `json:"lineItemId"`
	SKU        string     `json:"sku"`
	Title      string     `json:"title"`
	Quantity   int        `json:"quantity"`
	Total      EbayAmount `json:"total"`
}

// EbayOrder is an order of getOrders
type EbayOrder struct {
	OrderID                string                  `json:"orderId"`
	CreationDate           time.Time               `json:"creationDate"`
	OrderFulfillmentStatus string                  `json:"orderFulfillmentStatus"`
	OrderPaymentStatus     string                  `json:"orderPaymentStatus"`
	Buyer                  EbayOrderBuyer          `json:"buyer"`
	PricingSummary         EbayOrderPricingSummary `json:"pricingSummary"`
	LineItems              []EbayLineItem          `json:"lineItems"`
}

// EbayOrdersResponse is a page of orders
type EbayOrdersResponse struct {
	EbayPagination
	Orders []EbayOrder `json:"orders"`
}

// ---------------------------------------------------------------------------
// Account API Types
// ---------------------------------------------------------------------------

// EbayCategoryType flags the default policy of a category family
type EbayCategoryType struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
}

// EbayPolicy holds the fields shared by the three policy families. The id
// field name differs per family.
type EbayPolicy struct {
	FulfillmentPolicyID string             `json:"fulfillmentPolicyId"`
	PaymentPolicyID     string             `json:"paymentPolicyId"`
	ReturnPolicyID      string             `json:"returnPolicyId"`
	Name                string             `json:"name"`
	MarketplaceID       string             `json:"marketplaceId"`
	CategoryTypes       []EbayCategoryType `json:"categoryTypes"`
}

// EbayPoliciesResponse lists the policies of one family; only the list
// matching the requested family is set
type EbayPoliciesResponse struct {
	Total               int               `json:"total"`
	FulfillmentPolicies []json.RawMessage `json:"fulfillmentPolicies"`
	PaymentPolicies     []json.RawMessage `json:"paymentPolicies"`
	ReturnPolicies      []json.RawMessage `json:"returnPolicies"`
}

// ---------------------------------------------------------------------------
// Post-Order API Types
// ---------------------------------------------------------------------------

// EbayDate is the Post-Order date wrapper
type EbayDate struct {
	Value *time.Time `json:"value"`
}

// EbayInquiry is a member of the inquiry search
type EbayInquiry struct {
	InquiryID         string     `json:"inquiryId"`
	ItemID            string     `json:"itemId"`
	TransactionID     string     `json:"transactionId"`
	Buyer             string     `json:"buyer"`
	InquiryStatusEnum string     `json:"inquiryStatusEnum"`
	State             string     `json:"state"`
	ClaimAmount       EbayAmount `json:"claimAmount"`
	RespondByDate     EbayDate   `json:"respondByDate"`
	CreationDate      EbayDate   `json:"creationDate"`
}

// EbayPaginationOutput is the Post-Order paging block; offset is a 1-based page number
type EbayPaginationOutput struct {
	Offset       int `json:"offset"`
	Limit        int `json:"limit"`
	TotalEntries int `json:"totalEntries"`
	TotalPages   int `json:"totalPages"`
}

// EbayInquirySearchResponse is a page of inquiries
type EbayInquirySearchResponse struct {
	Members          []EbayInquiry        `json:"members"`
	PaginationOutput EbayPaginationOutput `json:"paginationOutput"`
}

package ecommerce

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
)

const inventoryBasePath = "/sell/inventory/v1"

// InventoryClient implements ebay.InventoryGateway over the Sell Inventory API
type InventoryClient struct {
	client *EbayClient
}

// NewInventoryClient creates an Inventory API client
func NewInventoryClient(client *EbayClient) *InventoryClient {
	return &InventoryClient{client: client}
}

var _ ebay.InventoryGateway = (*InventoryClient)(nil)

func inventoryItemPath(sku string) string {
	return inventoryBasePath + "/inventory_item/" + url.PathEscape(sku)
}

func offerPath(offerID string) string {
	return inventoryBasePath + "/offer/" + url.PathEscape(offerID)
}

// ---------------------------------------------------------------------------
// Inventory Items
// ---------------------------------------------------------------------------

// PutInventoryItem creates or replaces the inventory item of req.SKU
func (c *InventoryClient) PutInventoryItem(ctx context.Context, userID uuid.UUID, req ebay.InventoryItemRequest) error {
	body := EbayInventoryItem{
		Availability: EbayAvailability{
			ShipToLocationAvailability: EbayShipToLocationAvailability{Quantity: req.Quantity},
		},
		Condition: req.Condition,
		Product: EbayInventoryProduct{
			Title:       req.Title,
			Description: req.Description,
			Aspects:     req.Aspects,
			ImageURLs:   req.ImageURLs,
		},
	}
	return c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.put_item",
		method: http.MethodPut,
		path:   inventoryItemPath(req.SKU),
		body:   body,
	}, nil)
}

// DeleteInventoryItem removes the item and any unpublished offer of the SKU
func (c *InventoryClient) DeleteInventoryItem(ctx context.Context, userID uuid.UUID, sku string) error {
	return c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.delete_item",
		method: http.MethodDelete,
		path:   inventoryItemPath(sku),
	}, nil)
}

// ListInventoryItems returns one page of the seller's inventory
func (c *InventoryClient) ListInventoryItems(ctx context.Context, userID uuid.UUID, offset, limit int) (*ebay.InventoryPage, error) {
	var resp EbayInventoryItemsResponse
	err := c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.list_items",
		method: http.MethodGet,
		path:   inventoryBasePath + "/inventory_item",
		query:  pageValues(offset, limit),
	}, &resp)
	if err != nil {
		return nil, err
	}

	page := &ebay.InventoryPage{
		PageInfo: ebay.PageInfo{Offset: offset, Limit: limit, Total: resp.Total},
		Items:    make([]ebay.InventoryItem, 0, len(resp.InventoryItems)),
	}
	for _, it := range resp.InventoryItems {
		page.Items = append(page.Items, ebay.InventoryItem{
			SKU:       it.SKU,
			Title:     it.Product.Title,
			Quantity:  it.Availability.ShipToLocationAvailability.Quantity,
			Condition: it.Condition,
		})
	}
	return page, nil
}

// ---------------------------------------------------------------------------
// Offers
// ---------------------------------------------------------------------------

// GetOffers lists the offers of a SKU; eBay answers 404 when there is none
func (c *InventoryClient) GetOffers(ctx context.Context, userID uuid.UUID, sku string) ([]ebay.Offer, error) {
	query := url.Values{}
	query.Set("sku", sku)

	var resp EbayOffersResponse
	err := c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.get_offers",
		method: http.MethodGet,
		path:   inventoryBasePath + "/offer",
		query:  query,
	}, &resp)
	if err != nil {
		return nil, err
	}

	offers := make([]ebay.Offer, 0, len(resp.Offers))
	for _, o := range resp.Offers {
		offer := ebay.Offer{
			OfferID:       o.OfferID,
			SKU:           o.SKU,
			Status:        o.Status,
			Price:         o.PricingSummary.Price.Value,
			Currency:      o.PricingSummary.Price.Currency,
			Quantity:      o.AvailableQuantity,
			MarketplaceID: o.MarketplaceID,
		}
		if o.Listing != nil {
			offer.ListingID = o.Listing.ListingID
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

// CreateOffer creates an unpublished fixed-price offer and returns its id
func (c *InventoryClient) CreateOffer(ctx context.Context, userID uuid.UUID, req ebay.OfferRequest) (string, error) {
	var resp EbayOfferIDResponse
	err := c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.create_offer",
		method: http.MethodPost,
		path:   inventoryBasePath + "/offer",
		body:   c.offerBody(req),
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.OfferID == "" {
		return "", errors.New("ebay: create offer: response has no offer id")
	}
	return resp.OfferID, nil
}

// UpdateOffer replaces the offer; a published offer updates its live listing
func (c *InventoryClient) UpdateOffer(ctx context.Context, userID uuid.UUID, offerID string, req ebay.OfferRequest) error {
	return c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.update_offer",
		method: http.MethodPut,
		path:   offerPath(offerID),
		body:   c.offerBody(req),
	}, nil)
}

// PublishOffer turns the offer into a live listing
func (c *InventoryClient) PublishOffer(ctx context.Context, userID uuid.UUID, offerID string) (string, error) {
	var resp EbayListingIDResponse
	err := c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.publish_offer",
		method: http.MethodPost,
		path:   offerPath(offerID) + "/publish",
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ListingID, nil
}

// WithdrawOffer ends the listing; the offer itself is kept unpublished
func (c *InventoryClient) WithdrawOffer(ctx context.Context, userID uuid.UUID, offerID string) error {
	return c.client.do(ctx, userID, ebayRequest{
		name:   "inventory.withdraw_offer",
		method: http.MethodPost,
		path:   offerPath(offerID) + "/withdraw",
	}, nil)
}

func (c *InventoryClient) offerBody(req ebay.OfferRequest) EbayOffer {
	marketplaceID := req.MarketplaceID
	if marketplaceID == "" {
		marketplaceID = c.client.MarketplaceID()
	}
	currency := req.Currency
	if currency == "" {
		currency = "EUR"
	}
	return EbayOffer{
		SKU:                req.SKU,
		MarketplaceID:      marketplaceID,
		Format:             "FIXED_PRICE",
		AvailableQuantity:  req.Quantity,
		CategoryID:         req.CategoryID,
		ListingDescription: req.Description,
		ListingPolicies: EbayListingPolicies{
			FulfillmentPolicyID: req.Policies.FulfillmentPolicyID,
			PaymentPolicyID:     req.Policies.PaymentPolicyID,
			ReturnPolicyID:      req.Policies.ReturnPolicyID,
		},
		PricingSummary: EbayPricingSummary{
			Price: EbayAmount{Value: req.Price.Round(2), Currency: currency},
		},
		MerchantLocationKey: req.MerchantLocationKey,
	}
}

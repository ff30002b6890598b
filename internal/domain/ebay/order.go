package ebay

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EbayOrder is a sale made on eBay
type EbayOrder struct {
	shared.BaseEntity
	UserID            uuid.UUID
	OrderID           string
	BuyerUsername     string
	FulfillmentStatus string
	PaymentStatus     string
	Total             decimal.Decimal
	Currency          string
	LineItems         []OrderLineItem
	CreatedOnEbay     time.Time
}

// OrderLineItem is one line of an eBay order
type OrderLineItem struct {
	LineItemID string          `json:"line_item_id"`
	SKU        string          `json:"sku"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
}

// OwnerID implements shared.UserOwned
func (o *EbayOrder) OwnerID() uuid.UUID {
	return o.UserID
}

// IsPaid reports whether the order has been paid
func (o *EbayOrder) IsPaid() bool {
	return o.PaymentStatus == "PAID"
}

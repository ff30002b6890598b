package vinted

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderStatus is the Vinted transaction state as reported by the sold-items list
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPaid      OrderStatus = "PAID"
	OrderShipped   OrderStatus = "SHIPPED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

// VintedOrder is a sale made on Vinted
type VintedOrder struct {
	shared.BaseEntity
	UserID         uuid.UUID
	TransactionID  int64
	BuyerLogin     string
	Status         OrderStatus
	TotalPrice     decimal.Decimal
	ShippingPrice  decimal.Decimal
	ServiceFee     decimal.Decimal
	Currency       string
	TrackingNumber string
	Items          []VintedOrderItem
	OrderedAt      *time.Time
	ShippedAt      *time.Time
	CompletedAt    *time.Time
}

// VintedOrderItem is one item of a (possibly bundled) Vinted sale
type VintedOrderItem struct {
	ID           uuid.UUID
	VintedItemID int64
	Title        string
	Price        decimal.Decimal
	// ProductID is set when the item matches a linked VintedProduct
	ProductID *uuid.UUID
}

// OwnerID implements shared.UserOwned
func (o *VintedOrder) OwnerID() uuid.UUID {
	return o.UserID
}

// IsSale reports whether the order counts as sold stock
func (o *VintedOrder) IsSale() bool {
	switch o.Status {
	case OrderPaid, OrderShipped, OrderCompleted:
		return true
	}
	return false
}

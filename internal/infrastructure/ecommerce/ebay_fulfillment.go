package ecommerce

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
)

// FulfillmentClient implements ebay.FulfillmentGateway over the Sell Fulfillment API
type FulfillmentClient struct {
	client *EbayClient
}

// NewFulfillmentClient creates a Fulfillment API client
func NewFulfillmentClient(client *EbayClient) *FulfillmentClient {
	return &FulfillmentClient{client: client}
}

var _ ebay.FulfillmentGateway = (*FulfillmentClient)(nil)

// creationDateFilter builds the getOrders filter for orders created after t
func creationDateFilter(t time.Time) string {
	return "creationdate:[" + t.UTC().Format("2006-01-02T15:04:05.000Z") + "..]"
}

// ListOrders returns one page of orders created after createdAfter
func (c *FulfillmentClient) ListOrders(ctx context.Context, userID uuid.UUID, createdAfter time.Time, offset, limit int) (*ebay.OrdersPage, error) {
	query := pageValues(offset, limit)
	if !createdAfter.IsZero() {
		query.Set("filter", creationDateFilter(createdAfter))
	}

	var resp EbayOrdersResponse
	err := c.client.do(ctx, userID, ebayRequest{
		name:   "fulfillment.list_orders",
		method: http.MethodGet,
		path:   "/sell/fulfillment/v1/order",
		query:  query,
	}, &resp)
	if err != nil {
		return nil, err
	}

	page := &ebay.OrdersPage{
		PageInfo: ebay.PageInfo{Offset: offset, Limit: limit, Total: resp.Total},
		Orders:   make([]ebay.EbayOrder, 0, len(resp.Orders)),
	}
	for _, o := range resp.Orders {
		page.Orders = append(page.Orders, toEbayOrder(userID, o))
	}
	return page, nil
}

func toEbayOrder(userID uuid.UUID, o EbayOrder) ebay.EbayOrder {
	order := ebay.EbayOrder{
		UserID:            userID,
		OrderID:           o.OrderID,
		BuyerUsername:     o.Buyer.Username,
		FulfillmentStatus: o.OrderFulfillmentStatus,
		PaymentStatus:     o.OrderPaymentStatus,
		Total:             o.PricingSummary.Total.Value,
		Currency:          o.PricingSummary.Total.Currency,
		LineItems:         make([]ebay.OrderLineItem, 0, len(o.LineItems)),
		CreatedOnEbay:     o.CreationDate,
	}
	for _, li := range o.LineItems {
		order.LineItems = append(order.LineItems, ebay.OrderLineItem{
			LineItemID: li.LineItemID,
			SKU:        li.SKU,
			Title:      li.Title,
			Quantity:   li.Quantity,
			Total:      li.Total.Value,
		})
	}
	return order
}

package ecommerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/plugin"
)

// ---------------------------------------------------------------------------
// Fake plugin caller
// ---------------------------------------------------------------------------

type fakeReply struct {
	status int
	body   string
	err    error
}

type fakeCaller struct {
	connected bool
	replies   map[string]fakeReply
	requests  []plugin.PluginRequest
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{connected: true, replies: make(map[string]fakeReply)}
}

func (f *fakeCaller) on(op string, status int, body string) *fakeCaller {
	f.replies[op] = fakeReply{status: status, body: body}
	return f
}

func (f *fakeCaller) Call(_ context.Context, _ uuid.UUID, req plugin.PluginRequest) (*plugin.PluginResponse, error) {
	f.requests = append(f.requests, req)
	reply, ok := f.replies[req.Operation()]
	if !ok {
		return &plugin.PluginResponse{Status: http.StatusNotFound, Body: json.RawMessage(`{"code":404,"message":"not found"}`)}, nil
	}
	if reply.err != nil {
		return nil, reply.err
	}
	resp := &plugin.PluginResponse{Status: reply.status}
	if reply.body != "" {
		resp.Body = json.RawMessage(reply.body)
	}
	return resp, nil
}

func (f *fakeCaller) IsConnected(uuid.UUID) bool { return f.connected }

func (f *fakeCaller) last() plugin.PluginRequest {
	return f.requests[len(f.requests)-1]
}

// ---------------------------------------------------------------------------
// Item Tests
// ---------------------------------------------------------------------------

func TestVintedAdapter_CreateItem(t *testing.T) {
	caller := newFakeCaller().on("POST /api/v2/item_upload/items", http.StatusOK,
		`{"item":{"id":4242,"title":"Levi's 501","url":"https://www.vinted.fr/items/4242-levis","price":{"amount":"25.0","currency_code":"EUR"}}}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())

	brandID := int64(53)
	item, err := adapter.CreateItem(context.Background(), uuid.New(), vinted.ItemDraft{
		Title:       "Levi's 501",
		Description: "Jean droit, très bon état",
		Price:       decimal.RequireFromString("25"),
		CatalogID:   1839,
		BrandID:     &brandID,
		BrandName:   "Levi's",
		ColorIDs:    []int64{9},
		PhotoIDs:    []int64{11, 12},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(4242), item.ID)
	assert.Equal(t, vinted.ListingPublished, item.Status)
	assert.True(t, decimal.RequireFromString("25").Equal(item.Price))
	assert.Equal(t, "EUR", item.Currency)

	body, ok := caller.last().Body.(VintedItemUploadRequest)
	require.True(t, ok)
	assert.Nil(t, body.Item.ID)
	assert.Equal(t, "25.00", body.Item.Price)
	assert.Equal(t, "EUR", body.Item.Currency)
	assert.Empty(t, body.Item.Brand, "brand name is only sent without a brand id")
	assert.Equal(t, []VintedAssignedPhoto{{ID: 11}, {ID: 12}}, body.Item.AssignedPhotos)
}

func TestVintedAdapter_CreateItem_BrandNameFallback(t *testing.T) {
	caller := newFakeCaller().on("POST /api/v2/item_upload/items", http.StatusOK, `{"item":{"id":1}}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())

	item, err := adapter.CreateItem(context.Background(), uuid.New(), vinted.ItemDraft{Title: "Pull", BrandName: "Maison Kitsuné", Price: decimal.NewFromInt(40)})
	require.NoError(t, err)
	assert.Equal(t, "https://www.vinted.fr/items/1", item.URL)

	body := caller.last().Body.(VintedItemUploadRequest)
	assert.Equal(t, "Maison Kitsuné", body.Item.Brand)
	assert.NotNil(t, body.Item.ColorIDs)
}

func TestVintedAdapter_UpdateItem_NotFound(t *testing.T) {
	adapter := NewVintedAdapter(newFakeCaller(), zap.NewNop())

	_, err := adapter.UpdateItem(context.Background(), uuid.New(), 77, vinted.ItemDraft{Title: "x"})

	assert.ErrorIs(t, err, vinted.ErrItemNotFound)
	var apiErr *VintedAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "PUT /api/v2/item_upload/items/77", apiErr.Op)
	assert.False(t, apiErr.Retryable())
}

func TestVintedAdapter_DeleteItem(t *testing.T) {
	caller := newFakeCaller().on("POST /api/v2/items/9/delete", http.StatusOK, `{"code":0}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())

	require.NoError(t, adapter.DeleteItem(context.Background(), uuid.New(), 9))
	assert.ErrorIs(t, adapter.DeleteItem(context.Background(), uuid.New(), 10), vinted.ErrItemNotFound)
}

func TestVintedAdapter_GetItem_Status(t *testing.T) {
	tests := []struct {
		name string
		body string
		want vinted.ListingStatus
	}{
		{"published", `{"item":{"id":1}}`, vinted.ListingPublished},
		{"draft", `{"item":{"id":1,"is_draft":true}}`, vinted.ListingDraft},
		{"sold", `{"item":{"id":1,"is_closed":true,"is_reserved":true}}`, vinted.ListingSold},
		{"reserved", `{"item":{"id":1,"is_reserved":true}}`, vinted.ListingReserved},
		{"hidden", `{"item":{"id":1,"is_hidden":true}}`, vinted.ListingHidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := newFakeCaller().on("GET /api/v2/items/1", http.StatusOK, tt.body)
			item, err := NewVintedAdapter(caller, zap.NewNop()).GetItem(context.Background(), uuid.New(), 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, item.Status)
		})
	}
}

func TestVintedAdapter_UploadPhoto(t *testing.T) {
	caller := newFakeCaller().on(plugin.KindUploadPhoto, http.StatusOK, `{"id":555,"url":"https://images1.vinted.net/555.jpg"}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())

	id, err := adapter.UploadPhoto(context.Background(), uuid.New(), "https://cdn.stoflow.io/p/1.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(555), id)
	assert.Equal(t, "https://cdn.stoflow.io/p/1.jpg", caller.last().ImageURL)
}

func TestVintedAdapter_ListWardrobe(t *testing.T) {
	caller := newFakeCaller().on("GET /api/v2/wardrobe/me/items", http.StatusOK, `{
		"items":[
			{"id":1,"title":"A","price":"12.5","currency":"EUR","view_count":40,"favourite_count":3},
			{"id":2,"title":"B","price":{"amount":"8.00","currency_code":"EUR"},"is_closed":true}
		],
		"pagination":{"current_page":2,"total_pages":3,"total_entries":200,"per_page":96}
	}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())

	page, err := adapter.ListWardrobe(context.Background(), uuid.New(), 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.HasNext())
	assert.Equal(t, 2, page.Current)
	assert.True(t, decimal.RequireFromString("12.5").Equal(page.Items[0].Price))
	assert.Equal(t, 40, page.Items[0].ViewCount)
	assert.Equal(t, vinted.ListingSold, page.Items[1].Status)
	assert.Equal(t, "2", caller.last().Query["page"])
	assert.Equal(t, "96", caller.last().Query["per_page"])
}

// ---------------------------------------------------------------------------
// Order Tests
// ---------------------------------------------------------------------------

func TestVintedAdapter_ListMyOrders_ExpandsTransactions(t *testing.T) {
	caller := newFakeCaller().
		on("GET /api/v2/my_orders", http.StatusOK, `{
			"my_orders":[{"transaction_id":900,"item_id":501,"title":"Veste","price":{"amount":"30.00","currency_code":"EUR"},"status":"Paiement effectué","date":"2025-03-01T10:00:00Z"}],
			"pagination":{"current_page":1,"total_pages":1}
		}`).
		on("GET /api/v2/transactions/900", http.StatusOK, `{"transaction":{
			"id":900,"status":"payment_successful","buyer":{"id":3,"login":"marie75"},
			"total_item_price":{"amount":"45.00","currency_code":"EUR"},
			"service_fee":{"amount":"2.95","currency_code":"EUR"},
			"order":{"items":[{"id":501,"title":"Veste","price":"30.00"},{"id":502,"title":"Jupe","price":"15.00"}]},
			"shipment":{"tracking_code":"6A123","price":"4.99","shipped_at":null}
		}}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())
	userID := uuid.New()

	page, err := adapter.ListMyOrders(context.Background(), userID, 1)
	require.NoError(t, err)
	assert.False(t, page.HasNext())
	require.Len(t, page.Orders, 1)

	o := page.Orders[0]
	assert.Equal(t, userID, o.UserID)
	assert.Equal(t, int64(900), o.TransactionID)
	assert.Equal(t, "marie75", o.BuyerLogin)
	assert.Equal(t, vinted.OrderPaid, o.Status)
	assert.True(t, decimal.RequireFromString("45").Equal(o.TotalPrice))
	assert.True(t, decimal.RequireFromString("4.99").Equal(o.ShippingPrice))
	assert.Equal(t, "6A123", o.TrackingNumber)
	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(502), o.Items[1].VintedItemID)
	require.NotNil(t, o.OrderedAt)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), o.OrderedAt.UTC())
	assert.Equal(t, "sold", caller.requests[0].Query["type"])
}

func TestVintedAdapter_ListMyOrders_TransactionFailure(t *testing.T) {
	caller := newFakeCaller().
		on("GET /api/v2/my_orders", http.StatusOK, `{"my_orders":[{"transaction_id":1}],"pagination":{"current_page":1,"total_pages":1}}`).
		on("GET /api/v2/transactions/1", http.StatusTooManyRequests, `{"code":106,"message":"Too many requests"}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())

	_, err := adapter.ListMyOrders(context.Background(), uuid.New(), 1)

	var apiErr *VintedAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.True(t, jobhandler.IsRetryable(err))
}

func TestMapVintedOrderStatus(t *testing.T) {
	tests := map[string]vinted.OrderStatus{
		"payment_successful":    vinted.OrderPaid,
		"Shipped":               vinted.OrderShipped,
		"delivered":             vinted.OrderShipped,
		"transaction_completed": vinted.OrderCompleted,
		"Cancelled":             vinted.OrderCancelled,
		"refunded":              vinted.OrderRefunded,
		"offer_accepted":        vinted.OrderPending,
	}
	for in, want := range tests {
		assert.Equal(t, want, mapVintedOrderStatus(in), in)
	}
}

// ---------------------------------------------------------------------------
// Inbox Tests
// ---------------------------------------------------------------------------

func TestVintedAdapter_Conversations(t *testing.T) {
	caller := newFakeCaller().
		on("GET /api/v2/inbox", http.StatusOK, `{
			"conversations":[{"id":70,"description":"Veste en jean","unread":true,"opposite_user":{"id":3,"login":"marie75"},"item_id":501}],
			"pagination":{"current_page":1,"total_pages":4}
		}`).
		on("GET /api/v2/conversations/70", http.StatusOK, `{"conversation":{
			"id":70,"subject":"Veste en jean","read_by_current_user":false,
			"opposite_user":{"id":3,"login":"marie75"},
			"transaction":{"item_id":501},
			"messages":[
				{"entity_type":"message","entity":{"id":"1001","body":"Bonjour, toujours dispo ?","user_id":3},"created_at":"2025-03-01T09:00:00Z"},
				{"entity_type":"status_message","entity":{"body":"Offre envoyée"},"created_at":"2025-03-01T09:01:00Z"},
				{"entity_type":"message","entity":{"id":1002,"body":"Oui !","user_id":8},"created_at":"2025-03-01T09:05:00Z"}
			]
		}}`)
	adapter := NewVintedAdapter(caller, zap.NewNop())
	userID := uuid.New()

	page, err := adapter.ListConversations(context.Background(), userID, 1)
	require.NoError(t, err)
	assert.True(t, page.HasNext())
	require.Len(t, page.Conversations, 1)
	assert.Equal(t, "marie75", page.Conversations[0].OpponentLogin)
	assert.True(t, page.Conversations[0].Unread)

	conv, err := adapter.GetConversation(context.Background(), userID, 70)
	require.NoError(t, err)
	assert.Equal(t, userID, conv.UserID)
	require.NotNil(t, conv.ItemID)
	assert.Equal(t, int64(501), *conv.ItemID)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, int64(1001), conv.Messages[0].MessageID)
	assert.False(t, conv.Messages[0].FromSelf)
	assert.Equal(t, int64(1002), conv.Messages[1].MessageID)
	assert.True(t, conv.Messages[1].FromSelf)
}

// ---------------------------------------------------------------------------
// Error Tests
// ---------------------------------------------------------------------------

func TestVintedAPIError_Classification(t *testing.T) {
	tests := []struct {
		status      int
		retryable   bool
		rateLimited bool
		expired     bool
	}{
		{http.StatusBadRequest, false, false, false},
		{http.StatusUnauthorized, true, false, true},
		{http.StatusForbidden, true, false, true},
		{http.StatusNotFound, false, false, false},
		{http.StatusTooManyRequests, true, true, false},
		{http.StatusBadGateway, true, false, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := newVintedAPIError("GET /api/v2/inbox", tt.status, nil)
			assert.Equal(t, tt.retryable, err.Retryable())
			assert.Equal(t, tt.rateLimited, err.IsRateLimited())
			assert.Equal(t, tt.expired, err.IsSessionExpired())
			assert.Equal(t, http.StatusText(tt.status), err.Message)
		})
	}
}

func TestVintedAdapter_PluginErrorsPassThrough(t *testing.T) {
	caller := newFakeCaller()
	pluginErr := &plugin.PluginError{Op: "GET /api/v2/inbox", Err: plugin.ErrPluginNotConnected}
	caller.replies["GET /api/v2/inbox"] = fakeReply{err: pluginErr}
	adapter := NewVintedAdapter(caller, zap.NewNop())

	_, err := adapter.ListConversations(context.Background(), uuid.New(), 1)

	assert.True(t, errors.Is(err, plugin.ErrPluginNotConnected))
	assert.True(t, jobhandler.IsRetryable(err))
}

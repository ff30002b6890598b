package ecommerce

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/logger"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/plugin"
)

const (
	// VintedWardrobePageSize is the number of items fetched per wardrobe page
	VintedWardrobePageSize = 96
	// VintedListPageSize is used for orders and the inbox
	VintedListPageSize = 20

	vintedItemBaseURL = "https://www.vinted.fr/items/"
)

// PluginCaller is the part of the plugin bridge the adapter needs
type PluginCaller interface {
	Call(ctx context.Context, userID uuid.UUID, req plugin.PluginRequest) (*plugin.PluginResponse, error)
	IsConnected(userID uuid.UUID) bool
}

// VintedAdapter implements vinted.Gateway on top of the browser plugin
type VintedAdapter struct {
	caller PluginCaller
	logger *zap.Logger
}

// NewVintedAdapter creates a new Vinted adapter
func NewVintedAdapter(caller PluginCaller, logger *zap.Logger) *VintedAdapter {
	return &VintedAdapter{caller: caller, logger: logger}
}

var _ vinted.Gateway = (*VintedAdapter)(nil)

// IsConnected reports whether the user's plugin is online
func (a *VintedAdapter) IsConnected(userID uuid.UUID) bool {
	return a.caller.IsConnected(userID)
}

// ---------------------------------------------------------------------------
// Item Operations
// ---------------------------------------------------------------------------

// CreateItem publishes a new item
func (a *VintedAdapter) CreateItem(ctx context.Context, userID uuid.UUID, draft vinted.ItemDraft) (*vinted.RemoteItem, error) {
	var resp VintedItemResponse
	if err := a.do(ctx, userID, http.MethodPost, "/api/v2/item_upload/items", nil, uploadRequestFor(nil, draft), &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, errors.New("vinted: create item: response has no item")
	}
	item := toRemoteItem(*resp.Item)
	a.log(ctx).Info("Vinted item created", zap.Int64("vinted_id", item.ID))
	return &item, nil
}

// UpdateItem replaces the item's listing data
func (a *VintedAdapter) UpdateItem(ctx context.Context, userID uuid.UUID, vintedID int64, draft vinted.ItemDraft) (*vinted.RemoteItem, error) {
	path := "/api/v2/item_upload/items/" + strconv.FormatInt(vintedID, 10)
	var resp VintedItemResponse
	if err := a.do(ctx, userID, http.MethodPut, path, nil, uploadRequestFor(&vintedID, draft), &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, errors.New("vinted: update item: response has no item")
	}
	item := toRemoteItem(*resp.Item)
	return &item, nil
}

// DeleteItem removes the item; a 404 surfaces as vinted.ErrItemNotFound
func (a *VintedAdapter) DeleteItem(ctx context.Context, userID uuid.UUID, vintedID int64) error {
	path := "/api/v2/items/" + strconv.FormatInt(vintedID, 10) + "/delete"
	return a.do(ctx, userID, http.MethodPost, path, nil, nil, nil)
}

// GetItem fetches a single item
func (a *VintedAdapter) GetItem(ctx context.Context, userID uuid.UUID, vintedID int64) (*vinted.RemoteItem, error) {
	var resp VintedItemResponse
	if err := a.do(ctx, userID, http.MethodGet, "/api/v2/items/"+strconv.FormatInt(vintedID, 10), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Item == nil {
		return nil, vinted.ErrItemNotFound
	}
	item := toRemoteItem(*resp.Item)
	return &item, nil
}

// UploadPhoto makes the plugin download imageURL and upload it to Vinted
func (a *VintedAdapter) UploadPhoto(ctx context.Context, userID uuid.UUID, imageURL string) (int64, error) {
	resp, err := a.caller.Call(ctx, userID, plugin.PluginRequest{Kind: plugin.KindUploadPhoto, ImageURL: imageURL})
	if err != nil {
		return 0, err
	}
	if resp.Status >= http.StatusBadRequest {
		return 0, newVintedAPIError(plugin.KindUploadPhoto, resp.Status, resp.Body)
	}
	var photo VintedPhotoResponse
	if err := resp.Decode(&photo); err != nil {
		return 0, err
	}
	if photo.ID == 0 {
		return 0, errors.New("vinted: upload photo: response has no photo id")
	}
	return photo.ID, nil
}

// ListWardrobe returns one page of the seller's items
func (a *VintedAdapter) ListWardrobe(ctx context.Context, userID uuid.UUID, page int) (*vinted.WardrobePage, error) {
	query := pageQuery(page, VintedWardrobePageSize)
	query["order"] = "newest_first"

	var resp VintedWardrobeResponse
	if err := a.do(ctx, userID, http.MethodGet, "/api/v2/wardrobe/me/items", query, nil, &resp); err != nil {
		return nil, err
	}
	out := &vinted.WardrobePage{
		Page:  toPage(resp.Pagination, page),
		Items: make([]vinted.RemoteItem, 0, len(resp.Items)),
	}
	for _, it := range resp.Items {
		out.Items = append(out.Items, toRemoteItem(it))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// ListMyOrders returns one page of sold orders, newest first. The list
// endpoint carries no line items, so each entry is expanded through its
// transaction.
func (a *VintedAdapter) ListMyOrders(ctx context.Context, userID uuid.UUID, page int) (*vinted.OrdersPage, error) {
	query := pageQuery(page, VintedListPageSize)
	query["type"] = "sold"
	query["status"] = "all"

	var resp VintedMyOrdersResponse
	if err := a.do(ctx, userID, http.MethodGet, "/api/v2/my_orders", query, nil, &resp); err != nil {
		return nil, err
	}

	out := &vinted.OrdersPage{
		Page:   toPage(resp.Pagination, page),
		Orders: make([]vinted.VintedOrder, 0, len(resp.MyOrders)),
	}
	for _, entry := range resp.MyOrders {
		order, err := a.GetTransaction(ctx, userID, entry.TransactionID)
		if err != nil {
			return nil, fmt.Errorf("expand transaction %d: %w", entry.TransactionID, err)
		}
		if order.OrderedAt == nil {
			order.OrderedAt = entry.Date
		}
		if len(order.Items) == 0 && entry.ItemID != 0 {
			order.Items = []vinted.VintedOrderItem{{VintedItemID: entry.ItemID, Title: entry.Title, Price: entry.Price.Amount}}
		}
		out.Orders = append(out.Orders, *order)
	}
	return out, nil
}

// GetTransaction fetches a sale with its items
func (a *VintedAdapter) GetTransaction(ctx context.Context, userID uuid.UUID, transactionID int64) (*vinted.VintedOrder, error) {
	var resp VintedTransactionResponse
	if err := a.do(ctx, userID, http.MethodGet, "/api/v2/transactions/"+strconv.FormatInt(transactionID, 10), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Transaction == nil {
		return nil, fmt.Errorf("vinted: transaction %d: empty response", transactionID)
	}
	order := toVintedOrder(*resp.Transaction)
	order.UserID = userID
	return &order, nil
}

// ---------------------------------------------------------------------------
// Inbox Operations
// ---------------------------------------------------------------------------

// ListConversations returns one page of inbox threads without messages
func (a *VintedAdapter) ListConversations(ctx context.Context, userID uuid.UUID, page int) (*vinted.ConversationsPage, error) {
	var resp VintedInboxResponse
	if err := a.do(ctx, userID, http.MethodGet, "/api/v2/inbox", pageQuery(page, VintedListPageSize), nil, &resp); err != nil {
		return nil, err
	}
	out := &vinted.ConversationsPage{
		Page:          toPage(resp.Pagination, page),
		Conversations: make([]vinted.Conversation, 0, len(resp.Conversations)),
	}
	for _, c := range resp.Conversations {
		out.Conversations = append(out.Conversations, vinted.Conversation{
			UserID:         userID,
			ConversationID: c.ID,
			OpponentLogin:  c.OppositeUser.Login,
			ItemID:         c.ItemID,
			Subject:        c.Description,
			Unread:         c.Unread,
			LastMessageAt:  c.UpdatedAt,
		})
	}
	return out, nil
}

// GetConversation returns the thread with its text messages
func (a *VintedAdapter) GetConversation(ctx context.Context, userID uuid.UUID, conversationID int64) (*vinted.Conversation, error) {
	var resp VintedConversationResponse
	if err := a.do(ctx, userID, http.MethodGet, "/api/v2/conversations/"+strconv.FormatInt(conversationID, 10), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Conversation == nil {
		return nil, fmt.Errorf("vinted: conversation %d: empty response", conversationID)
	}
	conv := toConversation(*resp.Conversation)
	conv.UserID = userID
	return &conv, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// do runs an API request through the plugin and decodes the body into out
func (a *VintedAdapter) do(ctx context.Context, userID uuid.UUID, method, path string, query map[string]string, body, out any) error {
	req := plugin.PluginRequest{
		Kind:   plugin.KindAPIRequest,
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	}
	resp, err := a.caller.Call(ctx, userID, req)
	if err != nil {
		return err
	}
	if resp.Status >= http.StatusBadRequest {
		apiErr := newVintedAPIError(req.Operation(), resp.Status, resp.Body)
		if apiErr.IsSessionExpired() {
			a.log(ctx).Warn("Vinted session expired", zap.String("operation", apiErr.Op))
		}
		return apiErr
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}

func (a *VintedAdapter) log(ctx context.Context) *zap.Logger {
	return logger.Enrich(ctx, a.logger)
}

func pageQuery(page, perPage int) map[string]string {
	if page < 1 {
		page = 1
	}
	return map[string]string{
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
}

func toPage(p VintedPagination, requested int) vinted.Page {
	current := p.CurrentPage
	if current == 0 {
		current = requested
	}
	return vinted.Page{Current: current, TotalPages: p.TotalPages}
}

func uploadRequestFor(id *int64, draft vinted.ItemDraft) VintedItemUploadRequest {
	currency := draft.Currency
	if currency == "" {
		currency = "EUR"
	}
	item := VintedItemUpload{
		ID:             id,
		Title:          draft.Title,
		Description:    draft.Description,
		CatalogID:      draft.CatalogID,
		BrandID:        draft.BrandID,
		SizeID:         draft.SizeID,
		StatusID:       draft.StatusID,
		ColorIDs:       draft.ColorIDs,
		Price:          draft.Price.StringFixed(2),
		Currency:       currency,
		AssignedPhotos: make([]VintedAssignedPhoto, 0, len(draft.PhotoIDs)),
	}
	if draft.BrandID == nil {
		item.Brand = draft.BrandName
	}
	if draft.MaterialID != nil {
		item.MaterialIDs = []int64{*draft.MaterialID}
	}
	if item.ColorIDs == nil {
		item.ColorIDs = []int64{}
	}
	for _, photoID := range draft.PhotoIDs {
		item.AssignedPhotos = append(item.AssignedPhotos, VintedAssignedPhoto{ID: photoID})
	}
	return VintedItemUploadRequest{Item: item}
}

func toRemoteItem(it VintedItem) vinted.RemoteItem {
	url := it.URL
	if url == "" && it.ID != 0 {
		url = vintedItemBaseURL + strconv.FormatInt(it.ID, 10)
	}
	currency := it.Price.CurrencyCode
	if currency == "" {
		currency = it.Currency
	}
	return vinted.RemoteItem{
		ID:             it.ID,
		Title:          it.Title,
		URL:            url,
		Price:          it.Price.Amount,
		Currency:       currency,
		Status:         mapVintedItemStatus(it),
		ViewCount:      it.ViewCount,
		FavouriteCount: it.FavouriteCount,
	}
}

// mapVintedItemStatus derives the listing status from Vinted's item flags
func mapVintedItemStatus(it VintedItem) vinted.ListingStatus {
	switch {
	case it.IsDraft:
		return vinted.ListingDraft
	case it.IsClosed:
		return vinted.ListingSold
	case it.IsReserved:
		return vinted.ListingReserved
	case it.IsHidden:
		return vinted.ListingHidden
	default:
		return vinted.ListingPublished
	}
}

// mapVintedOrderStatus maps the transaction status label to an OrderStatus
func mapVintedOrderStatus(status string) vinted.OrderStatus {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "cancel"):
		return vinted.OrderCancelled
	case strings.Contains(s, "refund"):
		return vinted.OrderRefunded
	case strings.Contains(s, "complet"), strings.Contains(s, "finish"):
		return vinted.OrderCompleted
	case strings.Contains(s, "ship"), strings.Contains(s, "deliver"):
		return vinted.OrderShipped
	case strings.Contains(s, "paid"), strings.Contains(s, "payment"):
		return vinted.OrderPaid
	default:
		return vinted.OrderPending
	}
}

func toVintedOrder(t VintedTransaction) vinted.VintedOrder {
	currency := t.TotalPrice.CurrencyCode
	if currency == "" {
		currency = "EUR"
	}
	order := vinted.VintedOrder{
		TransactionID: t.ID,
		BuyerLogin:    t.Buyer.Login,
		Status:        mapVintedOrderStatus(t.Status),
		TotalPrice:    t.TotalPrice.Amount,
		ServiceFee:    t.ServiceFee.Amount,
		Currency:      currency,
		OrderedAt:     t.CreatedAt,
		CompletedAt:   t.CompletedAt,
		Items:         make([]vinted.VintedOrderItem, 0, len(t.Order.Items)),
	}
	if t.Shipment != nil {
		order.ShippingPrice = t.Shipment.Price.Amount
		order.TrackingNumber = t.Shipment.TrackingCode
		order.ShippedAt = t.Shipment.ShippedAt
	}
	for _, line := range t.Order.Items {
		order.Items = append(order.Items, vinted.VintedOrderItem{
			VintedItemID: line.ID,
			Title:        line.Title,
			Price:        line.Price.Amount,
		})
	}
	return order
}

func toConversation(c VintedConversation) vinted.Conversation {
	conv := vinted.Conversation{
		ConversationID: c.ID,
		OpponentLogin:  c.OppositeUser.Login,
		Subject:        c.Subject,
		Unread:         !c.ReadByUser,
		LastMessageAt:  c.UpdatedAt,
	}
	if c.Transaction != nil && c.Transaction.ItemID != 0 {
		itemID := c.Transaction.ItemID
		conv.ItemID = &itemID
	}
	for _, m := range c.Messages {
		if m.EntityType != "message" {
			continue
		}
		conv.Messages = append(conv.Messages, vinted.Message{
			MessageID: m.messageID(),
			Body:      m.Entity.Body,
			FromSelf:  m.Entity.UserID != c.OppositeUser.ID,
			SentAt:    m.CreatedAt,
		})
	}
	return conv
}

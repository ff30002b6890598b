package ecommerce

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Common Vinted API Types
// ---------------------------------------------------------------------------

// VintedMoney is a price as Vinted returns it: either an object with an
// amount and currency code, or a bare number or numeric string.
type VintedMoney struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code,omitempty"`
}

// UnmarshalJSON accepts both price encodings
func (m *VintedMoney) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		type money VintedMoney
		var v money
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*m = VintedMoney(v)
		return nil
	}
	return m.Amount.UnmarshalJSON(data)
}

// VintedPagination is the pagination block of list endpoints
type VintedPagination struct {
	CurrentPage  int `json:"current_page"`
	TotalPages   int `json:"total_pages"`
	TotalEntries int `json:"total_entries"`
	PerPage      int `json:"per_page"`
}

// VintedErrorBody is the error payload returned with a 4xx/5xx status
type VintedErrorBody struct {
	Code        int    `json:"code"`
	Message     string `json:"message"`
	MessageCode string `json:"message_code"`
}

// VintedUser is the minimal user block embedded in orders and conversations
type VintedUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// ---------------------------------------------------------------------------
// Item Types
// ---------------------------------------------------------------------------

// VintedItem is an item as returned by the item, upload and wardrobe endpoints
type VintedItem struct {
	ID             int64       `json:"id"`
	Title          string      `json:"title"`
	URL            string      `json:"url"`
	Price          VintedMoney `json:"price"`
	Currency       string      `json:"currency"`
	IsDraft        bool        `json:"is_draft"`
	IsClosed       bool        `json:"is_closed"`
	IsReserved     bool        `json:"is_reserved"`
	IsHidden       bool        `json:"is_hidden"`
	ViewCount      int         `json:"view_count"`
	FavouriteCount int         `json:"favourite_count"`
}

// VintedItemResponse wraps a single item
type VintedItemResponse struct {
	Item *VintedItem `json:"item"`
}

// VintedWardrobeResponse is a page of the seller's wardrobe
type VintedWardrobeResponse struct {
	Items      []VintedItem     `json:"items"`
	Pagination VintedPagination `json:"pagination"`
}

// VintedAssignedPhoto attaches an uploaded photo to an item
type VintedAssignedPhoto struct {
	ID          int64 `json:"id"`
	Orientation int   `json:"orientation"`
}

// VintedItemUpload is the item block of an upload request
type VintedItemUpload struct {
	ID             *int64                `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	CatalogID      int64                 `json:"catalog_id"`
	BrandID        *int64                `json:"brand_id"`
	Brand          string                `json:"brand,omitempty"`
	SizeID         *int64                `json:"size_id"`
	StatusID       *int64                `json:"status_id"`
	ColorIDs       []int64               `json:"color_ids"`
	MaterialIDs    []int64               `json:"material,omitempty"`
	Price          string                `json:"price"`
	Currency       string                `json:"currency"`
	AssignedPhotos []VintedAssignedPhoto `json:"assigned_photos"`
}

// VintedItemUploadRequest is the body of create and update calls
type VintedItemUploadRequest struct {
	Item       VintedItemUpload `json:"item"`
	FeedbackID *int64           `json:"feedback_id"`
}

// VintedPhotoResponse is returned by the photo upload
type VintedPhotoResponse struct {
	ID int64 `json:"id"`
}

// ---------------------------------------------------------------------------
// Order Types
// ---------------------------------------------------------------------------

// VintedMyOrder is an entry of the sold-orders list
type VintedMyOrder struct {
	TransactionID int64       `json:"transaction_id"`
	ItemID        int64       `json:"item_id"`
	ItemCount     int         `json:"item_count"`
	Title         string      `json:"title"`
	Price         VintedMoney `json:"price"`
	Status        string      `json:"status"`
	Date          *time.Time  `json:"date"`
}

// VintedMyOrdersResponse is a page of sold orders
type VintedMyOrdersResponse struct {
	MyOrders   []VintedMyOrder  `json:"my_orders"`
	Pagination VintedPagination `json:"pagination"`
}

// VintedOrderLine is one item of a transaction
type VintedOrderLine struct {
	ID    int64       `json:"id"`
	Title string      `json:"title"`
	Price VintedMoney `json:"price"`
}

// VintedShipment is the shipping block of a transaction
type VintedShipment struct {
	TrackingCode string      `json:"tracking_code"`
	Price        VintedMoney `json:"price"`
	ShippedAt    *time.Time  `json:"shipped_at"`
	DeliveredAt  *time.Time  `json:"delivered_at"`
}

// VintedTransactionOrder lists the items of a (possibly bundled) sale
type VintedTransactionOrder struct {
	Items []VintedOrderLine `json:"items"`
}

// VintedTransaction is the detail of a sale
type VintedTransaction struct {
	ID          int64                  `json:"id"`
	Status      string                 `json:"status"`
	Buyer       VintedUser             `json:"buyer"`
	TotalPrice  VintedMoney            `json:"total_item_price"`
	ServiceFee  VintedMoney            `json:"service_fee"`
	Order       VintedTransactionOrder `json:"order"`
	Shipment    *VintedShipment        `json:"shipment"`
	CreatedAt   *time.Time             `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at"`
}

// VintedTransactionResponse wraps a transaction
type VintedTransactionResponse struct {
	Transaction *VintedTransaction `json:"transaction"`
}

// ---------------------------------------------------------------------------
// Inbox Types
// ---------------------------------------------------------------------------

// VintedInboxEntry is a thread of the inbox list
type VintedInboxEntry struct {
	ID           int64      `json:"id"`
	Description  string     `json:"description"`
	Unread       bool       `json:"unread"`
	UpdatedAt    *time.Time `json:"updated_at"`
	OppositeUser VintedUser `json:"opposite_user"`
	ItemID       *int64     `json:"item_id"`
}

// VintedInboxResponse is a page of the inbox
type VintedInboxResponse struct {
	Conversations []VintedInboxEntry `json:"conversations"`
	Pagination    VintedPagination   `json:"pagination"`
}

// VintedMessageEntity is the payload of a text message
type VintedMessageEntity struct {
	ID     json.Number `json:"id"`
	Body   string      `json:"body"`
	UserID int64       `json:"user_id"`
}

// VintedConversationMessage is one entry of a thread. Only entries of type
// "message" carry text; the rest are status or offer events.
type VintedConversationMessage struct {
	EntityType string              `json:"entity_type"`
	Entity     VintedMessageEntity `json:"entity"`
	CreatedAt  time.Time           `json:"created_at"`
}

// VintedConversationTransaction links a thread to the sold item
type VintedConversationTransaction struct {
	ItemID int64 `json:"item_id"`
}

// VintedConversation is a thread with its messages
type VintedConversation struct {
	ID           int64                          `json:"id"`
	Subject      string                         `json:"subject"`
	ReadByUser   bool                           `json:"read_by_current_user"`
	UpdatedAt    *time.Time                     `json:"updated_at"`
	OppositeUser VintedUser                     `json:"opposite_user"`
	Transaction  *VintedConversationTransaction `json:"transaction"`
	Messages     []VintedConversationMessage    `json:"messages"`
}

// VintedConversationResponse wraps a conversation
type VintedConversationResponse struct {
	Conversation *VintedConversation `json:"conversation"`
}

// messageID parses the entity id, which Vinted sends as a number or a string
func (m VintedConversationMessage) messageID() int64 {
	id, _ := strconv.ParseInt(m.Entity.ID.String(), 10, 64)
	return id
}

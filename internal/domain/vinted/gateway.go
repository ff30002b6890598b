package vinted

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Gateway Port Interface
// ---------------------------------------------------------------------------

// ItemDraft is the payload sent to Vinted to create or update an item
type ItemDraft struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Currency    string
	CatalogID   int64
	BrandID     *int64
	// BrandName is sent when no brand id could be resolved
	BrandName  string
	SizeID     *int64
	StatusID   *int64
	ColorIDs   []int64
	MaterialID *int64
	PhotoIDs   []int64
}

// Page describes the pagination block of a Vinted listing response
type Page struct {
	Current    int
	TotalPages int
}

// HasNext reports whether another page follows
func (p Page) HasNext() bool {
	return p.Current < p.TotalPages
}

// WardrobePage is one page of the seller's items
type WardrobePage struct {
	Page
	Items []RemoteItem
}

// OrdersPage is one page of the seller's sold orders, newest first
type OrdersPage struct {
	Page
	Orders []VintedOrder
}

// ConversationsPage is one page of inbox threads, most recent first
type ConversationsPage struct {
	Page
	Conversations []Conversation
}

// Gateway is the Vinted API as reached through the user's browser plugin.
// Implementations live in the infrastructure layer.
type Gateway interface {
	CreateItem(ctx context.Context, userID uuid.UUID, draft ItemDraft) (*RemoteItem, error)
	UpdateItem(ctx context.Context, userID uuid.UUID, vintedID int64, draft ItemDraft) (*RemoteItem, error)
	DeleteItem(ctx context.Context, userID uuid.UUID, vintedID int64) error
	GetItem(ctx context.Context, userID uuid.UUID, vintedID int64) (*RemoteItem, error)
	UploadPhoto(ctx context.Context, userID uuid.UUID, imageURL string) (int64, error)

	ListWardrobe(ctx context.Context, userID uuid.UUID, page int) (*WardrobePage, error)
	ListMyOrders(ctx context.Context, userID uuid.UUID, page int) (*OrdersPage, error)
	GetTransaction(ctx context.Context, userID uuid.UUID, transactionID int64) (*VintedOrder, error)
	ListConversations(ctx context.Context, userID uuid.UUID, page int) (*ConversationsPage, error)
	// GetConversation returns the thread with its messages
	GetConversation(ctx context.Context, userID uuid.UUID, conversationID int64) (*Conversation, error)

	IsConnected(userID uuid.UUID) bool
}

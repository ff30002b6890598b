package vinted

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository persists Vinted listing links
type ProductRepository interface {
	FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*VintedProduct, error)
	FindByVintedID(ctx context.Context, userID uuid.UUID, vintedID int64) (*VintedProduct, error)
	FindLive(ctx context.Context, userID uuid.UUID) ([]VintedProduct, error)
	Save(ctx context.Context, p *VintedProduct) error
}

// OrderRepository persists Vinted sales
type OrderRepository interface {
	FindByTransactionID(ctx context.Context, userID uuid.UUID, transactionID int64) (*VintedOrder, error)
	LatestOrderedAt(ctx context.Context, userID uuid.UUID) (*time.Time, error)
	Upsert(ctx context.Context, o *VintedOrder) (created bool, err error)
}

// ConversationRepository persists inbox threads
type ConversationRepository interface {
	Upsert(ctx context.Context, c *Conversation) (created bool, err error)
}

// MappingRepository resolves catalog ids and serves attribute reference lists
type MappingRepository interface {
	// ResolveCategory calls get_vinted_category; returns ErrCategoryNotMapped when NULL
	ResolveCategory(ctx context.Context, q CategoryQuery) (int64, error)
	FindByVintedID(ctx context.Context, vintedID int64) (*Mapping, error)
	ListAttributes(ctx context.Context, kind AttributeKind) ([]Attribute, error)
}

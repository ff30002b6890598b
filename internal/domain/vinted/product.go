package vinted

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ListingStatus is the state of an item on Vinted
type ListingStatus string

const (
	ListingDraft     ListingStatus = "DRAFT"
	ListingPublished ListingStatus = "PUBLISHED"
	ListingSold      ListingStatus = "SOLD"
	ListingReserved  ListingStatus = "RESERVED"
	ListingHidden    ListingStatus = "HIDDEN"
	ListingDeleted   ListingStatus = "DELETED"
)

// IsLive reports whether the item is visible or transacting on Vinted
func (s ListingStatus) IsLive() bool {
	switch s {
	case ListingPublished, ListingReserved, ListingHidden:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// VintedProduct
// ---------------------------------------------------------------------------

// VintedProduct links a catalog product to its Vinted item.
type VintedProduct struct {
	shared.BaseEntity
	UserID    uuid.UUID
	ProductID uuid.UUID
	// VintedID is the item id on Vinted, 0 until published
	VintedID   int64
	URL        string
	CatalogID  int64
	BrandID    *int64
	SizeID     *int64
	StatusID   *int64
	ColorIDs   []int64
	MaterialID *int64
	PhotoIDs   []int64
	Price      decimal.Decimal
	Currency   string
	Status     ListingStatus
	// Counters refreshed by the listing sync
	ViewCount      int
	FavouriteCount int
	PublishedAt    *time.Time
	LastSyncedAt   *time.Time
}

// NewVintedProduct creates a draft link
func NewVintedProduct(userID, productID uuid.UUID) *VintedProduct {
	return &VintedProduct{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		ProductID:  productID,
		Status:     ListingDraft,
		Currency:   "EUR",
	}
}

// OwnerID implements shared.UserOwned
func (p *VintedProduct) OwnerID() uuid.UUID {
	return p.UserID
}

// MarkPublished records the remote item after creation
func (p *VintedProduct) MarkPublished(item RemoteItem, now time.Time) {
	p.VintedID = item.ID
	p.URL = item.URL
	p.Status = ListingPublished
	p.PublishedAt = &now
	p.LastSyncedAt = &now
	p.UpdatedAt = now
}

// ApplyRemote refreshes the link from a wardrobe entry
func (p *VintedProduct) ApplyRemote(item RemoteItem, now time.Time) {
	if item.URL != "" {
		p.URL = item.URL
	}
	p.Status = item.Status
	p.ViewCount = item.ViewCount
	p.FavouriteCount = item.FavouriteCount
	if !item.Price.IsZero() {
		p.Price = item.Price
	}
	p.LastSyncedAt = &now
	p.UpdatedAt = now
}

// MarkDeleted flags the link once the remote item is gone
func (p *VintedProduct) MarkDeleted(now time.Time) {
	p.Status = ListingDeleted
	p.LastSyncedAt = &now
	p.UpdatedAt = now
}

// RemoteItem is a Vinted item as returned by the wardrobe or item endpoints
type RemoteItem struct {
	ID             int64
	Title          string
	URL            string
	Price          decimal.Decimal
	Currency       string
	Status         ListingStatus
	ViewCount      int
	FavouriteCount int
}

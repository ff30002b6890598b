package ebay

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

var (
	ErrNotConnected = errors.New("ebay: account not connected")
	// ErrResourceNotFound is matched by gateway errors for a missing SKU or offer
	ErrResourceNotFound = errors.New("ebay: resource not found")
	// ErrLinkNotFound is returned by repositories when a product has no eBay link
	ErrLinkNotFound = errors.New("ebay: product not linked")
	// ErrPoliciesMissing means the seller has no fulfillment, payment or return policy
	ErrPoliciesMissing = errors.New("ebay: business policies missing")
)

// Credential is a user's eBay OAuth grant. The refresh token is stored encrypted.
type Credential struct {
	shared.BaseEntity
	UserID                uuid.UUID
	EbayUserID            string
	EncryptedRefreshToken []byte
	Scopes                []string
	RefreshTokenExpiresAt *time.Time
	MarketplaceID         string
	MerchantLocationKey   string
}

// IsExpired reports whether the refresh token can no longer be used
func (c *Credential) IsExpired(now time.Time) bool {
	return c.RefreshTokenExpiresAt != nil && !c.RefreshTokenExpiresAt.After(now)
}

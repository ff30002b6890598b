package ebay

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProductRepository persists eBay listing links
type ProductRepository interface {
	FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*EbayProduct, error)
	FindBySKU(ctx context.Context, userID uuid.UUID, sku string) (*EbayProduct, error)
	FindPublished(ctx context.Context, userID uuid.UUID) ([]EbayProduct, error)
	Save(ctx context.Context, p *EbayProduct) error
}

// OrderRepository persists eBay orders
type OrderRepository interface {
	LatestCreatedAt(ctx context.Context, userID uuid.UUID) (*time.Time, error)
	Upsert(ctx context.Context, o *EbayOrder) (created bool, err error)
}

// InquiryRepository persists buyer inquiries
type InquiryRepository interface {
	Upsert(ctx context.Context, i *EbayInquiry) (created bool, err error)
}

// PolicyRepository caches business policies
type PolicyRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) ([]BusinessPolicy, error)
	ReplaceAll(ctx context.Context, userID uuid.UUID, policies []BusinessPolicy) error
}

// CredentialRepository stores OAuth grants
type CredentialRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*Credential, error)
	Save(ctx context.Context, c *Credential) error
}

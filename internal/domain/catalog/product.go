package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductStatus is the lifecycle state of a Stoflow product
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "DRAFT"
	ProductStatusPublished ProductStatus = "PUBLISHED"
	ProductStatusSold      ProductStatus = "SOLD"
	ProductStatusArchived  ProductStatus = "ARCHIVED"
)

// Gender is the target audience of a garment
type Gender string

const (
	GenderWomen  Gender = "women"
	GenderMen    Gender = "men"
	GenderGirls  Gender = "girls"
	GenderBoys   Gender = "boys"
	GenderUnisex Gender = "unisex"
)

// Attributes holds the descriptive fields used by the marketplace mappers.
// Every field is free text as entered by the seller.
type Attributes struct {
	Brand        string
	Category     string
	Gender       Gender
	Condition    string
	Color        string
	Size         string
	Material     string
	Fit          string
	Length       string
	Rise         string
	Closure      string
	SleeveLength string
	Pattern      string
}

// Product is an item of the internal Stoflow catalog
type Product struct {
	shared.BaseEntity
	UserID        uuid.UUID
	Title         string
	Description   string
	Price         decimal.Decimal
	Currency      valueobject.Currency
	VintedPrice   *decimal.Decimal
	EbayPrice     *decimal.Decimal
	Attributes    Attributes
	ImageURLs     []string
	StockQuantity int
	Status        ProductStatus
	DeletedAt     *time.Time
}

// OwnerID implements shared.UserOwned
func (p *Product) OwnerID() uuid.UUID {
	return p.UserID
}

// IsDeleted reports soft deletion
func (p *Product) IsDeleted() bool {
	return p.DeletedAt != nil
}

// PriceFor returns the selling price on a marketplace, honoring overrides
func (p *Product) PriceFor(m marketplace.Marketplace) valueobject.Money {
	amount := p.Price
	switch m {
	case marketplace.Vinted:
		if p.VintedPrice != nil {
			amount = *p.VintedPrice
		}
	case marketplace.Ebay:
		if p.EbayPrice != nil {
			amount = *p.EbayPrice
		}
	}
	currency := p.Currency
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	money, _ := valueobject.NewMoney(amount, currency)
	return money
}

// MarkSold flags the product as sold on any channel
func (p *Product) MarkSold(now time.Time) {
	p.Status = ProductStatusSold
	p.StockQuantity = 0
	p.UpdatedAt = now
}

// MarkPublished promotes a draft once it is live somewhere
func (p *Product) MarkPublished(now time.Time) {
	if p.Status == ProductStatusDraft {
		p.Status = ProductStatusPublished
		p.UpdatedAt = now
	}
}

// SoftDelete hides the product
func (p *Product) SoftDelete(now time.Time) {
	p.DeletedAt = &now
	p.UpdatedAt = now
}

// Colors splits a multi-colour value such as "Bleu / Blanc"
func (a Attributes) Colors() []string {
	fields := strings.FieldsFunc(a.Color, func(r rune) bool {
		return r == '/' || r == ',' || r == '&' || r == '+'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

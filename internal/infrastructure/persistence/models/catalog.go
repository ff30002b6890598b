package models

import (
	"time"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for products
type ProductModel struct {
	UserModel
	Title         string                `gorm:"type:varchar(255);not null"`
	Description   string                `gorm:"type:text"`
	Price         decimal.Decimal       `gorm:"type:decimal(10,2);not null;default:0"`
	Currency      string                `gorm:"type:varchar(3);not null;default:'EUR'"`
	VintedPrice   *decimal.Decimal      `gorm:"type:decimal(10,2)"`
	EbayPrice     *decimal.Decimal      `gorm:"type:decimal(10,2)"`
	Brand         string                `gorm:"type:varchar(100)"`
	Category      string                `gorm:"type:varchar(100);index"`
	Gender        string                `gorm:"type:varchar(20)"`
	Condition     string                `gorm:"type:varchar(50)"`
	Color         string                `gorm:"type:varchar(100)"`
	Size          string                `gorm:"type:varchar(50)"`
	Material      string                `gorm:"type:varchar(100)"`
	Fit           string                `gorm:"type:varchar(50)"`
	Length        string                `gorm:"type:varchar(50)"`
	Rise          string                `gorm:"type:varchar(50)"`
	Closure       string                `gorm:"type:varchar(50)"`
	SleeveLength  string                `gorm:"type:varchar(50)"`
	Pattern       string                `gorm:"type:varchar(50)"`
	ImageURLs     string                `gorm:"column:image_urls;type:jsonb;not null;default:'[]'"`
	StockQuantity int                   `gorm:"not null;default:0"`
	Status        catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	DeletedAt     *time.Time            `gorm:"index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		BaseEntity:  m.BaseModel.ToDomain(),
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Currency:    valueobject.Currency(m.Currency),
		VintedPrice: m.VintedPrice,
		EbayPrice:   m.EbayPrice,
		Attributes: catalog.Attributes{
			Brand:        m.Brand,
			Category:     m.Category,
			Gender:       catalog.Gender(m.Gender),
			Condition:    m.Condition,
			Color:        m.Color,
			Size:         m.Size,
			Material:     m.Material,
			Fit:          m.Fit,
			Length:       m.Length,
			Rise:         m.Rise,
			Closure:      m.Closure,
			SleeveLength: m.SleeveLength,
			Pattern:      m.Pattern,
		},
		ImageURLs:     decodeJSON[[]string](m.ImageURLs),
		StockQuantity: m.StockQuantity,
		Status:        m.Status,
		DeletedAt:     m.DeletedAt,
	}
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.UserID = p.UserID
	m.Title = p.Title
	m.Description = p.Description
	m.Price = p.Price
	m.Currency = string(p.Currency)
	m.VintedPrice = p.VintedPrice
	m.EbayPrice = p.EbayPrice
	a := p.Attributes
	m.Brand = a.Brand
	m.Category = a.Category
	m.Gender = string(a.Gender)
	m.Condition = a.Condition
	m.Color = a.Color
	m.Size = a.Size
	m.Material = a.Material
	m.Fit = a.Fit
	m.Length = a.Length
	m.Rise = a.Rise
	m.Closure = a.Closure
	m.SleeveLength = a.SleeveLength
	m.Pattern = a.Pattern
	m.ImageURLs = encodeJSON(p.ImageURLs, "[]")
	m.StockQuantity = p.StockQuantity
	m.Status = p.Status
	m.DeletedAt = p.DeletedAt
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

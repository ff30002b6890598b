package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"github.com/shopspring/decimal"
)

// EbayProductModel is the persistence model for ebay_products
type EbayProductModel struct {
	UserModel
	ProductID           uuid.UUID          `gorm:"type:uuid;not null;index"`
	SKU                 string             `gorm:"column:sku;type:varchar(64);not null;index"`
	OfferID             string             `gorm:"type:varchar(64)"`
	ListingID           string             `gorm:"type:varchar(64)"`
	MarketplaceID       string             `gorm:"type:varchar(20);not null;default:'EBAY_FR'"`
	CategoryID          string             `gorm:"type:varchar(20)"`
	Aspects             string             `gorm:"type:jsonb;not null;default:'{}'"`
	Price               decimal.Decimal    `gorm:"type:decimal(10,2);not null;default:0"`
	Currency            string             `gorm:"type:varchar(3);not null;default:'EUR'"`
	Quantity            int                `gorm:"not null;default:1"`
	FulfillmentPolicyID string             `gorm:"type:varchar(64)"`
	PaymentPolicyID     string             `gorm:"type:varchar(64)"`
	ReturnPolicyID      string             `gorm:"type:varchar(64)"`
	MerchantLocationKey string             `gorm:"type:varchar(64)"`
	Status              ebay.ListingStatus `gorm:"type:varchar(20);not null;index"`
	PublishedAt         *time.Time
	LastSyncedAt        *time.Time
}

// TableName returns the table name for GORM
func (EbayProductModel) TableName() string {
	return "ebay_products"
}

// ToDomain converts the persistence model to a domain link
func (m *EbayProductModel) ToDomain() *ebay.EbayProduct {
	return &ebay.EbayProduct{
		BaseEntity:          m.BaseModel.ToDomain(),
		UserID:              m.UserID,
		ProductID:           m.ProductID,
		SKU:                 m.SKU,
		OfferID:             m.OfferID,
		ListingID:           m.ListingID,
		MarketplaceID:       m.MarketplaceID,
		CategoryID:          m.CategoryID,
		Aspects:             decodeJSON[map[string][]string](m.Aspects),
		Price:               m.Price,
		Currency:            m.Currency,
		Quantity:            m.Quantity,
		FulfillmentPolicyID: m.FulfillmentPolicyID,
		PaymentPolicyID:     m.PaymentPolicyID,
		ReturnPolicyID:      m.ReturnPolicyID,
		MerchantLocationKey: m.MerchantLocationKey,
		Status:              m.Status,
		PublishedAt:         m.PublishedAt,
		LastSyncedAt:        m.LastSyncedAt,
	}
}

// FromDomain populates the persistence model from a domain link
func (m *EbayProductModel) FromDomain(p *ebay.EbayProduct) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.UserID = p.UserID
	m.ProductID = p.ProductID
	m.SKU = p.SKU
	m.OfferID = p.OfferID
	m.ListingID = p.ListingID
	m.MarketplaceID = p.MarketplaceID
	m.CategoryID = p.CategoryID
	m.Aspects = encodeJSON(p.Aspects, "{}")
	m.Price = p.Price
	m.Currency = p.Currency
	m.Quantity = p.Quantity
	m.FulfillmentPolicyID = p.FulfillmentPolicyID
	m.PaymentPolicyID = p.PaymentPolicyID
	m.ReturnPolicyID = p.ReturnPolicyID
	m.MerchantLocationKey = p.MerchantLocationKey
	m.Status = p.Status
	m.PublishedAt = p.PublishedAt
	m.LastSyncedAt = p.LastSyncedAt
}

// EbayOrderModel is the persistence model for ebay_orders
type EbayOrderModel struct {
	UserModel
	OrderID           string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	BuyerUsername     string          `gorm:"type:varchar(100)"`
	FulfillmentStatus string          `gorm:"type:varchar(30)"`
	PaymentStatus     string          `gorm:"type:varchar(30)"`
	Total             decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Currency          string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	LineItems         string          `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedOnEbay     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (EbayOrderModel) TableName() string {
	return "ebay_orders"
}

// ToDomain converts the persistence model to a domain order
func (m *EbayOrderModel) ToDomain() *ebay.EbayOrder {
	return &ebay.EbayOrder{
		BaseEntity:        m.BaseModel.ToDomain(),
		UserID:            m.UserID,
		OrderID:           m.OrderID,
		BuyerUsername:     m.BuyerUsername,
		FulfillmentStatus: m.FulfillmentStatus,
		PaymentStatus:     m.PaymentStatus,
		Total:             m.Total,
		Currency:          m.Currency,
		LineItems:         decodeJSON[[]ebay.OrderLineItem](m.LineItems),
		CreatedOnEbay:     m.CreatedOnEbay,
	}
}

// FromDomain populates the persistence model from a domain order
func (m *EbayOrderModel) FromDomain(o *ebay.EbayOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.UserID = o.UserID
	m.OrderID = o.OrderID
	m.BuyerUsername = o.BuyerUsername
	m.FulfillmentStatus = o.FulfillmentStatus
	m.PaymentStatus = o.PaymentStatus
	m.Total = o.Total
	m.Currency = o.Currency
	m.LineItems = encodeJSON(o.LineItems, "[]")
	m.CreatedOnEbay = o.CreatedOnEbay
}

// EbayInquiryModel is the persistence model for ebay_inquiries
type EbayInquiryModel struct {
	UserModel
	InquiryID     string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	OrderID       string          `gorm:"type:varchar(64);index"`
	ItemID        string          `gorm:"type:varchar(64)"`
	BuyerUsername string          `gorm:"type:varchar(100)"`
	Status        string          `gorm:"type:varchar(40)"`
	State         string          `gorm:"type:varchar(20)"`
	Type          string          `gorm:"type:varchar(30)"`
	ClaimAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Currency      string          `gorm:"type:varchar(3);not null;default:'EUR'"`
	RespondBy     *time.Time
	OpenedAt      time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (EbayInquiryModel) TableName() string {
	return "ebay_inquiries"
}

// ToDomain converts the persistence model to a domain inquiry
func (m *EbayInquiryModel) ToDomain() *ebay.EbayInquiry {
	return &ebay.EbayInquiry{
		BaseEntity:    m.BaseModel.ToDomain(),
		UserID:        m.UserID,
		InquiryID:     m.InquiryID,
		OrderID:       m.OrderID,
		ItemID:        m.ItemID,
		BuyerUsername: m.BuyerUsername,
		Status:        m.Status,
		State:         m.State,
		Type:          m.Type,
		ClaimAmount:   m.ClaimAmount,
		Currency:      m.Currency,
		RespondBy:     m.RespondBy,
		OpenedAt:      m.OpenedAt,
	}
}

// FromDomain populates the persistence model from a domain inquiry
func (m *EbayInquiryModel) FromDomain(i *ebay.EbayInquiry) {
	m.FromDomainBaseEntity(i.BaseEntity)
	m.UserID = i.UserID
	m.InquiryID = i.InquiryID
	m.OrderID = i.OrderID
	m.ItemID = i.ItemID
	m.BuyerUsername = i.BuyerUsername
	m.Status = i.Status
	m.State = i.State
	m.Type = i.Type
	m.ClaimAmount = i.ClaimAmount
	m.Currency = i.Currency
	m.RespondBy = i.RespondBy
	m.OpenedAt = i.OpenedAt
}

// EbayBusinessPolicyModel is the persistence model for ebay_business_policies
type EbayBusinessPolicyModel struct {
	UserModel
	PolicyID      string          `gorm:"type:varchar(64);not null"`
	Type          ebay.PolicyType `gorm:"type:varchar(20);not null"`
	MarketplaceID string          `gorm:"type:varchar(20);not null"`
	Name          string          `gorm:"type:varchar(255)"`
	IsDefault     bool            `gorm:"not null;default:false"`
	Raw           string          `gorm:"type:jsonb;not null;default:'{}'"`
}

// TableName returns the table name for GORM
func (EbayBusinessPolicyModel) TableName() string {
	return "ebay_business_policies"
}

// ToDomain converts the persistence model to a domain policy
func (m *EbayBusinessPolicyModel) ToDomain() ebay.BusinessPolicy {
	return ebay.BusinessPolicy{
		BaseEntity:    m.BaseModel.ToDomain(),
		UserID:        m.UserID,
		PolicyID:      m.PolicyID,
		Type:          m.Type,
		MarketplaceID: m.MarketplaceID,
		Name:          m.Name,
		IsDefault:     m.IsDefault,
		Raw:           m.Raw,
	}
}

// FromDomain populates the persistence model from a domain policy
func (m *EbayBusinessPolicyModel) FromDomain(p *ebay.BusinessPolicy) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.UserID = p.UserID
	m.PolicyID = p.PolicyID
	m.Type = p.Type
	m.MarketplaceID = p.MarketplaceID
	m.Name = p.Name
	m.IsDefault = p.IsDefault
	m.Raw = p.Raw
	if m.Raw == "" {
		m.Raw = "{}"
	}
}

// EbayCredentialModel is the persistence model for ebay_credentials
type EbayCredentialModel struct {
	UserModel
	EbayUserID            string `gorm:"type:varchar(100)"`
	EncryptedRefreshToken []byte `gorm:"type:bytea;not null"`
	Scopes                string `gorm:"type:jsonb;not null;default:'[]'"`
	RefreshTokenExpiresAt *time.Time
	MarketplaceID         string `gorm:"type:varchar(20);not null;default:'EBAY_FR'"`
	MerchantLocationKey   string `gorm:"type:varchar(64)"`
}

// TableName returns the table name for GORM
func (EbayCredentialModel) TableName() string {
	return "ebay_credentials"
}

// ToDomain converts the persistence model to a domain credential
func (m *EbayCredentialModel) ToDomain() *ebay.Credential {
	return &ebay.Credential{
		BaseEntity:            m.BaseModel.ToDomain(),
		UserID:                m.UserID,
		EbayUserID:            m.EbayUserID,
		EncryptedRefreshToken: m.EncryptedRefreshToken,
		Scopes:                decodeJSON[[]string](m.Scopes),
		RefreshTokenExpiresAt: m.RefreshTokenExpiresAt,
		MarketplaceID:         m.MarketplaceID,
		MerchantLocationKey:   m.MerchantLocationKey,
	}
}

// FromDomain populates the persistence model from a domain credential
func (m *EbayCredentialModel) FromDomain(c *ebay.Credential) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.UserID = c.UserID
	m.EbayUserID = c.EbayUserID
	m.EncryptedRefreshToken = c.EncryptedRefreshToken
	m.Scopes = encodeJSON(c.Scopes, "[]")
	m.RefreshTokenExpiresAt = c.RefreshTokenExpiresAt
	m.MarketplaceID = c.MarketplaceID
	m.MerchantLocationKey = c.MerchantLocationKey
}

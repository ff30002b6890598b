package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/shopspring/decimal"
)

// VintedProductModel is the persistence model for vinted_products
type VintedProductModel struct {
	UserModel
	ProductID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	VintedID       *int64               `gorm:"uniqueIndex"`
	URL            string               `gorm:"type:varchar(500)"`
	CatalogID      int64                `gorm:"not null;default:0"`
	BrandID        *int64               `gorm:""`
	SizeID         *int64               `gorm:""`
	StatusID       *int64               `gorm:""`
	ColorIDs       string               `gorm:"column:color_ids;type:jsonb;not null;default:'[]'"`
	MaterialID     *int64               `gorm:""`
	PhotoIDs       string               `gorm:"column:photo_ids;type:jsonb;not null;default:'[]'"`
	Price          decimal.Decimal      `gorm:"type:decimal(10,2);not null;default:0"`
	Currency       string               `gorm:"type:varchar(3);not null;default:'EUR'"`
	Status         vinted.ListingStatus `gorm:"type:varchar(20);not null;index"`
	ViewCount      int                  `gorm:"not null;default:0"`
	FavouriteCount int                  `gorm:"not null;default:0"`
	PublishedAt    *time.Time
	LastSyncedAt   *time.Time
}

// TableName returns the table name for GORM
func (VintedProductModel) TableName() string {
	return "vinted_products"
}

// ToDomain converts the persistence model to a domain link
func (m *VintedProductModel) ToDomain() *vinted.VintedProduct {
	p := &vinted.VintedProduct{
		BaseEntity:     m.BaseModel.ToDomain(),
		UserID:         m.UserID,
		ProductID:      m.ProductID,
		URL:            m.URL,
		CatalogID:      m.CatalogID,
		BrandID:        m.BrandID,
		SizeID:         m.SizeID,
		StatusID:       m.StatusID,
		ColorIDs:       decodeJSON[[]int64](m.ColorIDs),
		MaterialID:     m.MaterialID,
		PhotoIDs:       decodeJSON[[]int64](m.PhotoIDs),
		Price:          m.Price,
		Currency:       m.Currency,
		Status:         m.Status,
		ViewCount:      m.ViewCount,
		FavouriteCount: m.FavouriteCount,
		PublishedAt:    m.PublishedAt,
		LastSyncedAt:   m.LastSyncedAt,
	}
	if m.VintedID != nil {
		p.VintedID = *m.VintedID
	}
	return p
}

// FromDomain populates the persistence model from a domain link.
// A zero VintedID is stored as NULL so the unique index ignores drafts.
func (m *VintedProductModel) FromDomain(p *vinted.VintedProduct) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.UserID = p.UserID
	m.ProductID = p.ProductID
	m.VintedID = nil
	if p.VintedID != 0 {
		id := p.VintedID
		m.VintedID = &id
	}
	m.URL = p.URL
	m.CatalogID = p.CatalogID
	m.BrandID = p.BrandID
	m.SizeID = p.SizeID
	m.StatusID = p.StatusID
	m.ColorIDs = encodeJSON(p.ColorIDs, "[]")
	m.MaterialID = p.MaterialID
	m.PhotoIDs = encodeJSON(p.PhotoIDs, "[]")
	m.Price = p.Price
	m.Currency = p.Currency
	m.Status = p.Status
	m.ViewCount = p.ViewCount
	m.FavouriteCount = p.FavouriteCount
	m.PublishedAt = p.PublishedAt
	m.LastSyncedAt = p.LastSyncedAt
}

// VintedOrderModel is the persistence model for vinted_orders
type VintedOrderModel struct {
	UserModel
	TransactionID  int64                  `gorm:"not null;uniqueIndex"`
	BuyerLogin     string                 `gorm:"type:varchar(100)"`
	Status         vinted.OrderStatus     `gorm:"type:varchar(20);not null"`
	TotalPrice     decimal.Decimal        `gorm:"type:decimal(10,2);not null;default:0"`
	ShippingPrice  decimal.Decimal        `gorm:"type:decimal(10,2);not null;default:0"`
	ServiceFee     decimal.Decimal        `gorm:"type:decimal(10,2);not null;default:0"`
	Currency       string                 `gorm:"type:varchar(3);not null;default:'EUR'"`
	TrackingNumber string                 `gorm:"type:varchar(100)"`
	Items          []VintedOrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	OrderedAt      *time.Time             `gorm:"index"`
	ShippedAt      *time.Time
	CompletedAt    *time.Time
}

// TableName returns the table name for GORM
func (VintedOrderModel) TableName() string {
	return "vinted_orders"
}

// VintedOrderItemModel is the persistence model for vinted_order_items
type VintedOrderItemModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	VintedItemID int64           `gorm:"not null;index"`
	Title        string          `gorm:"type:varchar(255)"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	ProductID    *uuid.UUID      `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (VintedOrderItemModel) TableName() string {
	return "vinted_order_items"
}

// ToDomain converts the persistence model to a domain order
func (m *VintedOrderModel) ToDomain() *vinted.VintedOrder {
	o := &vinted.VintedOrder{
		BaseEntity:     m.BaseModel.ToDomain(),
		UserID:         m.UserID,
		TransactionID:  m.TransactionID,
		BuyerLogin:     m.BuyerLogin,
		Status:         m.Status,
		TotalPrice:     m.TotalPrice,
		ShippingPrice:  m.ShippingPrice,
		ServiceFee:     m.ServiceFee,
		Currency:       m.Currency,
		TrackingNumber: m.TrackingNumber,
		OrderedAt:      m.OrderedAt,
		ShippedAt:      m.ShippedAt,
		CompletedAt:    m.CompletedAt,
	}
	for _, it := range m.Items {
		o.Items = append(o.Items, vinted.VintedOrderItem{
			ID:           it.ID,
			VintedItemID: it.VintedItemID,
			Title:        it.Title,
			Price:        it.Price,
			ProductID:    it.ProductID,
		})
	}
	return o
}

// FromDomain populates the persistence model from a domain order
func (m *VintedOrderModel) FromDomain(o *vinted.VintedOrder) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.UserID = o.UserID
	m.TransactionID = o.TransactionID
	m.BuyerLogin = o.BuyerLogin
	m.Status = o.Status
	m.TotalPrice = o.TotalPrice
	m.ShippingPrice = o.ShippingPrice
	m.ServiceFee = o.ServiceFee
	m.Currency = o.Currency
	m.TrackingNumber = o.TrackingNumber
	m.OrderedAt = o.OrderedAt
	m.ShippedAt = o.ShippedAt
	m.CompletedAt = o.CompletedAt
	m.Items = make([]VintedOrderItemModel, 0, len(o.Items))
	for _, it := range o.Items {
		id := it.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		m.Items = append(m.Items, VintedOrderItemModel{
			ID:           id,
			OrderID:      o.ID,
			VintedItemID: it.VintedItemID,
			Title:        it.Title,
			Price:        it.Price,
			ProductID:    it.ProductID,
		})
	}
}

// VintedConversationModel is the persistence model for vinted_conversations
type VintedConversationModel struct {
	UserModel
	ConversationID int64                `gorm:"not null;uniqueIndex"`
	OpponentLogin  string               `gorm:"type:varchar(100)"`
	ItemID         *int64               `gorm:""`
	Subject        string               `gorm:"type:varchar(255)"`
	Unread         bool                 `gorm:"not null;default:false"`
	LastMessageAt  *time.Time           `gorm:"index"`
	Messages       []VintedMessageModel `gorm:"foreignKey:ConversationRowID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (VintedConversationModel) TableName() string {
	return "vinted_conversations"
}

// VintedMessageModel is the persistence model for vinted_messages
type VintedMessageModel struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	ConversationRowID uuid.UUID `gorm:"column:conversation_id;type:uuid;not null;index"`
	MessageID         int64     `gorm:"not null;uniqueIndex"`
	Body              string    `gorm:"type:text"`
	FromSelf          bool      `gorm:"not null;default:false"`
	SentAt            time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VintedMessageModel) TableName() string {
	return "vinted_messages"
}

// ToDomain converts the persistence model to a domain conversation
func (m *VintedConversationModel) ToDomain() *vinted.Conversation {
	c := &vinted.Conversation{
		BaseEntity:     m.BaseModel.ToDomain(),
		UserID:         m.UserID,
		ConversationID: m.ConversationID,
		OpponentLogin:  m.OpponentLogin,
		ItemID:         m.ItemID,
		Subject:        m.Subject,
		Unread:         m.Unread,
		LastMessageAt:  m.LastMessageAt,
	}
	for _, msg := range m.Messages {
		c.Messages = append(c.Messages, vinted.Message{
			ID:        msg.ID,
			MessageID: msg.MessageID,
			Body:      msg.Body,
			FromSelf:  msg.FromSelf,
			SentAt:    msg.SentAt,
		})
	}
	return c
}

// FromDomain populates the persistence model from a domain conversation
func (m *VintedConversationModel) FromDomain(c *vinted.Conversation) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.UserID = c.UserID
	m.ConversationID = c.ConversationID
	m.OpponentLogin = c.OpponentLogin
	m.ItemID = c.ItemID
	m.Subject = c.Subject
	m.Unread = c.Unread
	m.LastMessageAt = c.LastMessageAt
	m.Messages = make([]VintedMessageModel, 0, len(c.Messages))
	for _, msg := range c.Messages {
		id := msg.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		m.Messages = append(m.Messages, VintedMessageModel{
			ID:                id,
			ConversationRowID: c.ID,
			MessageID:         msg.MessageID,
			Body:              msg.Body,
			FromSelf:          msg.FromSelf,
			SentAt:            msg.SentAt,
		})
	}
}

// VintedMappingModel is one row of vinted_mapping
type VintedMappingModel struct {
	ID             int64   `gorm:"primaryKey;autoIncrement"`
	VintedID       int64   `gorm:"not null;index"`
	VintedGender   string  `gorm:"type:varchar(20)"`
	MyCategory     string  `gorm:"type:varchar(100);not null;index"`
	MyGender       *string `gorm:"type:varchar(20)"`
	MyFit          *string `gorm:"type:varchar(50)"`
	MyLength       *string `gorm:"type:varchar(50)"`
	MyRise         *string `gorm:"type:varchar(50)"`
	MyClosure      *string `gorm:"type:varchar(50)"`
	MySleeveLength *string `gorm:"type:varchar(50)"`
	Priority       int     `gorm:"not null;default:100"`
	IsDefault      bool    `gorm:"not null;default:false"`
	SizeGroup      string  `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (VintedMappingModel) TableName() string {
	return "vinted_mapping"
}

// ToDomain converts the row to a domain mapping
func (m *VintedMappingModel) ToDomain() *vinted.Mapping {
	return &vinted.Mapping{
		ID:             m.ID,
		VintedID:       m.VintedID,
		VintedGender:   m.VintedGender,
		MyCategory:     m.MyCategory,
		MyGender:       m.MyGender,
		MyFit:          m.MyFit,
		MyLength:       m.MyLength,
		MyRise:         m.MyRise,
		MyClosure:      m.MyClosure,
		MySleeveLength: m.MySleeveLength,
		Priority:       m.Priority,
		IsDefault:      m.IsDefault,
		SizeGroup:      m.SizeGroup,
	}
}

// VintedAttributeModel is one row of vinted_attributes
type VintedAttributeModel struct {
	ID        int64                `gorm:"primaryKey;autoIncrement"`
	Kind      vinted.AttributeKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_vinted_attributes_kind_id,priority:1"`
	VintedID  int64                `gorm:"not null;uniqueIndex:idx_vinted_attributes_kind_id,priority:2"`
	Name      string               `gorm:"type:varchar(150);not null"`
	Aliases   string               `gorm:"type:jsonb;not null;default:'[]'"`
	SizeGroup string               `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (VintedAttributeModel) TableName() string {
	return "vinted_attributes"
}

// ToDomain converts the row to a domain attribute
func (m *VintedAttributeModel) ToDomain() vinted.Attribute {
	return vinted.Attribute{
		Kind:      m.Kind,
		VintedID:  m.VintedID,
		Name:      m.Name,
		Aliases:   decodeJSON[[]string](m.Aliases),
		SizeGroup: m.SizeGroup,
	}
}

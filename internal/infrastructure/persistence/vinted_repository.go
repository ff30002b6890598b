package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormVintedProductRepository implements vinted.ProductRepository using GORM
type GormVintedProductRepository struct {
	db *gorm.DB
}

// NewGormVintedProductRepository creates a new GormVintedProductRepository
func NewGormVintedProductRepository(db *gorm.DB) *GormVintedProductRepository {
	return &GormVintedProductRepository{db: db}
}

// FindByProduct returns the Vinted link of a catalog product
func (r *GormVintedProductRepository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*vinted.VintedProduct, error) {
	return r.findOne(ctx, "user_id = ? AND product_id = ?", userID, productID)
}

// FindByVintedID returns the link of a Vinted item
func (r *GormVintedProductRepository) FindByVintedID(ctx context.Context, userID uuid.UUID, vintedID int64) (*vinted.VintedProduct, error) {
	return r.findOne(ctx, "user_id = ? AND vinted_id = ?", userID, vintedID)
}

func (r *GormVintedProductRepository) findOne(ctx context.Context, cond string, args ...any) (*vinted.VintedProduct, error) {
	var m models.VintedProductModel
	if err := r.db.WithContext(ctx).Where(cond, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vinted.ErrLinkNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindLive returns the links whose item is still visible or transacting on Vinted
func (r *GormVintedProductRepository) FindLive(ctx context.Context, userID uuid.UUID) ([]vinted.VintedProduct, error) {
	var rows []models.VintedProductModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []vinted.ListingStatus{
			vinted.ListingPublished, vinted.ListingReserved, vinted.ListingHidden,
		}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make([]vinted.VintedProduct, len(rows))
	for i := range rows {
		links[i] = *rows[i].ToDomain()
	}
	return links, nil
}

// Save creates or updates a link
func (r *GormVintedProductRepository) Save(ctx context.Context, p *vinted.VintedProduct) error {
	var m models.VintedProductModel
	m.FromDomain(p)
	return r.db.WithContext(ctx).Save(&m).Error
}

// GormVintedOrderRepository implements vinted.OrderRepository using GORM
type GormVintedOrderRepository struct {
	db *gorm.DB
}

// NewGormVintedOrderRepository creates a new GormVintedOrderRepository
func NewGormVintedOrderRepository(db *gorm.DB) *GormVintedOrderRepository {
	return &GormVintedOrderRepository{db: db}
}

// FindByTransactionID loads an order with its items
func (r *GormVintedOrderRepository) FindByTransactionID(ctx context.Context, userID uuid.UUID, transactionID int64) (*vinted.VintedOrder, error) {
	var m models.VintedOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ? AND transaction_id = ?", userID, transactionID).
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// LatestOrderedAt returns the most recent order date, nil when the user has no orders
func (r *GormVintedOrderRepository) LatestOrderedAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var rows []models.VintedOrderModel
	if err := r.db.WithContext(ctx).
		Select("id", "ordered_at").
		Where("user_id = ? AND ordered_at IS NOT NULL", userID).
		Order("ordered_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].OrderedAt, nil
}

// Upsert inserts or refreshes an order keyed by transaction id. Items are replaced.
func (r *GormVintedOrderRepository) Upsert(ctx context.Context, o *vinted.VintedOrder) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.VintedOrderModel
		err := tx.Select("id", "created_at").
			Where("user_id = ? AND transaction_id = ?", o.UserID, o.TransactionID).
			Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return err
		default:
			o.ID = existing.ID
			o.CreatedAt = existing.CreatedAt
		}
		touch(&o.BaseEntity, time.Now())

		var m models.VintedOrderModel
		m.FromDomain(o)
		if err := tx.Omit(clause.Associations).Save(&m).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", m.ID).Delete(&models.VintedOrderItemModel{}).Error; err != nil {
			return err
		}
		if len(m.Items) > 0 {
			if err := tx.Create(&m.Items).Error; err != nil {
				return err
			}
		}
		for i := range o.Items {
			o.Items[i].ID = m.Items[i].ID
		}
		return nil
	})
	return created, err
}

// GormVintedConversationRepository implements vinted.ConversationRepository using GORM
type GormVintedConversationRepository struct {
	db *gorm.DB
}

// NewGormVintedConversationRepository creates a new GormVintedConversationRepository
func NewGormVintedConversationRepository(db *gorm.DB) *GormVintedConversationRepository {
	return &GormVintedConversationRepository{db: db}
}

// Upsert inserts or refreshes a thread. Messages already stored are left untouched.
func (r *GormVintedConversationRepository) Upsert(ctx context.Context, c *vinted.Conversation) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.VintedConversationModel
		err := tx.Select("id", "created_at").
			Where("user_id = ? AND conversation_id = ?", c.UserID, c.ConversationID).
			Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return err
		default:
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
		}
		touch(&c.BaseEntity, time.Now())

		var m models.VintedConversationModel
		m.FromDomain(c)
		if err := tx.Omit(clause.Associations).Save(&m).Error; err != nil {
			return err
		}
		if len(m.Messages) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}},
			DoNothing: true,
		}).Create(&m.Messages).Error
	})
	return created, err
}

// touch fills the identity and timestamps of an entity about to be written
func touch(e *shared.BaseEntity, now time.Time) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
}

var (
	_ vinted.ProductRepository      = (*GormVintedProductRepository)(nil)
	_ vinted.OrderRepository        = (*GormVintedOrderRepository)(nil)
	_ vinted.ConversationRepository = (*GormVintedConversationRepository)(nil)
)

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormEbayProductRepository implements ebay.ProductRepository using GORM
type GormEbayProductRepository struct {
	db *gorm.DB
}

// NewGormEbayProductRepository creates a new GormEbayProductRepository
func NewGormEbayProductRepository(db *gorm.DB) *GormEbayProductRepository {
	return &GormEbayProductRepository{db: db}
}

// FindByProduct returns the eBay link of a catalog product
func (r *GormEbayProductRepository) FindByProduct(ctx context.Context, userID, productID uuid.UUID) (*ebay.EbayProduct, error) {
	return r.findOne(ctx, "user_id = ? AND product_id = ?", userID, productID)
}

// FindBySKU returns the link of an inventory SKU
func (r *GormEbayProductRepository) FindBySKU(ctx context.Context, userID uuid.UUID, sku string) (*ebay.EbayProduct, error) {
	return r.findOne(ctx, "user_id = ? AND sku = ?", userID, sku)
}

func (r *GormEbayProductRepository) findOne(ctx context.Context, cond string, args ...any) (*ebay.EbayProduct, error) {
	var m models.EbayProductModel
	if err := r.db.WithContext(ctx).Where(cond, args...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ebay.ErrLinkNotFound
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// FindPublished returns the user's live offers
func (r *GormEbayProductRepository) FindPublished(ctx context.Context, userID uuid.UUID) ([]ebay.EbayProduct, error) {
	var rows []models.EbayProductModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, ebay.ListingPublished).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	links := make([]ebay.EbayProduct, len(rows))
	for i := range rows {
		links[i] = *rows[i].ToDomain()
	}
	return links, nil
}

// Save creates or updates a link
func (r *GormEbayProductRepository) Save(ctx context.Context, p *ebay.EbayProduct) error {
	var m models.EbayProductModel
	m.FromDomain(p)
	return r.db.WithContext(ctx).Save(&m).Error
}

// GormEbayOrderRepository implements ebay.OrderRepository using GORM
type GormEbayOrderRepository struct {
	db *gorm.DB
}

// NewGormEbayOrderRepository creates a new GormEbayOrderRepository
func NewGormEbayOrderRepository(db *gorm.DB) *GormEbayOrderRepository {
	return &GormEbayOrderRepository{db: db}
}

// LatestCreatedAt returns the creation date of the newest order, nil when there is none
func (r *GormEbayOrderRepository) LatestCreatedAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var rows []models.EbayOrderModel
	if err := r.db.WithContext(ctx).
		Select("id", "created_on_ebay").
		Where("user_id = ?", userID).
		Order("created_on_ebay DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := rows[0].CreatedOnEbay
	return &t, nil
}

// Upsert inserts or refreshes an order keyed by eBay order id
func (r *GormEbayOrderRepository) Upsert(ctx context.Context, o *ebay.EbayOrder) (bool, error) {
	var m models.EbayOrderModel
	return upsertByKey(ctx, r.db, &m, &o.BaseEntity, "user_id = ? AND order_id = ?", []any{o.UserID, o.OrderID}, func() {
		m.FromDomain(o)
	})
}

// GormEbayInquiryRepository implements ebay.InquiryRepository using GORM
type GormEbayInquiryRepository struct {
	db *gorm.DB
}

// NewGormEbayInquiryRepository creates a new GormEbayInquiryRepository
func NewGormEbayInquiryRepository(db *gorm.DB) *GormEbayInquiryRepository {
	return &GormEbayInquiryRepository{db: db}
}

// Upsert inserts or refreshes an inquiry keyed by inquiry id
func (r *GormEbayInquiryRepository) Upsert(ctx context.Context, i *ebay.EbayInquiry) (bool, error) {
	var m models.EbayInquiryModel
	return upsertByKey(ctx, r.db, &m, &i.BaseEntity, "user_id = ? AND inquiry_id = ?", []any{i.UserID, i.InquiryID}, func() {
		m.FromDomain(i)
	})
}

// GormEbayPolicyRepository implements ebay.PolicyRepository using GORM
type GormEbayPolicyRepository struct {
	db *gorm.DB
}

// NewGormEbayPolicyRepository creates a new GormEbayPolicyRepository
func NewGormEbayPolicyRepository(db *gorm.DB) *GormEbayPolicyRepository {
	return &GormEbayPolicyRepository{db: db}
}

// FindByUser returns the cached policies of a user
func (r *GormEbayPolicyRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]ebay.BusinessPolicy, error) {
	var rows []models.EbayBusinessPolicyModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("type ASC, is_default DESC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	policies := make([]ebay.BusinessPolicy, len(rows))
	for i := range rows {
		policies[i] = rows[i].ToDomain()
	}
	return policies, nil
}

// ReplaceAll swaps the user's cached policies in one transaction
func (r *GormEbayPolicyRepository) ReplaceAll(ctx context.Context, userID uuid.UUID, policies []ebay.BusinessPolicy) error {
	now := time.Now()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.EbayBusinessPolicyModel{}).Error; err != nil {
			return err
		}
		if len(policies) == 0 {
			return nil
		}
		rows := make([]models.EbayBusinessPolicyModel, len(policies))
		for i := range policies {
			p := policies[i]
			p.UserID = userID
			touch(&p.BaseEntity, now)
			rows[i].FromDomain(&p)
		}
		return tx.Create(&rows).Error
	})
}

// GormEbayCredentialRepository implements ebay.CredentialRepository using GORM
type GormEbayCredentialRepository struct {
	db *gorm.DB
}

// NewGormEbayCredentialRepository creates a new GormEbayCredentialRepository
func NewGormEbayCredentialRepository(db *gorm.DB) *GormEbayCredentialRepository {
	return &GormEbayCredentialRepository{db: db}
}

// FindByUser returns the user's OAuth grant; ErrNotConnected when absent
func (r *GormEbayCredentialRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*ebay.Credential, error) {
	var m models.EbayCredentialModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ebay.ErrNotConnected
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// Save creates or updates a credential
func (r *GormEbayCredentialRepository) Save(ctx context.Context, c *ebay.Credential) error {
	var m models.EbayCredentialModel
	m.FromDomain(c)
	return r.db.WithContext(ctx).Save(&m).Error
}

// upsertByKey looks a row up by its natural key, adopts the stored identity and
// saves the row built by fill. Reports whether the row was created.
func upsertByKey(ctx context.Context, db *gorm.DB, model any, entity *shared.BaseEntity, cond string, args []any, fill func()) (bool, error) {
	created := false
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.BaseModel
		err := tx.Model(model).Select("id", "created_at").Where(cond, args...).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
		case err != nil:
			return err
		default:
			entity.ID = existing.ID
			entity.CreatedAt = existing.CreatedAt
		}
		touch(entity, time.Now())
		fill()
		return tx.Save(model).Error
	})
	return created, err
}

var (
	_ ebay.ProductRepository    = (*GormEbayProductRepository)(nil)
	_ ebay.OrderRepository      = (*GormEbayOrderRepository)(nil)
	_ ebay.InquiryRepository    = (*GormEbayInquiryRepository)(nil)
	_ ebay.PolicyRepository     = (*GormEbayPolicyRepository)(nil)
	_ ebay.CredentialRepository = (*GormEbayCredentialRepository)(nil)
)

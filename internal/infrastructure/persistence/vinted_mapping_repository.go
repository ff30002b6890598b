package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormVintedMappingRepository implements vinted.MappingRepository over the
// vinted_mapping and vinted_attributes tables
type GormVintedMappingRepository struct {
	db *gorm.DB
}

// NewGormVintedMappingRepository creates a new GormVintedMappingRepository
func NewGormVintedMappingRepository(db *gorm.DB) *GormVintedMappingRepository {
	return &GormVintedMappingRepository{db: db}
}

// ResolveCategory evaluates get_vinted_category() for the query
func (r *GormVintedMappingRepository) ResolveCategory(ctx context.Context, q vinted.CategoryQuery) (int64, error) {
	n := q.Normalized()
	var id sql.NullInt64
	if err := r.db.WithContext(ctx).
		Raw("SELECT get_vinted_category(?, ?, ?, ?, ?, ?, ?)",
			n.Category, nullIfEmpty(n.Gender), nullIfEmpty(n.Fit), nullIfEmpty(n.Length),
			nullIfEmpty(n.Rise), nullIfEmpty(n.Closure), nullIfEmpty(n.SleeveLength)).
		Row().
		Scan(&id); err != nil {
		return 0, fmt.Errorf("get_vinted_category: %w", err)
	}
	if !id.Valid {
		return 0, vinted.ErrCategoryNotMapped
	}
	return id.Int64, nil
}

// FindByVintedID returns the preferred mapping row of a catalog id
func (r *GormVintedMappingRepository) FindByVintedID(ctx context.Context, vintedID int64) (*vinted.Mapping, error) {
	var m models.VintedMappingModel
	if err := r.db.WithContext(ctx).
		Where("vinted_id = ?", vintedID).
		Order("is_default DESC, priority ASC, id ASC").
		First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vinted.ErrCategoryNotMapped
		}
		return nil, err
	}
	return m.ToDomain(), nil
}

// ListAttributes returns the reference values of one kind
func (r *GormVintedMappingRepository) ListAttributes(ctx context.Context, kind vinted.AttributeKind) ([]vinted.Attribute, error) {
	var rows []models.VintedAttributeModel
	if err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("vinted_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	attrs := make([]vinted.Attribute, len(rows))
	for i := range rows {
		attrs[i] = rows[i].ToDomain()
	}
	return attrs, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ vinted.MappingRepository = (*GormVintedMappingRepository)(nil)

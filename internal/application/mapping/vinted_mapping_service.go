package mapping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"go.uber.org/zap"
)

// DefaultAttributeTTL is how long attribute lists stay cached
const DefaultAttributeTTL = 10 * time.Minute

// maxColors is the number of colour ids a Vinted item accepts
const maxColors = 2

// VintedMappingService translates catalog attributes into Vinted ids
type VintedMappingService struct {
	repo   vinted.MappingRepository
	cache  AttributeCache
	ttl    time.Duration
	logger *zap.Logger
}

// NewVintedMappingService creates the service. A nil cache means an in-memory one.
func NewVintedMappingService(repo vinted.MappingRepository, cache AttributeCache, ttl time.Duration, logger *zap.Logger) *VintedMappingService {
	if cache == nil {
		cache = NewMemoryAttributeCache()
	}
	if ttl <= 0 {
		ttl = DefaultAttributeTTL
	}
	return &VintedMappingService{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("vinted_mapping"),
	}
}

// QueryFor builds the category lookup for a product
func QueryFor(a catalog.Attributes) vinted.CategoryQuery {
	return vinted.CategoryQuery{
		Category:     a.Category,
		Gender:       string(a.Gender),
		Fit:          a.Fit,
		Length:       a.Length,
		Rise:         a.Rise,
		Closure:      a.Closure,
		SleeveLength: a.SleeveLength,
	}
}

// ResolveCategory returns the Vinted catalog id through get_vinted_category
func (s *VintedMappingService) ResolveCategory(ctx context.Context, q vinted.CategoryQuery) (int64, error) {
	q = q.Normalized()
	if q.Category == "" {
		return 0, vinted.ErrCategoryNotMapped
	}
	id, err := s.repo.ResolveCategory(ctx, q)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Attributes returns the reference list of a kind, cached
func (s *VintedMappingService) Attributes(ctx context.Context, kind vinted.AttributeKind) ([]vinted.Attribute, error) {
	if attrs, ok := s.cache.Get(ctx, kind); ok {
		return attrs, nil
	}
	attrs, err := s.repo.ListAttributes(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("list %s attributes: %w", kind, err)
	}
	s.cache.Set(ctx, kind, attrs, s.ttl)
	return attrs, nil
}

// InvalidateAttributes drops cached lists
func (s *VintedMappingService) InvalidateAttributes(ctx context.Context, kinds ...vinted.AttributeKind) {
	s.cache.Invalidate(ctx, kinds...)
}

// MatchAttribute scores value against the reference list of kind.
// sizeGroup restricts SIZE candidates and is ignored for other kinds.
func (s *VintedMappingService) MatchAttribute(ctx context.Context, kind vinted.AttributeKind, value, sizeGroup string) (vinted.AttributeMatch, error) {
	attrs, err := s.Attributes(ctx, kind)
	if err != nil {
		return vinted.AttributeMatch{}, err
	}
	if kind == vinted.AttributeSize {
		attrs = filterSizeGroup(attrs, sizeGroup)
	}
	m, ok := BestMatch(value, attrs)
	if !ok {
		return vinted.AttributeMatch{}, fmt.Errorf("%w: %s %q", vinted.ErrAttributeNotFound, kind, value)
	}
	return m, nil
}

// ResolveProduct maps every Vinted-relevant attribute of a product.
// Only the category is mandatory; other misses are listed in Unresolved.
func (s *VintedMappingService) ResolveProduct(ctx context.Context, p *catalog.Product) (*vinted.ResolvedAttributes, error) {
	catalogID, err := s.ResolveCategory(ctx, QueryFor(p.Attributes))
	if err != nil {
		return nil, err
	}

	out := &vinted.ResolvedAttributes{CatalogID: catalogID}
	if row, err := s.repo.FindByVintedID(ctx, catalogID); err == nil && row != nil {
		out.SizeGroup = row.SizeGroup
	}

	single := []struct {
		kind  vinted.AttributeKind
		value string
		dst   **int64
	}{
		{vinted.AttributeBrand, p.Attributes.Brand, &out.BrandID},
		{vinted.AttributeSize, p.Attributes.Size, &out.SizeID},
		{vinted.AttributeCondition, p.Attributes.Condition, &out.StatusID},
		{vinted.AttributeMaterial, p.Attributes.Material, &out.MaterialID},
	}
	for _, f := range single {
		if f.value == "" {
			continue
		}
		m, err := s.MatchAttribute(ctx, f.kind, f.value, out.SizeGroup)
		if err != nil {
			if !errors.Is(err, vinted.ErrAttributeNotFound) {
				return nil, err
			}
			out.Unresolved = append(out.Unresolved, f.kind)
			continue
		}
		id := m.VintedID
		*f.dst = &id
	}

	for _, c := range p.Attributes.Colors() {
		if len(out.ColorIDs) == maxColors {
			break
		}
		m, err := s.MatchAttribute(ctx, vinted.AttributeColor, c, "")
		if err != nil {
			if !errors.Is(err, vinted.ErrAttributeNotFound) {
				return nil, err
			}
			out.Unresolved = append(out.Unresolved, vinted.AttributeColor)
			continue
		}
		if !containsID(out.ColorIDs, m.VintedID) {
			out.ColorIDs = append(out.ColorIDs, m.VintedID)
		}
	}

	if len(out.Unresolved) > 0 {
		s.logger.Debug("Unresolved Vinted attributes",
			zap.String("product_id", p.ID.String()),
			zap.Int64("catalog_id", catalogID),
			zap.Any("kinds", out.Unresolved),
		)
	}
	return out, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

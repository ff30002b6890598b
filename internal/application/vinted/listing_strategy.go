// Package vinted implements the Vinted side of the job handlers on top of
// the plugin gateway.
package vinted

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"go.uber.org/zap"
)

// AttributeResolver maps a product to Vinted ids
type AttributeResolver interface {
	ResolveProduct(ctx context.Context, p *catalog.Product) (*vinted.ResolvedAttributes, error)
}

// ListingStrategy publishes, updates and deletes Vinted items
type ListingStrategy struct {
	gateway  vinted.Gateway
	resolver AttributeResolver
	links    vinted.ProductRepository
	images   jobhandler.ImageResolver
	logger   *zap.Logger
	now      func() time.Time
}

// NewListingStrategy creates the strategy
func NewListingStrategy(gateway vinted.Gateway, resolver AttributeResolver, links vinted.ProductRepository, images jobhandler.ImageResolver, logger *zap.Logger) *ListingStrategy {
	if images == nil {
		images = jobhandler.PassthroughImages()
	}
	return &ListingStrategy{
		gateway:  gateway,
		resolver: resolver,
		links:    links,
		images:   images,
		logger:   logger.Named("vinted_listing"),
		now:      time.Now,
	}
}

var _ jobhandler.ListingStrategy = (*ListingStrategy)(nil)

// Publish creates the Vinted item for a product
func (s *ListingStrategy) Publish(ctx context.Context, pc *jobhandler.ProductContext) (*jobhandler.ListingResult, error) {
	p := pc.Product
	link, err := s.findLink(ctx, p.UserID, p.ID)
	if err != nil {
		return nil, err
	}
	if link != nil && link.Status.IsLive() {
		return nil, jobhandler.ErrAlreadyPublished
	}

	resolved, err := s.resolver.ResolveProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	photos, err := s.uploadPhotos(ctx, p)
	if err != nil {
		return nil, err
	}

	item, err := s.gateway.CreateItem(ctx, p.UserID, draftFor(p, resolved, photos))
	if err != nil {
		return nil, fmt.Errorf("create vinted item: %w", err)
	}

	if link == nil {
		link = vinted.NewVintedProduct(p.UserID, p.ID)
	}
	applyResolved(link, resolved, photos)
	link.Price = p.PriceFor(marketplace.Vinted).Amount()
	link.MarkPublished(*item, s.now())
	if err := s.links.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("save vinted link: %w", err)
	}

	s.logger.Info("Vinted item published",
		zap.String("product_id", p.ID.String()),
		zap.Int64("vinted_id", item.ID),
		zap.Int64("catalog_id", resolved.CatalogID),
		zap.Int("photos", len(photos)),
	)
	return &jobhandler.ListingResult{RemoteID: strconv.FormatInt(item.ID, 10), URL: item.URL, Status: string(link.Status)}, nil
}

// Update pushes the product to its existing Vinted item.
// Photos are re-uploaded only when the job input sets refresh_photos.
func (s *ListingStrategy) Update(ctx context.Context, pc *jobhandler.ProductContext) (*jobhandler.ListingResult, error) {
	p := pc.Product
	link, err := s.findLink(ctx, p.UserID, p.ID)
	if err != nil {
		return nil, err
	}
	if link == nil || !link.Status.IsLive() {
		return nil, jobhandler.ErrNotPublished
	}

	resolved, err := s.resolver.ResolveProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	photos := link.PhotoIDs
	if refresh, _ := pc.Input["refresh_photos"].(bool); refresh || len(photos) == 0 {
		if photos, err = s.uploadPhotos(ctx, p); err != nil {
			return nil, err
		}
	}

	item, err := s.gateway.UpdateItem(ctx, p.UserID, link.VintedID, draftFor(p, resolved, photos))
	if err != nil {
		if errors.Is(err, vinted.ErrItemNotFound) {
			link.MarkDeleted(s.now())
			_ = s.links.Save(ctx, link)
			return nil, jobhandler.Permanent(fmt.Errorf("vinted item %d is gone: %w", link.VintedID, err))
		}
		return nil, fmt.Errorf("update vinted item: %w", err)
	}

	applyResolved(link, resolved, photos)
	link.Price = p.PriceFor(marketplace.Vinted).Amount()
	link.ApplyRemote(*item, s.now())
	if err := s.links.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("save vinted link: %w", err)
	}
	return &jobhandler.ListingResult{RemoteID: strconv.FormatInt(link.VintedID, 10), URL: link.URL, Status: string(link.Status)}, nil
}

// Delete removes the Vinted item. Items already gone count as deleted.
func (s *ListingStrategy) Delete(ctx context.Context, userID, productID uuid.UUID) (*jobhandler.ListingResult, error) {
	link, err := s.findLink(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if link == nil || link.VintedID == 0 {
		return nil, jobhandler.ErrNotPublished
	}

	if link.Status != vinted.ListingDeleted {
		if err := s.gateway.DeleteItem(ctx, userID, link.VintedID); err != nil && !errors.Is(err, vinted.ErrItemNotFound) {
			return nil, fmt.Errorf("delete vinted item: %w", err)
		}
		link.MarkDeleted(s.now())
		if err := s.links.Save(ctx, link); err != nil {
			return nil, fmt.Errorf("save vinted link: %w", err)
		}
	}
	return &jobhandler.ListingResult{RemoteID: strconv.FormatInt(link.VintedID, 10), Status: string(link.Status)}, nil
}

func (s *ListingStrategy) findLink(ctx context.Context, userID, productID uuid.UUID) (*vinted.VintedProduct, error) {
	link, err := s.links.FindByProduct(ctx, userID, productID)
	if err != nil {
		if errors.Is(err, vinted.ErrLinkNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return link, nil
}

func (s *ListingStrategy) uploadPhotos(ctx context.Context, p *catalog.Product) ([]int64, error) {
	ids := make([]int64, 0, len(p.ImageURLs))
	for i, ref := range p.ImageURLs {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		url, err := s.images.ResolveImageURL(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("resolve image %d: %w", i, err)
		}
		id, err := s.gateway.UploadPhoto(ctx, p.UserID, url)
		if err != nil {
			return nil, fmt.Errorf("upload photo %d: %w", i, err)
		}
		ids = append(ids, id)
		jobhandler.ReportProgress(ctx, i+1, len(p.ImageURLs), "photos")
	}
	return ids, nil
}

func draftFor(p *catalog.Product, r *vinted.ResolvedAttributes, photos []int64) vinted.ItemDraft {
	price := p.PriceFor(marketplace.Vinted)
	d := vinted.ItemDraft{
		Title:       p.Title,
		Description: p.Description,
		Price:       price.Amount(),
		Currency:    string(price.Currency()),
		CatalogID:   r.CatalogID,
		BrandID:     r.BrandID,
		SizeID:      r.SizeID,
		StatusID:    r.StatusID,
		ColorIDs:    r.ColorIDs,
		MaterialID:  r.MaterialID,
		PhotoIDs:    photos,
	}
	if d.BrandID == nil {
		d.BrandName = p.Attributes.Brand
	}
	return d
}

func applyResolved(link *vinted.VintedProduct, r *vinted.ResolvedAttributes, photos []int64) {
	link.CatalogID = r.CatalogID
	link.BrandID = r.BrandID
	link.SizeID = r.SizeID
	link.StatusID = r.StatusID
	link.ColorIDs = r.ColorIDs
	link.MaterialID = r.MaterialID
	link.PhotoIDs = photos
}

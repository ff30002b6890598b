package mapping

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// ErrProductInvalid is the domain error wrapped by every ValidationError
var ErrProductInvalid = shared.NewDomainError("VALIDATION_ERROR", "product is not publishable")

// Listing limits
const (
	VintedTitleMax       = 100
	VintedDescriptionMin = 5
	VintedImagesMax      = 20
	EbayImagesMax        = ebayImageLimit
)

// FieldViolation is one failed rule
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every violation found for a product
type ValidationError struct {
	Marketplace marketplace.Marketplace `json:"marketplace"`
	Violations  []FieldViolation        `json:"violations"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("product not publishable on %s: %s", e.Marketplace, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrProductInvalid
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: fmt.Sprintf(format, args...)})
}

// ValidateForMarketplace checks that p can be published on m.
// It returns nil or a *ValidationError listing every violation.
func ValidateForMarketplace(p *catalog.Product, m marketplace.Marketplace) error {
	verr := &ValidationError{Marketplace: m}

	if p.IsDeleted() {
		verr.add("product", "is deleted")
	}
	if p.Status == catalog.ProductStatusSold {
		verr.add("status", "product is already sold")
	}
	if strings.TrimSpace(p.Title) == "" {
		verr.add("title", "is required")
	}
	if len(p.ImageURLs) == 0 {
		verr.add("images", "at least one image is required")
	}
	if !p.PriceFor(m).IsPositive() {
		verr.add("price", "must be greater than zero")
	}

	switch m {
	case marketplace.Vinted:
		if n := utf8.RuneCountInString(strings.TrimSpace(p.Title)); n > VintedTitleMax {
			verr.add("title", "must be at most %d characters (got %d)", VintedTitleMax, n)
		}
		if utf8.RuneCountInString(strings.TrimSpace(p.Description)) < VintedDescriptionMin {
			verr.add("description", "must be at least %d characters", VintedDescriptionMin)
		}
		if len(p.ImageURLs) > VintedImagesMax {
			verr.add("images", "at most %d images are allowed", VintedImagesMax)
		}
		if strings.TrimSpace(p.Attributes.Brand) == "" {
			verr.add("brand", "is required")
		}
	case marketplace.Ebay:
		if len(p.ImageURLs) > EbayImagesMax {
			verr.add("images", "at most %d images are allowed", EbayImagesMax)
		}
		if p.StockQuantity < 1 {
			verr.add("quantity", "must be at least 1")
		}
	default:
		return marketplace.ErrUnknownMarketplace
	}

	if len(verr.Violations) > 0 {
		return verr
	}
	return nil
}

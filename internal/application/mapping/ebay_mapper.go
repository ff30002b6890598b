package mapping

import (
	"errors"
	"strings"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared/valueobject"
)

// ErrEbayCategoryNotMapped is returned when no eBay category is configured for a product
var ErrEbayCategoryNotMapped = errors.New("ebay: no category mapping for product")

// eBay condition enum values
const (
	EbayConditionNew            = "NEW"
	EbayConditionNewOther       = "NEW_OTHER"
	EbayConditionUsedExcellent  = "USED_EXCELLENT"
	EbayConditionUsedGood       = "USED_GOOD"
	EbayConditionUsedAcceptable = "USED_ACCEPTABLE"
)

const (
	ebayTitleLimit = 80
	ebayImageLimit = 24
)

// conditionTable maps normalized internal conditions to eBay values.
// Unknown conditions fall back to USED_GOOD.
var conditionTable = map[string]string{
	"new with tags":       EbayConditionNew,
	"neuf avec etiquette": EbayConditionNew,
	"new":                 EbayConditionNew,
	"neuf":                EbayConditionNew,
	"new without tags":    EbayConditionNewOther,
	"neuf sans etiquette": EbayConditionNewOther,
	"very good":           EbayConditionUsedExcellent,
	"tres bon etat":       EbayConditionUsedExcellent,
	"excellent":           EbayConditionUsedExcellent,
	"good":                EbayConditionUsedGood,
	"bon etat":            EbayConditionUsedGood,
	"satisfactory":        EbayConditionUsedAcceptable,
	"satisfaisant":        EbayConditionUsedAcceptable,
	"fair":                EbayConditionUsedAcceptable,
}

var departmentByGender = map[catalog.Gender]string{
	catalog.GenderWomen:  "Femme",
	catalog.GenderMen:    "Homme",
	catalog.GenderGirls:  "Fille",
	catalog.GenderBoys:   "Garçon",
	catalog.GenderUnisex: "Unisexe",
}

// EbayListing is everything the eBay publisher needs for one product
type EbayListing struct {
	Title       string
	Description string
	CategoryID  string
	Condition   string
	Aspects     map[string][]string
	ImageURLs   []string
	Price       valueobject.Money
	Quantity    int
}

// EbayMapper builds eBay listings from catalog products
type EbayMapper struct {
	// categories is keyed by "category:gender" with a "category" fallback
	categories map[string]string
}

// NewEbayMapper creates a mapper over a category table. Keys are normalized.
func NewEbayMapper(categories map[string]string) *EbayMapper {
	table := make(map[string]string, len(categories))
	for k, v := range categories {
		cat, gender, _ := strings.Cut(k, ":")
		key := Normalize(cat)
		if gender != "" {
			key += ":" + Normalize(gender)
		}
		table[key] = strings.TrimSpace(v)
	}
	return &EbayMapper{categories: table}
}

// Category returns the eBay category id for a product
func (m *EbayMapper) Category(a catalog.Attributes) (string, error) {
	cat := Normalize(a.Category)
	if cat == "" {
		return "", ErrEbayCategoryNotMapped
	}
	if a.Gender != "" {
		if id, ok := m.categories[cat+":"+Normalize(string(a.Gender))]; ok && id != "" {
			return id, nil
		}
	}
	if id, ok := m.categories[cat]; ok && id != "" {
		return id, nil
	}
	return "", ErrEbayCategoryNotMapped
}

// Condition maps an internal condition to the eBay enum
func Condition(condition string) string {
	if c, ok := conditionTable[Normalize(condition)]; ok {
		return c
	}
	return EbayConditionUsedGood
}

// Aspects builds item specifics, omitting empty values
func Aspects(a catalog.Attributes) map[string][]string {
	out := make(map[string][]string)
	add := func(name string, values ...string) {
		clean := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				clean = append(clean, v)
			}
		}
		if len(clean) > 0 {
			out[name] = clean
		}
	}
	add("Brand", a.Brand)
	add("Colour", a.Colors()...)
	add("Size", a.Size)
	add("Material", a.Material)
	add("Department", departmentByGender[a.Gender])
	add("Style", a.Category)
	add("Fit", a.Fit)
	add("Pattern", a.Pattern)
	return out
}

// Build maps a product to a listing
func (m *EbayMapper) Build(p *catalog.Product) (*EbayListing, error) {
	categoryID, err := m.Category(p.Attributes)
	if err != nil {
		return nil, err
	}
	images := p.ImageURLs
	if len(images) > ebayImageLimit {
		images = images[:ebayImageLimit]
	}
	return &EbayListing{
		Title:       TruncateTitle(p.Title, ebayTitleLimit),
		Description: p.Description,
		CategoryID:  categoryID,
		Condition:   Condition(p.Attributes.Condition),
		Aspects:     Aspects(p.Attributes),
		ImageURLs:   images,
		Price:       p.PriceFor(marketplace.Ebay),
		Quantity:    p.StockQuantity,
	}, nil
}

// TruncateTitle cuts s to limit runes on a word boundary when possible
func TruncateTitle(s string, limit int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	cut := string(r[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

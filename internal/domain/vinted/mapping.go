package vinted

import (
	"errors"
	"strings"
)

var (
	ErrCategoryNotMapped = errors.New("vinted: no catalog mapping for category")
	ErrAttributeNotFound = errors.New("vinted: no matching attribute")
	// ErrItemNotFound is matched by gateway errors for items gone from Vinted
	ErrItemNotFound = errors.New("vinted: item not found")
	// ErrLinkNotFound is returned by repositories when a product has no Vinted link
	ErrLinkNotFound = errors.New("vinted: product not linked")
)

// Mapping is one row of vinted_mapping: an internal category/attribute
// combination pointing to a Vinted catalog id.
type Mapping struct {
	ID             int64
	VintedID       int64
	VintedGender   string
	MyCategory     string
	MyGender       *string
	MyFit          *string
	MyLength       *string
	MyRise         *string
	MyClosure      *string
	MySleeveLength *string
	Priority       int
	IsDefault      bool
	SizeGroup      string
}

// CategoryQuery is the input of get_vinted_category
type CategoryQuery struct {
	Category     string
	Gender       string
	Fit          string
	Length       string
	Rise         string
	Closure      string
	SleeveLength string
}

// Normalized trims and lowercases every field, matching the SQL function
func (q CategoryQuery) Normalized() CategoryQuery {
	n := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return CategoryQuery{
		Category:     n(q.Category),
		Gender:       n(q.Gender),
		Fit:          n(q.Fit),
		Length:       n(q.Length),
		Rise:         n(q.Rise),
		Closure:      n(q.Closure),
		SleeveLength: n(q.SleeveLength),
	}
}

// AttributeKind is a family of Vinted reference values
type AttributeKind string

const (
	AttributeBrand     AttributeKind = "BRAND"
	AttributeColor     AttributeKind = "COLOR"
	AttributeSize      AttributeKind = "SIZE"
	AttributeMaterial  AttributeKind = "MATERIAL"
	AttributeCondition AttributeKind = "CONDITION"
)

// IsValid checks the kind
func (k AttributeKind) IsValid() bool {
	switch k {
	case AttributeBrand, AttributeColor, AttributeSize, AttributeMaterial, AttributeCondition:
		return true
	}
	return false
}

// AllAttributeKinds lists every kind
func AllAttributeKinds() []AttributeKind {
	return []AttributeKind{AttributeBrand, AttributeColor, AttributeSize, AttributeMaterial, AttributeCondition}
}

// Attribute is one Vinted reference value (a brand, a colour, a size...)
type Attribute struct {
	Kind      AttributeKind
	VintedID  int64
	Name      string
	Aliases   []string
	SizeGroup string
}

// AttributeMatch is the outcome of scoring a product value against a kind
type AttributeMatch struct {
	Kind     AttributeKind `json:"kind"`
	Value    string        `json:"value"`
	VintedID int64         `json:"vinted_id"`
	Name     string        `json:"name"`
	Score    float64       `json:"score"`
}

// ResolvedAttributes is the full set of Vinted ids for a product
type ResolvedAttributes struct {
	CatalogID  int64
	SizeGroup  string
	BrandID    *int64
	SizeID     *int64
	StatusID   *int64
	ColorIDs   []int64
	MaterialID *int64
	Unresolved []AttributeKind
}

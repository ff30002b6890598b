package handler

import (
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
)

// CategoryLookupRequest holds the query of GET /mappings/vinted/category
type CategoryLookupRequest struct {
	Category     string `form:"category" binding:"required,max=100"`
	Gender       string `form:"gender" binding:"max=50"`
	Fit          string `form:"fit" binding:"max=50"`
	Length       string `form:"length" binding:"max=50"`
	Rise         string `form:"rise" binding:"max=50"`
	Closure      string `form:"closure" binding:"max=50"`
	SleeveLength string `form:"sleeve_length" binding:"max=50"`
}

func (r CategoryLookupRequest) toQuery() vinted.CategoryQuery {
	return vinted.CategoryQuery{
		Category:     r.Category,
		Gender:       r.Gender,
		Fit:          r.Fit,
		Length:       r.Length,
		Rise:         r.Rise,
		Closure:      r.Closure,
		SleeveLength: r.SleeveLength,
	}
}

// CategoryLookupResponse carries the resolved Vinted catalog id
type CategoryLookupResponse struct {
	Category string `json:"category"`
	VintedID int64  `json:"vinted_id"`
}

// AttributeMatchItem is one value to score
type AttributeMatchItem struct {
	Kind      string `json:"kind" binding:"required,oneof=BRAND COLOR SIZE MATERIAL CONDITION brand color size material condition"`
	Value     string `json:"value" binding:"required,max=200"`
	SizeGroup string `json:"size_group" binding:"max=50"`
}

// AttributeMatchRequest is the body of POST /mappings/vinted/attributes/match
type AttributeMatchRequest struct {
	Items []AttributeMatchItem `json:"items" binding:"required,min=1,max=50,dive"`
}

// AttributeMatchResult is the outcome for one item; Match is nil when
// nothing scored above the threshold
type AttributeMatchResult struct {
	Kind  string                 `json:"kind"`
	Value string                 `json:"value"`
	Match *vinted.AttributeMatch `json:"match,omitempty"`
	Error string                 `json:"error,omitempty"`
}

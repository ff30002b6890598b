package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

// MappingHandler exposes the Vinted mapping engine
type MappingHandler struct {
	BaseHandler
	mappings MappingService
}

// NewMappingHandler creates a new MappingHandler
func NewMappingHandler(mappings MappingService) *MappingHandler {
	return &MappingHandler{mappings: mappings}
}

// VintedCategory resolves a catalog id. GET /mappings/vinted/category
func (h *MappingHandler) VintedCategory(c *gin.Context) {
	if _, ok := h.requireUser(c); !ok {
		return
	}

	var req CategoryLookupRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	id, err := h.mappings.ResolveCategory(c.Request.Context(), req.toQuery())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, CategoryLookupResponse{Category: req.Category, VintedID: id})
}

// MatchAttributes scores values against the Vinted reference lists.
// POST /mappings/vinted/attributes/match
//
// Items without a match are reported inline; only infrastructure errors
// fail the whole request.
func (h *MappingHandler) MatchAttributes(c *gin.Context) {
	if _, ok := h.requireUser(c); !ok {
		return
	}

	var req AttributeMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	ctx := c.Request.Context()
	results := make([]AttributeMatchResult, 0, len(req.Items))
	for _, item := range req.Items {
		kind := vinted.AttributeKind(strings.ToUpper(item.Kind))
		res := AttributeMatchResult{Kind: string(kind), Value: item.Value}

		m, err := h.mappings.MatchAttribute(ctx, kind, item.Value, item.SizeGroup)
		switch {
		case errors.Is(err, vinted.ErrAttributeNotFound):
			res.Error = dto.ErrCodeAttributeNotFound
		case err != nil:
			h.HandleError(c, err)
			return
		default:
			res.Match = &m
		}
		results = append(results, res)
	}
	h.Success(c, results)
}

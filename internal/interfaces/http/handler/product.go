package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

// ValidateProductRequest holds the query of POST /products/:id/validate
type ValidateProductRequest struct {
	Marketplace string `form:"marketplace" binding:"required,marketplace"`
}

// ValidateProductResponse lists what blocks a product from being published
type ValidateProductResponse struct {
	ProductID   uuid.UUID                `json:"product_id"`
	Marketplace string                   `json:"marketplace"`
	Valid       bool                     `json:"valid"`
	Violations  []mapping.FieldViolation `json:"violations"`
}

// ProductHandler serves the product checks
type ProductHandler struct {
	BaseHandler
	products ProductFinder
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductFinder) *ProductHandler {
	return &ProductHandler{products: products}
}

// Validate reports whether a product can be listed. POST /products/:id/validate?marketplace=
// An unpublishable product is a 200 with valid=false.
func (h *ProductHandler) Validate(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req ValidateProductRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	m, _ := marketplace.ParseMarketplace(req.Marketplace)
	id := uuid.MustParse(uri.ID)

	p, err := h.products.FindByIDForUser(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := ValidateProductResponse{
		ProductID:   id,
		Marketplace: string(m),
		Valid:       true,
		Violations:  []mapping.FieldViolation{},
	}
	if err := mapping.ValidateForMarketplace(p, m); err != nil {
		var verr *mapping.ValidationError
		if !errors.As(err, &verr) {
			h.HandleError(c, err)
			return
		}
		resp.Valid = false
		resp.Violations = verr.Violations
	}
	h.Success(c, resp)
}

package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/catalog"
	"github.com/matthiasrib29/StoFlow-sub000/internal/interfaces/http/dto"
)

func newListableProduct(userID uuid.UUID) *catalog.Product {
	return &catalog.Product{
		UserID:        userID,
		Title:         "Veste en jean Levi's",
		Description:   "Bon état général, quelques traces d'usure.",
		Price:         decimal.RequireFromString("35"),
		Currency:      "EUR",
		ImageURLs:     []string{"https://img.example.com/a.jpg"},
		StockQuantity: 1,
		Status:        catalog.ProductStatusDraft,
		Attributes:    catalog.Attributes{Brand: "Levi's", Category: "jackets"},
	}
}

func productEngine(userID uuid.UUID, finder ProductFinder) *gin.Engine {
	h := NewProductHandler(finder)
	e := newEngine(userID)
	e.POST("/products/:id/validate", h.Validate)
	return e
}

func TestProductHandler_Validate(t *testing.T) {
	userID := uuid.New()
	productID := uuid.New()

	t.Run("listable", func(t *testing.T) {
		finder := new(mockProductFinder)
		finder.On("FindByIDForUser", mock.Anything, userID, productID).Return(newListableProduct(userID), nil)

		w := doJSON(t, productEngine(userID, finder), http.MethodPost, "/products/"+productID.String()+"/validate?marketplace=vinted", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got ValidateProductResponse
		decode(t, w, &got)
		assert.True(t, got.Valid)
		assert.Equal(t, "VINTED", got.Marketplace)
		assert.Empty(t, got.Violations)
	})

	t.Run("violations", func(t *testing.T) {
		p := newListableProduct(userID)
		p.Title = ""
		p.StockQuantity = 0
		finder := new(mockProductFinder)
		finder.On("FindByIDForUser", mock.Anything, userID, productID).Return(p, nil)

		w := doJSON(t, productEngine(userID, finder), http.MethodPost, "/products/"+productID.String()+"/validate?marketplace=ebay", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var got ValidateProductResponse
		decode(t, w, &got)
		assert.False(t, got.Valid)
		fields := make([]string, 0, len(got.Violations))
		for _, v := range got.Violations {
			fields = append(fields, v.Field)
		}
		assert.ElementsMatch(t, []string{"title", "quantity"}, fields)
	})

	t.Run("not found", func(t *testing.T) {
		finder := new(mockProductFinder)
		finder.On("FindByIDForUser", mock.Anything, userID, productID).Return(nil, catalog.ErrProductNotFound)

		w := doJSON(t, productEngine(userID, finder), http.MethodPost, "/products/"+productID.String()+"/validate?marketplace=ebay", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
	})

	t.Run("missing marketplace", func(t *testing.T) {
		finder := new(mockProductFinder)
		w := doJSON(t, productEngine(userID, finder), http.MethodPost, "/products/"+productID.String()+"/validate", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		finder.AssertNotCalled(t, "FindByIDForUser", mock.Anything, mock.Anything, mock.Anything)
	})
}

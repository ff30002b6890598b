package ebay

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDefaultPolicies(t *testing.T) {
	policies := []BusinessPolicy{
		{PolicyID: "f1", Type: PolicyFulfillment, MarketplaceID: "EBAY_FR"},
		{PolicyID: "f2", Type: PolicyFulfillment, MarketplaceID: "EBAY_FR", IsDefault: true},
		{PolicyID: "p1", Type: PolicyPayment, MarketplaceID: "EBAY_FR"},
		{PolicyID: "r-de", Type: PolicyReturn, MarketplaceID: "EBAY_DE", IsDefault: true},
		{PolicyID: "r1", Type: PolicyReturn, MarketplaceID: "EBAY_FR"},
	}

	set := DefaultPolicies(policies, "EBAY_FR")
	assert.Equal(t, "f2", set.FulfillmentPolicyID)
	assert.Equal(t, "p1", set.PaymentPolicyID)
	assert.Equal(t, "r1", set.ReturnPolicyID)
	assert.True(t, set.Complete())

	assert.False(t, DefaultPolicies(policies[:2], "EBAY_FR").Complete())
}

func TestSKUFor(t *testing.T) {
	id := uuid.MustParse("7b1e8f8e-3f0a-4c43-9d59-3c8f1f2b9c11")
	assert.Equal(t, "STF-7b1e8f8e-3f0a-4c43-9d59-3c8f1f2b9c11", SKUFor(id))

	p := NewEbayProduct(uuid.New(), id, "")
	assert.Equal(t, DefaultMarketplaceID, p.MarketplaceID)
	assert.Equal(t, ListingDraft, p.Status)
}

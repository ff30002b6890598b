package ecommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
)

// AccountClient implements ebay.AccountGateway over the Sell Account API
type AccountClient struct {
	client *EbayClient
}

// NewAccountClient creates an Account API client
func NewAccountClient(client *EbayClient) *AccountClient {
	return &AccountClient{client: client}
}

var _ ebay.AccountGateway = (*AccountClient)(nil)

// ListPolicies returns the seller's policies of one family on a marketplace.
// Raw keeps eBay's JSON for each policy.
func (c *AccountClient) ListPolicies(ctx context.Context, userID uuid.UUID, policyType ebay.PolicyType, marketplaceID string) ([]ebay.BusinessPolicy, error) {
	if marketplaceID == "" {
		marketplaceID = c.client.MarketplaceID()
	}
	resource := strings.ToLower(string(policyType)) + "_policy"
	query := url.Values{}
	query.Set("marketplace_id", marketplaceID)

	var resp EbayPoliciesResponse
	err := c.client.do(ctx, userID, ebayRequest{
		name:   "account.list_" + resource,
		method: http.MethodGet,
		path:   "/sell/account/v1/" + resource,
		query:  query,
	}, &resp)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	switch policyType {
	case ebay.PolicyFulfillment:
		raws = resp.FulfillmentPolicies
	case ebay.PolicyPayment:
		raws = resp.PaymentPolicies
	case ebay.PolicyReturn:
		raws = resp.ReturnPolicies
	default:
		return nil, fmt.Errorf("ebay: unknown policy type %q", policyType)
	}

	policies := make([]ebay.BusinessPolicy, 0, len(raws))
	for _, raw := range raws {
		var p EbayPolicy
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("ebay: failed to parse %s: %w", resource, err)
		}
		policy := ebay.BusinessPolicy{
			UserID:        userID,
			PolicyID:      p.id(policyType),
			Type:          policyType,
			MarketplaceID: p.MarketplaceID,
			Name:          p.Name,
			IsDefault:     p.isDefault(),
			Raw:           string(raw),
		}
		if policy.MarketplaceID == "" {
			policy.MarketplaceID = marketplaceID
		}
		policies = append(policies, policy)
	}
	return policies, nil
}

func (p EbayPolicy) id(policyType ebay.PolicyType) string {
	switch policyType {
	case ebay.PolicyFulfillment:
		return p.FulfillmentPolicyID
	case ebay.PolicyPayment:
		return p.PaymentPolicyID
	default:
		return p.ReturnPolicyID
	}
}

func (p EbayPolicy) isDefault() bool {
	for _, ct := range p.CategoryTypes {
		if ct.Default {
			return true
		}
	}
	return false
}

package ebay

import (
	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// PolicyType is the family of an eBay business policy
type PolicyType string

const (
	PolicyFulfillment PolicyType = "FULFILLMENT"
	PolicyPayment     PolicyType = "PAYMENT"
	PolicyReturn      PolicyType = "RETURN"
)

// AllPolicyTypes lists the synchronized policy families
func AllPolicyTypes() []PolicyType {
	return []PolicyType{PolicyFulfillment, PolicyPayment, PolicyReturn}
}

// BusinessPolicy is a cached seller policy
type BusinessPolicy struct {
	shared.BaseEntity
	UserID        uuid.UUID
	PolicyID      string
	Type          PolicyType
	MarketplaceID string
	Name          string
	IsDefault     bool
	Raw           string
}

// OwnerID implements shared.UserOwned
func (p *BusinessPolicy) OwnerID() uuid.UUID {
	return p.UserID
}

// PolicySet holds the policy ids attached to an offer
type PolicySet struct {
	FulfillmentPolicyID string
	PaymentPolicyID     string
	ReturnPolicyID      string
}

// Complete reports whether every policy is set
func (s PolicySet) Complete() bool {
	return s.FulfillmentPolicyID != "" && s.PaymentPolicyID != "" && s.ReturnPolicyID != ""
}

// DefaultPolicies picks the default (else first) policy per type
func DefaultPolicies(policies []BusinessPolicy, marketplaceID string) PolicySet {
	var set PolicySet
	pick := func(current *string, p BusinessPolicy) {
		if *current == "" || p.IsDefault {
			*current = p.PolicyID
		}
	}
	for _, p := range policies {
		if marketplaceID != "" && p.MarketplaceID != marketplaceID {
			continue
		}
		switch p.Type {
		case PolicyFulfillment:
			pick(&set.FulfillmentPolicyID, p)
		case PolicyPayment:
			pick(&set.PaymentPolicyID, p)
		case PolicyReturn:
			pick(&set.ReturnPolicyID, p)
		}
	}
	return set
}

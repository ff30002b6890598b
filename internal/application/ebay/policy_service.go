package ebay

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/application/jobhandler"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"go.uber.org/zap"
)

// PolicyService keeps the cached business policies in step with eBay
type PolicyService struct {
	account     ebay.AccountGateway
	policies    ebay.PolicyRepository
	credentials ebay.CredentialRepository
	logger      *zap.Logger
}

// NewPolicyService creates the service
func NewPolicyService(account ebay.AccountGateway, policies ebay.PolicyRepository, credentials ebay.CredentialRepository, logger *zap.Logger) *PolicyService {
	return &PolicyService{
		account:     account,
		policies:    policies,
		credentials: credentials,
		logger:      logger.Named("ebay_policies"),
	}
}

var _ jobhandler.PolicySyncStrategy = (*PolicyService)(nil)

// SyncPolicies replaces the cached policies with eBay's current list
func (s *PolicyService) SyncPolicies(ctx context.Context, userID uuid.UUID) (*jobhandler.SyncSummary, error) {
	cred, err := s.credentials.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	marketplaceID := cred.MarketplaceID
	if marketplaceID == "" {
		marketplaceID = ebay.DefaultMarketplaceID
	}

	var all []ebay.BusinessPolicy
	types := ebay.AllPolicyTypes()
	for i, t := range types {
		if err := jobhandler.Checkpoint(ctx); err != nil {
			return nil, err
		}
		list, err := s.account.ListPolicies(ctx, userID, t, marketplaceID)
		if err != nil {
			return nil, fmt.Errorf("list %s policies: %w", t, err)
		}
		all = append(all, list...)
		jobhandler.ReportProgress(ctx, i+1, len(types), "policies")
	}

	now := time.Now()
	for i := range all {
		all[i].UserID = userID
		if all[i].MarketplaceID == "" {
			all[i].MarketplaceID = marketplaceID
		}
		all[i].UpdatedAt = now
	}
	if err := s.policies.ReplaceAll(ctx, userID, all); err != nil {
		return nil, fmt.Errorf("replace policies: %w", err)
	}

	s.logger.Info("eBay business policies synchronized",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(all)),
	)
	return &jobhandler.SyncSummary{Scope: "policies", Fetched: len(all), Updated: len(all), Pages: len(types)}, nil
}

// Defaults returns the policy set for new offers, syncing from eBay once when the cache is incomplete
func (s *PolicyService) Defaults(ctx context.Context, userID uuid.UUID, marketplaceID string) (ebay.PolicySet, error) {
	cached, err := s.policies.FindByUser(ctx, userID)
	if err != nil {
		return ebay.PolicySet{}, err
	}
	set := ebay.DefaultPolicies(cached, marketplaceID)
	if set.Complete() {
		return set, nil
	}

	if _, err := s.SyncPolicies(ctx, userID); err != nil {
		return ebay.PolicySet{}, err
	}
	cached, err = s.policies.FindByUser(ctx, userID)
	if err != nil {
		return ebay.PolicySet{}, err
	}
	set = ebay.DefaultPolicies(cached, marketplaceID)
	if !set.Complete() {
		return ebay.PolicySet{}, ebay.ErrPoliciesMissing
	}
	return set, nil
}

// Package workflows runs marketplace syncs as Temporal workflows. Each sync
// scope is one activity dispatched to the same job handlers the queue uses.
package workflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

const (
	// ProgressQuery returns the SyncProgress of a running workflow
	ProgressQuery = "progress"

	errTypePermanent    = "PermanentSyncError"
	errTypeInvalidInput = "InvalidSyncInput"
	errTypeAllFailed    = "AllScopesFailed"
)

// ErrInvalidSyncInput is returned for an unknown marketplace or scope
var ErrInvalidSyncInput = shared.NewDomainError("INVALID_INPUT", "invalid sync request")

// SyncScope names one kind of data a sync imports
type SyncScope string

const (
	ScopeListings  SyncScope = "listings"
	ScopeOrders    SyncScope = "orders"
	ScopeMessages  SyncScope = "messages"
	ScopeInquiries SyncScope = "inquiries"
	ScopePolicies  SyncScope = "policies"
)

// allScopes is also the execution order
var allScopes = []SyncScope{ScopeListings, ScopeOrders, ScopeMessages, ScopeInquiries, ScopePolicies}

var scopeActions = map[SyncScope]marketplace.Action{
	ScopeListings:  marketplace.ActionSync,
	ScopeOrders:    marketplace.ActionOrdersSync,
	ScopeMessages:  marketplace.ActionMessagesSync,
	ScopeInquiries: marketplace.ActionInquiriesSync,
	ScopePolicies:  marketplace.ActionPoliciesSync,
}

// Action returns the job action that implements the scope
func (s SyncScope) Action() (marketplace.Action, bool) {
	a, ok := scopeActions[s]
	return a, ok
}

// SupportedScopes lists the scopes available on m, in execution order
func SupportedScopes(m marketplace.Marketplace) []SyncScope {
	out := make([]SyncScope, 0, len(allScopes))
	for _, s := range allScopes {
		if _, err := marketplace.LookupAction(m, scopeActions[s]); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// ParseScopes normalizes scope names; unknown names are an error
func ParseScopes(raw []string) ([]SyncScope, error) {
	out := make([]SyncScope, 0, len(raw))
	for _, r := range raw {
		s := SyncScope(strings.ToLower(strings.TrimSpace(r)))
		if _, ok := scopeActions[s]; !ok {
			return nil, shared.WrapDomainError(ErrInvalidSyncInput.Code, fmt.Sprintf("unknown sync scope %q", r), ErrInvalidSyncInput)
		}
		out = append(out, s)
	}
	return out, nil
}

// SyncInput starts a MarketplaceSyncWorkflow. No scopes means every
// supported scope.
type SyncInput struct {
	UserID      uuid.UUID               `json:"user_id"`
	Marketplace marketplace.Marketplace `json:"marketplace"`
	Scopes      []SyncScope             `json:"scopes,omitempty"`
}

// Plan validates the input and returns the scopes to run, deduplicated and
// in execution order
func (in SyncInput) Plan() ([]SyncScope, error) {
	if in.UserID == uuid.Nil {
		return nil, shared.WrapDomainError(ErrInvalidSyncInput.Code, "user id is required", ErrInvalidSyncInput)
	}
	if !in.Marketplace.IsValid() {
		return nil, shared.WrapDomainError(ErrInvalidSyncInput.Code, "unknown marketplace", ErrInvalidSyncInput)
	}
	supported := SupportedScopes(in.Marketplace)
	if len(in.Scopes) == 0 {
		return supported, nil
	}

	wanted := make(map[SyncScope]bool, len(in.Scopes))
	for _, s := range in.Scopes {
		ok := false
		for _, sup := range supported {
			ok = ok || sup == s
		}
		if !ok {
			return nil, shared.WrapDomainError(ErrInvalidSyncInput.Code,
				fmt.Sprintf("scope %q is not available on %s", s, in.Marketplace), ErrInvalidSyncInput)
		}
		wanted[s] = true
	}
	plan := make([]SyncScope, 0, len(wanted))
	for _, s := range supported {
		if wanted[s] {
			plan = append(plan, s)
		}
	}
	return plan, nil
}

// ScopeResult is the outcome of one scope; Error is set when it failed
type ScopeResult struct {
	Scope   SyncScope   `json:"scope"`
	Summary job.Payload `json:"summary,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SyncResult is returned by MarketplaceSyncWorkflow
type SyncResult struct {
	Marketplace marketplace.Marketplace `json:"marketplace"`
	Scopes      []ScopeResult           `json:"scopes"`
}

// Failed counts the scopes that ended in error
func (r SyncResult) Failed() int {
	n := 0
	for _, s := range r.Scopes {
		if s.Error != "" {
			n++
		}
	}
	return n
}

// SyncProgress answers ProgressQuery
type SyncProgress struct {
	Done    []ScopeResult `json:"done"`
	Current SyncScope     `json:"current,omitempty"`
	Pending []SyncScope   `json:"pending"`
}

// ScopeInput is the argument of the SyncScope activity
type ScopeInput struct {
	UserID      uuid.UUID               `json:"user_id"`
	Marketplace marketplace.Marketplace `json:"marketplace"`
	Scope       SyncScope               `json:"scope"`
}

// WorkflowOptions tunes the activities scheduled by the workflow
type WorkflowOptions struct {
	ActivityTimeout time.Duration
	MaxAttempts     int32
	InitialInterval time.Duration
}

// DefaultWorkflowOptions is used by MarketplaceSyncWorkflow
var DefaultWorkflowOptions = WorkflowOptions{
	ActivityTimeout: 30 * time.Minute,
	MaxAttempts:     3,
	InitialInterval: 10 * time.Second,
}

func activityOptions(o WorkflowOptions) workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: o.ActivityTimeout,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        o.InitialInterval,
			BackoffCoefficient:     2.0,
			MaximumInterval:        5 * time.Minute,
			MaximumAttempts:        o.MaxAttempts,
			NonRetryableErrorTypes: []string{errTypePermanent},
		},
	}
}

// MarketplaceSyncWorkflow runs one SyncScope activity per planned scope, in
// order. A failed scope is recorded and the next one still runs. The
// workflow fails only when every scope failed.
func MarketplaceSyncWorkflow(ctx workflow.Context, in SyncInput) (*SyncResult, error) {
	plan, err := in.Plan()
	if err != nil {
		return nil, temporal.NewNonRetryableApplicationError(err.Error(), errTypeInvalidInput, err)
	}

	result := &SyncResult{Marketplace: in.Marketplace, Scopes: make([]ScopeResult, 0, len(plan))}
	progress := SyncProgress{Pending: append([]SyncScope(nil), plan...)}
	if err := workflow.SetQueryHandler(ctx, ProgressQuery, func() (SyncProgress, error) {
		return progress, nil
	}); err != nil {
		return nil, err
	}

	logger := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, activityOptions(DefaultWorkflowOptions))

	var a *Activities
	for _, scope := range plan {
		progress.Current = scope
		progress.Pending = progress.Pending[1:]

		var summary job.Payload
		err := workflow.ExecuteActivity(ctx, a.SyncScope, ScopeInput{
			UserID:      in.UserID,
			Marketplace: in.Marketplace,
			Scope:       scope,
		}).Get(ctx, &summary)

		sr := ScopeResult{Scope: scope, Summary: summary}
		if err != nil {
			if temporal.IsCanceledError(err) {
				return nil, err
			}
			sr.Error = err.Error()
			logger.Warn("Sync scope failed", "scope", string(scope), "error", err)
		}
		result.Scopes = append(result.Scopes, sr)
		progress.Done = append(progress.Done, sr)
	}
	progress.Current = ""

	if len(plan) > 0 && result.Failed() == len(plan) {
		return nil, temporal.NewApplicationError(
			fmt.Sprintf("all %d sync scopes failed", len(plan)), errTypeAllFailed, result)
	}
	return result, nil
}

package jobhandler

import (
	"context"
	"errors"

	"github.com/matthiasrib29/StoFlow-sub000/internal/application/mapping"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
)

var (
	ErrAlreadyPublished = shared.NewDomainError("ALREADY_EXISTS", "product is already published on this marketplace")
	ErrNotPublished     = shared.NewDomainError("INVALID_STATE", "product has no live listing on this marketplace")
	ErrNoHandler        = errors.New("jobhandler: no handler registered for action")
)

// retryable is implemented by marketplace client errors
type retryable interface {
	Retryable() bool
}

// permanentError forces a failure to skip the retry budget
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsRetryable classifies a handler error.
// Marketplace errors decide for themselves; domain and validation errors are
// permanent; anything else, network errors included, is retried within the
// job's retry budget.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}
	var r retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return false
	}
	switch {
	case errors.Is(err, marketplace.ErrUnsupportedAction),
		errors.Is(err, marketplace.ErrUnknownAction),
		errors.Is(err, marketplace.ErrUnknownMarketplace),
		errors.Is(err, ErrNoHandler),
		errors.Is(err, vinted.ErrCategoryNotMapped),
		errors.Is(err, mapping.ErrEbayCategoryNotMapped),
		errors.Is(err, ebay.ErrNotConnected),
		errors.Is(err, ebay.ErrPoliciesMissing):
		return false
	}
	return true
}

// Package jobhandler executes marketplace jobs: one handler per action,
// routed to a per-marketplace strategy.
package jobhandler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
)

// JobHandler executes one action
type JobHandler interface {
	Action() marketplace.Action
	Handle(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error)
}

// Dispatcher routes jobs to handlers by action
type Dispatcher struct {
	handlers map[marketplace.Action]JobHandler
}

// NewDispatcher creates a dispatcher over handlers
func NewDispatcher(handlers ...JobHandler) *Dispatcher {
	d := &Dispatcher{handlers: make(map[marketplace.Action]JobHandler, len(handlers))}
	for _, h := range handlers {
		d.Register(h)
	}
	return d
}

// Register adds or replaces the handler of an action
func (d *Dispatcher) Register(h JobHandler) {
	d.handlers[h.Action()] = h
}

// Dispatch runs the handler of j's action
func (d *Dispatcher) Dispatch(ctx context.Context, j *job.MarketplaceJob) (job.Payload, error) {
	h, ok := d.handlers[j.Action]
	if !ok {
		return nil, Permanent(fmt.Errorf("%w: %s", ErrNoHandler, j.Action))
	}
	return h.Handle(ctx, j)
}

// Actions lists the registered actions
func (d *Dispatcher) Actions() []marketplace.Action {
	out := make([]marketplace.Action, 0, len(d.handlers))
	for a := range d.handlers {
		out = append(out, a)
	}
	return out
}

// ---------------------------------------------------------------------------
// Progress
// ---------------------------------------------------------------------------

// ProgressFunc receives progress updates from a running handler
type ProgressFunc func(processed, total int, stage string)

type progressKey struct{}

// WithProgress attaches a progress callback to ctx
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ReportProgress forwards a progress update to the callback on ctx, if any
func ReportProgress(ctx context.Context, processed, total int, stage string) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(processed, total, stage)
	}
}

// Checkpoint returns ctx.Err() so long loops stop once the job is cancelled
func Checkpoint(ctx context.Context) error {
	return ctx.Err()
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

// SyncSummary is the result of a sync run
type SyncSummary struct {
	Scope    string  `json:"scope"`
	Fetched  int     `json:"fetched"`
	Created  int     `json:"created"`
	Updated  int     `json:"updated"`
	Deleted  int     `json:"deleted"`
	Pages    int     `json:"pages"`
	Unlinked []int64 `json:"unlinked,omitempty"`
	// UnlinkedSKUs lists remote eBay items with no local link
	UnlinkedSKUs []string `json:"unlinked_skus,omitempty"`
	// Truncated is set when the page limit stopped the walk before the last page
	Truncated bool `json:"truncated,omitempty"`
}

// Payload converts the summary to a job result
func (s SyncSummary) Payload() job.Payload {
	p := job.Payload{
		"scope":   s.Scope,
		"fetched": s.Fetched,
		"created": s.Created,
		"updated": s.Updated,
		"deleted": s.Deleted,
		"pages":   s.Pages,
	}
	if len(s.Unlinked) > 0 {
		p["unlinked"] = s.Unlinked
	}
	if len(s.UnlinkedSKUs) > 0 {
		p["unlinked_skus"] = s.UnlinkedSKUs
	}
	if s.Truncated {
		p["truncated"] = true
	}
	return p
}

// ListingResult is the result of a publish, update or delete
type ListingResult struct {
	RemoteID string `json:"remote_id"`
	URL      string `json:"url,omitempty"`
	Status   string `json:"status"`
}

// Payload converts the result to a job result
func (r ListingResult) Payload() job.Payload {
	p := job.Payload{"remote_id": r.RemoteID, "status": r.Status}
	if r.URL != "" {
		p["url"] = r.URL
	}
	return p
}

// ---------------------------------------------------------------------------
// Strategies
// ---------------------------------------------------------------------------

// ListingStrategy publishes and maintains listings on one marketplace
type ListingStrategy interface {
	Publish(ctx context.Context, p *ProductContext) (*ListingResult, error)
	Update(ctx context.Context, p *ProductContext) (*ListingResult, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) (*ListingResult, error)
}

// ListingSyncStrategy reconciles remote listings with local links
type ListingSyncStrategy interface {
	SyncListings(ctx context.Context, userID uuid.UUID) (*SyncSummary, error)
}

// OrderSyncStrategy imports remote orders
type OrderSyncStrategy interface {
	// SyncOrders imports orders created after since; nil means since the last imported order
	SyncOrders(ctx context.Context, userID uuid.UUID, since *time.Time) (*SyncSummary, error)
}

// MessageSyncStrategy imports inbox threads
type MessageSyncStrategy interface {
	SyncMessages(ctx context.Context, userID uuid.UUID) (*SyncSummary, error)
}

// InquirySyncStrategy imports buyer inquiries
type InquirySyncStrategy interface {
	SyncInquiries(ctx context.Context, userID uuid.UUID) (*SyncSummary, error)
}

// PolicySyncStrategy refreshes cached business policies
type PolicySyncStrategy interface {
	SyncPolicies(ctx context.Context, userID uuid.UUID) (*SyncSummary, error)
}

// ImageResolver turns a stored image reference into a URL a marketplace can fetch
type ImageResolver interface {
	ResolveImageURL(ctx context.Context, ref string) (string, error)
}

type passthroughImages struct{}

func (passthroughImages) ResolveImageURL(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// PassthroughImages returns image references unchanged
func PassthroughImages() ImageResolver {
	return passthroughImages{}
}

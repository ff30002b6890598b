package job

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/shared"
)

// BatchJob groups the jobs created by one bulk operation
type BatchJob struct {
	shared.BaseEntity
	BatchID        string
	UserID         uuid.UUID
	Marketplace    marketplace.Marketplace
	Action         marketplace.Action
	Priority       marketplace.Priority
	Status         BatchStatus
	TotalCount     int
	CompletedCount int
	FailedCount    int
	CancelledCount int
	StartedAt      *time.Time
	CompletedAt    *time.Time
}

// NewBatchJob creates a pending batch for total items
func NewBatchJob(userID uuid.UUID, m marketplace.Marketplace, a marketplace.Action, priority marketplace.Priority, total int) *BatchJob {
	base := shared.NewBaseEntity()
	return &BatchJob{
		BaseEntity:  base,
		BatchID:     NewBatchReference(a, base.CreatedAt),
		UserID:      userID,
		Marketplace: m,
		Action:      a,
		Priority:    priority,
		Status:      BatchStatusPending,
		TotalCount:  total,
	}
}

// NewBatchReference builds the human-readable batch id: <action>_<yyyymmdd_hhmmss>_<6 hex>
func NewBatchReference(a marketplace.Action, at time.Time) string {
	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		copy(suffix, uuid.New().NodeID())
	}
	return fmt.Sprintf("%s_%s_%s", a, at.UTC().Format("20060102_150405"), hex.EncodeToString(suffix))
}

// OwnerID implements shared.UserOwned
func (b *BatchJob) OwnerID() uuid.UUID {
	return b.UserID
}

// StatusCounts is the per-status tally of a batch's children
type StatusCounts map[Status]int

// Total sums every status
func (c StatusCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// Terminal sums the final statuses
func (c StatusCounts) Terminal() int {
	return c[StatusCompleted] + c[StatusFailed] + c[StatusCancelled] + c[StatusExpired]
}

// BatchProgress is the derived view returned to clients
type BatchProgress struct {
	Total           int     `json:"total"`
	Pending         int     `json:"pending"`
	Running         int     `json:"running"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	Cancelled       int     `json:"cancelled"`
	ProgressPercent float64 `json:"progress_percent"`
}

// ApplyCounts recomputes counters and status from the children's status tally.
// A settled batch is left alone: its children may already have been cleaned up.
// TotalCount never shrinks. It reports whether anything changed.
func (b *BatchJob) ApplyCounts(counts StatusCounts, now time.Time) bool {
	if b.Status.IsFinal() {
		return false
	}
	before := *b

	if total := counts.Total(); total > b.TotalCount {
		b.TotalCount = total
	}
	b.CompletedCount = counts[StatusCompleted]
	b.FailedCount = counts[StatusFailed]
	b.CancelledCount = counts[StatusCancelled] + counts[StatusExpired]

	b.Status = deriveBatchStatus(counts)
	if b.Status != BatchStatusPending && b.StartedAt == nil {
		b.StartedAt = &now
	}
	if b.Status.IsFinal() {
		if b.CompletedAt == nil {
			b.CompletedAt = &now
		}
	} else {
		b.CompletedAt = nil
	}

	changed := before.Status != b.Status ||
		before.TotalCount != b.TotalCount ||
		before.CompletedCount != b.CompletedCount ||
		before.FailedCount != b.FailedCount ||
		before.CancelledCount != b.CancelledCount
	if changed {
		b.UpdatedAt = now
	}
	return changed
}

func deriveBatchStatus(c StatusCounts) BatchStatus {
	total := c.Total()
	terminal := c.Terminal()
	cancelled := c[StatusCancelled] + c[StatusExpired]

	switch {
	case total == 0:
		return BatchStatusPending
	case c[StatusRunning] > 0:
		return BatchStatusRunning
	case terminal == 0:
		return BatchStatusPending
	case terminal < total:
		return BatchStatusRunning
	case c[StatusCompleted] == total:
		return BatchStatusCompleted
	case c[StatusFailed] == total:
		return BatchStatusFailed
	case cancelled == total:
		return BatchStatusCancelled
	default:
		return BatchStatusPartiallyFailed
	}
}

// MarkCancelled settles the batch as cancelled
func (b *BatchJob) MarkCancelled(now time.Time) {
	b.Status = BatchStatusCancelled
	b.CompletedAt = &now
	b.UpdatedAt = now
}

// Progress derives the client view from a fresh tally
func (b *BatchJob) Progress(counts StatusCounts) BatchProgress {
	total := counts.Total()
	if total == 0 {
		total = b.TotalCount
	}
	p := BatchProgress{
		Total:     total,
		Pending:   counts[StatusPending],
		Running:   counts[StatusRunning],
		Completed: counts[StatusCompleted],
		Failed:    counts[StatusFailed],
		Cancelled: counts[StatusCancelled] + counts[StatusExpired],
	}
	if total > 0 {
		p.ProgressPercent = float64(counts.Terminal()) / float64(total) * 100
	}
	return p
}

// StoredProgress derives the client view from the persisted counters.
// Jobs that have not settled are reported as pending.
func (b *BatchJob) StoredProgress() BatchProgress {
	settled := b.CompletedCount + b.FailedCount + b.CancelledCount
	p := BatchProgress{
		Total:     b.TotalCount,
		Pending:   max(b.TotalCount-settled, 0),
		Completed: b.CompletedCount,
		Failed:    b.FailedCount,
		Cancelled: b.CancelledCount,
	}
	if b.TotalCount > 0 {
		p.ProgressPercent = float64(settled) / float64(b.TotalCount) * 100
	}
	return p
}

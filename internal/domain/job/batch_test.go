package job

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/stretchr/testify/assert"
)

func TestNewBatchReference(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	ref := NewBatchReference(marketplace.ActionPublish, at)
	assert.Regexp(t, regexp.MustCompile(`^publish_20240309_140507_[0-9a-f]{6}$`), ref)
}

func TestBatchJob_ApplyCounts(t *testing.T) {
	tests := []struct {
		name   string
		counts StatusCounts
		want   BatchStatus
	}{
		{"nothing started", StatusCounts{StatusPending: 3}, BatchStatusPending},
		{"one running", StatusCounts{StatusPending: 2, StatusRunning: 1}, BatchStatusRunning},
		{"partially done", StatusCounts{StatusPending: 1, StatusCompleted: 2}, BatchStatusRunning},
		{"all completed", StatusCounts{StatusCompleted: 3}, BatchStatusCompleted},
		{"all failed", StatusCounts{StatusFailed: 3}, BatchStatusFailed},
		{"all cancelled or expired", StatusCounts{StatusCancelled: 2, StatusExpired: 1}, BatchStatusCancelled},
		{"mixed terminal", StatusCounts{StatusCompleted: 2, StatusFailed: 1}, BatchStatusPartiallyFailed},
		{"completed and cancelled", StatusCounts{StatusCompleted: 2, StatusCancelled: 1}, BatchStatusPartiallyFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBatchJob(uuid.New(), marketplace.Ebay, marketplace.ActionPublish, marketplace.PriorityNormal, 3)
			now := time.Now()
			b.ApplyCounts(tt.counts, now)

			assert.Equal(t, tt.want, b.Status)
			assert.Equal(t, tt.counts[StatusCompleted], b.CompletedCount)
			assert.Equal(t, tt.counts[StatusFailed], b.FailedCount)
			if tt.want.IsFinal() {
				assert.NotNil(t, b.CompletedAt)
			} else {
				assert.Nil(t, b.CompletedAt)
			}
			if tt.want != BatchStatusPending {
				assert.NotNil(t, b.StartedAt)
			}
		})
	}
}

func TestBatchJob_ApplyCountsKeepsStartedAt(t *testing.T) {
	b := NewBatchJob(uuid.New(), marketplace.Vinted, marketplace.ActionDelete, marketplace.PriorityHigh, 2)
	first := time.Now()
	assert.True(t, b.ApplyCounts(StatusCounts{StatusRunning: 1, StatusPending: 1}, first))
	assert.False(t, b.ApplyCounts(StatusCounts{StatusRunning: 1, StatusPending: 1}, first.Add(time.Minute)))
	assert.Equal(t, first, *b.StartedAt)
}

func TestBatchJob_Progress(t *testing.T) {
	b := NewBatchJob(uuid.New(), marketplace.Vinted, marketplace.ActionPublish, marketplace.PriorityHigh, 4)
	p := b.Progress(StatusCounts{StatusCompleted: 1, StatusFailed: 1, StatusPending: 1, StatusExpired: 1})

	assert.Equal(t, 4, p.Total)
	assert.Equal(t, 1, p.Cancelled)
	assert.InDelta(t, 75.0, p.ProgressPercent, 0.001)
}

func TestBatchJob_StoredProgress(t *testing.T) {
	b := NewBatchJob(uuid.New(), marketplace.Ebay, marketplace.ActionUpdate, marketplace.PriorityNormal, 5)
	b.CompletedCount = 2
	b.FailedCount = 1

	p := b.StoredProgress()
	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 2, p.Pending)
	assert.InDelta(t, 60.0, p.ProgressPercent, 0.001)

	empty := &BatchJob{}
	assert.Zero(t, empty.StoredProgress().ProgressPercent)
}

func TestBatchStatus_IsValid(t *testing.T) {
	assert.True(t, BatchStatusPartiallyFailed.IsValid())
	assert.False(t, BatchStatus("DONE").IsValid())
}

func TestBatchJob_ApplyCountsLeavesSettledBatch(t *testing.T) {
	b := NewBatchJob(uuid.New(), marketplace.Vinted, marketplace.ActionPublish, marketplace.PriorityHigh, 4)
	settledAt := time.Now()
	assert.True(t, b.ApplyCounts(StatusCounts{StatusCompleted: 4}, settledAt))
	assert.Equal(t, BatchStatusCompleted, b.Status)

	// children removed by retention
	assert.False(t, b.ApplyCounts(StatusCounts{}, settledAt.Add(time.Hour)))
	assert.Equal(t, BatchStatusCompleted, b.Status)
	assert.Equal(t, 4, b.CompletedCount)
	assert.Equal(t, 4, b.TotalCount)
	assert.Equal(t, settledAt, *b.CompletedAt)
}

func TestBatchJob_ApplyCountsKeepsTotal(t *testing.T) {
	b := NewBatchJob(uuid.New(), marketplace.Ebay, marketplace.ActionUpdate, marketplace.PriorityNormal, 5)
	b.ApplyCounts(StatusCounts{StatusRunning: 1, StatusCompleted: 1}, time.Now())

	assert.Equal(t, 5, b.TotalCount)
	assert.Equal(t, BatchStatusRunning, b.Status)
}

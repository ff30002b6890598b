//go:build integration

package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/marketplace"
	"github.com/matthiasrib29/StoFlow-sub000/internal/infrastructure/persistence"
)

func newPendingJob(t *testing.T, userID uuid.UUID, m marketplace.Marketplace, a marketplace.Action) *job.MarketplaceJob {
	t.Helper()
	spec, err := marketplace.LookupAction(m, a)
	require.NoError(t, err)
	productID := uuid.New()
	return job.NewMarketplaceJob(userID, spec, &productID, nil)
}

func TestJobRepository_ClaimNext_Concurrent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo := persistence.NewGormJobRepository(openDB(t))
	ctx := context.Background()
	userID := uuid.New()

	const total = 30
	jobs := make([]*job.MarketplaceJob, total)
	for i := range jobs {
		jobs[i] = newPendingJob(t, userID, marketplace.Vinted, marketplace.ActionPublish)
	}
	require.NoError(t, repo.SaveBatch(ctx, jobs))

	var (
		mu      sync.Mutex
		claimed = make(map[uuid.UUID]int)
		wg      sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				j, err := repo.ClaimNext(ctx, nil, time.Now())
				if !assert.NoError(t, err) || j == nil {
					return
				}
				mu.Lock()
				claimed[j.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, claimed, total)
	for id, n := range claimed {
		assert.Equal(t, 1, n, "job %s claimed more than once", id)
	}

	counts, err := repo.CountByStatus(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, total, counts[job.StatusRunning])
	assert.Zero(t, counts[job.StatusPending])
}

func TestJobRepository_ClaimNext_Ordering(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo := persistence.NewGormJobRepository(openDB(t))
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	low := newPendingJob(t, userID, marketplace.Ebay, marketplace.ActionSync)
	low.CreatedAt = now.Add(-time.Hour)
	critical := newPendingJob(t, userID, marketplace.Ebay, marketplace.ActionPublish)
	critical.Priority = marketplace.PriorityCritical
	vinted := newPendingJob(t, userID, marketplace.Vinted, marketplace.ActionPublish)
	vinted.Priority = marketplace.PriorityCritical
	vinted.CreatedAt = now.Add(-2 * time.Hour)
	expired := newPendingJob(t, userID, marketplace.Ebay, marketplace.ActionPublish)
	expired.Priority = marketplace.PriorityCritical
	past := now.Add(-time.Minute)
	expired.ExpiresAt = &past
	require.NoError(t, repo.SaveBatch(ctx, []*job.MarketplaceJob{low, critical, vinted, expired}))

	only := []marketplace.Marketplace{marketplace.Ebay}

	first, err := repo.ClaimNext(ctx, only, now)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, critical.ID, first.ID)

	second, err := repo.ClaimNext(ctx, only, now)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, low.ID, second.ID)

	none, err := repo.ClaimNext(ctx, only, now)
	require.NoError(t, err)
	assert.Nil(t, none)

	n, err := repo.ExpirePending(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	status, err := repo.GetStatus(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusExpired, status)

	status, err = repo.GetStatus(ctx, vinted.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusPending, status)
}

func TestPgAdvisoryLocker(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	sqlDB, err := openDB(t).DB()
	require.NoError(t, err)
	locker := persistence.NewPgAdvisoryLocker(sqlDB)
	ctx := context.Background()
	jobID := uuid.New()

	held, err := locker.IsHeld(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, held)

	lock, err := locker.TryAcquire(ctx, jobID)
	require.NoError(t, err)

	_, err = locker.TryAcquire(ctx, jobID)
	assert.ErrorIs(t, err, job.ErrLockUnavailable)

	held, err = locker.IsHeld(ctx, jobID)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, lock.Release(ctx))
	require.NoError(t, lock.Release(ctx))

	held, err = locker.IsHeld(ctx, jobID)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestBatchRepository_Counts(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openDB(t)
	ctx := context.Background()
	userID := uuid.New()
	batches := persistence.NewGormBatchRepository(db)
	jobs := persistence.NewGormJobRepository(db)

	batch := job.NewBatchJob(userID, marketplace.Vinted, marketplace.ActionPublish, marketplace.PriorityNormal, 3)
	require.NoError(t, batches.Save(ctx, batch))

	children := make([]*job.MarketplaceJob, 3)
	for i := range children {
		children[i] = newPendingJob(t, userID, marketplace.Vinted, marketplace.ActionPublish)
		children[i].BatchID = &batch.ID
	}
	require.NoError(t, children[0].Start(time.Now()))
	require.NoError(t, children[0].Complete(time.Now(), nil))
	require.NoError(t, children[1].Cancel(time.Now()))
	require.NoError(t, jobs.SaveBatch(ctx, children))

	found, err := batches.FindByReference(ctx, userID, batch.BatchID)
	require.NoError(t, err)
	assert.Equal(t, batch.ID, found.ID)

	counts, err := jobs.CountByBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[job.StatusCompleted])
	assert.Equal(t, 1, counts[job.StatusCancelled])
	assert.Equal(t, 1, counts[job.StatusPending])

	pending, err := jobs.FindByBatch(ctx, batch.ID, job.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, children[2].ID, pending[0].ID)

	_, err = batches.FindByReference(ctx, uuid.New(), batch.BatchID)
	assert.ErrorIs(t, err, job.ErrBatchNotFound)
}

func TestJobRepository_Create_ConcurrentDuplicates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo := persistence.NewGormJobRepository(openDB(t))
	ctx := context.Background()
	userID := uuid.New()
	productID := uuid.New()
	spec, err := marketplace.LookupAction(marketplace.Vinted, marketplace.ActionPublish)
	require.NoError(t, err)

	const callers = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := repo.Create(ctx, job.NewMarketplaceJob(userID, spec, &productID, nil))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, job.ErrDuplicateJob):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, callers-1, dupes)
}

func TestJobRepository_UpdateFrom_CancelBeatsCompletion(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	repo := persistence.NewGormJobRepository(openDB(t))
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newPendingJob(t, uuid.New(), marketplace.Vinted, marketplace.ActionPublish)))

	worker, err := repo.ClaimNext(ctx, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, worker)
	user, err := repo.FindByID(ctx, worker.ID)
	require.NoError(t, err)

	require.NoError(t, user.Cancel(time.Now()))
	require.NoError(t, repo.UpdateFrom(ctx, user, job.StatusRunning))

	require.NoError(t, worker.Complete(time.Now(), job.Payload{"vinted_id": 7}))
	assert.ErrorIs(t, repo.UpdateFrom(ctx, worker, job.StatusRunning), job.ErrJobConflict)

	status, err := repo.GetStatus(ctx, worker.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCancelled, status)
}

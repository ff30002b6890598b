package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobLockKey(t *testing.T) {
	id := uuid.MustParse("6f1c2a8e-3d4b-4c5a-9e7f-0a1b2c3d4e5f")

	assert.Equal(t, JobLockKey(id), JobLockKey(id))
	assert.NotEqual(t, JobLockKey(id), JobLockKey(uuid.New()))
}

func TestPgAdvisoryLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("acquires and releases once", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		id := uuid.New()
		key := JobLockKey(id)
		mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
			WithArgs(key).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
		mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).
			WithArgs(key).
			WillReturnResult(sqlmock.NewResult(0, 1))

		locker := NewPgAdvisoryLocker(db)
		lock, err := locker.TryAcquire(ctx, id)
		require.NoError(t, err)

		require.NoError(t, lock.Release(ctx))
		require.NoError(t, lock.Release(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports a lock held elsewhere", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

		_, err = NewPgAdvisoryLocker(db).TryAcquire(ctx, uuid.New())

		assert.ErrorIs(t, err, job.ErrLockUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("probe releases a free lock immediately", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
		mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		held, err := NewPgAdvisoryLocker(db).IsHeld(ctx, uuid.New())

		require.NoError(t, err)
		assert.False(t, held)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("probe sees a held lock", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
			WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

		held, err := NewPgAdvisoryLocker(db).IsHeld(ctx, uuid.New())

		require.NoError(t, err)
		assert.True(t, held)
	})
}

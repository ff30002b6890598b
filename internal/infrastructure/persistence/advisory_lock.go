package persistence

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/job"
)

const jobLockNamespace = "marketplace_job:"

// JobLockKey derives the advisory lock key of a job
func JobLockKey(jobID uuid.UUID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(jobLockNamespace + jobID.String()))
	return int64(h.Sum64())
}

// PgAdvisoryLocker implements job.ExecutionLocker with session-level
// PostgreSQL advisory locks. Each held lock pins its own connection.
type PgAdvisoryLocker struct {
	db *sql.DB
}

// NewPgAdvisoryLocker creates a locker on the given pool
func NewPgAdvisoryLocker(db *sql.DB) *PgAdvisoryLocker {
	return &PgAdvisoryLocker{db: db}
}

// TryAcquire takes the job's lock without waiting
func (l *PgAdvisoryLocker) TryAcquire(ctx context.Context, jobID uuid.UUID) (job.ExecutionLock, error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("advisory lock: get connection: %w", err)
	}

	key := JobLockKey(jobID)
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", key).Scan(&acquired); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("advisory lock: %w", err)
	}
	if !acquired {
		_ = conn.Close()
		return nil, job.ErrLockUnavailable
	}
	return &pgAdvisoryLock{conn: conn, key: key}, nil
}

// IsHeld probes the lock: when it can be taken it is released at once and no
// executor holds it.
func (l *PgAdvisoryLocker) IsHeld(ctx context.Context, jobID uuid.UUID) (bool, error) {
	lock, err := l.TryAcquire(ctx, jobID)
	if errors.Is(err, job.ErrLockUnavailable) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, lock.Release(ctx)
}

type pgAdvisoryLock struct {
	conn *sql.Conn
	key  int64
	once sync.Once
	err  error
}

// Release unlocks and returns the pinned connection to the pool. When the
// unlock fails the connection is discarded, which ends the session and its lock.
func (l *pgAdvisoryLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		ctx = context.WithoutCancel(ctx)
		if _, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.key); err != nil {
			l.err = fmt.Errorf("advisory unlock: %w", err)
			_ = l.conn.Raw(func(any) error { return driver.ErrBadConn })
		}
		if err := l.conn.Close(); err != nil && l.err == nil {
			l.err = err
		}
	})
	return l.err
}

var _ job.ExecutionLocker = (*PgAdvisoryLocker)(nil)

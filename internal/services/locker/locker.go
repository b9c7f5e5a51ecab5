package locker

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/repositories"
)

// ContentionError is returned when a live lock is held by someone else.
// It names the holder so the operator can decide whether --force is safe.
type ContentionError struct {
	LockID string
	Holder string
	Age    time.Duration
}

// Error returns a string representation of the contention
func (e *ContentionError) Error() string {
	return fmt.Sprintf("lock %q is held by %s (held for %s); re-run later or use --force",
		e.LockID, e.Holder, e.Age.Round(time.Second))
}

// Manager implements named mutual exclusion with owner and TTL semantics
// over durable lock records. The lock is advisory: it serializes
// well-behaved callers across processes and machines, nothing more.
type Manager struct {
	locks repositories.LockRepository
	owner string
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a lock manager for one owner identity
func NewManager(locks repositories.LockRepository, owner string, ttl time.Duration) *Manager {
	return &Manager{
		locks: locks,
		owner: owner,
		ttl:   ttl,
		now:   time.Now,
	}
}

// DefaultOwner builds an owner identity from the host, pid and a random
// suffix, so concurrent runs on one machine still contend.
func DefaultOwner() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return fmt.Sprintf("%s-%d-%s", hostname, os.Getpid(), uuid.NewString()[:8])
}

// Owner returns the manager's owner identity
func (m *Manager) Owner() string {
	return m.owner
}

// Acquire takes the named lock. An existing record is overwritten when
// it has expired, when the caller already holds it, or when force is
// set; otherwise the acquisition fails fast with a ContentionError.
// There is no wait or retry loop.
func (m *Manager) Acquire(ctx context.Context, lockID string, force bool) error {
	current, err := m.locks.Get(ctx, lockID)
	if err != nil {
		return fmt.Errorf("failed to read lock %s: %w", lockID, err)
	}

	now := m.now()
	if current != nil && !current.Expired(now) && current.Owner != m.owner && !force {
		return &ContentionError{
			LockID: lockID,
			Holder: current.Owner,
			Age:    current.Age(now),
		}
	}

	lock := &entities.Lock{
		LockID:    lockID,
		Owner:     m.owner,
		Status:    entities.LockStatusLocked,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		Metadata:  fmt.Sprintf("pid=%d", os.Getpid()),
	}
	if err := m.locks.Put(ctx, lock); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", lockID, err)
	}
	return nil
}

// Release drops the named lock. A missing record is a no-op; a record
// held by someone else is an error, since releasing a foreign lock would
// break the exclusion it provides.
func (m *Manager) Release(ctx context.Context, lockID string) error {
	current, err := m.locks.Get(ctx, lockID)
	if err != nil {
		return fmt.Errorf("failed to read lock %s: %w", lockID, err)
	}
	if current == nil {
		return nil
	}
	if current.Owner != "" && current.Owner != m.owner {
		return fmt.Errorf("cannot release lock %q held by %s", lockID, current.Owner)
	}
	if err := m.locks.Delete(ctx, lockID); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lockID, err)
	}
	return nil
}

// WithLock runs fn under the named lock, releasing on every exit path.
func (m *Manager) WithLock(ctx context.Context, lockID string, force bool, fn func(ctx context.Context) error) (err error) {
	if err := m.Acquire(ctx, lockID, force); err != nil {
		return err
	}
	defer func() {
		if releaseErr := m.Release(ctx, lockID); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	return fn(ctx)
}

// Active returns all current lock records (expired ones included, so
// status output can show them as stale).
func (m *Manager) Active(ctx context.Context) ([]*entities.Lock, error) {
	return m.locks.List(ctx)
}

// ReleaseStale deletes the lock records the caller may safely clear:
// its own records and any record past its expiry. A live lock held by
// someone else stays. The lock named by keep is skipped so a sweep can
// run under it. Returns how many records were deleted.
func (m *Manager) ReleaseStale(ctx context.Context, keep string) (int, error) {
	locks, err := m.locks.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list locks: %w", err)
	}

	now := m.now()
	released := 0
	for _, lock := range locks {
		if lock.LockID == keep {
			continue
		}
		if lock.Owner != m.owner && !lock.Expired(now) {
			continue
		}
		if err := m.locks.Delete(ctx, lock.LockID); err != nil {
			return released, fmt.Errorf("failed to release stale lock %s: %w", lock.LockID, err)
		}
		released++
	}
	return released, nil
}

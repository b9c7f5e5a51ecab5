package locker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// memoryLockRepository is an in-memory LockRepository for tests
type memoryLockRepository struct {
	mu    sync.Mutex
	locks map[string]*entities.Lock
}

func newMemoryLockRepository() *memoryLockRepository {
	return &memoryLockRepository{locks: make(map[string]*entities.Lock)}
}

func (r *memoryLockRepository) Get(ctx context.Context, lockID string) (*entities.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.locks[lockID]
	if !ok {
		return nil, nil
	}
	copied := *lock
	return &copied, nil
}

func (r *memoryLockRepository) Put(ctx context.Context, lock *entities.Lock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *lock
	r.locks[lock.LockID] = &copied
	return nil
}

func (r *memoryLockRepository) Delete(ctx context.Context, lockID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, lockID)
	return nil
}

func (r *memoryLockRepository) List(ctx context.Context) ([]*entities.Lock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var locks []*entities.Lock
	for _, lock := range r.locks {
		copied := *lock
		locks = append(locks, &copied)
	}
	return locks, nil
}

func newTestManager(repo *memoryLockRepository, owner string) *Manager {
	return NewManager(repo, owner, 10*time.Minute)
}

func TestManager_AcquireReleaseRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")

	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := a.Release(ctx, "apply"); err != nil {
		t.Fatalf("release failed: %v", err)
	}

	if lock, _ := repo.Get(ctx, "apply"); lock != nil {
		t.Error("expected no lock record after release")
	}

	// A different owner can acquire afterward.
	b := newTestManager(repo, "owner-b")
	if err := b.Acquire(ctx, "apply", false); err != nil {
		t.Errorf("expected acquire by second owner to succeed, got %v", err)
	}
}

func TestManager_Contention(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")
	b := newTestManager(repo, "owner-b")

	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	err := b.Acquire(ctx, "apply", false)
	if err == nil {
		t.Fatal("expected contention error")
	}
	var contention *ContentionError
	if !errors.As(err, &contention) {
		t.Fatalf("expected ContentionError, got %T: %v", err, err)
	}
	if contention.Holder != "owner-a" {
		t.Errorf("expected holder owner-a, got %s", contention.Holder)
	}
}

func TestManager_ForceTransfersOwnership(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")
	b := newTestManager(repo, "owner-b")

	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := b.Acquire(ctx, "apply", true); err != nil {
		t.Fatalf("forced acquire failed: %v", err)
	}

	lock, _ := repo.Get(ctx, "apply")
	if lock == nil || lock.Owner != "owner-b" {
		t.Errorf("expected ownership transferred to owner-b, got %+v", lock)
	}
}

func TestManager_Reentrant(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")

	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Errorf("expected self-reacquire to succeed, got %v", err)
	}
}

func TestManager_ExpiredLockIsTakeable(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")
	a.now = func() time.Time { return time.Now().Add(-time.Hour) }

	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	b := newTestManager(repo, "owner-b")
	if err := b.Acquire(ctx, "apply", false); err != nil {
		t.Errorf("expected expired lock to be takeable, got %v", err)
	}
}

func TestManager_CannotReleaseForeignLock(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")
	b := newTestManager(repo, "owner-b")

	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := b.Release(ctx, "apply"); err == nil {
		t.Error("expected error releasing someone else's lock")
	}

	// Releasing an absent lock is a no-op.
	if err := b.Release(ctx, "missing"); err != nil {
		t.Errorf("expected no-op release, got %v", err)
	}
}

func TestManager_ReleaseStale(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")
	b := newTestManager(repo, "owner-b")

	// owner-a's own live lock, owner-b's expired lock, owner-b's live
	// lock, and a lock the sweep must skip.
	if err := a.Acquire(ctx, "apply", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	stale := newTestManager(repo, "owner-b")
	stale.now = func() time.Time { return time.Now().Add(-time.Hour) }
	if err := stale.Acquire(ctx, "relationships", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := b.Acquire(ctx, "rollback", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if err := a.Acquire(ctx, "reset", false); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	released, err := a.ReleaseStale(ctx, "reset")
	if err != nil {
		t.Fatalf("release stale failed: %v", err)
	}
	if released != 2 {
		t.Errorf("expected 2 released locks, got %d", released)
	}

	for lockID, want := range map[string]bool{
		"apply":         false, // own
		"relationships": false, // expired
		"rollback":      true,  // live, foreign
		"reset":         true,  // kept
	} {
		lock, _ := repo.Get(ctx, lockID)
		if (lock != nil) != want {
			t.Errorf("lock %s: present=%v, want %v", lockID, lock != nil, want)
		}
	}
}

func TestManager_WithLockReleasesOnError(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryLockRepository()
	a := newTestManager(repo, "owner-a")

	wantErr := errors.New("boom")
	err := a.WithLock(ctx, "apply", false, func(ctx context.Context) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped fn error, got %v", err)
	}

	if lock, _ := repo.Get(ctx, "apply"); lock != nil {
		t.Error("expected lock released after fn error")
	}
}

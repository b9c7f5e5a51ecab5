package repositories

import (
	"context"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// LockRepository defines the interface for durable lock records
type LockRepository interface {
	// Get returns the lock record for a lock id, or nil when absent
	Get(ctx context.Context, lockID string) (*entities.Lock, error)

	// Put creates the lock record, or overwrites an existing one
	Put(ctx context.Context, lock *entities.Lock) error

	// Delete removes the lock record; a missing record is not an error
	Delete(ctx context.Context, lockID string) error

	// List returns all current lock records
	List(ctx context.Context) ([]*entities.Lock, error)
}

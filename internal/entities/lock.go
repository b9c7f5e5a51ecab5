package entities

import "time"

// LockStatus is the state of a lock record. Only one value exists today;
// the field is stored so the layout can grow without a data migration.
type LockStatus string

const LockStatusLocked LockStatus = "locked"

// Lock is a durable mutual-exclusion record guarding a mutating operation
type Lock struct {
	DocumentID string // Remote document id, set by the store
	LockID     string // Operation-scoped lock name
	Owner      string // Identity of the holder
	Status     LockStatus
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Metadata   string // Free-form holder context (hostname, pid)
}

// Expired reports whether the lock has passed its expiry at the given time
func (l *Lock) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Age returns how long the lock has been held at the given time
func (l *Lock) Age(now time.Time) time.Duration {
	return now.Sub(l.CreatedAt)
}

package migrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
	"github.com/hokkyo/dsmigrate/internal/repositories"
	"github.com/hokkyo/dsmigrate/internal/services/locker"
	"github.com/hokkyo/dsmigrate/pkg/reporter"
)

// Lock names, one per mutating operation kind
const (
	LockApply         = "apply"
	LockRelationships = "relationships"
	LockRollback      = "rollback"
	LockReset         = "reset"
)

// Executor applies change sets through the remote schema repository,
// records history, and guards every mutating run with a lock.
type Executor struct {
	schemas    repositories.SchemaRepository
	history    repositories.HistoryRepository
	locks      *locker.Manager
	reporter   reporter.Reporter
	databaseID string
}

// NewExecutor creates a new Executor
func NewExecutor(
	schemas repositories.SchemaRepository,
	history repositories.HistoryRepository,
	locks *locker.Manager,
	rep reporter.Reporter,
	databaseID string,
) *Executor {
	return &Executor{
		schemas:    schemas,
		history:    history,
		locks:      locks,
		reporter:   rep,
		databaseID: databaseID,
	}
}

// Apply runs the phase-1 change set under the apply lock and records a
// history entry when work was done. Re-running an already-applied change
// set is a no-op: every already-exists answer counts as success.
func (e *Executor) Apply(ctx context.Context, cs *entities.ChangeSet, force bool) error {
	if cs.Empty() {
		e.reporter.Success("schema is up to date, nothing to apply")
		return nil
	}

	return e.locks.WithLock(ctx, LockApply, force, func(ctx context.Context) error {
		if err := e.applyChangeSet(ctx, cs, force); err != nil {
			return err
		}
		return e.recordApply(ctx, cs)
	})
}

// applyChangeSet creates entities in dependency order: collections
// first, then attributes, then indexes.
func (e *Executor) applyChangeSet(ctx context.Context, cs *entities.ChangeSet, force bool) error {
	for _, change := range cs.Collections {
		err := e.schemas.CreateCollection(ctx, change.CollectionID, change.Name)
		if err := e.recoverCreate(err, force, "collection %s", change.CollectionID); err != nil {
			return err
		}
	}

	for _, change := range cs.Attributes {
		err := e.schemas.CreateAttribute(ctx, change.CollectionID, change.Attribute)
		if errors.Is(err, repositories.ErrUnknownAttributeType) {
			// Cannot guess intent; not downgraded even under force.
			return err
		}
		if err := e.recoverCreate(err, force, "attribute %s.%s", change.CollectionID, change.Attribute.Key); err != nil {
			return err
		}
	}

	for _, change := range cs.Indexes {
		err := e.schemas.CreateIndex(ctx, change.CollectionID, change.Index)
		if err := e.recoverCreate(err, force, "index %s.%s", change.CollectionID, change.Key); err != nil {
			return err
		}
	}
	return nil
}

// recoverCreate implements the idempotency policy for one creation: conflicts
// are success, other failures abort the run unless force downgrades them
// to warnings.
func (e *Executor) recoverCreate(err error, force bool, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	switch {
	case err == nil:
		e.reporter.Success("created %s", what)
		return nil
	case docstore.IsConflict(err):
		e.reporter.Info("%s already exists, skipping", what)
		return nil
	case force:
		e.reporter.Warn("failed to create %s: %v (continuing under --force)", what, err)
		return nil
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}

func (e *Executor) recordApply(ctx context.Context, cs *entities.ChangeSet) error {
	checksum, err := cs.Checksum()
	if err != nil {
		return err
	}
	record := &entities.HistoryRecord{
		Type:       entities.RecordApply,
		RecordID:   uuid.NewString(),
		DatabaseID: e.databaseID,
		Checksum:   checksum,
		Changes:    cs.Compact(),
		Status:     entities.StatusApplied,
	}
	if err := e.history.Create(ctx, record); err != nil {
		return fmt.Errorf("changes applied but history recording failed: %w", err)
	}
	e.reporter.Success("applied %s", cs.Summary())
	return nil
}

// ApplyRelationships runs the phase-2 relationship list under its own
// lock, with the same idempotency and history contract as Apply.
// A relationship whose target collection is still missing fails at the
// remote boundary and is surfaced, not dropped.
func (e *Executor) ApplyRelationships(ctx context.Context, pending []entities.RelationshipCreate, force bool) error {
	if len(pending) == 0 {
		e.reporter.Success("relationships are up to date")
		return nil
	}

	return e.locks.WithLock(ctx, LockRelationships, force, func(ctx context.Context) error {
		for _, change := range pending {
			err := e.schemas.CreateRelationship(ctx, change.CollectionID, change.Key, change.Relationship)
			if err := e.recoverCreate(err, force, "relationship %s.%s", change.CollectionID, change.Key); err != nil {
				return err
			}
		}
		return e.recordRelationships(ctx, pending)
	})
}

func (e *Executor) recordRelationships(ctx context.Context, pending []entities.RelationshipCreate) error {
	checksum, err := entities.ChecksumRelationships(pending)
	if err != nil {
		return err
	}
	record := &entities.HistoryRecord{
		Type:       entities.RecordRelationships,
		RecordID:   uuid.NewString(),
		DatabaseID: e.databaseID,
		Checksum:   checksum,
		Status:     entities.StatusApplied,
	}
	if err := e.history.Create(ctx, record); err != nil {
		return fmt.Errorf("relationships applied but history recording failed: %w", err)
	}
	e.reporter.Success("applied %d relationship(s)", len(pending))
	return nil
}

// Reset clears all history records under the reset lock and sweeps out
// the lock records the caller may safely clear: its own and any expired
// ones. A live lock held by someone else is left alone.
func (e *Executor) Reset(ctx context.Context, force bool) error {
	return e.locks.WithLock(ctx, LockReset, force, func(ctx context.Context) error {
		if err := e.history.Clear(ctx); err != nil {
			return err
		}
		released, err := e.locks.ReleaseStale(ctx, LockReset)
		if err != nil {
			return err
		}
		if released > 0 {
			e.reporter.Info("released %d stale lock record(s)", released)
		}
		e.reporter.Success("migration history cleared")
		return nil
	})
}

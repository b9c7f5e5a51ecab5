package migrator

import (
	"context"
	"fmt"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
)

// Rollback reverses the most recent applied run. Deletion happens in
// the exact inverse of creation order: indexes, then attributes, then
// collections, each list walked back to front. Every not-found answer
// counts as success so a partially applied or already-reversed run can
// be rolled back again safely. The history record's status flips to
// rolled_back; the record itself stays for the audit trail.
func (e *Executor) Rollback(ctx context.Context, force bool) error {
	return e.locks.WithLock(ctx, LockRollback, force, func(ctx context.Context) error {
		record, err := e.history.GetLatestApplied(ctx)
		if err != nil {
			return err
		}
		if record == nil {
			e.reporter.Info("no applied migration found, nothing to roll back")
			return nil
		}
		if record.Type != entities.RecordApply {
			e.reporter.Info("latest applied record is a %s run, nothing to roll back", record.Type)
			return nil
		}

		if record.Changes != nil {
			if err := e.reverseChanges(ctx, record.Changes, force); err != nil {
				return err
			}
		}
		if err := e.history.UpdateStatus(ctx, record, entities.StatusRolledBack); err != nil {
			return fmt.Errorf("rollback finished but status update failed: %w", err)
		}
		e.reporter.Success("rolled back migration %s", record.RecordID)
		return nil
	})
}

func (e *Executor) reverseChanges(ctx context.Context, changes *entities.ChangeRecord, force bool) error {
	for i := len(changes.Indexes) - 1; i >= 0; i-- {
		collectionID, key, err := entities.SplitChangeRef(changes.Indexes[i])
		if err != nil {
			return err
		}
		err = e.schemas.DeleteIndex(ctx, collectionID, key)
		if err := e.recoverDelete(err, force, "index %s.%s", collectionID, key); err != nil {
			return err
		}
	}

	for i := len(changes.Attributes) - 1; i >= 0; i-- {
		collectionID, key, err := entities.SplitChangeRef(changes.Attributes[i])
		if err != nil {
			return err
		}
		err = e.schemas.DeleteAttribute(ctx, collectionID, key)
		if err := e.recoverDelete(err, force, "attribute %s.%s", collectionID, key); err != nil {
			return err
		}
	}

	for i := len(changes.Collections) - 1; i >= 0; i-- {
		collectionID := changes.Collections[i]
		err := e.schemas.DeleteCollection(ctx, collectionID)
		if err := e.recoverDelete(err, force, "collection %s", collectionID); err != nil {
			return err
		}
	}
	return nil
}

// recoverDelete is the deletion counterpart of recoverCreate: not-found is
// success, everything else aborts unless force downgrades it.
func (e *Executor) recoverDelete(err error, force bool, format string, args ...interface{}) error {
	what := fmt.Sprintf(format, args...)
	switch {
	case err == nil:
		e.reporter.Success("deleted %s", what)
		return nil
	case docstore.IsNotFound(err):
		e.reporter.Info("%s already gone, skipping", what)
		return nil
	case force:
		e.reporter.Warn("failed to delete %s: %v (continuing under --force)", what, err)
		return nil
	}
	return fmt.Errorf("failed to delete %s: %w", what, err)
}

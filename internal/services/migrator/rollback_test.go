package migrator

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

func TestExecutor_Rollback(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	if err := h.exec.Apply(ctx, pendingChanges(t, h), false); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	h.schemas.calls = nil
	if err := h.exec.Rollback(ctx, false); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	if len(h.schemas.collections) != 0 {
		t.Errorf("expected all collections deleted, got %d left", len(h.schemas.collections))
	}

	// Deletion order is the exact inverse of creation order: indexes,
	// then attributes, then collections, each list back to front.
	want := []string{
		"delete index users.idx_email",
		"delete attribute users.email",
		"delete attribute users.age",
		"delete attribute posts.title",
		"delete collection users",
		"delete collection posts",
	}
	if diff := cmp.Diff(want, h.schemas.calls); diff != "" {
		t.Errorf("unexpected deletion order (-want +got):\n%s", diff)
	}

	records, _ := h.history.List(ctx)
	if len(records) != 1 {
		t.Fatalf("expected the history record to survive rollback, got %d", len(records))
	}
	if records[0].Status != entities.StatusRolledBack {
		t.Errorf("expected status rolled_back, got %s", records[0].Status)
	}

	if lock, _ := h.locks.Get(ctx, LockRollback); lock != nil {
		t.Error("expected rollback lock released after run")
	}
}

func TestExecutor_Rollback_NothingApplied(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	if err := h.exec.Rollback(ctx, false); err != nil {
		t.Fatalf("expected rollback with empty history to succeed, got %v", err)
	}
	if len(h.schemas.calls) != 0 {
		t.Errorf("expected no remote calls, got %v", h.schemas.calls)
	}
}

func TestExecutor_Rollback_ToleratesMissingEntities(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	if err := h.exec.Apply(ctx, pendingChanges(t, h), false); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	// Someone deleted a collection out of band; the rollback still
	// converges because not-found answers count as success.
	delete(h.schemas.collections, "users")

	if err := h.exec.Rollback(ctx, false); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if len(h.schemas.collections) != 0 {
		t.Errorf("expected all collections deleted, got %d left", len(h.schemas.collections))
	}
}

func TestExecutor_Rollback_Repeatable(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	if err := h.exec.Apply(ctx, pendingChanges(t, h), false); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := h.exec.Rollback(ctx, false); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}

	// The only record is now rolled_back, so a second rollback finds
	// nothing applied and does no remote work.
	h.schemas.calls = nil
	if err := h.exec.Rollback(ctx, false); err != nil {
		t.Fatalf("second rollback failed: %v", err)
	}
	if len(h.schemas.calls) != 0 {
		t.Errorf("expected no remote calls on second rollback, got %v", h.schemas.calls)
	}
}

func TestExecutor_Rollback_SkipsRelationshipRuns(t *testing.T) {
	ctx := context.Background()
	h := newTestHarness()

	if err := h.exec.Apply(ctx, pendingChanges(t, h), false); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := h.exec.ApplyRelationships(ctx, pendingRelationships(t, h), false); err != nil {
		t.Fatalf("relationships apply failed: %v", err)
	}

	// The latest applied record is the relationship run; there is no
	// reversal for it, so the rollback is a reported no-op.
	h.schemas.calls = nil
	if err := h.exec.Rollback(ctx, false); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if len(h.schemas.calls) != 0 {
		t.Errorf("expected no remote calls, got %v", h.schemas.calls)
	}
	records, _ := h.history.List(ctx)
	for _, record := range records {
		if record.Status != entities.StatusApplied {
			t.Errorf("expected record %s to stay applied, got %s", record.RecordID, record.Status)
		}
	}
}

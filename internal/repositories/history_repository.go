package repositories

import (
	"context"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// HistoryRepository defines the interface for durable migration history
type HistoryRepository interface {
	// Create persists a new history record
	Create(ctx context.Context, record *entities.HistoryRecord) error

	// GetLatestApplied returns the most recent record with status applied,
	// or nil when no applied record exists
	GetLatestApplied(ctx context.Context) (*entities.HistoryRecord, error)

	// UpdateStatus flips a record's status. Records are never deleted by
	// rollback; the history is an append/flip-only audit trail.
	UpdateStatus(ctx context.Context, record *entities.HistoryRecord, status entities.RecordStatus) error

	// List returns all history records, newest first
	List(ctx context.Context) ([]*entities.HistoryRecord, error)

	// Clear deletes all history records (reset)
	Clear(ctx context.Context) error
}

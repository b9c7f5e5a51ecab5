package docstore

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
	"github.com/hokkyo/dsmigrate/internal/repositories"
)

// DocstoreHistoryRepository implements HistoryRepository on top of the
// internal state collection.
type DocstoreHistoryRepository struct {
	client    *docstore.Client
	bootstrap sync.Once
	bootErr   error
}

// NewDocstoreHistoryRepository creates a new document-store history repository
func NewDocstoreHistoryRepository(client *docstore.Client) repositories.HistoryRepository {
	return &DocstoreHistoryRepository{client: client}
}

func (r *DocstoreHistoryRepository) ensure(ctx context.Context) error {
	r.bootstrap.Do(func() {
		r.bootErr = ensureStateCollection(ctx, r.client)
	})
	return r.bootErr
}

// recordDocumentID derives the document id from the record identity
// (type, record id), so retried writes of the same run collide instead
// of duplicating.
func recordDocumentID(recordType entities.RecordType, recordID string) string {
	sum := md5.Sum([]byte(string(recordType) + ":" + recordID))
	return hex.EncodeToString(sum[:])
}

// Create persists a new history record
func (r *DocstoreHistoryRepository) Create(ctx context.Context, record *entities.HistoryRecord) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	payload, err := record.MarshalChanges()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	record.CreatedAt = now
	record.UpdatedAt = now
	record.DocumentID = recordDocumentID(record.Type, record.RecordID)

	data := map[string]interface{}{
		"record_type": string(record.Type),
		"record_id":   record.RecordID,
		"status":      string(record.Status),
		"payload":     payload,
		"checksum":    record.Checksum,
		"database_id": record.DatabaseID,
		"created_at":  now.Format(time.RFC3339),
		"updated_at":  now.Format(time.RFC3339),
	}
	if _, err := r.client.CreateDocument(ctx, stateCollectionID, record.DocumentID, data); err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

// GetLatestApplied returns the most recent record with status applied
func (r *DocstoreHistoryRepository) GetLatestApplied(ctx context.Context) (*entities.HistoryRecord, error) {
	records, err := r.list(ctx, map[string]string{"status": string(entities.StatusApplied)})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// UpdateStatus flips a record's status
func (r *DocstoreHistoryRepository) UpdateStatus(ctx context.Context, record *entities.HistoryRecord, status entities.RecordStatus) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	data := map[string]interface{}{
		"status":     string(status),
		"updated_at": now.Format(time.RFC3339),
	}
	if _, err := r.client.UpdateDocument(ctx, stateCollectionID, record.DocumentID, data); err != nil {
		return fmt.Errorf("failed to update history record %s: %w", record.DocumentID, err)
	}
	record.Status = status
	record.UpdatedAt = now
	return nil
}

// List returns all history records, newest first
func (r *DocstoreHistoryRepository) List(ctx context.Context) ([]*entities.HistoryRecord, error) {
	return r.list(ctx, nil)
}

func (r *DocstoreHistoryRepository) list(ctx context.Context, filters map[string]string) ([]*entities.HistoryRecord, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	docs, err := r.client.ListDocuments(ctx, stateCollectionID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}

	records := make([]*entities.HistoryRecord, 0, len(docs))
	for _, doc := range docs {
		record, err := documentToRecord(doc)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// Clear deletes all history records
func (r *DocstoreHistoryRepository) Clear(ctx context.Context) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	docs, err := r.client.ListDocuments(ctx, stateCollectionID, nil)
	if err != nil {
		return fmt.Errorf("failed to list history records: %w", err)
	}
	for _, doc := range docs {
		if err := r.client.DeleteDocument(ctx, stateCollectionID, doc.ID); err != nil && !docstore.IsNotFound(err) {
			return fmt.Errorf("failed to delete history record %s: %w", doc.ID, err)
		}
	}
	return nil
}

func documentToRecord(doc docstore.Document) (*entities.HistoryRecord, error) {
	record := &entities.HistoryRecord{
		DocumentID: doc.ID,
		Type:       entities.RecordType(stringField(doc, "record_type")),
		RecordID:   stringField(doc, "record_id"),
		DatabaseID: stringField(doc, "database_id"),
		Checksum:   stringField(doc, "checksum"),
		Status:     entities.RecordStatus(stringField(doc, "status")),
		CreatedAt:  timeField(doc, "created_at", doc.CreatedAt),
		UpdatedAt:  timeField(doc, "updated_at", doc.UpdatedAt),
	}
	if err := record.UnmarshalChanges(stringField(doc, "payload")); err != nil {
		return nil, fmt.Errorf("history record %s: %w", doc.ID, err)
	}
	return record, nil
}

func stringField(doc docstore.Document, key string) string {
	if v, ok := doc.Data[key].(string); ok {
		return v
	}
	return ""
}

func timeField(doc docstore.Document, key string, fallback time.Time) time.Time {
	if v, ok := doc.Data[key].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return fallback
}

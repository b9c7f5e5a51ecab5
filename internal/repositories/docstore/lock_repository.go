package docstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
	"github.com/hokkyo/dsmigrate/internal/repositories"
)

// DocstoreLockRepository implements LockRepository on top of the
// internal lock collection. The lock id doubles as the document id, so
// the collection's uniqueness constraint guarantees at most one record
// per lock.
type DocstoreLockRepository struct {
	client    *docstore.Client
	bootstrap sync.Once
	bootErr   error
}

// NewDocstoreLockRepository creates a new document-store lock repository
func NewDocstoreLockRepository(client *docstore.Client) repositories.LockRepository {
	return &DocstoreLockRepository{client: client}
}

func (r *DocstoreLockRepository) ensure(ctx context.Context) error {
	r.bootstrap.Do(func() {
		r.bootErr = ensureLockCollection(ctx, r.client)
	})
	return r.bootErr
}

// Get returns the lock record for a lock id, or nil when absent
func (r *DocstoreLockRepository) Get(ctx context.Context, lockID string) (*entities.Lock, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	doc, err := r.client.GetDocument(ctx, lockCollectionID, lockID)
	if err != nil {
		if docstore.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get lock %s: %w", lockID, err)
	}
	return documentToLock(*doc), nil
}

// Put creates the lock record, or overwrites an existing one
func (r *DocstoreLockRepository) Put(ctx context.Context, lock *entities.Lock) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	lock.DocumentID = lock.LockID
	data := map[string]interface{}{
		"lock_id":    lock.LockID,
		"owner":      lock.Owner,
		"status":     string(lock.Status),
		"created_at": lock.CreatedAt.UTC().Format(time.RFC3339),
		"expires_at": lock.ExpiresAt.UTC().Format(time.RFC3339),
		"metadata":   lock.Metadata,
	}

	_, err := r.client.CreateDocument(ctx, lockCollectionID, lock.DocumentID, data)
	if docstore.IsConflict(err) {
		_, err = r.client.UpdateDocument(ctx, lockCollectionID, lock.DocumentID, data)
	}
	if err != nil {
		return fmt.Errorf("failed to store lock %s: %w", lock.LockID, err)
	}
	return nil
}

// Delete removes the lock record; a missing record is not an error
func (r *DocstoreLockRepository) Delete(ctx context.Context, lockID string) error {
	if err := r.ensure(ctx); err != nil {
		return err
	}

	if err := r.client.DeleteDocument(ctx, lockCollectionID, lockID); err != nil && !docstore.IsNotFound(err) {
		return fmt.Errorf("failed to delete lock %s: %w", lockID, err)
	}
	return nil
}

// List returns all current lock records
func (r *DocstoreLockRepository) List(ctx context.Context) ([]*entities.Lock, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}

	docs, err := r.client.ListDocuments(ctx, lockCollectionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list locks: %w", err)
	}
	locks := make([]*entities.Lock, 0, len(docs))
	for _, doc := range docs {
		locks = append(locks, documentToLock(doc))
	}
	return locks, nil
}

func documentToLock(doc docstore.Document) *entities.Lock {
	return &entities.Lock{
		DocumentID: doc.ID,
		LockID:     stringField(doc, "lock_id"),
		Owner:      stringField(doc, "owner"),
		Status:     entities.LockStatus(stringField(doc, "status")),
		CreatedAt:  timeField(doc, "created_at", doc.CreatedAt),
		ExpiresAt:  timeField(doc, "expires_at", doc.UpdatedAt),
		Metadata:   stringField(doc, "metadata"),
	}
}

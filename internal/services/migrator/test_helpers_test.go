package migrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
	"github.com/hokkyo/dsmigrate/internal/repositories"
	"github.com/hokkyo/dsmigrate/internal/services/locker"
	"github.com/hokkyo/dsmigrate/pkg/reporter"
)

// conflictErr mimics the client's already-exists classification
func conflictErr() error {
	return fmt.Errorf("create: %w", &docstore.APIError{StatusCode: 409, Message: "already exists"})
}

// notFoundErr mimics the client's missing-resource classification
func notFoundErr() error {
	return fmt.Errorf("delete: %w", &docstore.APIError{StatusCode: 404, Message: "not found"})
}

// fakeSchemaRepository records remote schema mutations in memory and
// simulates the service's conflict / not-found answers.
type fakeSchemaRepository struct {
	mu          sync.Mutex
	collections map[string]*entities.RemoteCollection
	calls       []string
	failOn      map[string]error // call signature -> injected error
}

func newFakeSchemaRepository() *fakeSchemaRepository {
	return &fakeSchemaRepository{
		collections: make(map[string]*entities.RemoteCollection),
		failOn:      make(map[string]error),
	}
}

func (f *fakeSchemaRepository) record(call string) error {
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeSchemaRepository) Describe(ctx context.Context) (entities.RemoteState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state := make(entities.RemoteState, len(f.collections))
	for id, coll := range f.collections {
		state[id] = coll
	}
	return state, nil
}

func (f *fakeSchemaRepository) CreateCollection(ctx context.Context, collectionID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create collection " + collectionID); err != nil {
		return err
	}
	if _, exists := f.collections[collectionID]; exists {
		return conflictErr()
	}
	f.collections[collectionID] = &entities.RemoteCollection{
		ID:         collectionID,
		Name:       name,
		Attributes: make(map[string]entities.RemoteAttribute),
		Indexes:    make(map[string]entities.RemoteIndex),
	}
	return nil
}

func (f *fakeSchemaRepository) CreateAttribute(ctx context.Context, collectionID string, attr *entities.Attribute) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create attribute " + collectionID + "." + attr.Key); err != nil {
		return err
	}
	if err := attr.Validate(); err != nil {
		return fmt.Errorf("%s: %w", attr.Key, repositories.ErrUnknownAttributeType)
	}
	coll, exists := f.collections[collectionID]
	if !exists {
		return notFoundErr()
	}
	if _, exists := coll.Attributes[attr.Key]; exists {
		return conflictErr()
	}
	coll.Attributes[attr.Key] = entities.RemoteAttribute{Key: attr.Key, Type: string(attr.Type), Array: attr.Array}
	return nil
}

func (f *fakeSchemaRepository) CreateRelationship(ctx context.Context, collectionID, key string, rel *entities.Relationship) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("create relationship " + collectionID + "." + key); err != nil {
		return err
	}
	target := entities.KebabCase(rel.ToCollection)
	if _, exists := f.collections[target]; !exists {
		return notFoundErr()
	}
	coll, exists := f.collections[collectionID]
	if !exists {
		return notFoundErr()
	}
	if coll.HasRelationship(key) {
		return conflictErr()
	}
	coll.Attributes[key] = entities.RemoteAttribute{Key: key, Type: entities.TypeRelationship}
	return nil
}

func (f *fakeSchemaRepository) CreateIndex(ctx context.Context, collectionID string, index *entities.Index) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := index.EffectiveKey()
	if err := f.record("create index " + collectionID + "." + key); err != nil {
		return err
	}
	coll, exists := f.collections[collectionID]
	if !exists {
		return notFoundErr()
	}
	if _, exists := coll.Indexes[key]; exists {
		return conflictErr()
	}
	coll.Indexes[key] = entities.RemoteIndex{Key: key, Type: string(index.Type)}
	return nil
}

func (f *fakeSchemaRepository) DeleteCollection(ctx context.Context, collectionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete collection " + collectionID); err != nil {
		return err
	}
	if _, exists := f.collections[collectionID]; !exists {
		return notFoundErr()
	}
	delete(f.collections, collectionID)
	return nil
}

func (f *fakeSchemaRepository) DeleteAttribute(ctx context.Context, collectionID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete attribute " + collectionID + "." + key); err != nil {
		return err
	}
	coll, exists := f.collections[collectionID]
	if !exists {
		return notFoundErr()
	}
	if _, exists := coll.Attributes[key]; !exists {
		return notFoundErr()
	}
	delete(coll.Attributes, key)
	return nil
}

func (f *fakeSchemaRepository) DeleteIndex(ctx context.Context, collectionID, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record("delete index " + collectionID + "." + key); err != nil {
		return err
	}
	coll, exists := f.collections[collectionID]
	if !exists {
		return notFoundErr()
	}
	if _, exists := coll.Indexes[key]; !exists {
		return notFoundErr()
	}
	delete(coll.Indexes, key)
	return nil
}

// memoryHistoryRepository is an in-memory HistoryRepository for tests
type memoryHistoryRepository struct {
	mu      sync.Mutex
	records []*entities.HistoryRecord
}

func (r *memoryHistoryRepository) Create(ctx context.Context, record *entities.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt
	record.DocumentID = fmt.Sprintf("doc-%d", len(r.records))
	copied := *record
	r.records = append(r.records, &copied)
	return nil
}

func (r *memoryHistoryRepository) GetLatestApplied(ctx context.Context) (*entities.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].Status == entities.StatusApplied {
			copied := *r.records[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryHistoryRepository) UpdateStatus(ctx context.Context, record *entities.HistoryRecord, status entities.RecordStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.records {
		if stored.DocumentID == record.DocumentID {
			stored.Status = status
			stored.UpdatedAt = time.Now()
			record.Status = status
			return nil
		}
	}
	return fmt.Errorf("history record %s not found", record.DocumentID)
}

func (r *memoryHistoryRepository) List(ctx context.Context) ([]*entities.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records := make([]*entities.HistoryRecord, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0; i-- {
		copied := *r.records[i]
		records = append(records, &copied)
	}
	return records, nil
}

func (r *memoryHistoryRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = nil
	return nil
}

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

// testHarness bundles an executor with its fakes
type testHarness struct {
	schemas *fakeSchemaRepository
	history *memoryHistoryRepository
	locks   *memoryLockRepository
	exec    *Executor
}

func newTestHarness() *testHarness {
	schemas := newFakeSchemaRepository()
	history := &memoryHistoryRepository{}
	locks := newMemoryLockRepository()
	manager := locker.NewManager(locks, "test-owner", 10*time.Minute)
	return &testHarness{
		schemas: schemas,
		history: history,
		locks:   locks,
		exec:    NewExecutor(schemas, history, manager, reporter.Silent, "main"),
	}
}

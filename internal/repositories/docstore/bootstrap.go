package docstore

import (
	"context"
	"fmt"

	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
)

// Internal collection layout. Both collections live inside the managed
// database itself so no local state survives outside it.
const (
	stateCollectionID = internalPrefix + "state"
	lockCollectionID  = internalPrefix + "locks"
)

// ensureCollection creates an internal collection with the given string
// attributes and a unique index, treating every already-exists answer as
// success. Bootstrap is lazy and idempotent: it runs in front of the
// first history or lock operation and is safe to repeat.
func ensureCollection(ctx context.Context, client *docstore.Client, collectionID, name string, fields []string, uniqueKey string, uniqueFields []string) error {
	if err := client.CreateCollection(ctx, collectionID, name); err != nil && !docstore.IsConflict(err) {
		return fmt.Errorf("failed to create internal collection %s: %w", collectionID, err)
	}

	for _, field := range fields {
		params := docstore.AttributeParams{Key: field, Size: 1024}
		if field == "payload" {
			// Compacted change sets can grow with large schemas.
			params.Size = 65535
		}
		if err := client.CreateStringAttribute(ctx, collectionID, params); err != nil && !docstore.IsConflict(err) {
			return fmt.Errorf("failed to create internal attribute %s.%s: %w", collectionID, field, err)
		}
	}

	err := client.EnsureIndex(ctx, collectionID, docstore.IndexParams{
		Key:        uniqueKey,
		Type:       "unique",
		Attributes: uniqueFields,
	})
	if err != nil && !docstore.IsConflict(err) {
		return fmt.Errorf("failed to create internal index %s.%s: %w", collectionID, uniqueKey, err)
	}
	return nil
}

func ensureStateCollection(ctx context.Context, client *docstore.Client) error {
	return ensureCollection(ctx, client, stateCollectionID, "Migration State",
		[]string{"record_type", "record_id", "status", "payload", "checksum", "database_id", "created_at", "updated_at"},
		"uniq_record", []string{"record_type", "record_id"})
}

func ensureLockCollection(ctx context.Context, client *docstore.Client) error {
	return ensureCollection(ctx, client, lockCollectionID, "Migration Locks",
		[]string{"lock_id", "owner", "status", "created_at", "expires_at", "metadata"},
		"uniq_lock", []string{"lock_id"})
}

package repositories

import (
	"context"
	"errors"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// ErrUnknownAttributeType marks an attribute whose declared type has no
// remote creation operation. This is a configuration error: the engine
// must not guess, and --force does not downgrade it.
var ErrUnknownAttributeType = errors.New("unknown attribute type")

// SchemaRepository defines the remote schema operations the migration
// engine needs: observing current state, and creating or deleting
// collections, attributes and indexes.
type SchemaRepository interface {
	// Describe reads the current remote state of all managed collections
	Describe(ctx context.Context) (entities.RemoteState, error)

	// CreateCollection creates an empty collection
	CreateCollection(ctx context.Context, collectionID, name string) error

	// CreateAttribute creates a plain attribute, dispatching on its type.
	// Returns ErrUnknownAttributeType for types without a remote operation.
	CreateAttribute(ctx context.Context, collectionID string, attr *entities.Attribute) error

	// CreateRelationship creates a relationship attribute
	CreateRelationship(ctx context.Context, collectionID, key string, rel *entities.Relationship) error

	// CreateIndex creates an index under its effective key
	CreateIndex(ctx context.Context, collectionID string, index *entities.Index) error

	// DeleteCollection deletes a collection and everything under it
	DeleteCollection(ctx context.Context, collectionID string) error

	// DeleteAttribute deletes an attribute by key
	DeleteAttribute(ctx context.Context, collectionID, key string) error

	// DeleteIndex deletes an index by key
	DeleteIndex(ctx context.Context, collectionID, key string) error
}

package docstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/hokkyo/dsmigrate/internal/entities"
	"github.com/hokkyo/dsmigrate/internal/infrastructure/docstore"
	"github.com/hokkyo/dsmigrate/internal/repositories"
)

// internalPrefix marks the collections the tool keeps for itself
// (history and locks); they never take part in schema diffing.
const internalPrefix = "dsmigrate_"

// DocstoreSchemaRepository implements SchemaRepository against the
// document database's REST API.
type DocstoreSchemaRepository struct {
	client *docstore.Client
}

// NewDocstoreSchemaRepository creates a new document-store schema repository
func NewDocstoreSchemaRepository(client *docstore.Client) repositories.SchemaRepository {
	return &DocstoreSchemaRepository{client: client}
}

// Describe reads the current remote state of all managed collections
func (r *DocstoreSchemaRepository) Describe(ctx context.Context) (entities.RemoteState, error) {
	collections, err := r.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}

	state := make(entities.RemoteState, len(collections))
	for _, info := range collections {
		if strings.HasPrefix(info.ID, internalPrefix) {
			continue
		}
		remote := &entities.RemoteCollection{
			ID:         info.ID,
			Name:       info.Name,
			Attributes: make(map[string]entities.RemoteAttribute, len(info.Attributes)),
			Indexes:    make(map[string]entities.RemoteIndex, len(info.Indexes)),
		}
		for _, attr := range info.Attributes {
			remote.Attributes[attr.Key] = entities.RemoteAttribute{
				Key:   attr.Key,
				Type:  attr.Type,
				Array: attr.Array,
			}
		}
		for _, index := range info.Indexes {
			remote.Indexes[index.Key] = entities.RemoteIndex{
				Key:  index.Key,
				Type: index.Type,
			}
		}
		state[info.ID] = remote
	}
	return state, nil
}

// CreateCollection creates an empty collection
func (r *DocstoreSchemaRepository) CreateCollection(ctx context.Context, collectionID, name string) error {
	return r.client.CreateCollection(ctx, collectionID, name)
}

// CreateAttribute creates a plain attribute, selecting the remote
// operation by the attribute's declared type.
func (r *DocstoreSchemaRepository) CreateAttribute(ctx context.Context, collectionID string, attr *entities.Attribute) error {
	params := docstore.AttributeParams{
		Key:      attr.Key,
		Size:     attr.Size,
		Required: attr.Required,
		Array:    attr.Array,
		Default:  formatDefault(attr),
	}

	switch attr.Type {
	case entities.TypeString:
		return r.client.CreateStringAttribute(ctx, collectionID, params)
	case entities.TypeInteger:
		return r.client.CreateIntegerAttribute(ctx, collectionID, params)
	case entities.TypeFloat:
		return r.client.CreateFloatAttribute(ctx, collectionID, params)
	case entities.TypeBoolean:
		return r.client.CreateBooleanAttribute(ctx, collectionID, params)
	case entities.TypeDatetime:
		return r.client.CreateDatetimeAttribute(ctx, collectionID, params)
	case entities.TypeEmail:
		return r.client.CreateEmailAttribute(ctx, collectionID, params)
	case entities.TypeURL:
		return r.client.CreateUrlAttribute(ctx, collectionID, params)
	}
	return fmt.Errorf("attribute %s.%s has type %q: %w",
		collectionID, attr.Key, attr.Type, repositories.ErrUnknownAttributeType)
}

// formatDefault returns the default value to send with an attribute
// creation. Array attributes never carry a default. Values are already
// normalized to their wire types by the parser (bool, int64, float64,
// the datetime sentinel "now", or a string); JSON encoding handles
// quoting and escaping.
func formatDefault(attr *entities.Attribute) interface{} {
	if attr.Array || attr.Default == nil {
		return nil
	}
	return attr.Default
}

// CreateRelationship creates a relationship attribute. The target
// collection id is derived from the declared DSL name.
func (r *DocstoreSchemaRepository) CreateRelationship(ctx context.Context, collectionID, key string, rel *entities.Relationship) error {
	return r.client.CreateRelationshipAttribute(ctx, collectionID, docstore.RelationshipParams{
		Key:               key,
		RelatedCollection: entities.KebabCase(rel.ToCollection),
		Type:              string(rel.Kind),
		TwoWayKey:         rel.TwoWayKey,
		OnDelete:          string(rel.OnDelete),
	})
}

// CreateIndex creates an index under its effective key
func (r *DocstoreSchemaRepository) CreateIndex(ctx context.Context, collectionID string, index *entities.Index) error {
	orders := make([]string, len(index.Orders))
	for i, order := range index.Orders {
		orders[i] = string(order)
	}
	return r.client.EnsureIndex(ctx, collectionID, docstore.IndexParams{
		Key:        index.EffectiveKey(),
		Type:       string(index.Type),
		Attributes: index.Fields,
		Orders:     orders,
	})
}

// DeleteCollection deletes a collection and everything under it
func (r *DocstoreSchemaRepository) DeleteCollection(ctx context.Context, collectionID string) error {
	return r.client.DeleteCollection(ctx, collectionID)
}

// DeleteAttribute deletes an attribute by key
func (r *DocstoreSchemaRepository) DeleteAttribute(ctx context.Context, collectionID, key string) error {
	return r.client.DeleteAttribute(ctx, collectionID, key)
}

// DeleteIndex deletes an index by key
func (r *DocstoreSchemaRepository) DeleteIndex(ctx context.Context, collectionID, key string) error {
	return r.client.DeleteIndex(ctx, collectionID, key)
}

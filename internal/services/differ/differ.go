package differ

import (
	"fmt"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// CalculateChanges compares the declared schema against the observed
// remote state and returns the phase-1 change set: collections, then
// attributes, then indexes. Relationship attributes never appear here;
// they are calculated separately because every collection they reference
// must already exist before they can be created.
//
// Pure function: neither input is modified and no remote calls happen.
func CalculateChanges(schema *entities.Schema, remote entities.RemoteState) *entities.ChangeSet {
	cs := &entities.ChangeSet{}

	for _, name := range schema.CollectionNames() {
		coll := schema.Collections[name]
		collectionID := coll.RemoteID()
		observed := remote.Collection(collectionID)

		if observed == nil {
			// A brand-new collection: everything under it is new, so no
			// per-attribute diffing is needed.
			cs.Collections = append(cs.Collections, entities.CollectionCreate{
				CollectionID: collectionID,
				Name:         coll.Name,
				Collection:   coll,
			})
			appendAttributes(cs, collectionID, coll, nil)
			appendIndexes(cs, collectionID, coll, nil)
			continue
		}

		appendAttributes(cs, collectionID, coll, observed)
		appendIndexes(cs, collectionID, coll, observed)
	}
	return cs
}

// appendAttributes emits a creation for every declared plain attribute
// missing from the observed collection. A nil observed collection means
// every attribute is missing.
func appendAttributes(cs *entities.ChangeSet, collectionID string, coll *entities.Collection, observed *entities.RemoteCollection) {
	for _, key := range coll.AttributeKeys() {
		attr := coll.Attributes[key]
		if attr.IsRelationship() {
			continue
		}
		if observed != nil {
			if _, exists := observed.Attributes[key]; exists {
				continue
			}
		}
		cs.Attributes = append(cs.Attributes, entities.AttributeCreate{
			CollectionID: collectionID,
			Attribute:    attr,
		})
	}
}

// appendIndexes emits a creation for every declared index whose
// effective key is missing from the observed collection.
func appendIndexes(cs *entities.ChangeSet, collectionID string, coll *entities.Collection, observed *entities.RemoteCollection) {
	for _, index := range coll.Indexes {
		key := index.EffectiveKey()
		if observed != nil {
			if _, exists := observed.Indexes[key]; exists {
				continue
			}
		}
		cs.Indexes = append(cs.Indexes, entities.IndexCreate{
			CollectionID: collectionID,
			Key:          key,
			Index:        index,
		})
	}
}

// CalculateRelationships returns the phase-2 list: every declared
// relationship attribute the remote collection does not yet have.
func CalculateRelationships(schema *entities.Schema, remote entities.RemoteState) []entities.RelationshipCreate {
	var pending []entities.RelationshipCreate
	for _, name := range schema.CollectionNames() {
		coll := schema.Collections[name]
		collectionID := coll.RemoteID()
		observed := remote.Collection(collectionID)

		for _, key := range coll.AttributeKeys() {
			attr := coll.Attributes[key]
			if !attr.IsRelationship() {
				continue
			}
			if observed != nil && observed.HasRelationship(key) {
				continue
			}
			pending = append(pending, entities.RelationshipCreate{
				CollectionID: collectionID,
				Key:          key,
				Relationship: attr.Relationship,
			})
		}
	}
	return pending
}

// ValidateSchema rejects attribute declarations the executor could not
// apply. Running this at plan time surfaces typos before any mutation.
func ValidateSchema(schema *entities.Schema) error {
	for _, name := range schema.CollectionNames() {
		coll := schema.Collections[name]
		for _, key := range coll.AttributeKeys() {
			if err := coll.Attributes[key].Validate(); err != nil {
				return fmt.Errorf("collection %s: %w", name, err)
			}
		}
	}
	return nil
}

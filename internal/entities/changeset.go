package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// CollectionCreate is a pending collection creation. The attributes and
// indexes of a brand-new collection ride along for reference; they are
// still created through their own change entries.
type CollectionCreate struct {
	CollectionID string      `json:"collectionId"`
	Name         string      `json:"name"`
	Collection   *Collection `json:"-"`
}

// AttributeCreate is a pending attribute creation on an existing collection
type AttributeCreate struct {
	CollectionID string     `json:"collectionId"`
	Attribute    *Attribute `json:"attribute"`
}

// IndexCreate is a pending index creation on an existing collection
type IndexCreate struct {
	CollectionID string `json:"collectionId"`
	Key          string `json:"key"`
	Index        *Index `json:"index"`
}

// RelationshipCreate is a pending phase-2 relationship attribute creation
type RelationshipCreate struct {
	CollectionID string        `json:"collectionId"`
	Key          string        `json:"key"`
	Relationship *Relationship `json:"relationship"`
}

// ChangeSet is the ordered unit of work for one apply run. Creation order
// is collections, then attributes, then indexes; relationships never
// appear here (they are a separate phase).
type ChangeSet struct {
	Collections []CollectionCreate `json:"collections"`
	Attributes  []AttributeCreate  `json:"attributes"`
	Indexes     []IndexCreate      `json:"indexes"`
}

// Empty reports whether the change set contains no work
func (cs *ChangeSet) Empty() bool {
	return len(cs.Collections) == 0 && len(cs.Attributes) == 0 && len(cs.Indexes) == 0
}

// Summary returns a one-line human summary of the change set
func (cs *ChangeSet) Summary() string {
	return fmt.Sprintf("%d collection(s), %d attribute(s), %d index(es)",
		len(cs.Collections), len(cs.Attributes), len(cs.Indexes))
}

// Checksum returns a stable content hash of the change set, used to
// detect whether a previously recorded run applied the same changes.
func (cs *ChangeSet) Checksum() (string, error) {
	data, err := json.Marshal(cs)
	if err != nil {
		return "", fmt.Errorf("failed to marshal change set: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChecksumRelationships returns a stable content hash of a phase-2
// relationship list, mirroring ChangeSet.Checksum.
func ChecksumRelationships(pending []RelationshipCreate) (string, error) {
	data, err := json.Marshal(pending)
	if err != nil {
		return "", fmt.Errorf("failed to marshal relationships: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

package entities

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RecordType distinguishes what kind of run a history record describes
type RecordType string

const (
	RecordApply         RecordType = "apply"
	RecordRelationships RecordType = "relationships"
)

// RecordStatus is the lifecycle state of a history record
type RecordStatus string

const (
	StatusApplied    RecordStatus = "applied"
	StatusRolledBack RecordStatus = "rolled_back"
)

// ChangeRecord is the compacted form of a change set stored in history.
// Attributes and indexes are recorded as "<collectionID>.<key>" so a
// rollback can reverse them without replaying the full declarations.
type ChangeRecord struct {
	Collections []string `json:"collections"`
	Attributes  []string `json:"attributes"`
	Indexes     []string `json:"indexes"`
}

// Compact reduces a change set to the identifiers needed for rollback
func (cs *ChangeSet) Compact() *ChangeRecord {
	rec := &ChangeRecord{}
	for _, c := range cs.Collections {
		rec.Collections = append(rec.Collections, c.CollectionID)
	}
	for _, a := range cs.Attributes {
		rec.Attributes = append(rec.Attributes, a.CollectionID+"."+a.Attribute.Key)
	}
	for _, i := range cs.Indexes {
		rec.Indexes = append(rec.Indexes, i.CollectionID+"."+i.Key)
	}
	return rec
}

// SplitChangeRef splits a compacted "<collectionID>.<key>" reference.
// Attribute keys cannot contain dots, so the first dot is the separator.
func SplitChangeRef(ref string) (collectionID, key string, err error) {
	idx := strings.Index(ref, ".")
	if idx <= 0 || idx == len(ref)-1 {
		return "", "", fmt.Errorf("malformed change reference %q", ref)
	}
	return ref[:idx], ref[idx+1:], nil
}

// HistoryRecord is a durable audit entry for one apply or relationship run
type HistoryRecord struct {
	DocumentID string        // Remote document id, set by the store
	Type       RecordType    // apply or relationships
	RecordID   string        // Fresh random token per run
	DatabaseID string        // Database the run targeted
	Checksum   string        // Content hash of the applied changes
	Changes    *ChangeRecord // Compacted changes, nil for relationship runs
	Status     RecordStatus  // applied or rolled_back
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MarshalChanges serializes the compacted changes for document storage
func (h *HistoryRecord) MarshalChanges() (string, error) {
	if h.Changes == nil {
		return "{}", nil
	}
	data, err := json.Marshal(h.Changes)
	if err != nil {
		return "", fmt.Errorf("failed to marshal history changes: %w", err)
	}
	return string(data), nil
}

// UnmarshalChanges restores the compacted changes from document storage
func (h *HistoryRecord) UnmarshalChanges(data string) error {
	if data == "" || data == "{}" {
		h.Changes = nil
		return nil
	}
	var rec ChangeRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return fmt.Errorf("failed to unmarshal history changes: %w", err)
	}
	h.Changes = &rec
	return nil
}

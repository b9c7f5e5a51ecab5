package docstore

import "time"

// AttributeInfo describes one attribute of a remote collection
type AttributeInfo struct {
	Key      string `json:"key"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Array    bool   `json:"array"`
	Status   string `json:"status"`
}

// IndexInfo describes one index of a remote collection
type IndexInfo struct {
	Key        string   `json:"key"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
	Orders     []string `json:"orders"`
}

// CollectionInfo describes a remote collection with its attributes and indexes
type CollectionInfo struct {
	ID         string          `json:"collectionId"`
	Name       string          `json:"name"`
	Attributes []AttributeInfo `json:"attributes"`
	Indexes    []IndexInfo     `json:"indexes"`
}

// Document is one stored document with its service-managed timestamps
type Document struct {
	ID        string                 `json:"documentId"`
	Data      map[string]interface{} `json:"data"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// AttributeParams is the payload for the typed attribute-creation calls
type AttributeParams struct {
	Key      string      `json:"key"`
	Size     int         `json:"size,omitempty"`
	Required bool        `json:"required"`
	Array    bool        `json:"array"`
	Default  interface{} `json:"default,omitempty"`
}

// RelationshipParams is the payload for relationship attribute creation
type RelationshipParams struct {
	Key               string `json:"key"`
	RelatedCollection string `json:"relatedCollectionId"`
	Type              string `json:"relationType"`
	TwoWayKey         string `json:"twoWayKey,omitempty"`
	OnDelete          string `json:"onDelete"`
}

// IndexParams is the payload for index creation
type IndexParams struct {
	Key        string   `json:"key"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
	Orders     []string `json:"orders,omitempty"`
}

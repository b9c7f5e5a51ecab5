package entities

// TypeRelationship is the attribute type the remote service reports for
// relationship attributes. It is never declared directly in the DSL.
const TypeRelationship = "relationship"

// RemoteAttribute is one attribute as reported by the remote service
type RemoteAttribute struct {
	Key   string
	Type  string
	Array bool
}

// RemoteIndex is one index as reported by the remote service
type RemoteIndex struct {
	Key  string
	Type string
}

// RemoteCollection is the observed state of one remote collection
type RemoteCollection struct {
	ID         string
	Name       string
	Attributes map[string]RemoteAttribute // Keyed by attribute key
	Indexes    map[string]RemoteIndex     // Keyed by index key
}

// HasRelationship reports whether the collection has a relationship
// attribute with the given key.
func (rc *RemoteCollection) HasRelationship(key string) bool {
	attr, ok := rc.Attributes[key]
	return ok && attr.Type == TypeRelationship
}

// RemoteState is the observed remote schema, keyed by collection id.
// It is the "remote truth" side of the diff.
type RemoteState map[string]*RemoteCollection

// Collection returns the observed collection by id, or nil
func (rs RemoteState) Collection(id string) *RemoteCollection {
	return rs[id]
}

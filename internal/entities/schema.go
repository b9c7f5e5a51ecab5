package entities

import "sort"

// Database represents a database block declared in the schema DSL
type Database struct {
	ID   string // Remote database identifier
	Name string // Human-readable name
}

// Schema represents the complete parsed schema declaration
type Schema struct {
	Databases   map[string]*Database   // Database blocks keyed by id
	Collections map[string]*Collection // Collection blocks keyed by DSL name
}

// NewSchema creates an empty schema
func NewSchema() *Schema {
	return &Schema{
		Databases:   make(map[string]*Database),
		Collections: make(map[string]*Collection),
	}
}

// GetCollection returns the collection declaration by DSL name
func (s *Schema) GetCollection(name string) *Collection {
	return s.Collections[name]
}

// CollectionNames returns the declared collection names in sorted order.
// Map iteration order is not stable, and plan output must be.
func (s *Schema) CollectionNames() []string {
	names := make([]string, 0, len(s.Collections))
	for name := range s.Collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

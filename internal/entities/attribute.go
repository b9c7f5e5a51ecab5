package entities

import "fmt"

// AttributeType is the declared type of a plain attribute
type AttributeType string

const (
	TypeString   AttributeType = "string"
	TypeInteger  AttributeType = "integer"
	TypeFloat    AttributeType = "float"
	TypeBoolean  AttributeType = "boolean"
	TypeDatetime AttributeType = "datetime"
	TypeEmail    AttributeType = "email"
	TypeURL      AttributeType = "url"
)

// attributeTypes maps DSL type names (lowercased) to attribute types
var attributeTypes = map[string]AttributeType{
	"string":   TypeString,
	"integer":  TypeInteger,
	"int":      TypeInteger,
	"float":    TypeFloat,
	"boolean":  TypeBoolean,
	"bool":     TypeBoolean,
	"datetime": TypeDatetime,
	"email":    TypeEmail,
	"url":      TypeURL,
}

// ParseAttributeType resolves a DSL type name to an AttributeType.
// Unknown names are returned as-is with ok=false so callers can decide
// whether to reject or pass them through.
func ParseAttributeType(name string) (AttributeType, bool) {
	t, ok := attributeTypes[name]
	if !ok {
		return AttributeType(name), false
	}
	return t, true
}

// RelationshipKind is the cardinality of a relationship attribute
type RelationshipKind string

const (
	OneToOne   RelationshipKind = "oneToOne"
	OneToMany  RelationshipKind = "oneToMany"
	ManyToOne  RelationshipKind = "manyToOne"
	ManyToMany RelationshipKind = "manyToMany"
)

// DeletePolicy controls what happens to related documents on delete
type DeletePolicy string

const (
	DeleteRestrict DeletePolicy = "restrict"
	DeleteCascade  DeletePolicy = "cascade"
	DeleteSetNull  DeletePolicy = "setNull"
)

// Relationship describes a relationship attribute declaration
type Relationship struct {
	ToCollection string           // Target collection DSL name
	Kind         RelationshipKind // Cardinality
	TwoWayKey    string           // Reverse attribute key, empty for one-way
	OnDelete     DeletePolicy     // Defaults to restrict
}

// Decorator is an unrecognized attribute decorator kept for forward
// compatibility. Params is the raw parenthesized text, or "" for bare flags.
type Decorator struct {
	Name   string
	Params string
}

// Attribute represents one attribute declaration inside a collection.
// An attribute is either a plain field or a relationship declaration;
// Relationship being non-nil makes the type fields irrelevant.
type Attribute struct {
	Key          string
	Type         AttributeType
	Array        bool
	Required     bool
	Unique       bool
	Size         int           // String length cap, 0 when unset
	Default      interface{}   // Normalized typed value, nil when unset or dropped
	Relationship *Relationship // Non-nil for relationship attributes
	Unknown      []Decorator   // Unrecognized decorators, declaration order
}

// IsRelationship reports whether the attribute declares a relationship
func (a *Attribute) IsRelationship() bool {
	return a.Relationship != nil
}

// Validate checks that the attribute can be applied to the remote service
func (a *Attribute) Validate() error {
	if a.Key == "" {
		return fmt.Errorf("attribute key is required")
	}
	if a.IsRelationship() {
		if a.Relationship.ToCollection == "" {
			return fmt.Errorf("attribute %s: relationship target collection is required", a.Key)
		}
		return nil
	}
	if _, ok := attributeTypes[string(a.Type)]; !ok {
		return fmt.Errorf("attribute %s: unknown type %q", a.Key, a.Type)
	}
	return nil
}

package entities

import (
	"sort"
	"strings"
	"unicode"
)

// Collection represents one collection block declared in the schema DSL
type Collection struct {
	Name       string                // DSL name as written
	Attributes map[string]*Attribute // Keyed by attribute key
	Indexes    []*Index              // Declaration order
}

// NewCollection creates an empty collection declaration
func NewCollection(name string) *Collection {
	return &Collection{
		Name:       name,
		Attributes: make(map[string]*Attribute),
	}
}

// RemoteID returns the kebab-cased identifier used for remote operations
func (c *Collection) RemoteID() string {
	return KebabCase(c.Name)
}

// GetAttribute returns the attribute declaration by key
func (c *Collection) GetAttribute(key string) *Attribute {
	return c.Attributes[key]
}

// AttributeKeys returns the attribute keys in sorted order
func (c *Collection) AttributeKeys() []string {
	keys := make([]string, 0, len(c.Attributes))
	for key := range c.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// KebabCase converts a DSL identifier to the lowercase hyphen-separated
// form used as a remote resource id: a hyphen is inserted between a
// lowercase letter or digit and a following uppercase letter, runs of
// whitespace and underscores collapse to a single hyphen, and the result
// is lowercased.
func KebabCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)

	prevSeparator := false
	var prev rune
	for _, r := range name {
		switch {
		case unicode.IsSpace(r) || r == '_':
			if b.Len() > 0 && !prevSeparator {
				b.WriteByte('-')
				prevSeparator = true
			}
		case unicode.IsUpper(r):
			if (unicode.IsLower(prev) || unicode.IsDigit(prev)) && !prevSeparator {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			prevSeparator = false
		default:
			b.WriteRune(unicode.ToLower(r))
			prevSeparator = false
		}
		prev = r
	}
	return strings.TrimSuffix(b.String(), "-")
}

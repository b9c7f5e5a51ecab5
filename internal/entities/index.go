package entities

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// IndexType is the kind of index to create remotely
type IndexType string

const (
	IndexKey      IndexType = "key"
	IndexUnique   IndexType = "unique"
	IndexFulltext IndexType = "fulltext"
)

// Order is the sort direction of one index field
type Order string

const (
	OrderAsc  Order = "ASC"
	OrderDesc Order = "DESC"
)

// maxIndexKeyLength is the remote service's limit on index key names
const maxIndexKeyLength = 36

// Index represents an index declaration inside a collection
type Index struct {
	Key    string    // Explicit key, empty to derive from fields
	Type   IndexType // key, unique or fulltext
	Fields []string  // Ordered field names, order matters for composites
	Orders []Order   // Parallel to Fields; "" means service default
}

// EffectiveKey returns the key used to identify the index remotely:
// the explicit key if present, otherwise idx_<fields joined by _>,
// sanitized either way.
func (i *Index) EffectiveKey() string {
	key := i.Key
	if key == "" {
		key = "idx_" + strings.Join(i.Fields, "_")
	}
	return SanitizeIndexKey(key)
}

// SanitizeIndexKey normalizes a raw index key to the character set and
// length the remote service accepts. A leading run of non-alphanumeric
// characters is stripped, every remaining character outside
// [A-Za-z0-9._-] becomes an underscore, and keys longer than 36
// characters are replaced with idx_<md5 prefix> so the result stays
// deterministic and bounded.
func SanitizeIndexKey(raw string) string {
	s := strings.TrimLeftFunc(raw, func(r rune) bool {
		return !isAlphanumeric(r)
	})

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if isAlphanumeric(r) || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	key := b.String()

	if len(key) > maxIndexKeyLength {
		sum := md5.Sum([]byte(key))
		key = "idx_" + hex.EncodeToString(sum[:])[:28]
	}
	return key
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

package parser

import (
	"strconv"
	"strings"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// applyDecorators scans the decorator text after an attribute declaration
// and applies each recognized decorator to the attribute. Unrecognized
// decorators are kept verbatim for forward compatibility.
func applyDecorators(attr *entities.Attribute, text string) {
	for _, dec := range scanDecorators(text) {
		switch dec.Name {
		case "size":
			if n, err := strconv.Atoi(strings.TrimSpace(dec.Params)); err == nil {
				attr.Size = n
			}
		case "required":
			attr.Required = true
		case "unique":
			attr.Unique = true
		case "default":
			raw := strings.Trim(strings.TrimSpace(dec.Params), `"'`)
			attr.Default = NormalizeDefault(attr.Type, raw)
		case "relationship":
			attr.Relationship = parseRelationship(dec.Params)
		default:
			attr.Unknown = append(attr.Unknown, dec)
		}
	}
}

// scanDecorators extracts @name and @name(params) tokens from text.
// Parentheses inside params are balanced so quoted values containing
// parens survive the scan.
func scanDecorators(text string) []entities.Decorator {
	var decorators []entities.Decorator
	for i := 0; i < len(text); i++ {
		if text[i] != '@' {
			continue
		}
		j := i + 1
		for j < len(text) && isIdentChar(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		dec := entities.Decorator{Name: text[i+1 : j]}
		if j < len(text) && text[j] == '(' {
			depth := 0
			k := j
			for ; k < len(text); k++ {
				switch text[k] {
				case '(':
					depth++
				case ')':
					depth--
				}
				if depth == 0 {
					break
				}
			}
			if k < len(text) {
				dec.Params = text[j+1 : k]
				j = k + 1
			}
		}
		decorators = append(decorators, dec)
		i = j - 1
	}
	return decorators
}

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// relationship kinds accepted in @relationship(type: "..."), both the
// camelCase and hyphenated spellings
var relationshipKinds = map[string]entities.RelationshipKind{
	"onetoone":     entities.OneToOne,
	"one-to-one":   entities.OneToOne,
	"onetomany":    entities.OneToMany,
	"one-to-many":  entities.OneToMany,
	"manytoone":    entities.ManyToOne,
	"many-to-one":  entities.ManyToOne,
	"manytomany":   entities.ManyToMany,
	"many-to-many": entities.ManyToMany,
}

var deletePolicies = map[string]entities.DeletePolicy{
	"restrict": entities.DeleteRestrict,
	"cascade":  entities.DeleteCascade,
	"setnull":  entities.DeleteSetNull,
	"set-null": entities.DeleteSetNull,
}

// parseRelationship parses the comma-separated key: value pairs of a
// @relationship decorator. Unknown kinds and policies fall back to the
// defaults rather than failing the parse.
func parseRelationship(params string) *entities.Relationship {
	rel := &entities.Relationship{
		Kind:     entities.ManyToOne,
		OnDelete: entities.DeleteRestrict,
	}
	for _, pair := range strings.Split(params, ",") {
		key, value, found := strings.Cut(pair, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		switch key {
		case "to":
			rel.ToCollection = value
		case "type":
			if kind, ok := relationshipKinds[strings.ToLower(value)]; ok {
				rel.Kind = kind
			}
		case "twoWayKey":
			rel.TwoWayKey = value
		case "onDelete":
			if policy, ok := deletePolicies[strings.ToLower(value)]; ok {
				rel.OnDelete = policy
			}
		}
	}
	return rel
}

package parser

import (
	"strconv"
	"strings"

	"github.com/hokkyo/dsmigrate/internal/entities"
)

// truthy is the set of boolean default spellings coerced to true
var truthy = map[string]bool{
	"true": true,
	"1":    true,
	"yes":  true,
	"on":   true,
}

// NormalizeDefault coerces a raw default-value literal to the typed value
// matching the attribute type. A numeric literal that does not parse is
// dropped (nil), not propagated as zero. The datetime sentinel "now" is
// kept verbatim.
func NormalizeDefault(t entities.AttributeType, raw string) interface{} {
	switch t {
	case entities.TypeBoolean:
		return truthy[strings.ToLower(raw)]
	case entities.TypeInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case entities.TypeFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return f
	case entities.TypeDatetime:
		return raw
	default:
		return raw
	}
}

package paper

import (
	"fmt"
	"strings"
)

// Field selects which text of a paper an index covers.
type Field string

const (
	FieldTitle    Field = "title"
	FieldAbstract Field = "abstract"
)

// Fields lists every indexed field in lockstep order.
var Fields = []Field{FieldTitle, FieldAbstract}

// ParseField parses a field selector. "abs" is accepted as an alias for abstract.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "title":
		return FieldTitle, nil
	case "abstract", "abs":
		return FieldAbstract, nil
	default:
		return "", fmt.Errorf("unknown field %q (valid: title, abstract)", s)
	}
}

// Valid reports whether f is one of the indexed fields.
func (f Field) Valid() bool {
	return f == FieldTitle || f == FieldAbstract
}

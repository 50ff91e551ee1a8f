package queryir

import (
	"fmt"
	"strings"
)

// Query is the sealed interface for all query node types.
type Query interface {
	queryNode()
}

// Predicate is the sealed interface for filter conditions.
type Predicate interface {
	predicateNode()
}

// Field names a revision column a predicate can test.
type Field string

const (
	FieldName      Field = "name"
	FieldLayer     Field = "layer"
	FieldMode      Field = "mode"
	FieldDigest    Field = "digest"
	FieldBehaviors Field = "behaviors"
)

// Fields lists every filterable column in declaration order.
var Fields = []Field{FieldName, FieldLayer, FieldMode, FieldDigest, FieldBehaviors}

// Numeric reports whether the column holds an integer.
func (f Field) Numeric() bool {
	return f == FieldBehaviors
}

// Known reports whether f is a filterable column.
func (f Field) Known() bool {
	for _, k := range Fields {
		if f == k {
			return true
		}
	}
	return false
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Ordered reports whether op needs an ordered (numeric) operand.
func (op Op) Ordered() bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Select reads revisions matching Filter.
//
// With Current set only the latest revision of each (name, layer) pair is
// considered. Results are ordered by sequence number, oldest first. Limit
// caps the result count; zero means unbounded.
type Select struct {
	Filter  Predicate // nil matches everything
	Current bool
	Limit   int
}

func (Select) queryNode() {}

// Compare tests one column against a literal. Value is a string for text
// columns and an int64 for numeric ones.
type Compare struct {
	Field Field
	Op    Op
	Value any
}

func (Compare) predicateNode() {}

// Prefix matches text columns starting with Prefix.
type Prefix struct {
	Field  Field
	Prefix string
}

func (Prefix) predicateNode() {}

// And is a conjunction; an empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or is a disjunction; an empty Or is always false.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates its operand.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Equals is shorthand for an equality Compare.
func Equals(field Field, value any) Compare {
	return Compare{Field: field, Op: OpEq, Value: value}
}

// String renders p in the text filter form. Compound predicates are
// parenthesized.
func String(p Predicate) string {
	switch p := p.(type) {
	case nil:
		return "true"
	case Compare:
		return fmt.Sprintf("%s%s%v", p.Field, p.Op, p.Value)
	case Prefix:
		return fmt.Sprintf("%s^=%s", p.Field, p.Prefix)
	case Not:
		return "!(" + String(p.Predicate) + ")"
	case And:
		return join(p.Predicates, " && ", "true")
	case Or:
		return join(p.Predicates, " || ", "false")
	default:
		return fmt.Sprintf("%T", p)
	}
}

func join(preds []Predicate, sep, empty string) string {
	if len(preds) == 0 {
		return empty
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = String(p)
	}
	return "(" + strings.Join(parts, sep) + ")"
}

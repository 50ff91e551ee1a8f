package queryir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/traitc/internal/trait"
)

// operators in match order; two-character forms come first.
var operators = []string{"^=", "!=", "<=", ">=", "=", "<", ">"}

// Parse reads filter terms and joins them with And. It returns nil for no
// terms. Mode values are normalized to their canonical spelling.
func Parse(terms []string) (Predicate, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	preds := make([]Predicate, 0, len(terms))
	for _, term := range terms {
		p, err := ParseTerm(term)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	if len(preds) == 1 {
		return preds[0], nil
	}
	return And{Predicates: preds}, nil
}

// ParseTerm reads a single "field<op>value" condition. The first operator
// in the term splits it.
func ParseTerm(term string) (Predicate, error) {
	for i := 1; i < len(term); i++ {
		for _, op := range operators {
			if !strings.HasPrefix(term[i:], op) {
				continue
			}
			field := Field(strings.TrimSpace(term[:i]))
			value := strings.TrimSpace(term[i+len(op):])
			if !field.Known() {
				return nil, fmt.Errorf("filter %q: unknown field %q", term, field)
			}
			return buildTerm(term, field, op, value)
		}
	}
	return nil, fmt.Errorf("filter %q: expected field<op>value", term)
}

func buildTerm(term string, field Field, op, value string) (Predicate, error) {
	if op == "^=" {
		if field.Numeric() {
			return nil, fmt.Errorf("filter %q: prefix match on numeric field", term)
		}
		return Prefix{Field: field, Prefix: value}, nil
	}

	var operand any = value
	switch {
	case field.Numeric():
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", term, err)
		}
		operand = n
	case field == FieldMode:
		m, err := trait.ParseMode(value)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", term, err)
		}
		operand = m.String()
	}

	c := Compare{Field: field, Op: Op(op), Value: operand}
	if err := Validate(Select{Filter: c}); err != nil {
		return nil, fmt.Errorf("filter %q: %w", term, err)
	}
	return c, nil
}

package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/traitc/internal/trait"
)

// ValidationError lists every problem found in a query.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// Validate checks that every predicate names a known column and carries an
// operand of the column's type. It returns a *ValidationError listing all
// problems, or nil.
//
// Validate is a pure function with no side effects.
func Validate(q Query) error {
	v := &validator{}
	v.validateQuery(q)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.Limit < 0 {
		v.addProblem("negative limit %d", sel.Limit)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Compare:
		v.validateCompare(pred)
	case Prefix:
		if !v.knownField(pred.Field) {
			return
		}
		if pred.Field.Numeric() {
			v.addProblem("prefix match on numeric field %s", pred.Field)
		}
	case Not:
		v.validatePredicate(pred.Predicate)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) knownField(f Field) bool {
	if !f.Known() {
		v.addProblem("unknown field %q", f)
		return false
	}
	return true
}

func (v *validator) validateCompare(c Compare) {
	if !v.knownField(c.Field) {
		return
	}
	switch c.Op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
	default:
		v.addProblem("unknown operator %q", c.Op)
		return
	}

	if c.Field.Numeric() {
		if _, ok := c.Value.(int64); !ok {
			v.addProblem("field %s compared to %T, want int64", c.Field, c.Value)
		}
		return
	}
	s, ok := c.Value.(string)
	if !ok {
		v.addProblem("field %s compared to %T, want string", c.Field, c.Value)
		return
	}
	if c.Op.Ordered() {
		v.addProblem("operator %s needs a numeric field, got %s", c.Op, c.Field)
	}
	if c.Field == FieldMode {
		if _, err := trait.ParseMode(s); err != nil {
			v.addProblem("field mode: %v", err)
		}
	}
}

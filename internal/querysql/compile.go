// Package querysql compiles revision queries to parameterized SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/traitc/internal/queryir"
)

// Columns is the column list every compiled query selects, in scan order.
const Columns = "seq, name, layer, mode, digest, behaviors"

// SQLCompiler compiles queryir queries against the revisions table.
//
// All values are parameterized, never interpolated. Every query orders by
// seq so results are deterministic.
type SQLCompiler struct {
	// Table is the revisions table name.
	Table string
}

// NewSQLCompiler creates a compiler for the default revisions table.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Table: "revisions"}
}

// Compile converts a query to SQL and its parameters. The query is
// validated first.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}
	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var (
		where  []string
		params []any
	)
	if q.Current {
		where = append(where, fmt.Sprintf(
			"seq IN (SELECT MAX(seq) FROM %s GROUP BY name, layer)", c.Table))
	}
	if q.Filter != nil {
		sql, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, sql)
		params = append(params, filterParams...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", Columns, c.Table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY seq ASC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

// compilePredicate compiles p to a WHERE fragment. Compound fragments are
// parenthesized so they nest safely.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Compare:
		return fmt.Sprintf("%s %s ?", pred.Field, pred.Op), []any{pred.Value}, nil
	case queryir.Prefix:
		if pred.Prefix == "" {
			return "1 = 1", nil, nil
		}
		// LIKE folds ASCII case, instr does not
		return fmt.Sprintf("instr(%s, ?) = 1", pred.Field), []any{pred.Prefix}, nil
	case queryir.Not:
		sql, params, err := c.compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + sql + ")", params, nil
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	parts := make([]string, 0, len(preds))
	var params []any
	for _, p := range preds {
		sql, ps, err := c.compilePredicate(p)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}

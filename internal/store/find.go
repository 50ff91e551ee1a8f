package store

import (
	"context"
	"fmt"

	"github.com/roach88/traitc/internal/queryir"
	"github.com/roach88/traitc/internal/querysql"
)

// Find returns the revisions selected by q, oldest first.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) Find(ctx context.Context, q queryir.Select) ([]Revision, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	s.logger.Debug("find revisions", "filter", queryir.String(q.Filter), "sql", query)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer rows.Close()

	revs := []Revision{}
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revs = append(revs, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find: iterate: %w", err)
	}
	return revs, nil
}

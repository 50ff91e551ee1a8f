package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/traitc/internal/trait"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRevision reads one revision row. Returns ErrNotFound for an empty
// result.
func scanRevision(row scanner) (Revision, error) {
	var rev Revision
	var mode string
	err := row.Scan(&rev.Seq, &rev.Name, &rev.Layer, &mode, &rev.Digest, &rev.Behaviors)
	if errors.Is(err, sql.ErrNoRows) {
		return Revision{}, ErrNotFound
	}
	if err != nil {
		return Revision{}, fmt.Errorf("scan revision: %w", err)
	}
	if rev.Mode, err = trait.ParseMode(mode); err != nil {
		return Revision{}, fmt.Errorf("scan revision %d: %w", rev.Seq, err)
	}
	return rev, nil
}

// Latest returns the current revision of name at layer.
// Returns ErrNotFound if the component was never stored at that layer.
func (s *Store) Latest(ctx context.Context, name, layer string) (Revision, error) {
	rev, err := scanRevision(s.db.QueryRowContext(ctx, `
		SELECT seq, name, layer, mode, digest, behaviors
		FROM revisions
		WHERE name = ? AND layer = ?
		ORDER BY seq DESC
		LIMIT 1
	`, name, layer))
	if err != nil {
		return Revision{}, fmt.Errorf("latest %s@%s: %w", name, layer, err)
	}
	return rev, nil
}

// Get loads the current state of name at layer. The options configure the
// returned component.
func (s *Store) Get(ctx context.Context, name, layer string, opts ...trait.ComponentOption) (*trait.Component, error) {
	rev, err := s.Latest(ctx, name, layer)
	if err != nil {
		return nil, err
	}
	return s.Load(ctx, rev.Digest, opts...)
}

// Load decodes the blob stored under sum.
func (s *Store) Load(ctx context.Context, sum string, opts ...trait.ComponentOption) (*trait.Component, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM blobs WHERE digest = ?`, sum).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %s: %w", sum, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", sum, err)
	}
	c, err := unmarshalComponent(body, opts...)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", sum, err)
	}
	return c, nil
}

// History returns every revision of name at layer, oldest first.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) History(ctx context.Context, name, layer string) ([]Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, name, layer, mode, digest, behaviors
		FROM revisions
		WHERE name = ? AND layer = ?
		ORDER BY seq ASC
	`, name, layer)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
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
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return revs, nil
}

// Layers returns the layers name was stored at, in order of first use.
func (s *Store) Layers(ctx context.Context, name string) ([]string, error) {
	return s.queryStrings(ctx, "query layers", `
		SELECT layer FROM revisions
		WHERE name = ?
		GROUP BY layer
		ORDER BY MIN(seq) ASC
	`, name)
}

// Names returns every stored component name in byte order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, "query names", `
		SELECT DISTINCT name FROM revisions
		ORDER BY name COLLATE BINARY ASC
	`)
}

func (s *Store) queryStrings(ctx context.Context, what, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", what, err)
	}
	return out, nil
}

// LookupResolution returns the memoized result of resolving delta against
// base, if recorded.
func (s *Store) LookupResolution(ctx context.Context, base, delta string) (Resolution, bool, error) {
	res := Resolution{Base: base, Delta: delta}
	err := s.db.QueryRowContext(ctx, `
		SELECT result, warnings FROM resolutions WHERE base = ? AND delta = ?
	`, base, delta).Scan(&res.Result, &res.Warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return Resolution{}, false, nil
	}
	if err != nil {
		return Resolution{}, false, fmt.Errorf("lookup resolution: %w", err)
	}
	return res, true, nil
}

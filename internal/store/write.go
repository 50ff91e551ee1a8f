package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/traitc/internal/trait"
)

// Revision is one stored state of a component at a layer.
type Revision struct {
	Seq       int64      `json:"seq"`
	Name      string     `json:"name"`
	Layer     string     `json:"layer"`
	Mode      trait.Mode `json:"mode"`
	Digest    string     `json:"digest"`
	Behaviors int        `json:"behaviors"`
}

// Resolution records that resolving Delta against Base produced Result.
type Resolution struct {
	Base     string `json:"base"`
	Delta    string `json:"delta"`
	Result   string `json:"result"`
	Warnings int    `json:"warnings"`
}

// Put saves c as the current state of its name at layer.
//
// A new revision is appended only when the encoded state differs from the
// latest revision at that layer; otherwise the latest revision is returned
// with inserted=false.
func (s *Store) Put(ctx context.Context, layer string, c *trait.Component) (rev Revision, inserted bool, err error) {
	if layer == "" {
		return Revision{}, false, fmt.Errorf("put %s: empty layer", c.Name)
	}
	body, sum, err := marshalComponent(c)
	if err != nil {
		return Revision{}, false, fmt.Errorf("put %s: %w", c.Name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Revision{}, false, fmt.Errorf("put %s: begin tx: %w", c.Name, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := putBlob(ctx, tx, sum, body); err != nil {
		return Revision{}, false, fmt.Errorf("put %s: %w", c.Name, err)
	}

	latest, err := scanRevision(tx.QueryRowContext(ctx, `
		SELECT seq, name, layer, mode, digest, behaviors
		FROM revisions
		WHERE name = ? AND layer = ?
		ORDER BY seq DESC
		LIMIT 1
	`, c.Name, layer))
	switch {
	case err == nil && latest.Digest == sum:
		return latest, false, tx.Commit()
	case err != nil && !errors.Is(err, ErrNotFound):
		return Revision{}, false, fmt.Errorf("put %s: %w", c.Name, err)
	}

	rev = Revision{
		Name:      c.Name,
		Layer:     layer,
		Mode:      c.Mode,
		Digest:    sum,
		Behaviors: c.Len(),
	}
	result, err := tx.ExecContext(ctx, `
		INSERT INTO revisions (name, layer, mode, digest, behaviors)
		VALUES (?, ?, ?, ?, ?)
	`, rev.Name, rev.Layer, rev.Mode.String(), rev.Digest, rev.Behaviors)
	if err != nil {
		return Revision{}, false, fmt.Errorf("put %s: insert revision: %w", c.Name, err)
	}
	if rev.Seq, err = result.LastInsertId(); err != nil {
		return Revision{}, false, fmt.Errorf("put %s: get seq: %w", c.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return Revision{}, false, fmt.Errorf("put %s: commit: %w", c.Name, err)
	}

	s.logger.Debug("component stored",
		"component", rev.Name,
		"layer", rev.Layer,
		"seq", rev.Seq,
		"digest", rev.Digest,
	)
	return rev, true, nil
}

// putBlob stores body under sum. Existing blobs are left untouched.
func putBlob(ctx context.Context, tx *sql.Tx, sum string, body []byte) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO blobs (digest, body)
		VALUES (?, ?)
		ON CONFLICT(digest) DO NOTHING
	`, sum, body)
	if err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	return nil
}

// RecordResolution stores a resolve result and memoizes it by its inputs.
// Both inputs must already be stored. Uses ON CONFLICT(base, delta) DO
// NOTHING: the first recorded result wins and inserted reports whether
// this call added it.
func (s *Store) RecordResolution(ctx context.Context, base, delta string, result *trait.Component, warnings int) (res Resolution, inserted bool, err error) {
	body, sum, err := marshalComponent(result)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("record resolution: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("record resolution: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if err := putBlob(ctx, tx, sum, body); err != nil {
		return Resolution{}, false, fmt.Errorf("record resolution: %w", err)
	}

	r, err := tx.ExecContext(ctx, `
		INSERT INTO resolutions (base, delta, result, warnings)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(base, delta) DO NOTHING
	`, base, delta, sum, warnings)
	if err != nil {
		return Resolution{}, false, fmt.Errorf("record resolution: %w", err)
	}
	n, err := r.RowsAffected()
	if err != nil {
		return Resolution{}, false, fmt.Errorf("record resolution: rows affected: %w", err)
	}

	res = Resolution{Base: base, Delta: delta, Result: sum, Warnings: warnings}
	if n == 0 {
		err := tx.QueryRowContext(ctx, `
			SELECT result, warnings FROM resolutions WHERE base = ? AND delta = ?
		`, base, delta).Scan(&res.Result, &res.Warnings)
		if err != nil {
			return Resolution{}, false, fmt.Errorf("record resolution: read existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Resolution{}, false, fmt.Errorf("record resolution: commit: %w", err)
	}
	return res, n > 0, nil
}

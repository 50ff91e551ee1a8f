package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/traitc/internal/trait"
)

// Step describes one resolve performed by Rebuild.
type Step struct {
	Layer    string `json:"layer"`
	Delta    string `json:"delta"`
	Result   string `json:"result"`
	Warnings int    `json:"warnings"`
	Cached   bool   `json:"cached"`
}

// Rebuild replays the layer chain of name. The first layer must hold a
// resolved component; every following layer that stores name contributes
// its latest delta, applied in order. Layers that never stored name are
// skipped.
//
// Each resolve is memoized by (base digest, delta digest). A memoized step
// is loaded rather than recomputed, so its diagnostics are not reported to
// errs again; Step.Warnings still carries the recorded count.
func (s *Store) Rebuild(ctx context.Context, name string, layers []string, errs *trait.ErrorList, opts ...trait.ComponentOption) (*trait.Component, []Step, error) {
	if len(layers) == 0 {
		return nil, nil, fmt.Errorf("rebuild %s: no layers", name)
	}

	rev, err := s.Latest(ctx, name, layers[0])
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild %s: %w", name, err)
	}
	if rev.Mode != trait.Resolved {
		return nil, nil, fmt.Errorf("rebuild %s: layer %s holds a %s component", name, layers[0], rev.Mode)
	}

	current, err := s.Load(ctx, rev.Digest, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuild %s: %w", name, err)
	}
	sum := rev.Digest

	steps := []Step{}
	for _, layer := range layers[1:] {
		drev, err := s.Latest(ctx, name, layer)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("rebuild %s: %w", name, err)
		}

		step := Step{Layer: layer, Delta: drev.Digest}
		memo, ok, err := s.LookupResolution(ctx, sum, drev.Digest)
		if err != nil {
			return nil, nil, fmt.Errorf("rebuild %s: %w", name, err)
		}

		if ok {
			if current, err = s.Load(ctx, memo.Result, opts...); err != nil {
				return nil, nil, fmt.Errorf("rebuild %s at %s: %w", name, layer, err)
			}
			step.Result, step.Warnings, step.Cached = memo.Result, memo.Warnings, true
		} else {
			delta, err := s.Load(ctx, drev.Digest, opts...)
			if err != nil {
				return nil, nil, fmt.Errorf("rebuild %s at %s: %w", name, layer, err)
			}
			before := errs.Len()
			derived, err := current.Resolve(delta, errs)
			if err != nil {
				return nil, nil, fmt.Errorf("rebuild %s at %s: %w", name, layer, err)
			}
			res, _, err := s.RecordResolution(ctx, sum, drev.Digest, derived, errs.Len()-before)
			if err != nil {
				return nil, nil, fmt.Errorf("rebuild %s at %s: %w", name, layer, err)
			}
			current = derived
			step.Result, step.Warnings = res.Result, res.Warnings
		}

		s.logger.Debug("layer applied",
			"component", name,
			"layer", layer,
			"cached", step.Cached,
			"warnings", step.Warnings,
		)
		sum = step.Result
		steps = append(steps, step)
	}

	return current, steps, nil
}

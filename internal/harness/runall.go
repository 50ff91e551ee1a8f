package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Outcome pairs a scenario file with its result or execution error.
type Outcome struct {
	Path   string  `json:"path"`
	Result *Result `json:"result,omitempty"`
	Err    error   `json:"-"`
}

// FindScenarios returns the scenario files under path in sorted order. A
// file path is returned as is; a directory is searched recursively for
// .yaml and .yml files.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(p))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// RunAll loads and runs every scenario file with at most limit scenarios in
// flight (limit <= 0 means no limit). Each scenario owns its own store, so
// they run independently. Outcomes are returned in the order of paths; a
// scenario that fails to load or execute carries its error in Outcome.Err.
//
// The returned error is non-nil only when ctx is cancelled.
func RunAll(ctx context.Context, paths []string, limit int, opts ...Option) ([]Outcome, error) {
	outcomes := make([]Outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, path := range paths {
		outcomes[i].Path = path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scenario, err := LoadScenario(path)
			if err != nil {
				outcomes[i].Err = err
				return nil
			}
			result, err := Run(gctx, scenario, opts...)
			if err != nil {
				outcomes[i].Err = fmt.Errorf("%s: %w", scenario.Name, err)
				return nil
			}
			outcomes[i].Result = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

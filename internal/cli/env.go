package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/roach88/traitc/internal/compiler"
	"github.com/roach88/traitc/internal/harness"
	"github.com/roach88/traitc/internal/loader"
	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/trait"
)

// env bundles the store and its collaborators for one command.
type env struct {
	store    *store.Store
	loader   *loader.Loader
	compiler *compiler.Compiler
	opts     []trait.ComponentOption
	logger   *slog.Logger
}

// errNoStore is returned when a command needs an existing store.
var errNoStore = errors.New("store does not exist")

// openEnv opens the store named by opts. Unless create is set the store
// file must already exist.
func openEnv(opts *RootOptions, create bool) (*env, error) {
	if !create && opts.DB != ":memory:" {
		if _, err := os.Stat(opts.DB); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", opts.DB, errNoStore)
		}
	}

	st, err := store.Open(opts.DB, store.WithLogger(opts.Logger))
	if err != nil {
		return nil, err
	}

	componentOpts := []trait.ComponentOption{trait.WithComponentLogger(opts.Logger)}
	ld, err := loader.New(st,
		loader.WithCacheSize(opts.Config.Loader.CacheSize),
		loader.WithLayer(opts.Config.Loader.Layer),
		loader.WithComponentOptions(componentOpts...),
		loader.WithLogger(opts.Logger),
	)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &env{
		store:  st,
		loader: ld,
		compiler: compiler.New(
			compiler.WithLoader(ld),
			compiler.WithComponentOptions(componentOpts...),
		),
		opts:   componentOpts,
		logger: opts.Logger,
	}, nil
}

func (e *env) Close() error {
	hits, misses := e.loader.Stats()
	e.logger.Debug("signature cache", "hits", hits, "misses", misses)
	return e.store.Close()
}

// fetch loads the component a "layer[:component]" reference names.
func (e *env) fetch(ctx context.Context, ref, name string) (*trait.Component, store.Revision, error) {
	layer, component := harness.ParseRef(ref, name)
	rev, err := e.store.Latest(ctx, component, layer)
	if err != nil {
		return nil, rev, fmt.Errorf("%s in layer %s: %w", component, layer, err)
	}
	c, err := e.store.Load(ctx, rev.Digest, e.opts...)
	if err != nil {
		return nil, rev, err
	}
	return c, rev, nil
}

// put stores c under layer and drops any cached signature copy.
func (e *env) put(ctx context.Context, layer string, c *trait.Component) (store.Revision, bool, error) {
	rev, inserted, err := e.store.Put(ctx, layer, c)
	if err != nil {
		return rev, false, err
	}
	e.loader.Invalidate(c.Name)
	return rev, inserted, nil
}

// compilePath compiles a CUE file or a directory holding one CUE package.
func compilePath(ctx context.Context, c *compiler.Compiler, path string) ([]*trait.Component, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return c.CompileDir(ctx, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return c.CompileString(ctx, string(data), path)
}

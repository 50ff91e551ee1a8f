// Package loader resolves signature components by name from a store,
// keeping recently used components in an LRU cache.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/trait"
)

// DefaultCacheSize is the number of components cached when no size is
// configured.
const DefaultCacheSize = 256

// Source reads the current state of a component at a layer. It returns an
// error wrapping store.ErrNotFound when nothing is stored. *store.Store
// implements it.
type Source interface {
	Get(ctx context.Context, name, layer string, opts ...trait.ComponentOption) (*trait.Component, error)
}

// Loader implements trait.Loader over a Source.
//
// Absent components are cached too, so repeated lookups of an unknown name
// do not reach the source. Cached components are never handed out
// directly: each call returns a private copy the caller may mutate.
type Loader struct {
	src    Source
	layer  string
	size   int
	cache  *lru.Cache[string, *trait.Component]
	opts   []trait.ComponentOption
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Loader.
type Option func(*Loader)

// WithCacheSize sets the number of cached components.
func WithCacheSize(n int) Option {
	return func(l *Loader) {
		l.size = n
	}
}

// WithLayer sets the layer signature components are read from. Defaults
// to store.SignatureLayer.
func WithLayer(layer string) Option {
	return func(l *Loader) {
		l.layer = layer
	}
}

// WithComponentOptions sets the options applied to every returned
// component.
func WithComponentOptions(opts ...trait.ComponentOption) Option {
	return func(l *Loader) {
		l.opts = append(l.opts, opts...)
	}
}

// WithLogger sets the logger used for cache events.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// New creates a Loader reading from src.
func New(src Source, opts ...Option) (*Loader, error) {
	l := &Loader{
		src:    src,
		layer:  store.SignatureLayer,
		size:   DefaultCacheSize,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	cache, err := lru.New[string, *trait.Component](l.size)
	if err != nil {
		return nil, fmt.Errorf("create loader cache: %w", err)
	}
	l.cache = cache
	return l, nil
}

// LoadSignature returns the signature component called name, or (nil, nil)
// when none is stored.
func (l *Loader) LoadSignature(ctx context.Context, name string) (*trait.Component, error) {
	if c, ok := l.cache.Get(name); ok {
		l.hits.Add(1)
		return l.copy(c), nil
	}
	l.misses.Add(1)

	c, err := l.src.Get(ctx, name, l.layer)
	if errors.Is(err, store.ErrNotFound) {
		l.logger.Debug("signature not found", "component", name, "layer", l.layer)
		l.cache.Add(name, nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load signature %s: %w", name, err)
	}
	if !c.Signature {
		return nil, fmt.Errorf("load signature %s: component is not a signature component", name)
	}

	if evicted := l.cache.Add(name, c); evicted {
		l.logger.Debug("signature cache evicted", "size", l.size)
	}
	return l.copy(c), nil
}

// Invalidate drops name from the cache. Call it after storing a new
// revision of a signature component.
func (l *Loader) Invalidate(name string) {
	l.cache.Remove(name)
}

// Purge empties the cache.
func (l *Loader) Purge() {
	l.cache.Purge()
}

// Stats reports cache hits and misses since creation.
func (l *Loader) Stats() (hits, misses int64) {
	return l.hits.Load(), l.misses.Load()
}

// copy returns a component equal to c that shares no behaviors with it.
func (l *Loader) copy(c *trait.Component) *trait.Component {
	if c == nil {
		return nil
	}
	out := trait.NewComponent(c.Facts, l.opts...)
	for _, b := range c.Behaviors() {
		// signatures are unique in c
		_ = out.Add(b)
	}
	return out
}

var _ trait.Loader = (*Loader)(nil)

package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/testutil"
	"github.com/roach88/traitc/internal/trait"
)

// countingSource serves components from a map and counts lookups.
type countingSource struct {
	components map[string]*trait.Component
	calls      int
	err        error
}

func (s *countingSource) Get(_ context.Context, name, layer string, opts ...trait.ComponentOption) (*trait.Component, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	c, ok := s.components[name]
	if !ok {
		return nil, fmt.Errorf("latest %s@%s: %w", name, layer, store.ErrNotFound)
	}
	return c, nil
}

func ledger(t *testing.T) *trait.Component {
	t.Helper()
	c := trait.NewComponent(trait.Facts{Name: "demo.Ledger", Mode: trait.Resolved, Signature: true})
	require.NoError(t, c.Add(&trait.Behavior{
		Trait:  trait.Trait{UID: testutil.UID(1), Mode: trait.Resolved, Origin: trait.Origin{Level: trait.OriginThis}},
		Name:   "balance",
		Flags:  trait.Flags{Exists: trait.Unspec(trait.ExistsInsert), Abstract: trait.Unspec(true)},
		Return: trait.ReturnValue{Trait: trait.Trait{Mode: trait.Resolved}, Type: trait.Long},
	}))
	return c
}

func TestLoadSignature_CachesHits(t *testing.T) {
	src := &countingSource{components: map[string]*trait.Component{"demo.Ledger": ledger(t)}}
	l, err := New(src)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		c, err := l.LoadSignature(context.Background(), "demo.Ledger")
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, []string{"balance()"}, c.Signatures())
	}

	assert.Equal(t, 1, src.calls)
	hits, misses := l.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
}

func TestLoadSignature_ReturnsCopies(t *testing.T) {
	src := &countingSource{components: map[string]*trait.Component{"demo.Ledger": ledger(t)}}
	l, err := New(src)
	require.NoError(t, err)

	first, err := l.LoadSignature(context.Background(), "demo.Ledger")
	require.NoError(t, err)
	require.NoError(t, first.Add(&trait.Behavior{Name: "scratch"}))

	second, err := l.LoadSignature(context.Background(), "demo.Ledger")
	require.NoError(t, err)
	assert.Equal(t, 1, second.Len())
}

func TestLoadSignature_AbsentIsCached(t *testing.T) {
	src := &countingSource{components: map[string]*trait.Component{}}
	l, err := New(src)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		c, err := l.LoadSignature(context.Background(), "demo.Missing")
		require.NoError(t, err)
		assert.Nil(t, c)
	}
	assert.Equal(t, 1, src.calls)

	l.Invalidate("demo.Missing")
	_, err = l.LoadSignature(context.Background(), "demo.Missing")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestLoadSignature_Eviction(t *testing.T) {
	src := &countingSource{components: map[string]*trait.Component{}}
	l, err := New(src, WithCacheSize(1))
	require.NoError(t, err)

	ctx := context.Background()
	for _, name := range []string{"a", "b", "a"} {
		_, err := l.LoadSignature(ctx, name)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, src.calls)

	l.Purge()
	_, err = l.LoadSignature(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 4, src.calls)
}

func TestLoadSignature_Errors(t *testing.T) {
	boom := errors.New("disk on fire")
	l, err := New(&countingSource{err: boom})
	require.NoError(t, err)
	_, err = l.LoadSignature(context.Background(), "demo.Ledger")
	assert.ErrorIs(t, err, boom)

	plain := trait.NewComponent(trait.Facts{Name: "demo.Plain", Mode: trait.Resolved})
	l, err = New(&countingSource{components: map[string]*trait.Component{"demo.Plain": plain}})
	require.NoError(t, err)
	_, err = l.LoadSignature(context.Background(), "demo.Plain")
	assert.ErrorContains(t, err, "not a signature component")
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New(&countingSource{}, WithCacheSize(0))
	assert.Error(t, err)
}

func TestLoadSignature_FromStore(t *testing.T) {
	ctx := context.Background()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	_, _, err = s.Put(ctx, store.SignatureLayer, ledger(t))
	require.NoError(t, err)

	l, err := New(s)
	require.NoError(t, err)
	c, err := l.LoadSignature(ctx, "demo.Ledger")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.True(t, c.Signature)
	assert.Equal(t, ledger(t).Behaviors(), c.Behaviors())

	c, err = l.LoadSignature(ctx, "demo.Account")
	require.NoError(t, err)
	assert.Nil(t, c)
}

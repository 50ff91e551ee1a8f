package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitc/internal/digest"
	"github.com/roach88/traitc/internal/trait"
)

func seedLayers(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	_, _, err := s.Put(ctx, BaseLayer, accountBase(t))
	require.NoError(t, err)
	_, _, err = s.Put(ctx, "acme", accountCustomization(t))
	require.NoError(t, err)
}

func TestRebuild_AppliesLayers(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedLayers(t, s)

	c, steps, err := s.Rebuild(ctx, "demo.Account", []string{BaseLayer, "acme"}, trait.NewErrorList())
	require.NoError(t, err)

	assert.Equal(t, trait.Resolved, c.Mode)
	assert.Equal(t, []string{"getX()", "reset()"}, c.Signatures())
	require.Len(t, steps, 1)
	assert.Equal(t, "acme", steps[0].Layer)
	assert.False(t, steps[0].Cached)
	assert.Equal(t, digest.MustComponent(c), steps[0].Result)
}

func TestRebuild_MemoizesSteps(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedLayers(t, s)
	layers := []string{BaseLayer, "acme"}

	first, steps1, err := s.Rebuild(ctx, "demo.Account", layers, nil)
	require.NoError(t, err)

	second, steps2, err := s.Rebuild(ctx, "demo.Account", layers, nil)
	require.NoError(t, err)

	require.Len(t, steps2, 1)
	assert.True(t, steps2[0].Cached)
	assert.Equal(t, steps1[0].Result, steps2[0].Result)
	assert.Equal(t, digest.MustComponent(first), digest.MustComponent(second))
	assert.Equal(t, 1, countRows(t, s, "resolutions"))
}

func TestRebuild_SkipsMissingLayers(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedLayers(t, s)

	c, steps, err := s.Rebuild(ctx, "demo.Account", []string{BaseLayer, "other", "acme"}, nil)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "acme", steps[0].Layer)
	assert.Equal(t, 2, c.Len())

	c, steps, err = s.Rebuild(ctx, "demo.Account", []string{BaseLayer}, nil)
	require.NoError(t, err)
	assert.Empty(t, steps)
	assert.Equal(t, []string{"getX()"}, c.Signatures())
}

func TestRebuild_Errors(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedLayers(t, s)

	_, _, err := s.Rebuild(ctx, "demo.Account", nil, nil)
	assert.ErrorContains(t, err, "no layers")

	_, _, err = s.Rebuild(ctx, "demo.Missing", []string{BaseLayer}, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.Rebuild(ctx, "demo.Account", []string{"acme"}, nil)
	assert.ErrorContains(t, err, "holds a modification component")
}

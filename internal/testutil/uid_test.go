package testutil

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceUIDs_StartsAtOne(t *testing.T) {
	g := NewSequenceUIDs()
	assert.Equal(t, uint64(0), g.Current())

	first := g.NewUID()
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", first.String())
	assert.Equal(t, uint64(1), g.Current())
}

func TestSequenceUIDs_Monotonic(t *testing.T) {
	g := NewSequenceUIDs()
	assert.Equal(t, UID(1), g.NewUID())
	assert.Equal(t, UID(2), g.NewUID())
	assert.Equal(t, UID(3), g.NewUID())
	assert.Equal(t, "00000000-0000-0000-0000-000000000010", UID(16).String())
}

func TestSequenceUIDs_Reset(t *testing.T) {
	g := NewSequenceUIDs()
	g.NewUID()
	g.NewUID()
	g.Reset()

	assert.Equal(t, uint64(0), g.Current())
	assert.Equal(t, UID(1), g.NewUID())
}

func TestSequenceUIDs_NeverNil(t *testing.T) {
	g := NewSequenceUIDs()
	for i := 0; i < 10; i++ {
		assert.NotEqual(t, uuid.Nil, g.NewUID())
	}
}

func TestSequenceUIDs_ThreadSafe(t *testing.T) {
	g := NewSequenceUIDs()

	const goroutines = 50
	const perGoroutine = 20

	var wg sync.WaitGroup
	results := make(chan uuid.UUID, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				results <- g.NewUID()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uuid.UUID]bool)
	for u := range results {
		require.False(t, seen[u], "duplicate UID %s", u)
		seen[u] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
	assert.Equal(t, uint64(goroutines*perGoroutine), g.Current())
}

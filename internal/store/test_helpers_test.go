package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/traitc/internal/testutil"
	"github.com/roach88/traitc/internal/trait"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func declared(n uint64, mode trait.Mode) trait.Trait {
	return trait.Trait{
		UID:    testutil.UID(n),
		Mode:   mode,
		Origin: trait.Origin{Level: trait.OriginThis, Manual: true},
	}
}

// createTestBehavior creates a public behavior with no parameters.
func createTestBehavior(n uint64, mode trait.Mode, name string, ret trait.DataType) *trait.Behavior {
	exists := trait.Unspec(trait.ExistsInsert)
	if mode != trait.Resolved {
		exists = trait.Spec(trait.ExistsInsert)
	}
	return &trait.Behavior{
		Trait: declared(n, mode),
		Name:  name,
		Flags: trait.Flags{
			Exists: exists,
			Access: trait.Unspec(trait.AccessPublic),
		},
		Return: trait.ReturnValue{Trait: declared(n+100, mode), Type: ret},
	}
}

// createTestComponent creates a component holding the given behaviors.
func createTestComponent(t *testing.T, name string, mode trait.Mode, behaviors ...*trait.Behavior) *trait.Component {
	t.Helper()
	c := trait.NewComponent(trait.Facts{Name: name, Mode: mode})
	for _, b := range behaviors {
		require.NoError(t, c.Add(b))
	}
	return c
}

// accountBase is a resolved component with a single getter.
func accountBase(t *testing.T) *trait.Component {
	return createTestComponent(t, "demo.Account", trait.Resolved,
		createTestBehavior(1, trait.Resolved, "getX", trait.Int))
}

// accountCustomization inserts reset() at a customization layer.
func accountCustomization(t *testing.T) *trait.Component {
	return createTestComponent(t, "demo.Account", trait.Modification,
		createTestBehavior(20, trait.Modification, "reset", trait.Void))
}

package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join("testdata", "scenarios", "customize_account.yaml"),
		filepath.Join("testdata", "scenarios", "rejected_deltas.yaml"),
		filepath.Join("testdata", "scenarios", "savings_derivation.yaml"),
	}, files)
}

func TestFindScenarios_File(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "rejected_deltas.yaml")
	files, err := FindScenarios(path)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestFindScenarios_Missing(t *testing.T) {
	_, err := FindScenarios(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRunAll(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)

	broken := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("name: [\n"), 0644))
	files = append(files, broken)

	outcomes, err := RunAll(context.Background(), files, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	for i, o := range outcomes[:3] {
		assert.Equal(t, files[i], o.Path)
		require.NoError(t, o.Err, o.Path)
		assert.True(t, o.Result.Pass, "%s: %v", o.Path, o.Result.Errors)
	}
	assert.Equal(t, "customize_account", outcomes[0].Result.Scenario)

	assert.Equal(t, broken, outcomes[3].Path)
	assert.Error(t, outcomes[3].Err)
	assert.Nil(t, outcomes[3].Result)
}

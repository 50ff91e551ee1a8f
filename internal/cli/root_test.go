package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "traitc", cmd.Use)
	assert.Contains(t, cmd.Long, "customization deltas")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"validate"},
		{"resolve"},
		{"extract"},
		{"test"},
		{"store", "put"},
		{"store", "show"},
		{"store", "history"},
		{"store", "list"},
		{"store", "rebuild"},
		{"store", "export"},
		{"store", "import"},
	}

	for _, path := range commands {
		t.Run(filepath.Join(path...), func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err)
			require.NotNil(t, subCmd)
			assert.Equal(t, path[len(path)-1], subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestResolveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	resolveCmd, _, err := cmd.Find([]string{"resolve"})
	require.NoError(t, err)

	assert.Equal(t, "base", resolveCmd.Flags().Lookup("base").DefValue)
	require.NotNil(t, resolveCmd.Flags().Lookup("delta"))
	require.NotNil(t, resolveCmd.Flags().Lookup("into"))
}

func TestInvalidFormat(t *testing.T) {
	w := newWorkspace(t)
	_, err := w.run("--format", "yaml", "validate", "testdata/account.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestMissingConfigFile(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(os.Stdout)
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "validate", "testdata/account.cue"})

	err := root.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "load config")
}

func TestConfigSetsFormat(t *testing.T) {
	w := newWorkspace(t)
	content := "store:\n  path: " + w.db + "\noutput:\n  format: json\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(w.config, []byte(content), 0644))

	out, err := w.run("validate", "testdata/account.cue")
	require.NoError(t, err)
	resp := decode(t, out, nil)
	assert.Equal(t, "ok", resp.Status)

	// an explicit flag wins over the file
	out, err = w.run("--format", "text", "validate", "testdata/account.cue")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 component(s) valid")
}

func TestDBFlagOverridesConfig(t *testing.T) {
	w := newWorkspace(t)
	other := filepath.Join(t.TempDir(), "other.db")

	_, err := w.run("--db", other, "store", "put", "testdata/account.cue")
	require.NoError(t, err)

	_, err = os.Stat(other)
	assert.NoError(t, err)
	_, err = os.Stat(w.db)
	assert.True(t, os.IsNotExist(err))
}

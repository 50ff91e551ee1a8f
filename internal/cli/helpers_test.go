package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// workspace is a temporary config and store for one test.
type workspace struct {
	dir    string
	config string
	db     string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	dir := t.TempDir()
	w := &workspace{
		dir:    dir,
		config: filepath.Join(dir, "traitc.yaml"),
		db:     filepath.Join(dir, "traitc.db"),
	}
	content := "store:\n  path: " + w.db + "\nlog:\n  level: error\nlayers: [base, custom]\n"
	require.NoError(t, os.WriteFile(w.config, []byte(content), 0644))
	return w
}

// run executes the root command against the workspace and returns stdout.
func (w *workspace) run(args ...string) (string, error) {
	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", w.config}, args...))
	err := root.Execute()
	return out.String(), err
}

// seed stores the account base and its customization.
func (w *workspace) seed(t *testing.T) {
	t.Helper()
	_, err := w.run("store", "put", "testdata/account.cue")
	require.NoError(t, err)
	_, err = w.run("store", "put", "testdata/custom.cue", "--layer", "custom")
	require.NoError(t, err)
}

// response is a decoded JSON envelope.
type response struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func decode(t *testing.T, out string, data any) response {
	t.Helper()
	var resp response
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	if data != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func signatures(v ComponentView) []string {
	sigs := make([]string, len(v.Behaviors))
	for i, b := range v.Behaviors {
		sigs[i] = b.Signature
	}
	return sigs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

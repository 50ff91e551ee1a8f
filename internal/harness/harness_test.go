package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/traitc/internal/store"
)

const inlineLayers = `
name: inline
description: "Inline layers"
layers:
  - name: base
    source: 'component: "demo.A": behavior: run: {}'
  - name: custom
    source: 'component: "demo.A": {mode: "modification", behavior: run: deprecated: true}'
`

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		file  string
		steps int
	}{
		{"savings_derivation.yaml", 2},
		{"rejected_deltas.yaml", 2},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			s, err := LoadScenario("testdata/scenarios/" + tt.file)
			require.NoError(t, err)

			result, err := Run(context.Background(), s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, tt.steps)
		})
	}
}

func TestRun_ExpectedErrorIsTraced(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/rejected_deltas.yaml")
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, result.Trace, 2)

	assert.Equal(t, []string{"RESOLVE_BEHAVIORDISCARDED"}, result.Trace[0].Diagnostics)
	assert.Contains(t, result.Trace[1].Error, "ILLEGAL_MODE")
	assert.Empty(t, result.Trace[1].Signatures)
}

func TestRun_ExpectationMismatch(t *testing.T) {
	s, err := ParseScenario([]byte(inlineLayers + `
steps:
  - op: resolve
    component: demo.A
    base: base
    delta: custom
    expect:
      signatures: ["walk()"]
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step 0 (resolve): expectation failed: signatures")
	assert.Contains(t, result.Errors[0], "[run()]")
	assert.Equal(t, []string{"run()"}, result.Trace[0].Signatures)
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s, err := ParseScenario([]byte(inlineLayers + `
steps:
  - op: resolve
    component: demo.A
    base: base
    delta: custom
    expect:
      error: ILLEGAL_MODE
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "step succeeded")
}

func TestRun_UnexpectedErrorStopsScenario(t *testing.T) {
	s, err := ParseScenario([]byte(inlineLayers + `
steps:
  - op: resolve
    component: demo.A
    base: base
    delta: base
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 0 (resolve demo.A)")
	assert.Contains(t, err.Error(), "ILLEGAL_MODE")
}

func TestRun_MissingComponent(t *testing.T) {
	s, err := ParseScenario([]byte(inlineLayers + `
steps:
  - op: extract
    component: demo.Missing
    derived: base
    base: custom
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRun_LayerDoesNotCompile(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: broken
description: "A layer with an unknown field"
layers:
  - name: base
    source: 'component: "demo.A": behavior: run: colour: "red"'
steps:
  - op: same
    component: demo.A
    refs: [base, base]
`))
	require.NoError(t, err)

	_, err = Run(context.Background(), s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load layers")
	assert.Contains(t, err.Error(), "layer base")
}

func TestRun_SameDetectsDifference(t *testing.T) {
	s, err := ParseScenario([]byte(inlineLayers + `
steps:
  - op: resolve
    component: demo.A
    base: base
    delta: custom
    into: derived
  - op: same
    component: demo.A
    refs: [base, derived]
`))
	require.NoError(t, err)

	result, err := Run(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "derived identical to base")
}

func TestRun_Deterministic(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/savings_derivation.yaml")
	require.NoError(t, err)

	first, err := Run(context.Background(), s)
	require.NoError(t, err)
	second, err := Run(context.Background(), s)
	require.NoError(t, err)

	a, err := MarshalSnapshot(first)
	require.NoError(t, err)
	b, err := MarshalSnapshot(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_Cancelled(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/savings_derivation.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Run(ctx, s)
	require.Error(t, err)
}

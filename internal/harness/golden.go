package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/traitc/internal/digest"
)

// Snapshot captures the trace of a scenario execution.
// It is serialized as canonical JSON for deterministic comparison.
type Snapshot struct {
	Scenario string      `json:"scenario"`
	Pass     bool        `json:"pass"`
	Trace    []StepTrace `json:"trace"`
}

// MarshalSnapshot renders the canonical JSON snapshot of result.
func MarshalSnapshot(result *Result) ([]byte, error) {
	return digest.Canonical(Snapshot{
		Scenario: result.Scenario,
		Pass:     result.Pass,
		Trace:    result.Trace,
	})
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalSnapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

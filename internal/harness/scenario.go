package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario defines a resolve/extract conformance scenario.
// Layers of component definitions are compiled into a fresh store, then
// steps resolve, extract and rebuild components across those layers and
// assert on the results.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Layers lists the definition layers in load order.
	Layers []Layer `yaml:"layers"`

	// Steps are executed in order against the loaded layers.
	Steps []Step `yaml:"steps"`
}

// Layer is one named set of CUE component definitions. Exactly one of
// Source and File is set; File is relative to the scenario file.
type Layer struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// Step is one operation of a scenario.
type Step struct {
	// Op is one of resolve, extract, rebuild or same.
	Op string `yaml:"op"`

	// Component is the default component name for the step's references.
	Component string `yaml:"component"`

	// Base and Delta reference the inputs of resolve; Derived and Base those
	// of extract. A reference is "layer" or "layer:component".
	Base    string `yaml:"base,omitempty"`
	Delta   string `yaml:"delta,omitempty"`
	Derived string `yaml:"derived,omitempty"`

	// Chain lists the layers replayed by rebuild.
	Chain []string `yaml:"chain,omitempty"`

	// Refs lists the components compared by same.
	Refs []string `yaml:"refs,omitempty"`

	// Into names the layer that receives the step's result.
	Into string `yaml:"into,omitempty"`

	// Expect validates the step's result. If nil, only success is required.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect validates the component produced by a step.
type Expect struct {
	// Error, when set, requires the step to fail with an error containing it.
	Error string `yaml:"error,omitempty"`

	// Signatures is the exact sorted behavior signature list.
	Signatures []string `yaml:"signatures,omitempty"`

	// Absent lists signatures that must not be present.
	Absent []string `yaml:"absent,omitempty"`

	// Diagnostics lists diagnostic codes that must have been reported.
	Diagnostics []string `yaml:"diagnostics,omitempty"`

	// Clean requires that no diagnostic was reported.
	Clean bool `yaml:"clean,omitempty"`

	// Mode is the expected component mode.
	Mode string `yaml:"mode,omitempty"`

	// Behaviors holds per-signature expectations.
	Behaviors map[string]BehaviorExpect `yaml:"behaviors,omitempty"`
}

// BehaviorExpect validates one behavior. Empty fields are not checked.
type BehaviorExpect struct {
	// Flags is the expected flag description (Flags.Describe(false)).
	Flags string `yaml:"flags,omitempty"`

	// Specified is the expected description of specified flags only.
	Specified string `yaml:"specified,omitempty"`

	// Returns is the expected return type in source form.
	Returns string `yaml:"returns,omitempty"`

	// Throws lists the throwable exceptions, sorted.
	Throws []string `yaml:"throws,omitempty"`

	// Scripts is the expected number of scripts.
	Scripts *int `yaml:"scripts,omitempty"`

	// Interfaces lists the declaring interfaces.
	Interfaces []string `yaml:"interfaces,omitempty"`
}

// Step op constants.
const (
	OpResolve = "resolve"
	OpExtract = "extract"
	OpRebuild = "rebuild"
	OpSame    = "same"
)

var layerName = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Layer files are resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, layer := range scenario.Layers {
		if layer.File != "" && !filepath.IsAbs(layer.File) {
			scenario.Layers[i].File = filepath.Join(base, layer.File)
		}
	}
	for _, layer := range scenario.Layers {
		if layer.File == "" {
			continue
		}
		if _, err := os.Stat(layer.File); os.IsNotExist(err) {
			return nil, fmt.Errorf("invalid scenario: layer %s: file not found: %s", layer.Name, layer.File)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Layer files are left as written.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "step:" vs "steps:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Layers) == 0 {
		return fmt.Errorf("layers list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	// layers known before each step, so references can be checked in order
	known := make(map[string]bool, len(s.Layers))
	for i, layer := range s.Layers {
		if !layerName.MatchString(layer.Name) {
			return fmt.Errorf("layers[%d]: invalid layer name %q", i, layer.Name)
		}
		if known[layer.Name] {
			return fmt.Errorf("layers[%d]: duplicate layer %q", i, layer.Name)
		}
		if (layer.Source == "") == (layer.File == "") {
			return fmt.Errorf("layers[%d]: exactly one of source and file is required", i)
		}
		known[layer.Name] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, known); err != nil {
			return err
		}
		if step.Into != "" {
			known[step.Into] = true
		}
	}
	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step, known map[string]bool) error {
	if st.Op == "" {
		return fmt.Errorf("steps[%d]: op is required", index)
	}
	if st.Component == "" {
		return fmt.Errorf("steps[%d]: component is required", index)
	}

	refs := func(what string, names ...string) error {
		for _, ref := range names {
			if ref == "" {
				return fmt.Errorf("steps[%d]: %s is required for %s", index, what, st.Op)
			}
			layer, _ := ParseRef(ref, st.Component)
			if !known[layer] {
				return fmt.Errorf("steps[%d]: unknown layer %q", index, layer)
			}
		}
		return nil
	}

	switch st.Op {
	case OpResolve:
		if err := refs("base", st.Base); err != nil {
			return err
		}
		if err := refs("delta", st.Delta); err != nil {
			return err
		}
	case OpExtract:
		if err := refs("derived", st.Derived); err != nil {
			return err
		}
		if err := refs("base", st.Base); err != nil {
			return err
		}
	case OpRebuild:
		if len(st.Chain) == 0 {
			return fmt.Errorf("steps[%d]: chain is required for rebuild", index)
		}
		if err := refs("chain", st.Chain...); err != nil {
			return err
		}
	case OpSame:
		if len(st.Refs) < 2 {
			return fmt.Errorf("steps[%d]: same needs at least two refs", index)
		}
		if err := refs("refs", st.Refs...); err != nil {
			return err
		}
		if st.Into != "" {
			return fmt.Errorf("steps[%d]: same does not produce a result", index)
		}
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}

	if st.Into != "" && !layerName.MatchString(st.Into) {
		return fmt.Errorf("steps[%d]: invalid layer name %q", index, st.Into)
	}
	return nil
}

// ParseRef splits a "layer" or "layer:component" reference. The component
// defaults to def.
func ParseRef(ref, def string) (layer, component string) {
	if l, c, ok := strings.Cut(ref, ":"); ok {
		return l, c
	}
	return ref, def
}

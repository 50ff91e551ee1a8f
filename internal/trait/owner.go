package trait

// Owner exposes the component-level facts that behavior rules consult.
type Owner interface {
	// ComponentName is the name of the owning component.
	ComponentName() string

	// ComponentMode is the mode of the owning component.
	ComponentMode() Mode

	// IsGlobal reports whether the component is global; only behaviors of
	// global components may become remote.
	IsGlobal() bool

	// IsRemote reports whether the component is remote.
	IsRemote() bool

	// IsSignature reports whether the component mirrors a compiled class
	// signature.
	IsSignature() bool

	// ExtractMode is the mode a delta extracted from two resolved traits
	// takes: Derivation against a super component, Modification against a
	// base of the same name.
	ExtractMode() Mode
}

// Facts is the plain-value Owner used by Component and by callers driving
// Behavior resolve/extract directly.
type Facts struct {
	Name      string `json:"name"`
	Super     string `json:"super,omitempty"`
	Mode      Mode   `json:"mode"`
	Global    bool   `json:"global,omitempty"`
	Remote    bool   `json:"remote,omitempty"`
	Signature bool   `json:"signature,omitempty"`
	ExtractAs Mode   `json:"extract_as,omitempty"`
}

func (f Facts) ComponentName() string { return f.Name }
func (f Facts) ComponentMode() Mode   { return f.Mode }
func (f Facts) IsGlobal() bool        { return f.Global }
func (f Facts) IsRemote() bool        { return f.Remote }
func (f Facts) IsSignature() bool     { return f.Signature }
func (f Facts) ExtractMode() Mode     { return f.ExtractAs }

// extractMode determines the mode of a delta computed from derived and
// base. Two resolved traits take the owner's extract mode; anything else
// extracts as a Modification.
func extractMode(owner Owner, derived, base Trait, path string) (Mode, error) {
	if derived.Mode != Resolved || base.Mode != Resolved {
		return Modification, nil
	}
	mode := owner.ExtractMode()
	if !mode.IsDelta() {
		return mode, newComponentError(ErrCodeIllegalExtractMode, path,
			"owner %q reported extract mode %s", owner.ComponentName(), mode)
	}
	return mode, nil
}

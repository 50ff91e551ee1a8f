package trait

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Behavior is one method or event signature of a component together with
// its return value, parameters, declared exceptions and implementation
// chain.
type Behavior struct {
	Trait
	Name      string `json:"name"`
	Flags     Flags  `json:"flags"`
	PrevFlags Flags  `json:"prev_flags"`

	Return     ReturnValue  `json:"return"`
	Params     []Parameter  `json:"params,omitempty"`
	Exceptions ThroweeTable `json:"exceptions,omitempty"`

	// Scripts is the super-call chain. The trailing BaseLevelImpl scripts
	// belong to the modified base level; OverrideBase makes them
	// unreachable.
	Scripts       []Implementation `json:"scripts,omitempty"`
	OverrideBase  bool             `json:"override_base,omitempty"`
	BaseLevelImpl int              `json:"base_level_impl,omitempty"`

	// PrevOverrideBase is resolve-only state; FinalizeResolve clears it.
	PrevOverrideBase bool `json:"-"`
}

// Signature returns the behavior name followed by the parenthesized
// concatenation of the parameter type descriptors, e.g. "debit(JLjava/lang/String;)".
func (b *Behavior) Signature() string {
	return signatureOf(b.Name, b.Params)
}

func signatureOf(name string, params []Parameter) string {
	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(p.Signature())
	}
	sb.WriteByte(')')
	return sb.String()
}

// String renders the behavior in source form, e.g. "int add(int a, int b)".
func (b *Behavior) String() string {
	parts := make([]string, len(b.Params))
	for i, p := range b.Params {
		parts[i] = p.String()
	}
	return b.Return.Type.String() + " " + b.Name + "(" + strings.Join(parts, ", ") + ")"
}

// ModifiableCount is the number of scripts declared at this level.
func (b *Behavior) ModifiableCount() int {
	return len(b.Scripts) - b.BaseLevelImpl
}

// CallableCount is the number of scripts reachable through the super-call
// chain.
func (b *Behavior) CallableCount() int {
	if b.OverrideBase {
		return len(b.Scripts) - b.BaseLevelImpl
	}
	return len(b.Scripts)
}

// Exception returns the throwable exception with the given name.
func (b *Behavior) Exception(name string) (Throwee, bool) {
	e, ok := b.Exceptions[name]
	if !ok || !e.IsThrowable() {
		return Throwee{}, false
	}
	return e, true
}

// ParameterIndex returns the position of the named parameter, matched case
// insensitively, or -1.
func (b *Behavior) ParameterIndex(name string) int {
	for i, p := range b.Params {
		if strings.EqualFold(p.Name, name) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of b.
func (b *Behavior) Clone() *Behavior {
	c := *b
	c.Trait = b.Trait.clone()
	c.Return = b.Return.clone()
	c.Params = slices.Clone(b.Params)
	for i := range c.Params {
		c.Params[i] = c.Params[i].clone()
	}
	c.Exceptions = b.Exceptions.clone()
	c.Scripts = slices.Clone(b.Scripts)
	for i := range c.Scripts {
		c.Scripts[i] = c.Scripts[i].clone()
	}
	return &c
}

// NullDerived returns a delta of b in the given mode that carries no
// information: resolving it against b reproduces b.
func (b *Behavior) NullDerived(mode Mode) *Behavior {
	flags := b.Flags.ClearSpecified()
	flags.Exists = Unspec(ExistsUpdate)
	d := &Behavior{
		Trait:     b.Trait.blank(mode),
		Name:      b.Name,
		Flags:     flags,
		PrevFlags: flags,
		Return:    b.Return.nullDerived(mode),
		Params:    make([]Parameter, len(b.Params)),
	}
	for i, p := range b.Params {
		d.Params[i] = p.nullDerived(mode)
	}
	if len(b.Exceptions) > 0 {
		d.Exceptions = make(ThroweeTable, len(b.Exceptions))
		for k, e := range b.Exceptions {
			d.Exceptions[k] = e.nullDerived(mode)
		}
	}
	return d
}

// IsDiscardable reports whether b carries no information worth keeping.
// A resolved signature behavior is never discardable.
func (b *Behavior) IsDiscardable(owner Owner) bool {
	if b.Mode == Resolved {
		if owner.IsSignature() {
			return false
		}
		return b.Trait.isDiscardable()
	}
	if b.Flags.AnySpecified() || b.PrevFlags.AnySpecified() || b.OverrideBase || len(b.Scripts) > 0 {
		return false
	}
	if !b.Trait.isDiscardable() || !b.Return.isDiscardable() {
		return false
	}
	for _, p := range b.Params {
		if !p.isDiscardable() {
			return false
		}
	}
	for _, e := range b.Exceptions {
		if !e.isDiscardable() {
			return false
		}
	}
	return true
}

// path identifies b in diagnostics.
func (b *Behavior) path(owner Owner) string {
	return owner.ComponentName() + "." + b.Signature()
}

// verifyMatch reports a name difference between b and base.
func (b *Behavior) verifyMatch(base *Behavior, resolve bool, path string, errs *ErrorList) {
	if b.Name != base.Name {
		errs.Warn(codeFor(resolve, ResolveBehaviorNameChange, ExtractBehaviorNameChange), b.Name, base.Name, path)
	}
}

// scriptUIDs returns the set of script identities.
func scriptUIDs(scripts []Implementation) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(scripts))
	for _, s := range scripts {
		if s.HasUID() {
			set[s.UID] = true
		}
	}
	return set
}

// setMode moves b and every sub-trait to mode. It is used when a trait is
// carried between trees without being resolved or extracted.
func (b *Behavior) setMode(mode Mode) {
	b.Mode = mode
	b.Return.Mode = mode
	for i := range b.Params {
		b.Params[i].Mode = mode
	}
	for k, e := range b.Exceptions {
		e.Mode = mode
		b.Exceptions[k] = e
	}
	for i := range b.Scripts {
		b.Scripts[i].Mode = mode
	}
}

// trimScripts drops scripts from the tail that were not declared at this
// level.
func trimScripts(scripts []Implementation) []Implementation {
	n := len(scripts)
	for n > 0 && !scripts[n-1].IsDeclaredAtThisLevel() {
		n--
	}
	return slices.Clip(scripts[:n])
}

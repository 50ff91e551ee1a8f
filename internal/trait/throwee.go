package trait

import "sort"

// Throwee is one exception declared by a Behavior. It is keyed within the
// behavior by its unique name, the exception class name.
type Throwee struct {
	Trait
	Type   DataType         `json:"type"`
	Exists Field[Existence] `json:"exists"`
}

// UniqueName returns the key of the throwee within its behavior.
func (t Throwee) UniqueName() string {
	if name := t.Type.ClassName(); name != "" {
		return name
	}
	return string(t.Type)
}

// IsThrowable reports whether the exception is declared and not removed.
func (t Throwee) IsThrowable() bool {
	return t.Exists.Value.Present()
}

// resolve composes t (the base) with delta.
//
// A resolved base that is DELETE or NOT yields NOT regardless of the delta;
// a removed exception stays removed down the hierarchy.
func (t Throwee) resolve(delta Throwee, path string, errs *ErrorList) Throwee {
	if delta.Type != t.Type {
		errs.Warn(ResolveExceptTypeChange, delta.Type.String(), t.Type.String(), path)
	}

	derived := Throwee{
		Trait: resolveTrait(t.Trait, delta.Trait, path, errs),
		Type:  t.Type,
	}

	if t.Mode == Resolved {
		switch {
		case !t.Exists.Value.Present():
			derived.Exists = Unspec(ExistsNot)
		case delta.Exists.Specified:
			derived.Exists = delta.Exists
		default:
			derived.Exists = Unspec(ExistsUpdate)
		}
		return derived
	}

	switch {
	case delta.Exists.Specified:
		derived.Exists = delta.Exists
	case t.Exists.Specified:
		derived.Exists = t.Exists
	default:
		derived.Exists = Unspec(ExistsUpdate)
	}
	return derived
}

// extract computes the delta of t (the derived throwee) against base. Only a
// removal is ever recorded; every other difference extracts to UPDATE.
func (t Throwee) extract(base Throwee, mode Mode, path string, errs *ErrorList) Throwee {
	if t.Type != base.Type {
		errs.Warn(ExtractExceptTypeChange, t.Type.String(), base.Type.String(), path)
	}

	delta := Throwee{
		Trait:  extractTrait(t.Trait, base.Trait, mode, path, errs),
		Type:   base.Type,
		Exists: Unspec(ExistsUpdate),
	}
	if t.Exists.Value == ExistsDelete && base.Exists.Value.Present() &&
		(base.Mode == Resolved || t.Exists.Specified) {
		delta.Exists = Spec(ExistsDelete)
	}
	return delta
}

func (t Throwee) nullDerived(mode Mode) Throwee {
	return Throwee{
		Trait:  t.Trait.blank(mode),
		Type:   t.Type,
		Exists: Unspec(t.Exists.Value),
	}
}

// isDiscardable reports whether the throwee can be dropped from its
// behavior. A delta with specified existence carries a removal and is kept;
// a resolved throwee that no longer exists is dropped.
func (t Throwee) isDiscardable() bool {
	if t.Mode == Resolved {
		return t.Exists.Value == ExistsNot || t.Trait.isDiscardable()
	}
	if t.Exists.Specified {
		return false
	}
	return t.Trait.isDiscardable()
}

func (t *Throwee) finalizeResolve(path string, errs *ErrorList) {
	t.Trait.finalizeResolve(path, errs)
	t.Exists.Specified = false
}

func (t Throwee) clone() Throwee {
	t.Trait = t.Trait.clone()
	return t
}

// ThroweeTable holds the exceptions of a Behavior keyed by unique name.
type ThroweeTable map[string]Throwee

// Keys returns the table keys in sorted order.
func (t ThroweeTable) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Throwable returns the sorted keys of the exceptions that are throwable.
func (t ThroweeTable) Throwable() []string {
	var keys []string
	for _, k := range t.Keys() {
		if t[k].IsThrowable() {
			keys = append(keys, k)
		}
	}
	return keys
}

func (t ThroweeTable) sameKeys(other ThroweeTable) bool {
	if len(t) != len(other) {
		return false
	}
	for k := range t {
		if _, ok := other[k]; !ok {
			return false
		}
	}
	return true
}

func (t ThroweeTable) clone() ThroweeTable {
	if t == nil {
		return nil
	}
	out := make(ThroweeTable, len(t))
	for k, v := range t {
		out[k] = v.clone()
	}
	return out
}

// Put adds or replaces an entry under its unique name.
func (t ThroweeTable) Put(e Throwee) {
	t[e.UniqueName()] = e
}

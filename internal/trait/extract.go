package trait

// Extract computes the delta between b (the derived behavior) and base, so
// that resolving the delta against base reproduces b. Neither input is
// modified.
func (b *Behavior) Extract(base *Behavior, owner Owner, errs *ErrorList) (*Behavior, error) {
	derived := b
	path := derived.path(owner)
	if !base.Mode.Valid() || !derived.Mode.Valid() {
		return nil, newComponentError(ErrCodeIllegalMode, path,
			"cannot extract %s trait against %s base", derived.Mode, base.Mode)
	}

	mode, err := extractMode(owner, derived.Trait, base.Trait, path)
	if err != nil {
		return nil, err
	}

	signature := owner.IsSignature()
	baseResolved := base.Mode == Resolved

	delta := &Behavior{Trait: extractTrait(derived.Trait, base.Trait, mode, path, errs)}
	derived.verifyMatch(base, false, path, errs)

	delta.Name = base.Name
	delta.Flags = ExtractFlags(base.Flags, derived.Flags, baseResolved)
	// a signature resolve reads every attribute from the previous flags
	delta.PrevFlags = base.Flags.ClearSpecified()
	delta.PrevFlags.Exists = Unspec(ExistsUpdate)
	delta.Return = derived.Return.extract(base.Return, mode, path, errs)

	slots := MatchParameters(base.Params, derived.Params, signature, false, path, errs)
	delta.Params = make([]Parameter, len(base.Params))
	for i, p := range base.Params {
		if pd, ok := slots[i].Get(); ok {
			delta.Params[i] = pd.extract(p, mode, path, errs)
		} else {
			delta.Params[i] = p.nullDerived(mode)
		}
	}

	delta.Exceptions = extractExceptions(derived, base, mode, signature, path, errs)

	// scripts are never extracted piecewise; each kept script is copied
	count := len(derived.Scripts)
	if count > 0 && derived.Scripts[count-1].IsSynthetic() {
		count--
	}
	if derived.OverrideBase {
		count -= derived.BaseLevelImpl
	}
	delta.OverrideBase = derived.OverrideBase
	if mode == Derivation {
		delta.BaseLevelImpl = derived.BaseLevelImpl
	}

	inBase := scriptUIDs(base.Scripts)
	for i := 0; i < count; i++ {
		s := derived.Scripts[i]
		if mode == Modification && s.HasUID() && inBase[s.UID] {
			// base scripts form a trailing run; nothing after this one
			// belongs to the delta
			break
		}
		s = s.clone()
		s.Mode = mode
		delta.Scripts = append(delta.Scripts, s)
	}

	return delta, nil
}

// extractExceptions extracts the aligned exception tables. The derived
// behavior may hold more exceptions than the base.
func extractExceptions(derived, base *Behavior, mode Mode, signature bool, path string, errs *ErrorList) ThroweeTable {
	matches := MatchExceptions(base.Exceptions, derived.Exceptions, false, path, errs)
	if len(matches) == 0 {
		return nil
	}

	out := make(ThroweeTable, len(matches))
	for _, m := range matches {
		eb, inBase := base.Exceptions[m.Key]
		ed, matched := m.Slot.Get()

		if !inBase {
			e := ed.clone()
			e.Mode = mode
			out[m.Key] = e
			continue
		}

		if !matched && signature {
			// the super method declares an exception the derived method
			// lacks: reconstruct the removed exception
			ed = eb.resolve(eb.nullDerived(mode), path, errs)
			ed.Exists = Spec(ExistsDelete)
			matched = true
		}
		if matched {
			out[m.Key] = ed.extract(eb, mode, path, errs)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// FinalizeExtract completes an extract: exceptions that carry no
// information are dropped (except on signature components) and trailing
// scripts not declared at this level are trimmed.
func (b *Behavior) FinalizeExtract(owner Owner, errs *ErrorList) {
	if !owner.IsSignature() {
		for k, e := range b.Exceptions {
			if e.isDiscardable() {
				delete(b.Exceptions, k)
			}
		}
		if len(b.Exceptions) == 0 {
			b.Exceptions = nil
		}
	}

	b.Scripts = trimScripts(b.Scripts)
	if len(b.Scripts) == 0 {
		b.Scripts = nil
	}
	b.BaseLevelImpl = 0
}

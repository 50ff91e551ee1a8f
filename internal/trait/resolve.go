package trait

// Resolve composes b (the base) with delta and returns the derived
// behavior. Neither input is modified.
//
// Mismatches between delta and base are reported to errs and the base
// wins. An error is returned only for structurally corrupt input, such as
// an unknown mode or an owner reporting an illegal extract mode.
func (b *Behavior) Resolve(delta *Behavior, owner Owner, errs *ErrorList) (*Behavior, error) {
	base := b
	path := base.path(owner)
	if !base.Mode.Valid() || !delta.Mode.Valid() {
		return nil, newComponentError(ErrCodeIllegalMode, path,
			"cannot resolve %s delta against %s base", delta.Mode, base.Mode)
	}

	delta, err := base.resolveDelta(delta, owner, errs)
	if err != nil {
		return nil, err
	}

	signature := owner.IsSignature()
	baseResolved := base.Mode == Resolved

	derived := &Behavior{Trait: resolveTrait(base.Trait, delta.Trait, path, errs)}
	delta.verifyMatch(base, true, path, errs)

	deltaMode := delta.Mode
	if deltaMode == Resolved {
		// an INSERT behavior that collides with one later added to the base
		deltaMode, err = extractMode(owner, delta.Trait, base.Trait, path)
		if err != nil {
			return nil, err
		}
	}

	prev := ResolveFlags(base.Flags, delta.PrevFlags, owner, baseResolved, path, errs)
	flags := ResolveFlags(prev, delta.Flags, owner, baseResolved, path, errs)

	exists := ExistsUpdate
	if deltaMode == Modification && base.Flags.Exists.Value == ExistsInsert {
		exists = ExistsInsert
	}
	if signature && delta.Flags.Exists.Value == ExistsNot {
		// the method is absent from the compiled class
		exists = ExistsNot
	}
	flags.Exists = Unspec(exists)

	derived.Name = base.Name
	derived.Flags = flags
	derived.PrevFlags = prev

	retDelta := delta.Return
	if retDelta.Type == "" {
		retDelta = base.Return.nullDerived(deltaMode)
	}
	derived.Return = base.Return.resolve(retDelta, path, errs)

	slots := MatchParameters(base.Params, delta.Params, signature, true, path, errs)
	derived.Params = make([]Parameter, len(base.Params))
	for i, p := range base.Params {
		pd, ok := slots[i].Get()
		if !ok {
			pd = p.nullDerived(deltaMode)
		}
		derived.Params[i] = p.resolve(pd, path, errs)
	}

	derived.Exceptions = resolveExceptions(base, delta, deltaMode, derived.Mode, signature, path, errs)

	derived.Scripts = make([]Implementation, 0, len(delta.Scripts))
	for _, s := range delta.Scripts {
		s = s.clone()
		s.Mode = derived.Mode
		derived.Scripts = append(derived.Scripts, s)
	}
	if deltaMode == Modification && !delta.PrevOverrideBase {
		// the delta may itself be a resolve result, so the base chain is
		// appended behind the delta's own scripts
		baseImpl := len(base.Scripts)
		if base.OverrideBase {
			baseImpl -= base.BaseLevelImpl
		}
		if baseImpl < 0 || baseImpl > len(base.Scripts) {
			return nil, newComponentError(ErrCodeCorruptTrait, path,
				"base implementation count %d outside %d scripts", base.BaseLevelImpl, len(base.Scripts))
		}
		for _, s := range base.Scripts[:baseImpl] {
			derived.Scripts = append(derived.Scripts, s.resolve(s.nullDerived(Modification), path, errs))
		}
		derived.BaseLevelImpl = delta.BaseLevelImpl + baseImpl
		derived.OverrideBase = delta.OverrideBase
		derived.PrevOverrideBase = base.OverrideBase || base.PrevOverrideBase
	} else {
		derived.BaseLevelImpl = delta.BaseLevelImpl
		derived.OverrideBase = delta.OverrideBase
		derived.PrevOverrideBase = delta.PrevOverrideBase
	}

	return derived, nil
}

// resolveExceptions resolves the aligned exception tables. The delta may
// hold more exceptions than the base.
func resolveExceptions(base, delta *Behavior, deltaMode, derivedMode Mode, signature bool, path string, errs *ErrorList) ThroweeTable {
	matches := MatchExceptions(base.Exceptions, delta.Exceptions, true, path, errs)
	if len(matches) == 0 {
		return nil
	}

	baseResolved := base.Mode == Resolved
	out := make(ThroweeTable, len(matches))
	for _, m := range matches {
		eb, inBase := base.Exceptions[m.Key]
		ed, matched := m.Slot.Get()

		if !inBase {
			e := ed.clone()
			e.Mode = derivedMode
			if baseResolved {
				// an exception cannot become throwable from a derived level
				switch e.Exists.Value {
				case ExistsInsert:
					e.Exists = Spec(ExistsDelete)
				case ExistsUpdate:
					e.Exists = Spec(ExistsNot)
				}
			}
			out[m.Key] = e
			continue
		}

		if !matched {
			if signature && deltaMode == Derivation {
				// a compiled subclass declared the method without the
				// exception
				e := eb.clone()
				e.Mode = derivedMode
				e.Exists = Spec(ExistsDelete)
				out[m.Key] = e
				continue
			}
			ed = eb.nullDerived(deltaMode)
		}
		out[m.Key] = eb.resolve(ed, path, errs)
	}
	return out
}

// resolveDelta normalizes delta before it is applied to b. A Derivation
// delta applies only to a resolved base and a Resolved delta applies to
// nothing; both are first extracted against b.
func (b *Behavior) resolveDelta(delta *Behavior, owner Owner, errs *ErrorList) (*Behavior, error) {
	switch delta.Mode {
	case Modification:
		return delta, nil
	case Derivation:
		if b.Mode == Resolved {
			return delta, nil
		}
	}
	// keep whatever the would-be delta holds beyond the base
	return delta.Extract(b, owner, errs)
}

// FinalizeResolve completes a resolve whose result is resolved: it forces
// the resolved mode, clears every specified shadow and resolve-only state,
// and drops exceptions that carry no information.
func (b *Behavior) FinalizeResolve(owner Owner, errs *ErrorList) {
	path := b.path(owner)

	b.Trait.finalizeResolve(path, errs)
	b.Flags = b.Flags.ClearSpecified()
	b.PrevFlags = b.PrevFlags.ClearSpecified()
	b.PrevOverrideBase = false

	b.Return.Trait.finalizeResolve(path, errs)
	for i := range b.Params {
		b.Params[i].finalizeResolve(path, errs)
	}
	for k, e := range b.Exceptions {
		e.finalizeResolve(path, errs)
		if e.isDiscardable() {
			delete(b.Exceptions, k)
			continue
		}
		b.Exceptions[k] = e
	}
	for i := range b.Scripts {
		b.Scripts[i].Trait.finalizeResolve(path, errs)
	}
}

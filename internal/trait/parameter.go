package trait

// Parameter is one formal parameter of a Behavior. Its position within the
// owning behavior is part of the signature.
type Parameter struct {
	Trait
	Type      DataType         `json:"type"`
	Name      string           `json:"name"`
	Direction Field[Direction] `json:"direction"`
}

// Signature returns the type descriptor contributed to the behavior
// signature.
func (p Parameter) Signature() string {
	return p.Type.Signature()
}

// String renders the parameter as "T name", prefixed with the direction
// when it is not IN.
func (p Parameter) String() string {
	if p.Direction.Value != DirIn {
		return p.Direction.Value.String() + " " + p.Type.String() + " " + p.Name
	}
	return p.Type.String() + " " + p.Name
}

// resolve composes p (the base) with delta. Type, name and direction are
// rigid: the base values always win and any disagreement is only reported.
func (p Parameter) resolve(delta Parameter, path string, errs *ErrorList) Parameter {
	derived := Parameter{
		Trait:     resolveTrait(p.Trait, delta.Trait, path, errs),
		Type:      p.Type,
		Name:      p.Name,
		Direction: p.Direction,
	}
	delta.verifyMatch(p, true, path, errs)
	return derived
}

// extract computes the delta of p (the derived parameter) against base.
// The delta records the base values so a later resolve can detect drift.
func (p Parameter) extract(base Parameter, mode Mode, path string, errs *ErrorList) Parameter {
	delta := Parameter{
		Trait:     extractTrait(p.Trait, base.Trait, mode, path, errs),
		Type:      base.Type,
		Name:      base.Name,
		Direction: Unspec(base.Direction.Value),
	}
	p.verifyMatch(base, false, path, errs)
	return delta
}

// verifyMatch reports type, name and direction differences between p and
// base.
func (p Parameter) verifyMatch(base Parameter, resolve bool, path string, errs *ErrorList) {
	if p.Type != base.Type {
		errs.Warn(codeFor(resolve, ResolveParamTypeChange, ExtractParamTypeChange),
			p.Type.String(), base.Type.String(), path)
	}
	if p.Name != base.Name {
		errs.Warn(codeFor(resolve, ResolveParamNameChange, ExtractParamNameChange),
			p.Name, base.Name, path)
	}
	if p.Direction.Value != base.Direction.Value {
		errs.Warn(codeFor(resolve, ResolveParamDirChange, ExtractParamDirChange),
			p.Direction.Value.String(), base.Direction.Value.String(), path)
	}
}

// nullDerived returns a delta carrying no information beyond the base
// identity.
func (p Parameter) nullDerived(mode Mode) Parameter {
	return Parameter{
		Trait:     p.Trait.blank(mode),
		Type:      p.Type,
		Name:      p.Name,
		Direction: Unspec(p.Direction.Value),
	}
}

func (p Parameter) isDiscardable() bool {
	return p.Trait.isDiscardable()
}

func (p *Parameter) finalizeResolve(path string, errs *ErrorList) {
	p.Trait.finalizeResolve(path, errs)
	p.Direction.Specified = false
}

func (p Parameter) clone() Parameter {
	p.Trait = p.Trait.clone()
	return p
}

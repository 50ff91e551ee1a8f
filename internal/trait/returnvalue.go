package trait

// ReturnValue is the return type of a Behavior. It is always present; a
// behavior that returns nothing has a Void return value.
type ReturnValue struct {
	Trait
	Type DataType `json:"type"`
}

func (r ReturnValue) resolve(delta ReturnValue, path string, errs *ErrorList) ReturnValue {
	if delta.Type != r.Type {
		errs.Warn(ResolveReturnTypeChange, delta.Type.String(), r.Type.String(), path)
	}
	return ReturnValue{
		Trait: resolveTrait(r.Trait, delta.Trait, path, errs),
		Type:  r.Type,
	}
}

func (r ReturnValue) extract(base ReturnValue, mode Mode, path string, errs *ErrorList) ReturnValue {
	if r.Type != base.Type {
		errs.Warn(ExtractReturnTypeChange, r.Type.String(), base.Type.String(), path)
	}
	return ReturnValue{
		Trait: extractTrait(r.Trait, base.Trait, mode, path, errs),
		Type:  base.Type,
	}
}

func (r ReturnValue) nullDerived(mode Mode) ReturnValue {
	return ReturnValue{Trait: r.Trait.blank(mode), Type: r.Type}
}

func (r ReturnValue) isDiscardable() bool {
	return r.Trait.isDiscardable()
}

func (r ReturnValue) clone() ReturnValue {
	r.Trait = r.Trait.clone()
	return r
}

package trait

// ResolveFlags applies delta onto base and returns the derived flags.
//
// One-way attributes (access, final, remote) never move backward once the
// base value is resolved or specified. An access regression is clamped to
// the base value and reported as ResolveAccessClamped. Flexible attributes
// (visibility, sync, abstract, deprecated) take the delta value when the
// delta specifies it. Scope is never changed. A final base blocks every
// change.
func ResolveFlags(base, delta Flags, owner Owner, baseResolved bool, path string, errs *ErrorList) Flags {
	signature := owner.IsSignature()
	derived := base

	if !signature && !delta.AnySpecified() {
		return derived
	}
	if (baseResolved || base.Final.Specified) && base.Final.Value {
		return derived
	}

	if delta.Visibility.Specified {
		derived.Visibility = delta.Visibility
	}

	if signature || delta.Access.Specified {
		access := delta.Access.Value
		if (baseResolved || base.Access.Specified) && access != base.Access.Value {
			if !accessChangeLegal(base.Access.Value, access) {
				errs.Add(ResolveAccessClamped, SeverityInfo, access.String(), base.Access.Value.String(), path)
				access = base.Access.Value
			}
		}
		derived.Access = Spec(access)
	}

	if signature || delta.Sync.Specified {
		derived.Sync = delta.Sync
	}

	if delta.Abstract.Specified {
		derived.Abstract = delta.Abstract
	}

	if (signature || delta.Final.Specified) && delta.Final.Value {
		derived.Final = delta.Final
	}

	if signature || delta.Deprecated.Specified {
		derived.Deprecated = delta.Deprecated
	}

	if delta.Remote.Specified && delta.Remote.Value &&
		!((baseResolved || base.Remote.Specified) && base.Remote.Value) &&
		owner.IsGlobal() && (owner.ComponentMode() != Resolved || owner.IsRemote()) {
		public := derived.Access.Value == AccessPublic
		if !baseResolved && !derived.Access.Specified {
			// unknown access is assumed public until a resolve supplies it
			public = true
		}
		if public {
			derived.Remote = delta.Remote
		}
	}

	return derived
}

// accessChangeLegal reports whether access may move from base to delta
// during resolve. A private base may change freely; otherwise only
// package to protected and protected to public are allowed.
func accessChangeLegal(base, delta Access) bool {
	switch base {
	case AccessPrivate:
		return true
	case AccessPackage:
		return delta == AccessProtected || delta == AccessPublic
	case AccessProtected:
		return delta == AccessPublic
	default:
		return false
	}
}

// ExtractFlags computes the delta flags between base and derived. An
// attribute is marked specified only when it changed and the base committed
// to a value for it. Existence is always UPDATE; scope is never specified.
func ExtractFlags(base, derived Flags, baseResolved bool) Flags {
	delta := derived.ClearSpecified()
	delta.Exists = Unspec(ExistsUpdate)

	committed := func(specified bool) bool {
		return baseResolved || specified
	}
	delta.Visibility.Specified = derived.Visibility.Value != base.Visibility.Value && committed(base.Visibility.Specified)
	delta.Access.Specified = derived.Access.Value != base.Access.Value && committed(base.Access.Specified)
	delta.Sync.Specified = derived.Sync.Value != base.Sync.Value && committed(base.Sync.Specified)
	delta.Abstract.Specified = derived.Abstract.Value != base.Abstract.Value && committed(base.Abstract.Specified)
	delta.Final.Specified = derived.Final.Value != base.Final.Value && committed(base.Final.Specified)
	delta.Deprecated.Specified = derived.Deprecated.Value != base.Deprecated.Value && committed(base.Deprecated.Specified)
	delta.Remote.Specified = derived.Remote.Value != base.Remote.Value && committed(base.Remote.Specified)
	return delta
}

package trait

import (
	"slices"

	"github.com/google/uuid"
)

// OriginLevel records which derivation level contributed a trait.
type OriginLevel int

const (
	// OriginNone means no level contributed the trait.
	OriginNone OriginLevel = iota

	// OriginThis means the trait is declared at this level.
	OriginThis

	// OriginBase means the trait comes from a modified base at the same level.
	OriginBase

	// OriginSuper means the trait is inherited from a super level.
	OriginSuper
)

func (o OriginLevel) String() string {
	switch o {
	case OriginThis:
		return "this"
	case OriginBase:
		return "base"
	case OriginSuper:
		return "super"
	default:
		return "none"
	}
}

// ParseOriginLevel parses an origin level name.
func ParseOriginLevel(s string) OriginLevel {
	switch s {
	case "this":
		return OriginThis
	case "base":
		return OriginBase
	case "super":
		return OriginSuper
	default:
		return OriginNone
	}
}

// Origin tracks which declaring constructs contributed a trait.
type Origin struct {
	Level  OriginLevel `json:"level"`
	Manual bool        `json:"manual,omitempty"`

	// Interfaces lists the interfaces (implemented or dispatched) that
	// declare the trait.
	Interfaces []string `json:"interfaces,omitempty"`

	// Integration names the integration map that contributed the trait.
	Integration string `json:"integration,omitempty"`
}

// IsFromNothing reports whether no construct contributed the trait.
func (o Origin) IsFromNothing() bool {
	return o.Level == OriginNone && !o.Manual && len(o.Interfaces) == 0 && o.Integration == ""
}

// IsFromInterface reports whether an interface declares the trait.
func (o Origin) IsFromInterface() bool {
	return len(o.Interfaces) > 0
}

// IsFromIntegration reports whether an integration contributed the trait.
func (o Origin) IsFromIntegration() bool {
	return o.Integration != ""
}

// IsFromNonManual reports whether anything other than a manual declaration
// contributed the trait.
func (o Origin) IsFromNonManual() bool {
	return o.Level == OriginSuper || o.IsFromInterface() || o.IsFromIntegration()
}

// equalSansManual compares origins ignoring the manual marker.
func (o Origin) equalSansManual(other Origin) bool {
	return o.Level == other.Level &&
		o.Integration == other.Integration &&
		slices.Equal(o.Interfaces, other.Interfaces)
}

func (o Origin) clone() Origin {
	o.Interfaces = slices.Clone(o.Interfaces)
	return o
}

// Trait holds the bookkeeping shared by every trait kind.
type Trait struct {
	// UID is the surrogate identity; uuid.Nil means none assigned.
	UID uuid.UUID `json:"uid"`

	// Mode is the derivation mode of this instance.
	Mode Mode `json:"mode"`

	// Origin records which level and constructs contributed the trait.
	Origin Origin `json:"origin"`

	// Tip is a short description.
	Tip string `json:"tip,omitempty"`

	// Text is the long description.
	Text string `json:"text,omitempty"`
}

// HasUID reports whether a UID has been assigned.
func (t Trait) HasUID() bool {
	return t.UID != uuid.Nil
}

// IsDeclaredAtThisLevel reports whether the trait originates at this level.
func (t Trait) IsDeclaredAtThisLevel() bool {
	return t.Origin.Level == OriginThis
}

// IsFromSuper reports whether the trait is inherited from a super level.
func (t Trait) IsFromSuper() bool {
	return t.Origin.Level == OriginSuper
}

func (t Trait) clone() Trait {
	t.Origin = t.Origin.clone()
	return t
}

// blank returns the bookkeeping of a blank derived trait: base identity in
// the given mode with no other information.
func (t Trait) blank(mode Mode) Trait {
	return Trait{UID: t.UID, Mode: mode}
}

// resolveTrait composes the base and delta bookkeeping. The derived trait
// always takes the mode of the base.
func resolveTrait(base, delta Trait, path string, errs *ErrorList) Trait {
	derived := Trait{
		UID:  base.UID,
		Mode: base.Mode,
		Tip:  firstNonBlank(delta.Tip, base.Tip),
		Text: firstNonBlank(delta.Text, base.Text),
	}

	// a delta without identity adopts the base's
	if base.UID == uuid.Nil {
		derived.UID = delta.UID
	} else if delta.UID != uuid.Nil && base.UID != delta.UID {
		errs.Warn(ResolveUIDChange, delta.UID.String(), path)
	}

	if base.IsFromSuper() || delta.Mode == Derivation {
		derived.Origin.Level = OriginSuper
	} else {
		derived.Origin.Level = OriginBase
	}
	derived.Origin.Manual = delta.Origin.Manual
	derived.Origin.Interfaces = slices.Clone(base.Origin.Interfaces)
	derived.Origin.Integration = base.Origin.Integration

	return derived
}

// extractTrait computes the delta bookkeeping between derived and base.
func extractTrait(derived, base Trait, mode Mode, path string, errs *ErrorList) Trait {
	delta := Trait{
		UID:    base.UID,
		Mode:   mode,
		Origin: Origin{Manual: derived.Origin.Manual},
	}
	if derived.Tip != base.Tip {
		delta.Tip = derived.Tip
	}
	if derived.Text != base.Text {
		delta.Text = derived.Text
	}

	if base.UID == uuid.Nil {
		delta.UID = derived.UID
	} else if base.UID != derived.UID {
		errs.Warn(ExtractUIDChange, derived.UID.String(), path)
	}

	return delta
}

// finalizeResolve forces a resolved mode after a resolve pass.
func (t *Trait) finalizeResolve(path string, errs *ErrorList) {
	if t.Mode != Resolved {
		errs.Warn(ResolveForceResolve, t.Mode.String(), path)
		t.Mode = Resolved
	}
}

// isDiscardable reports whether the bookkeeping alone carries information.
// Resolved traits are discardable when nothing contributed them; delta
// traits are discardable when they hold no description or manual marker.
func (t Trait) isDiscardable() bool {
	if t.Mode == Resolved {
		return t.Origin.IsFromNothing()
	}
	return t.Tip == "" && t.Text == "" && !t.Origin.Manual
}

func firstNonBlank(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// UIDGenerator assigns surrogate identities to newly created sub-traits.
type UIDGenerator interface {
	NewUID() uuid.UUID
}

// V7Generator generates time-ordered UUIDv7 identities.
type V7Generator struct{}

// NewUID returns a fresh UUIDv7.
func (V7Generator) NewUID() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

package trait

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Component owns a set of behaviors keyed by signature. It is the arena
// through which behaviors are looked up and mutated.
type Component struct {
	Facts

	mu        sync.Mutex
	behaviors map[string]*Behavior
	uids      UIDGenerator
	reserved  ReservedChecker
	guards    []Guard
	logger    *slog.Logger
}

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithUIDGenerator sets the generator used for sub-traits created by
// mutations. Defaults to V7Generator.
func WithUIDGenerator(g UIDGenerator) ComponentOption {
	return func(c *Component) {
		c.uids = g
	}
}

// WithReservedChecker sets the collaborator consulted for property accessor
// signatures.
func WithReservedChecker(r ReservedChecker) ComponentOption {
	return func(c *Component) {
		c.reserved = r
	}
}

// WithGuard registers a guard consulted by Propose after the built-in
// legality checks pass.
func WithGuard(g Guard) ComponentOption {
	return func(c *Component) {
		c.guards = append(c.guards, g)
	}
}

// WithComponentLogger sets the logger used for applied changes.
func WithComponentLogger(logger *slog.Logger) ComponentOption {
	return func(c *Component) {
		c.logger = logger
	}
}

// NewComponent creates an empty component.
func NewComponent(facts Facts, opts ...ComponentOption) *Component {
	c := &Component{
		Facts:     facts,
		behaviors: make(map[string]*Behavior),
		uids:      V7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// derive creates an empty component sharing c's collaborators.
func (c *Component) derive(facts Facts) *Component {
	return &Component{
		Facts:     facts,
		behaviors: make(map[string]*Behavior),
		uids:      c.uids,
		reserved:  c.reserved,
		guards:    c.guards,
		logger:    c.logger,
	}
}

// Add inserts b under its signature. The component takes ownership of b.
func (c *Component) Add(b *Behavior) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	sig := b.Signature()
	if _, ok := c.behaviors[sig]; ok {
		return fmt.Errorf("add behavior %s: duplicate signature in %s", sig, c.Name)
	}
	c.behaviors[sig] = b
	return nil
}

// Behavior returns a copy of the behavior with the given signature.
func (c *Component) Behavior(sig string) (*Behavior, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.behaviors[sig]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// Signatures returns the behavior signatures in sorted order.
func (c *Component) Signatures() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.signatures()
}

func (c *Component) signatures() []string {
	sigs := make([]string, 0, len(c.behaviors))
	for sig := range c.behaviors {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)
	return sigs
}

// Behaviors returns copies of all behaviors ordered by signature.
func (c *Component) Behaviors() []*Behavior {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Behavior, 0, len(c.behaviors))
	for _, sig := range c.signatures() {
		out = append(out, c.behaviors[sig].Clone())
	}
	return out
}

// Len returns the number of behaviors.
func (c *Component) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.behaviors)
}

// reindex rebuilds the signature index after a structural change.
func (c *Component) reindex() {
	index := make(map[string]*Behavior, len(c.behaviors))
	for _, b := range c.behaviors {
		index[b.Signature()] = b
	}
	c.behaviors = index
}

// snapshot returns a deep copy of c taken under its lock. Resolve and
// Extract work on snapshots so that they never hold two component locks.
func (c *Component) snapshot() *Component {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.derive(c.Facts)
	for sig, b := range c.behaviors {
		s.behaviors[sig] = b.Clone()
	}
	return s
}

// byUID finds a behavior by identity.
func (c *Component) byUID(uid uuid.UUID) (*Behavior, bool) {
	if uid == uuid.Nil {
		return nil, false
	}
	for _, b := range c.behaviors {
		if b.UID == uid {
			return b, true
		}
	}
	return nil, false
}

// ReservedChecker reports signatures owned by another subsystem, such as
// property accessors. It is called with the component locked and must not
// call back into it.
type ReservedChecker interface {
	IsReserved(component *Component, signature string) bool
}

// ReservedFunc adapts a function to ReservedChecker.
type ReservedFunc func(component *Component, signature string) bool

// IsReserved calls f.
func (f ReservedFunc) IsReserved(component *Component, signature string) bool {
	return f(component, signature)
}

// IsSignatureReserved reports whether sig may not be taken by self (which
// may be nil for a new behavior).
func (c *Component) IsSignatureReserved(sig string, self *Behavior) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isSignatureReserved(sig, self)
}

func (c *Component) isSignatureReserved(sig string, self *Behavior) bool {
	if other, ok := c.behaviors[sig]; ok && other != self {
		return true
	}
	if c.Signature {
		return false
	}
	if strings.HasPrefix(sig, "__") {
		return true
	}
	return c.reserved != nil && c.reserved.IsReserved(c, sig)
}

// Loader loads signature components referenced by name. It returns
// (nil, nil) when the component does not exist.
type Loader interface {
	LoadSignature(ctx context.Context, name string) (*Component, error)
}

// Resolve applies delta to c and returns the derived component.
//
// Behaviors are aligned by signature, then by UID. Base behaviors without
// a delta are resolved against a null derivation; delta-only behaviors are
// carried over when they are inserted at the delta's level and discarded
// otherwise. A resolved result is finalized. A derivation whose super
// names another component is reported as ResolveSuperMismatch.
//
// Each input is copied under its own lock before the resolve starts, so
// concurrent calls over the same components in either order are safe.
// Resolving a component against itself is a ComponentError.
func (c *Component) Resolve(delta *Component, errs *ErrorList) (*Component, error) {
	if delta == c {
		return nil, newComponentError(ErrCodeIllegalMode, c.Name,
			"cannot resolve a component against itself")
	}
	c, delta = c.snapshot(), delta.snapshot()

	if !c.Mode.Valid() || !delta.Mode.IsDelta() {
		return nil, newComponentError(ErrCodeIllegalMode, c.Name,
			"cannot resolve %s component against %s base", delta.Mode, c.Mode)
	}
	if delta.Mode == Derivation && delta.Super != "" && delta.Super != c.Name {
		errs.Add(ResolveSuperMismatch, SeverityError, delta.Super, c.Name, delta.Name)
	}

	derived := c.derive(Facts{
		Name:      delta.Name,
		Super:     delta.Super,
		Mode:      c.Mode,
		Global:    c.Global || delta.Global,
		Remote:    c.Remote || delta.Remote,
		Signature: c.Signature,
		ExtractAs: delta.Mode,
	})

	claimed := make(map[*Behavior]bool, len(delta.behaviors))
	for _, sig := range c.signatures() {
		base := c.behaviors[sig]
		d, ok := delta.behaviors[sig]
		if !ok || claimed[d] {
			d, ok = delta.byUID(base.UID)
			if ok && claimed[d] {
				ok = false
			}
		}
		if ok {
			claimed[d] = true
		} else {
			if delta.Mode == Derivation && c.Mode == Resolved && !c.Signature &&
				base.Flags.Access.Value == AccessPrivate {
				// private behaviors of the super are not inherited
				continue
			}
			d = base.NullDerived(delta.Mode)
		}

		r, err := base.Resolve(d, derived, errs)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", sig, err)
		}
		derived.behaviors[r.Signature()] = r
	}

	for _, sig := range delta.signatures() {
		d := delta.behaviors[sig]
		if claimed[d] {
			continue
		}
		if d.Flags.Exists.Value != ExistsInsert {
			errs.Warn(ResolveBehaviorDiscarded, sig, derived.Name)
			continue
		}
		if _, taken := derived.behaviors[sig]; taken {
			errs.Warn(ResolveBehaviorDiscarded, sig, derived.Name)
			continue
		}
		r := d.Clone()
		r.setMode(derived.Mode)
		if r.Origin.Level == OriginNone {
			r.Origin.Level = OriginThis
		}
		derived.behaviors[sig] = r
	}

	if derived.Mode == Resolved {
		for sig, b := range derived.behaviors {
			b.FinalizeResolve(derived, errs)
			if b.IsDiscardable(derived) {
				delete(derived.behaviors, sig)
			}
		}
	}

	derived.logger.Debug("component resolved",
		"component", derived.Name,
		"mode", derived.Mode.String(),
		"behaviors", len(derived.behaviors),
	)
	return derived, nil
}

// Extract computes the delta between c (the derived component) and base.
// The delta is a Modification when both components share a name and a
// Derivation otherwise. Like Resolve it works on copies of both inputs,
// and extracting a component against itself is a ComponentError.
func (c *Component) Extract(base *Component, errs *ErrorList) (*Component, error) {
	if base == c {
		return nil, newComponentError(ErrCodeIllegalMode, c.Name,
			"cannot extract a component against itself")
	}
	c, base = c.snapshot(), base.snapshot()

	mode := Derivation
	if c.Name == base.Name {
		mode = Modification
	}
	owner := c.Facts
	owner.ExtractAs = mode

	delta := c.derive(Facts{
		Name:      c.Name,
		Super:     c.Super,
		Mode:      mode,
		Global:    c.Global,
		Remote:    c.Remote,
		Signature: c.Signature,
		ExtractAs: mode,
	})

	claimed := make(map[*Behavior]bool, len(base.behaviors))
	for _, sig := range c.signatures() {
		b := c.behaviors[sig]
		bb, ok := base.behaviors[sig]
		if !ok || claimed[bb] {
			bb, ok = base.byUID(b.UID)
			if ok && claimed[bb] {
				ok = false
			}
		}

		if !ok {
			d := b.Clone()
			d.setMode(mode)
			d.Flags.Exists = Spec(ExistsInsert)
			delta.behaviors[sig] = d
			continue
		}
		claimed[bb] = true

		d, err := b.Extract(bb, owner, errs)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", sig, err)
		}
		d.FinalizeExtract(owner, errs)
		if !d.IsDiscardable(owner) {
			delta.behaviors[d.Signature()] = d
		}
	}

	if c.Signature {
		for _, sig := range base.signatures() {
			bb := base.behaviors[sig]
			if claimed[bb] {
				continue
			}
			// the method is absent from the compiled class
			d := bb.NullDerived(mode)
			d.Flags.Exists = Spec(ExistsNot)
			delta.behaviors[sig] = d
		}
	}

	return delta, nil
}

package trait

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Change is a proposed mutation of a component. Changes are validated by
// Component.Propose and carried out by Component.Apply.
type Change interface {
	// Describe renders the change for diagnostics.
	Describe() string

	// target is the signature of the behavior the change applies to, or ""
	// for component-level changes.
	target() string

	// check returns the reason the change is illegal, or nil.
	check(c *Component, b *Behavior) error

	apply(c *Component, b *Behavior)
}

// Guard may reject a change that passed the built-in legality checks.
type Guard func(change Change) error

// Propose validates change without applying it. It returns a *VetoError
// when the change is illegal or a guard rejects it, and wraps
// ErrBehaviorNotFound when the target behavior does not exist.
func (c *Component) Propose(change Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.propose(change)
	return err
}

// Apply validates and applies change. The validation is repeated so a
// change proposed against an older state cannot slip through.
func (c *Component) Apply(change Change) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := c.propose(change)
	if err != nil {
		return err
	}
	change.apply(c, b)
	c.reindex()
	c.logger.Debug("change applied",
		"component", c.Name,
		"change", change.Describe(),
	)
	return nil
}

func (c *Component) propose(change Change) (*Behavior, error) {
	var b *Behavior
	if sig := change.target(); sig != "" {
		var ok bool
		b, ok = c.behaviors[sig]
		if !ok {
			return nil, fmt.Errorf("%s: %w", change.Describe(), ErrBehaviorNotFound)
		}
	}
	if err := change.check(c, b); err != nil {
		return nil, &VetoError{Change: change, Reason: err.Error()}
	}
	for _, g := range c.guards {
		if err := g(change); err != nil {
			return nil, &VetoError{Change: change, Reason: "rejected by guard", Err: err}
		}
	}
	return b, nil
}

var (
	errNotModifiable = errors.New("behavior is not modifiable")
	errNotSettable   = errors.New("attribute is not settable")
	errIllegalValue  = errors.New("illegal value")
	errReserved      = errors.New("signature is reserved")
	errBadIndex      = errors.New("index out of range")
)

// isModifiable reports whether b may be edited at all. A behavior made
// final one level up, and a constructor of a signature component, are
// read-only.
func (c *Component) isModifiable(b *Behavior) bool {
	if b.PrevFlags.Final.Value {
		return false
	}
	return !(c.Signature && strings.Contains(b.Name, "<"))
}

func (c *Component) requireModifiable(b *Behavior) error {
	if !c.isModifiable(b) {
		return errNotModifiable
	}
	return nil
}

// IsAccessSettable reports whether the access of b may change.
func (c *Component) IsAccessSettable(b *Behavior) bool {
	return c.isModifiable(b) && !b.Origin.IsFromInterface()
}

// IsAccessLegal reports whether b may take the given access. Access moves
// only towards public relative to the previous level.
func (c *Component) IsAccessLegal(b *Behavior, access Access) bool {
	switch access {
	case AccessPublic, AccessProtected, AccessPrivate:
	default:
		return false
	}
	if b.Flags.Remote.Value && access != AccessPublic {
		return false
	}
	if b.IsDeclaredAtThisLevel() {
		switch {
		case b.Origin.IsFromInterface():
			return false
		case b.Origin.IsFromIntegration():
			return access != AccessPrivate
		default:
			return true
		}
	}
	switch b.PrevFlags.Access.Value {
	case AccessPublic:
		return access == AccessPublic
	case AccessProtected:
		return access != AccessPrivate
	default:
		return true
	}
}

// IsAbstractSettable reports whether b may switch between abstract and
// concrete.
func (c *Component) IsAbstractSettable(b *Behavior) bool {
	return c.isModifiable(b) && !b.Flags.Static.Value && !b.Flags.Final.Value
}

// IsStaticSettable reports whether the scope of b may change. Only a
// manually declared, concrete behavior may change scope.
func (c *Component) IsStaticSettable(b *Behavior) bool {
	return c.isModifiable(b) && !b.Origin.IsFromNonManual() && !b.Flags.Abstract.Value
}

// IsFinalSettable reports whether b may change derivability.
func (c *Component) IsFinalSettable(b *Behavior) bool {
	return c.isModifiable(b) && !b.Flags.Abstract.Value
}

// IsRemoteSettable reports whether b may change distribution.
func (c *Component) IsRemoteSettable(b *Behavior) bool {
	return c.isModifiable(b) &&
		b.Flags.Access.Value == AccessPublic &&
		c.Remote && c.Global &&
		!b.PrevFlags.Remote.Value
}

// IsSignatureSettable reports whether the name and parameters of b may
// change.
func (c *Component) IsSignatureSettable(b *Behavior) bool {
	return c.isModifiable(b) && !b.Origin.IsFromNonManual()
}

// SetAccess changes the access of a behavior.
type SetAccess struct {
	Signature string
	Access    Access
}

func (ch SetAccess) Describe() string {
	return fmt.Sprintf("set access of %s to %s", ch.Signature, ch.Access)
}

func (ch SetAccess) target() string { return ch.Signature }

func (ch SetAccess) check(c *Component, b *Behavior) error {
	if !c.IsAccessSettable(b) {
		return errNotSettable
	}
	if !c.IsAccessLegal(b, ch.Access) {
		return errIllegalValue
	}
	return nil
}

func (ch SetAccess) apply(c *Component, b *Behavior) {
	b.Flags.Access = Spec(ch.Access)
}

// SetVisibility changes the tooling visibility of a behavior.
type SetVisibility struct {
	Signature  string
	Visibility Visibility
}

func (ch SetVisibility) Describe() string {
	return fmt.Sprintf("set visibility of %s to %s", ch.Signature, ch.Visibility)
}

func (ch SetVisibility) target() string { return ch.Signature }

func (ch SetVisibility) check(c *Component, b *Behavior) error {
	if ch.Visibility < VisibilityVisible || ch.Visibility > VisibilitySystem {
		return errIllegalValue
	}
	return c.requireModifiable(b)
}

func (ch SetVisibility) apply(c *Component, b *Behavior) {
	b.Flags.Visibility = Spec(ch.Visibility)
}

// SetSynchronized changes the monitor attribute of a behavior.
type SetSynchronized struct {
	Signature string
	Value     bool
}

func (ch SetSynchronized) Describe() string {
	return fmt.Sprintf("set synchronized of %s to %t", ch.Signature, ch.Value)
}

func (ch SetSynchronized) target() string { return ch.Signature }

func (ch SetSynchronized) check(c *Component, b *Behavior) error {
	return c.requireModifiable(b)
}

func (ch SetSynchronized) apply(c *Component, b *Behavior) {
	b.Flags.Sync = Spec(ch.Value)
}

// SetAbstract switches a behavior between abstract and concrete.
type SetAbstract struct {
	Signature string
	Value     bool
}

func (ch SetAbstract) Describe() string {
	return fmt.Sprintf("set abstract of %s to %t", ch.Signature, ch.Value)
}

func (ch SetAbstract) target() string { return ch.Signature }

func (ch SetAbstract) check(c *Component, b *Behavior) error {
	if !c.IsAbstractSettable(b) {
		return errNotSettable
	}
	return nil
}

func (ch SetAbstract) apply(c *Component, b *Behavior) {
	b.Flags.Abstract = Spec(ch.Value)
}

// SetStatic changes the scope of a behavior.
type SetStatic struct {
	Signature string
	Value     bool
}

func (ch SetStatic) Describe() string {
	return fmt.Sprintf("set static of %s to %t", ch.Signature, ch.Value)
}

func (ch SetStatic) target() string { return ch.Signature }

func (ch SetStatic) check(c *Component, b *Behavior) error {
	if !c.IsStaticSettable(b) {
		return errNotSettable
	}
	return nil
}

func (ch SetStatic) apply(c *Component, b *Behavior) {
	b.Flags.Static = Spec(ch.Value)
}

// SetFinal changes the derivability of a behavior.
type SetFinal struct {
	Signature string
	Value     bool
}

func (ch SetFinal) Describe() string {
	return fmt.Sprintf("set final of %s to %t", ch.Signature, ch.Value)
}

func (ch SetFinal) target() string { return ch.Signature }

func (ch SetFinal) check(c *Component, b *Behavior) error {
	if !c.IsFinalSettable(b) {
		return errNotSettable
	}
	return nil
}

func (ch SetFinal) apply(c *Component, b *Behavior) {
	b.Flags.Final = Spec(ch.Value)
}

// SetDeprecated changes the antiquity of a behavior.
type SetDeprecated struct {
	Signature string
	Value     bool
}

func (ch SetDeprecated) Describe() string {
	return fmt.Sprintf("set deprecated of %s to %t", ch.Signature, ch.Value)
}

func (ch SetDeprecated) target() string { return ch.Signature }

func (ch SetDeprecated) check(c *Component, b *Behavior) error {
	return c.requireModifiable(b)
}

func (ch SetDeprecated) apply(c *Component, b *Behavior) {
	b.Flags.Deprecated = Spec(ch.Value)
}

// SetRemote changes the distribution of a behavior. Turning remote off
// resets every parameter direction to IN.
type SetRemote struct {
	Signature string
	Value     bool
}

func (ch SetRemote) Describe() string {
	return fmt.Sprintf("set remote of %s to %t", ch.Signature, ch.Value)
}

func (ch SetRemote) target() string { return ch.Signature }

func (ch SetRemote) check(c *Component, b *Behavior) error {
	if !c.IsRemoteSettable(b) {
		return errNotSettable
	}
	return nil
}

func (ch SetRemote) apply(c *Component, b *Behavior) {
	b.Flags.Remote = Spec(ch.Value)
	if !ch.Value {
		for i := range b.Params {
			b.Params[i].Direction = Spec(DirIn)
		}
	}
}

// SetName renames a behavior.
type SetName struct {
	Signature string
	Name      string
}

func (ch SetName) Describe() string {
	return fmt.Sprintf("rename %s to %s", ch.Signature, ch.Name)
}

func (ch SetName) target() string { return ch.Signature }

func (ch SetName) check(c *Component, b *Behavior) error {
	if ch.Name == b.Name {
		return nil
	}
	if !c.IsSignatureSettable(b) {
		return errNotSettable
	}
	if !IsIdentifierLegal(ch.Name) {
		return errIllegalValue
	}
	if c.isSignatureReserved(signatureOf(ch.Name, b.Params), b) {
		return errReserved
	}
	return nil
}

func (ch SetName) apply(c *Component, b *Behavior) {
	b.Name = ch.Name
}

// SetDescription changes the tip and text of a behavior.
type SetDescription struct {
	Signature string
	Tip       string
	Text      string
}

func (ch SetDescription) Describe() string {
	return fmt.Sprintf("describe %s", ch.Signature)
}

func (ch SetDescription) target() string { return ch.Signature }

func (ch SetDescription) check(c *Component, b *Behavior) error {
	return nil
}

func (ch SetDescription) apply(c *Component, b *Behavior) {
	b.Tip = ch.Tip
	b.Text = ch.Text
}

// AddParameter inserts a parameter at Index, or appends it when Index is
// negative.
type AddParameter struct {
	Signature string
	Index     int
	Type      DataType
	Name      string
}

func (ch AddParameter) Describe() string {
	return fmt.Sprintf("add parameter %s %s to %s", ch.Type, ch.Name, ch.Signature)
}

func (ch AddParameter) target() string { return ch.Signature }

func (ch AddParameter) index(b *Behavior) int {
	if ch.Index < 0 {
		return len(b.Params)
	}
	return ch.Index
}

func (ch AddParameter) check(c *Component, b *Behavior) error {
	if !c.IsSignatureSettable(b) {
		return errNotSettable
	}
	if ch.index(b) > len(b.Params) {
		return errBadIndex
	}
	if !IsIdentifierLegal(ch.Name) || b.ParameterIndex(ch.Name) >= 0 {
		return errIllegalValue
	}
	if !ch.Type.Valid() || ch.Type.IsVoid() {
		return errIllegalValue
	}
	params := slices.Insert(slices.Clone(b.Params), ch.index(b), Parameter{Type: ch.Type})
	if c.isSignatureReserved(signatureOf(b.Name, params), b) {
		return errReserved
	}
	return nil
}

func (ch AddParameter) apply(c *Component, b *Behavior) {
	p := Parameter{
		Trait: Trait{
			UID:    c.uids.NewUID(),
			Mode:   b.Mode,
			Origin: Origin{Level: OriginThis, Manual: true},
		},
		Type:      ch.Type,
		Name:      ch.Name,
		Direction: Unspec(DirIn),
	}
	b.Params = slices.Insert(b.Params, ch.index(b), p)
}

// RemoveParameter removes the parameter at Index.
type RemoveParameter struct {
	Signature string
	Index     int
}

func (ch RemoveParameter) Describe() string {
	return fmt.Sprintf("remove parameter %d from %s", ch.Index, ch.Signature)
}

func (ch RemoveParameter) target() string { return ch.Signature }

func (ch RemoveParameter) check(c *Component, b *Behavior) error {
	if !c.IsSignatureSettable(b) {
		return errNotSettable
	}
	if ch.Index < 0 || ch.Index >= len(b.Params) {
		return errBadIndex
	}
	params := slices.Delete(slices.Clone(b.Params), ch.Index, ch.Index+1)
	if c.isSignatureReserved(signatureOf(b.Name, params), b) {
		return errReserved
	}
	return nil
}

func (ch RemoveParameter) apply(c *Component, b *Behavior) {
	b.Params = slices.Delete(b.Params, ch.Index, ch.Index+1)
}

// MoveParameter moves the parameter at From to position To.
type MoveParameter struct {
	Signature string
	From      int
	To        int
}

func (ch MoveParameter) Describe() string {
	return fmt.Sprintf("move parameter %d to %d in %s", ch.From, ch.To, ch.Signature)
}

func (ch MoveParameter) target() string { return ch.Signature }

func (ch MoveParameter) check(c *Component, b *Behavior) error {
	if !c.IsSignatureSettable(b) {
		return errNotSettable
	}
	n := len(b.Params)
	if ch.From < 0 || ch.From >= n || ch.To < 0 || ch.To >= n {
		return errBadIndex
	}
	if c.isSignatureReserved(signatureOf(b.Name, moveItem(b.Params, ch.From, ch.To)), b) {
		return errReserved
	}
	return nil
}

func (ch MoveParameter) apply(c *Component, b *Behavior) {
	b.Params = moveItem(b.Params, ch.From, ch.To)
}

// SetParameterName renames the parameter at Index.
type SetParameterName struct {
	Signature string
	Index     int
	Name      string
}

func (ch SetParameterName) Describe() string {
	return fmt.Sprintf("rename parameter %d of %s to %s", ch.Index, ch.Signature, ch.Name)
}

func (ch SetParameterName) target() string { return ch.Signature }

func (ch SetParameterName) check(c *Component, b *Behavior) error {
	if !c.IsSignatureSettable(b) {
		return errNotSettable
	}
	if ch.Index < 0 || ch.Index >= len(b.Params) {
		return errBadIndex
	}
	if !IsIdentifierLegal(ch.Name) {
		return errIllegalValue
	}
	if i := b.ParameterIndex(ch.Name); i >= 0 && i != ch.Index {
		return errIllegalValue
	}
	return nil
}

func (ch SetParameterName) apply(c *Component, b *Behavior) {
	b.Params[ch.Index].Name = ch.Name
}

// SetParameterType changes the type of the parameter at Index.
type SetParameterType struct {
	Signature string
	Index     int
	Type      DataType
}

func (ch SetParameterType) Describe() string {
	return fmt.Sprintf("set type of parameter %d of %s to %s", ch.Index, ch.Signature, ch.Type)
}

func (ch SetParameterType) target() string { return ch.Signature }

func (ch SetParameterType) check(c *Component, b *Behavior) error {
	if !c.IsSignatureSettable(b) {
		return errNotSettable
	}
	if ch.Index < 0 || ch.Index >= len(b.Params) {
		return errBadIndex
	}
	if !ch.Type.Valid() || ch.Type.IsVoid() {
		return errIllegalValue
	}
	params := slices.Clone(b.Params)
	params[ch.Index].Type = ch.Type
	if c.isSignatureReserved(signatureOf(b.Name, params), b) {
		return errReserved
	}
	return nil
}

func (ch SetParameterType) apply(c *Component, b *Behavior) {
	b.Params[ch.Index].Type = ch.Type
}

// SetParameterDirection changes the direction of the parameter at Index.
// Only remote behaviors take OUT and INOUT parameters.
type SetParameterDirection struct {
	Signature string
	Index     int
	Direction Direction
}

func (ch SetParameterDirection) Describe() string {
	return fmt.Sprintf("set direction of parameter %d of %s to %s", ch.Index, ch.Signature, ch.Direction)
}

func (ch SetParameterDirection) target() string { return ch.Signature }

func (ch SetParameterDirection) check(c *Component, b *Behavior) error {
	if err := c.requireModifiable(b); err != nil {
		return err
	}
	if ch.Index < 0 || ch.Index >= len(b.Params) {
		return errBadIndex
	}
	if ch.Direction != DirIn && !b.Flags.Remote.Value {
		return errIllegalValue
	}
	return nil
}

func (ch SetParameterDirection) apply(c *Component, b *Behavior) {
	b.Params[ch.Index].Direction = Spec(ch.Direction)
}

// AddException declares a new exception on a behavior.
type AddException struct {
	Signature string
	Type      DataType
}

func (ch AddException) Describe() string {
	return fmt.Sprintf("add exception %s to %s", ch.Type, ch.Signature)
}

func (ch AddException) target() string { return ch.Signature }

func (ch AddException) check(c *Component, b *Behavior) error {
	if !c.isModifiable(b) || b.IsFromSuper() || b.Origin.IsFromInterface() || b.Origin.IsFromIntegration() {
		return errNotSettable
	}
	if !ch.Type.IsClass() || !ch.Type.Valid() {
		return errIllegalValue
	}
	if _, ok := b.Exceptions[Throwee{Type: ch.Type}.UniqueName()]; ok {
		return errIllegalValue
	}
	return nil
}

func (ch AddException) apply(c *Component, b *Behavior) {
	if b.Exceptions == nil {
		b.Exceptions = make(ThroweeTable)
	}
	b.Exceptions.Put(Throwee{
		Trait: Trait{
			UID:    c.uids.NewUID(),
			Mode:   b.Mode,
			Origin: Origin{Level: OriginThis, Manual: true},
		},
		Type:   ch.Type,
		Exists: Spec(ExistsInsert),
	})
}

// RemoveException removes a throwable exception. An exception declared
// manually on a behavior declared at this level is destroyed; otherwise it
// is marked DELETE.
type RemoveException struct {
	Signature string
	Name      string
}

func (ch RemoveException) Describe() string {
	return fmt.Sprintf("remove exception %s from %s", ch.Name, ch.Signature)
}

func (ch RemoveException) target() string { return ch.Signature }

func (ch RemoveException) check(c *Component, b *Behavior) error {
	if err := c.requireModifiable(b); err != nil {
		return err
	}
	if _, ok := b.Exception(ch.Name); !ok {
		return errIllegalValue
	}
	return nil
}

func (ch RemoveException) apply(c *Component, b *Behavior) {
	e := b.Exceptions[ch.Name]
	if b.IsDeclaredAtThisLevel() && !e.Origin.IsFromNonManual() {
		delete(b.Exceptions, ch.Name)
		return
	}
	e.Exists = Spec(ExistsDelete)
	b.Exceptions[ch.Name] = e
}

// UnremoveException restores an exception removed at this level.
type UnremoveException struct {
	Signature string
	Name      string
}

func (ch UnremoveException) Describe() string {
	return fmt.Sprintf("restore exception %s on %s", ch.Name, ch.Signature)
}

func (ch UnremoveException) target() string { return ch.Signature }

func (ch UnremoveException) check(c *Component, b *Behavior) error {
	e, ok := b.Exceptions[ch.Name]
	if !ok || e.Exists.Value != ExistsDelete {
		return errIllegalValue
	}
	// when two interfaces declare the behavior, both must declare the
	// exception
	if e.Origin.equalSansManual(b.Origin) {
		return nil
	}
	if e.IsFromSuper() == b.IsFromSuper() &&
		e.Origin.Integration == b.Origin.Integration &&
		slices.Equal(e.Origin.Interfaces, b.Origin.Interfaces) {
		return nil
	}
	return errNotSettable
}

func (ch UnremoveException) apply(c *Component, b *Behavior) {
	e := b.Exceptions[ch.Name]
	e.Exists = Spec(ExistsUpdate)
	b.Exceptions[ch.Name] = e
}

// AddImplementation inserts a script into the modifiable prefix of the
// chain, or appends to the prefix when Index is negative. Adding a script
// to an inherited abstract behavior makes it concrete.
type AddImplementation struct {
	Signature string
	Index     int
	Language  string
	Script    string
}

func (ch AddImplementation) Describe() string {
	return fmt.Sprintf("add %s implementation to %s", ch.Language, ch.Signature)
}

func (ch AddImplementation) target() string { return ch.Signature }

func (ch AddImplementation) index(b *Behavior) int {
	if ch.Index < 0 {
		return b.ModifiableCount()
	}
	return ch.Index
}

func (ch AddImplementation) check(c *Component, b *Behavior) error {
	if err := c.requireModifiable(b); err != nil {
		return err
	}
	if ch.index(b) > b.ModifiableCount() {
		return errBadIndex
	}
	if !IsLanguageLegal(ch.Language) {
		return errIllegalValue
	}
	return nil
}

func (ch AddImplementation) apply(c *Component, b *Behavior) {
	s := Implementation{
		Trait: Trait{
			UID:    c.uids.NewUID(),
			Mode:   b.Mode,
			Origin: Origin{Level: OriginThis, Manual: true},
		},
		Language: ch.Language,
		Script:   ch.Script,
	}
	b.Scripts = slices.Insert(b.Scripts, ch.index(b), s)
	if b.Flags.Abstract.Value && b.PrevFlags.Abstract.Value && b.IsFromSuper() {
		b.Flags.Abstract = Spec(false)
	}
}

// RemoveImplementation removes a script from the modifiable prefix.
// Removing the last script of an inherited abstract behavior makes it
// abstract again.
type RemoveImplementation struct {
	Signature string
	Index     int
}

func (ch RemoveImplementation) Describe() string {
	return fmt.Sprintf("remove implementation %d from %s", ch.Index, ch.Signature)
}

func (ch RemoveImplementation) target() string { return ch.Signature }

func (ch RemoveImplementation) check(c *Component, b *Behavior) error {
	if err := c.requireModifiable(b); err != nil {
		return err
	}
	if ch.Index < 0 || ch.Index >= b.ModifiableCount() {
		return errBadIndex
	}
	return nil
}

func (ch RemoveImplementation) apply(c *Component, b *Behavior) {
	b.Scripts = slices.Delete(b.Scripts, ch.Index, ch.Index+1)
	if !b.Flags.Abstract.Value && b.PrevFlags.Abstract.Value && b.IsFromSuper() && b.ModifiableCount() == 0 {
		b.Flags.Abstract = Spec(true)
	}
}

// MoveImplementation reorders scripts within the modifiable prefix.
type MoveImplementation struct {
	Signature string
	From      int
	To        int
}

func (ch MoveImplementation) Describe() string {
	return fmt.Sprintf("move implementation %d to %d in %s", ch.From, ch.To, ch.Signature)
}

func (ch MoveImplementation) target() string { return ch.Signature }

func (ch MoveImplementation) check(c *Component, b *Behavior) error {
	if err := c.requireModifiable(b); err != nil {
		return err
	}
	n := b.ModifiableCount()
	if ch.From < 0 || ch.From >= n || ch.To < 0 || ch.To >= n {
		return errBadIndex
	}
	return nil
}

func (ch MoveImplementation) apply(c *Component, b *Behavior) {
	b.Scripts = moveItem(b.Scripts, ch.From, ch.To)
}

// SetOverrideBase makes the scripts at this level override (true) or
// supplement (false) the base level's scripts.
type SetOverrideBase struct {
	Signature string
	Value     bool
}

func (ch SetOverrideBase) Describe() string {
	return fmt.Sprintf("set override-base of %s to %t", ch.Signature, ch.Value)
}

func (ch SetOverrideBase) target() string { return ch.Signature }

func (ch SetOverrideBase) check(c *Component, b *Behavior) error {
	return c.requireModifiable(b)
}

func (ch SetOverrideBase) apply(c *Component, b *Behavior) {
	b.OverrideBase = ch.Value
}

// AddBehavior declares a new behavior at this level.
type AddBehavior struct {
	Name   string
	Return DataType
	Params []ParamSpec
	Static bool
}

// ParamSpec describes a parameter of a new behavior.
type ParamSpec struct {
	Type DataType
	Name string
}

func (ch AddBehavior) signature() string {
	params := make([]Parameter, len(ch.Params))
	for i, p := range ch.Params {
		params[i] = Parameter{Type: p.Type}
	}
	return signatureOf(ch.Name, params)
}

func (ch AddBehavior) Describe() string {
	return fmt.Sprintf("add behavior %s", ch.signature())
}

func (ch AddBehavior) target() string { return "" }

func (ch AddBehavior) check(c *Component, _ *Behavior) error {
	if !IsIdentifierLegal(ch.Name) {
		return errIllegalValue
	}
	if !ch.Return.Valid() {
		return errIllegalValue
	}
	seen := make(map[string]bool, len(ch.Params))
	for _, p := range ch.Params {
		key := strings.ToLower(p.Name)
		if !IsIdentifierLegal(p.Name) || seen[key] || !p.Type.Valid() || p.Type.IsVoid() {
			return errIllegalValue
		}
		seen[key] = true
	}
	if c.isSignatureReserved(ch.signature(), nil) {
		return errReserved
	}
	return nil
}

func (ch AddBehavior) apply(c *Component, _ *Behavior) {
	declared := func() Trait {
		return Trait{
			UID:    c.uids.NewUID(),
			Mode:   c.Mode,
			Origin: Origin{Level: OriginThis, Manual: true},
		}
	}
	b := &Behavior{
		Trait: declared(),
		Name:  ch.Name,
		Flags: Flags{
			Exists: Spec(ExistsInsert),
			Access: Spec(AccessPublic),
			Static: Spec(ch.Static),
		},
		Return: ReturnValue{Trait: declared(), Type: ch.Return},
	}
	for _, p := range ch.Params {
		b.Params = append(b.Params, Parameter{
			Trait:     declared(),
			Type:      p.Type,
			Name:      p.Name,
			Direction: Unspec(DirIn),
		})
	}
	c.behaviors[b.Signature()] = b
}

// RemoveBehavior removes a behavior declared manually at this level.
type RemoveBehavior struct {
	Signature string
}

func (ch RemoveBehavior) Describe() string {
	return fmt.Sprintf("remove behavior %s", ch.Signature)
}

func (ch RemoveBehavior) target() string { return ch.Signature }

func (ch RemoveBehavior) check(c *Component, b *Behavior) error {
	if !b.IsDeclaredAtThisLevel() || b.Origin.IsFromNonManual() {
		return errNotSettable
	}
	return nil
}

func (ch RemoveBehavior) apply(c *Component, b *Behavior) {
	delete(c.behaviors, ch.Signature)
}

func moveItem[T any](items []T, from, to int) []T {
	out := slices.Clone(items)
	v := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, v)
}

package compiler

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/roach88/traitc/internal/trait"
)

// Build converts a validated definition into a component.
//
// A resolved definition declares every attribute: unwritten flags take
// their defaults and traits without a uid get a generated one. A delta
// (derivation or modification) specifies only what it writes; unwritten
// flags stay unspecified and only inserted behaviors get generated uids.
func (c *Compiler) Build(ctx context.Context, def *ComponentDef) (*trait.Component, error) {
	mode, err := trait.ParseMode(def.Mode)
	if err != nil {
		return nil, definitionError(def.Name, "mode", err.Error(), ErrIllegalMode)
	}

	extractAs := trait.Derivation
	if mode.IsDelta() {
		extractAs = mode
	}
	comp := trait.NewComponent(trait.Facts{
		Name:      def.Name,
		Super:     def.Super,
		Mode:      mode,
		Global:    def.Global,
		Remote:    def.Remote,
		Signature: def.Signature,
		ExtractAs: extractAs,
	}, c.opts...)

	declaring, err := c.interfaceSignatures(ctx, def)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(def.Behaviors))
	for label := range def.Behaviors {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	b := &builder{mode: mode, uids: c.uids}
	for _, label := range labels {
		where := "behavior." + label
		bh, err := b.behavior(def.Behaviors[label], where)
		if err != nil {
			return nil, definitionError(def.Name, err.field, err.message, err.code)
		}
		if ifaces := declaring[bh.Signature()]; len(ifaces) > 0 {
			bh.Origin.Interfaces = ifaces
		}
		if addErr := comp.Add(bh); addErr != nil {
			return nil, definitionError(def.Name, where,
				fmt.Sprintf("signature %s declared twice", bh.Signature()), ErrDuplicateBehavior)
		}
	}
	return comp, nil
}

// interfaceSignatures loads the implemented interfaces and maps each
// behavior signature to the sorted interfaces declaring it.
func (c *Compiler) interfaceSignatures(ctx context.Context, def *ComponentDef) (map[string][]string, error) {
	if len(def.Implements) == 0 {
		return nil, nil
	}
	if c.loader == nil {
		return nil, definitionError(def.Name, "implements",
			"no loader configured for implemented interfaces", ErrUnknownInterface)
	}

	declaring := make(map[string][]string)
	seen := make(map[string]bool, len(def.Implements))
	for i, name := range def.Implements {
		if seen[name] {
			continue
		}
		seen[name] = true

		iface, err := c.loader.LoadSignature(ctx, name)
		if err != nil {
			return nil, trait.NewMissingComponentError(fmt.Sprintf("%s.implements[%d]", def.Name, i), name, err)
		}
		if iface == nil {
			return nil, definitionError(def.Name, fmt.Sprintf("implements[%d]", i),
				fmt.Sprintf("interface %q not found", name), ErrUnknownInterface)
		}
		for _, sig := range iface.Signatures() {
			declaring[sig] = append(declaring[sig], name)
		}
	}
	for sig := range declaring {
		sort.Strings(declaring[sig])
	}
	return declaring, nil
}

func definitionError(component, field, message, code string) *DefinitionError {
	return &DefinitionError{
		Component: component,
		Errors:    []ValidationError{{Field: field, Message: message, Code: code}},
	}
}

// buildError locates a failure within one behavior.
type buildError struct {
	field   string
	message string
	code    string
}

// builder converts behavior definitions for one component mode.
type builder struct {
	mode trait.Mode
	uids trait.UIDGenerator
}

func (b *builder) delta() bool {
	return b.mode.IsDelta()
}

// bookkeeping returns the Trait of a declared trait. uid is the written
// uid, if any; generate requests a fresh one when none is written.
func (b *builder) bookkeeping(uid string, generate bool, tip, text string) (trait.Trait, *buildError) {
	t := trait.Trait{Mode: b.mode, Tip: tip, Text: text}
	switch {
	case uid != "":
		id, err := uuid.Parse(uid)
		if err != nil {
			return t, &buildError{field: "uid", message: err.Error(), code: ErrIllegalUID}
		}
		t.UID = id
	case generate:
		t.UID = b.uids.NewUID()
	}
	if b.delta() {
		t.Origin = trait.Origin{Manual: true}
	} else {
		t.Origin = trait.Origin{Level: trait.OriginThis, Manual: true}
	}
	return t, nil
}

// field builds one flag: written values are specified in a delta, unwritten
// ones keep def unspecified.
func field[T comparable](b *builder, written *string, def T, parse func(string) (T, error), name string) (trait.Field[T], *buildError) {
	if written == nil {
		return trait.Unspec(def), nil
	}
	v, err := parse(*written)
	if err != nil {
		return trait.Field[T]{}, &buildError{field: name, message: err.Error(), code: ErrIllegalAttribute}
	}
	if b.delta() {
		return trait.Spec(v), nil
	}
	return trait.Unspec(v), nil
}

func boolField(b *builder, written *bool) trait.Field[bool] {
	if written == nil {
		return trait.Unspec(false)
	}
	if b.delta() {
		return trait.Spec(*written)
	}
	return trait.Unspec(*written)
}

func (b *builder) behavior(def *BehaviorDef, path string) (*trait.Behavior, *buildError) {
	fail := func(err *buildError) (*trait.Behavior, *buildError) {
		err.field = path + "." + err.field
		return nil, err
	}

	exists := trait.ExistsInsert
	if b.delta() {
		exists = trait.ExistsUpdate
	}

	var flags trait.Flags
	var err *buildError
	if flags.Exists, err = field(b, def.Exists, exists, trait.ParseExistence, "exists"); err != nil {
		return fail(err)
	}
	if flags.Access, err = field(b, def.Access, trait.AccessPublic, trait.ParseAccess, "access"); err != nil {
		return fail(err)
	}
	if flags.Visibility, err = field(b, def.Visibility, trait.VisibilityVisible, trait.ParseVisibility, "visibility"); err != nil {
		return fail(err)
	}
	flags.Sync = boolField(b, def.Sync)
	flags.Static = boolField(b, def.Static)
	flags.Abstract = boolField(b, def.Abstract)
	flags.Final = boolField(b, def.Final)
	flags.Deprecated = boolField(b, def.Deprecated)
	flags.Remote = boolField(b, def.Remote)

	// only resolved and inserted behaviors introduce an identity
	generate := !b.delta() || flags.Exists.Value == trait.ExistsInsert
	t, err := b.bookkeeping(def.UID, generate, def.Tip, def.Text)
	if err != nil {
		return fail(err)
	}

	bh := &trait.Behavior{
		Trait:        t,
		Name:         def.Name,
		Flags:        flags,
		PrevFlags:    flags.ClearSpecified(),
		OverrideBase: def.OverrideBase,
	}

	ret := def.Returns
	if ret == "" && generate {
		ret = "void"
	}
	if ret != "" {
		dt, perr := trait.ParseDataType(ret)
		if perr != nil {
			return fail(&buildError{field: "returns", message: perr.Error(), code: ErrIllegalDataType})
		}
		rt, _ := b.bookkeeping("", generate, "", "")
		bh.Return = trait.ReturnValue{Trait: rt, Type: dt}
	}

	for i, p := range def.Params {
		param, err := b.param(p, generate)
		if err != nil {
			err.field = fmt.Sprintf("params[%d].%s", i, err.field)
			return fail(err)
		}
		bh.Params = append(bh.Params, param)
	}

	for i, th := range def.Throws {
		e, err := b.throwee(th, generate)
		if err != nil {
			err.field = fmt.Sprintf("throws[%d].%s", i, err.field)
			return fail(err)
		}
		if bh.Exceptions == nil {
			bh.Exceptions = make(trait.ThroweeTable, len(def.Throws))
		}
		if _, dup := bh.Exceptions[e.UniqueName()]; dup {
			return fail(&buildError{
				field:   fmt.Sprintf("throws[%d].type", i),
				message: fmt.Sprintf("exception %s declared twice", e.UniqueName()),
				code:    ErrDuplicateThrows,
			})
		}
		bh.Exceptions.Put(e)
	}

	for i, s := range def.Scripts {
		impl, err := b.script(s)
		if err != nil {
			err.field = fmt.Sprintf("scripts[%d].%s", i, err.field)
			return fail(err)
		}
		bh.Scripts = append(bh.Scripts, impl)
	}
	return bh, nil
}

func (b *builder) param(def ParamDef, generate bool) (trait.Parameter, *buildError) {
	dt, perr := trait.ParseDataType(def.Type)
	if perr != nil {
		return trait.Parameter{}, &buildError{field: "type", message: perr.Error(), code: ErrIllegalDataType}
	}
	dir, err := field(b, def.Direction, trait.DirIn, trait.ParseDirection, "direction")
	if err != nil {
		return trait.Parameter{}, err
	}
	t, err := b.bookkeeping(def.UID, generate, def.Tip, def.Text)
	if err != nil {
		return trait.Parameter{}, err
	}
	return trait.Parameter{Trait: t, Type: dt, Name: def.Name, Direction: dir}, nil
}

func (b *builder) throwee(def ThrowsDef, generate bool) (trait.Throwee, *buildError) {
	dt, perr := trait.ParseDataType(def.Type)
	if perr != nil || !dt.IsClass() {
		return trait.Throwee{}, &buildError{
			field:   "type",
			message: fmt.Sprintf("%q is not a class type", def.Type),
			code:    ErrNotClassType,
		}
	}
	exists, err := field(b, def.Exists, trait.ExistsInsert, trait.ParseExistence, "exists")
	if err != nil {
		return trait.Throwee{}, err
	}
	if b.delta() {
		// a written exception is always an explicit change
		exists.Specified = true
	}
	t, err := b.bookkeeping(def.UID, generate || exists.Value == trait.ExistsInsert, "", "")
	if err != nil {
		return trait.Throwee{}, err
	}
	return trait.Throwee{Trait: t, Type: dt, Exists: exists}, nil
}

func (b *builder) script(def ScriptDef) (trait.Implementation, *buildError) {
	t, err := b.bookkeeping(def.UID, true, "", "")
	if err != nil {
		return trait.Implementation{}, err
	}
	// a script is always declared by the level that writes it
	t.Origin.Level = trait.OriginThis
	return trait.Implementation{Trait: t, Language: def.Language, Script: def.Script}, nil
}

package compiler

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/traitc/internal/trait"
)

//go:embed schema.cue
var schemaCUE string

// Compiler turns CUE component definitions into trait components.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// A Compiler is not safe for concurrent use: CUE values share one
// evaluation context.
type Compiler struct {
	cue    *cue.Context
	schema cue.Value
	uids   trait.UIDGenerator
	loader trait.Loader
	opts   []trait.ComponentOption
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithUIDGenerator sets the generator used for traits declared without a
// uid. Defaults to trait.V7Generator.
func WithUIDGenerator(g trait.UIDGenerator) Option {
	return func(c *Compiler) {
		c.uids = g
	}
}

// WithLoader sets the loader consulted for implemented interfaces.
func WithLoader(l trait.Loader) Option {
	return func(c *Compiler) {
		c.loader = l
	}
}

// WithComponentOptions sets the options applied to every compiled
// component.
func WithComponentOptions(opts ...trait.ComponentOption) Option {
	return func(c *Compiler) {
		c.opts = append(c.opts, opts...)
	}
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	ctx := cuecontext.New()
	c := &Compiler{
		cue:    ctx,
		schema: ctx.CompileString(schemaCUE, cue.Filename("schema.cue")),
		uids:   trait.V7Generator{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompileString compiles every component defined in src.
//
// The source is expected to hold definitions under a top-level
// `component` field, e.g.:
//
//	component: "demo.Account": {
//		behavior: getX: returns: "int"
//	}
func (c *Compiler) CompileString(ctx context.Context, src, filename string) ([]*trait.Component, error) {
	v := c.cue.CompileString(src, cue.Filename(filename))
	return c.CompileValue(ctx, v)
}

// CompileDir loads the CUE package in dir and compiles every component it
// defines.
func (c *Compiler) CompileDir(ctx context.Context, dir string) ([]*trait.Component, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("definitions directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}
	return c.CompileValue(ctx, c.cue.BuildInstance(inst))
}

// CompileValue compiles every entry under v's `component` field, ordered
// by name. Every definition is decoded and validated before any is built,
// so an inheritance cycle is reported without consulting the loader.
func (c *Compiler) CompileValue(ctx context.Context, v cue.Value) ([]*trait.Component, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	components := v.LookupPath(cue.ParsePath("component"))
	if !components.Exists() {
		return nil, &CompileError{
			Field:   "component",
			Message: "no component definitions found",
			Pos:     v.Pos(),
		}
	}

	iter, err := components.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var defs []*ComponentDef
	for iter.Next() {
		def, err := c.Decode(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		if verrs := Validate(def); len(verrs) > 0 {
			return nil, &DefinitionError{Component: def.Name, Errors: verrs}
		}
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })

	if cycles := AnalyzeInheritance(defs); len(cycles) > 0 {
		return nil, cycles[0]
	}

	out := make([]*trait.Component, 0, len(defs))
	for _, def := range defs {
		comp, err := c.Build(ctx, def)
		if err != nil {
			return nil, err
		}
		out = append(out, comp)
	}
	return out, nil
}

// CompileComponent compiles a single definition called name.
func (c *Compiler) CompileComponent(ctx context.Context, name string, v cue.Value) (*trait.Component, error) {
	def, err := c.Decode(name, v)
	if err != nil {
		return nil, err
	}
	if verrs := Validate(def); len(verrs) > 0 {
		return nil, &DefinitionError{Component: name, Errors: verrs}
	}
	return c.Build(ctx, def)
}

// Decode unifies v with the definition schema and decodes it. Behavior
// names default to their labels.
func (c *Compiler) Decode(name string, v cue.Value) (*ComponentDef, error) {
	if err := c.schema.Err(); err != nil {
		return nil, fmt.Errorf("definition schema: %w", err)
	}
	unified := c.schema.LookupPath(cue.MakePath(cue.Def("Component"))).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	def := &ComponentDef{Name: name}
	if err := unified.Decode(def); err != nil {
		return nil, formatCUEError(err)
	}
	for label, b := range def.Behaviors {
		if b.Name == "" {
			b.Name = label
		}
	}
	return def, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

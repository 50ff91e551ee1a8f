package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/traitc/internal/compiler"
	"github.com/roach88/traitc/internal/loader"
	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/testutil"
	"github.com/roach88/traitc/internal/trait"
)

// Harness is the scenario execution engine.
// It runs scenarios against an isolated store with deterministic UIDs.
type Harness struct {
	store    *store.Store
	compiler *compiler.Compiler
	loader   *loader.Loader
	opts     []trait.ComponentOption
	logger   *slog.Logger
}

// Option configures a scenario run.
type Option func(*runOptions)

type runOptions struct {
	logger *slog.Logger
}

// WithLogger sets the logger for step progress and diagnostics.
// Defaults to discarding everything.
func WithLogger(logger *slog.Logger) Option {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation, and UIDs
// come from a sequence restarted per scenario, so the same scenario always
// produces the same trace.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Compile each layer and store its components under the layer name
// 3. Execute steps, storing results under their target layers
// 4. Return result with pass/fail, trace, and errors
//
// An error is returned when the scenario cannot be executed (a layer does
// not compile, a referenced component is missing, a step fails
// unexpectedly). Expectation mismatches are reported in the result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := runOptions{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(":memory:", store.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	uids := testutil.NewSequenceUIDs()
	componentOpts := []trait.ComponentOption{
		trait.WithUIDGenerator(uids),
		trait.WithComponentLogger(o.logger),
	}
	ld, err := loader.New(st,
		loader.WithComponentOptions(componentOpts...),
		loader.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		store: st,
		compiler: compiler.New(
			compiler.WithUIDGenerator(uids),
			compiler.WithLoader(ld),
			compiler.WithComponentOptions(componentOpts...),
		),
		loader: ld,
		opts:   componentOpts,
		logger: o.logger,
	}

	if err := h.loadLayers(ctx, scenario.Layers); err != nil {
		return nil, fmt.Errorf("failed to load layers: %w", err)
	}

	result := NewResult(scenario.Name)
	for i, step := range scenario.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s %s): %w", i, step.Op, step.Component, err)
		}
	}
	return result, nil
}

// loadLayers compiles every layer and stores its components.
func (h *Harness) loadLayers(ctx context.Context, layers []Layer) error {
	for _, layer := range layers {
		src, filename := layer.Source, layer.Name+".cue"
		if layer.File != "" {
			data, err := os.ReadFile(layer.File)
			if err != nil {
				return fmt.Errorf("layer %s: %w", layer.Name, err)
			}
			src, filename = string(data), layer.File
		}

		comps, err := h.compiler.CompileString(ctx, src, filename)
		if err != nil {
			return fmt.Errorf("layer %s: %w", layer.Name, err)
		}
		for _, c := range comps {
			if _, err := h.put(ctx, layer.Name, c); err != nil {
				return fmt.Errorf("layer %s: %w", layer.Name, err)
			}
		}

		h.logger.Info("layer loaded",
			"layer", layer.Name,
			"components", len(comps),
		)
	}
	return nil
}

// put stores c under layer and drops any cached copy.
func (h *Harness) put(ctx context.Context, layer string, c *trait.Component) (store.Revision, error) {
	rev, _, err := h.store.Put(ctx, layer, c)
	if err != nil {
		return rev, err
	}
	h.loader.Invalidate(c.Name)
	return rev, nil
}

// fetch loads the component a reference names.
func (h *Harness) fetch(ctx context.Context, ref, component string) (*trait.Component, store.Revision, error) {
	layer, name := ParseRef(ref, component)
	rev, err := h.store.Latest(ctx, name, layer)
	if err != nil {
		return nil, rev, fmt.Errorf("%s in layer %s: %w", name, layer, err)
	}
	c, err := h.store.Load(ctx, rev.Digest, h.opts...)
	if err != nil {
		return nil, rev, err
	}
	return c, rev, nil
}

// executeStep runs one step, records its trace and checks its expectations.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	errs := trait.NewErrorList(trait.WithLogger(h.logger))
	trace := StepTrace{Index: index, Op: step.Op, Component: step.Component, Into: step.Into}

	var (
		out *trait.Component
		err error
	)
	switch step.Op {
	case OpResolve:
		out, err = h.resolve(ctx, step, errs)
	case OpExtract:
		out, err = h.extract(ctx, step, errs)
	case OpRebuild:
		out, trace.Cached, err = h.rebuild(ctx, step, errs)
	case OpSame:
		err = h.same(ctx, index, step, result)
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}

	expectErr := step.Expect != nil && step.Expect.Error != ""
	switch {
	case err != nil && !expectErr:
		return err
	case err != nil:
		trace.Error = err.Error()
		if !strings.Contains(err.Error(), step.Expect.Error) {
			result.AddError((&AssertionError{
				Step:     index,
				Op:       step.Op,
				Expected: fmt.Sprintf("error containing %q", step.Expect.Error),
				Actual:   err.Error(),
			}).Error())
		}
		result.AddTrace(trace)
		return nil
	case expectErr:
		result.AddError((&AssertionError{
			Step:     index,
			Op:       step.Op,
			Expected: fmt.Sprintf("error containing %q", step.Expect.Error),
			Actual:   "step succeeded",
		}).Error())
	}

	for _, code := range errs.Codes() {
		trace.Diagnostics = append(trace.Diagnostics, string(code))
	}
	if out != nil {
		describe(&trace, out)
		if step.Into != "" {
			if _, err := h.put(ctx, step.Into, out); err != nil {
				return err
			}
		}
		if step.Expect != nil {
			for _, msg := range CheckExpect(index, step, out, errs) {
				result.AddError(msg)
			}
		}
	}
	result.AddTrace(trace)

	h.logger.Info("step completed",
		"step", index,
		"op", step.Op,
		"component", step.Component,
		"diagnostics", errs.Len(),
	)
	return nil
}

func (h *Harness) resolve(ctx context.Context, step Step, errs *trait.ErrorList) (*trait.Component, error) {
	base, baseRev, err := h.fetch(ctx, step.Base, step.Component)
	if err != nil {
		return nil, err
	}
	delta, deltaRev, err := h.fetch(ctx, step.Delta, step.Component)
	if err != nil {
		return nil, err
	}

	derived, err := base.Resolve(delta, errs)
	if err != nil {
		return nil, err
	}
	if _, _, err := h.store.RecordResolution(ctx, baseRev.Digest, deltaRev.Digest, derived, errs.Len()); err != nil {
		return nil, err
	}
	return derived, nil
}

func (h *Harness) extract(ctx context.Context, step Step, errs *trait.ErrorList) (*trait.Component, error) {
	derived, _, err := h.fetch(ctx, step.Derived, step.Component)
	if err != nil {
		return nil, err
	}
	base, _, err := h.fetch(ctx, step.Base, step.Component)
	if err != nil {
		return nil, err
	}
	return derived.Extract(base, errs)
}

func (h *Harness) rebuild(ctx context.Context, step Step, errs *trait.ErrorList) (*trait.Component, int, error) {
	c, steps, err := h.store.Rebuild(ctx, step.Component, step.Chain, errs, h.opts...)
	if err != nil {
		return nil, 0, err
	}
	cached := 0
	for _, s := range steps {
		if s.Cached {
			cached++
		}
	}
	return c, cached, nil
}

// same checks that every reference holds the same content.
func (h *Harness) same(ctx context.Context, index int, step Step, result *Result) error {
	var first store.Revision
	for i, ref := range step.Refs {
		layer, name := ParseRef(ref, step.Component)
		rev, err := h.store.Latest(ctx, name, layer)
		if err != nil {
			return fmt.Errorf("%s in layer %s: %w", name, layer, err)
		}
		if i == 0 {
			first = rev
			continue
		}
		if rev.Digest != first.Digest {
			result.AddError((&AssertionError{
				Step:     index,
				Op:       step.Op,
				Expected: fmt.Sprintf("%s identical to %s", ref, step.Refs[0]),
				Actual:   fmt.Sprintf("digest %.12s differs from %.12s", rev.Digest, first.Digest),
			}).Error())
		}
	}
	return nil
}

// describe fills the component part of a trace.
func describe(trace *StepTrace, c *trait.Component) {
	trace.Mode = c.Mode.String()
	trace.Signatures = c.Signatures()
	trace.Behaviors = make(map[string]string, c.Len())
	for _, b := range c.Behaviors() {
		trace.Behaviors[b.Signature()] = b.String() + " [" + b.Flags.Describe(false) + "]"
	}
}

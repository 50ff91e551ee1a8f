package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/trait"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Base  string // base reference, "layer[:component]"
	Delta string // delta reference, "layer[:component]"
	Into  string // layer receiving the result
}

// OperationResult is the outcome of a resolve or extract.
type OperationResult struct {
	Component   ComponentView    `json:"component"`
	Diagnostics []DiagnosticView `json:"diagnostics"`
	Revision    *RevisionView    `json:"revision,omitempty"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <component>",
		Short: "Resolve a delta onto a base component",
		Long: `Resolve the delta stored at one layer onto the base stored at another.

References have the form layer or layer:component; the component defaults
to the command argument, so a derivation can name its super explicitly:

  traitc resolve demo.Savings --base base:demo.Account --delta savings

The resolution is recorded in the store, and with --into the result is
stored as a new revision at that layer.

Exit codes:
  0 - Resolved (warnings may have been reported)
  1 - Resolve refused its inputs or reported error diagnostics
  2 - Command error (store or component not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", store.BaseLayer, "base reference")
	cmd.Flags().StringVar(&opts.Delta, "delta", "", "delta reference (required)")
	cmd.Flags().StringVar(&opts.Into, "into", "", "store the result at this layer")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

func runResolve(opts *ResolveOptions, name string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	e, err := openEnv(opts.RootOptions, false)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
	}
	defer e.Close()

	base, baseRev, err := e.fetch(ctx, opts.Base, name)
	if err != nil {
		return fetchFailure(formatter, err)
	}
	delta, deltaRev, err := e.fetch(ctx, opts.Delta, name)
	if err != nil {
		return fetchFailure(formatter, err)
	}
	formatter.VerboseLog("Resolving %s (%.12s) onto %s (%.12s)", opts.Delta, deltaRev.Digest, opts.Base, baseRev.Digest)

	errs := trait.NewErrorList(trait.WithLogger(e.logger))
	derived, err := base.Resolve(delta, errs)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeResolve, "resolve "+name, err)
	}
	if _, _, err := e.store.RecordResolution(ctx, baseRev.Digest, deltaRev.Digest, derived, errs.Len()); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "record resolution", err)
	}

	return outputOperation(formatter, e, opts.Into, derived, errs, cmd)
}

// outputOperation stores the result when into is set and reports it.
func outputOperation(formatter *OutputFormatter, e *env, into string, c *trait.Component, errs *trait.ErrorList, cmd *cobra.Command) error {
	view, err := newComponentView(c)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "digest result", err)
	}
	result := OperationResult{Component: view, Diagnostics: newDiagnosticViews(errs)}

	if into != "" {
		rev, inserted, err := e.put(cmd.Context(), into, c)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "store result", err)
		}
		rv := newRevisionView(rev)
		rv.Inserted = &inserted
		result.Revision = &rv
	}

	failed := errs.MaxSeverity() >= trait.SeverityError
	if formatter.JSON() {
		if failed {
			if err := formatter.Failure(result, ErrCodeDiagnostics, "error diagnostics reported"); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "error diagnostics reported")
		}
		return formatter.Success(result)
	}

	printComponent(formatter.Writer, result.Component)
	printDiagnostics(formatter.Writer, result.Diagnostics)
	if result.Revision != nil {
		fmt.Fprint(formatter.Writer, "Stored ")
		printRevision(formatter.Writer, *result.Revision)
	}
	if failed {
		return NewExitError(ExitFailure, "error diagnostics reported")
	}
	return nil
}

// fetchFailure reports a component that could not be loaded.
func fetchFailure(formatter *OutputFormatter, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "load component", err)
	}
	return formatter.Fail(ExitCommandError, ErrCodeStore, "load component", err)
}

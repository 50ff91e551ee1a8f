package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/trait"
)

// ExtractOptions holds flags for the extract command.
type ExtractOptions struct {
	*RootOptions
	Derived string // derived reference, "layer[:component]"
	Base    string // base reference, "layer[:component]"
	Into    string // layer receiving the delta
}

// NewExtractCommand creates the extract command.
func NewExtractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExtractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "extract <component>",
		Short: "Extract the delta between a derived and a base component",
		Long: `Compute the delta that turns the base into the derived component.

The delta is a modification when both references name the same component
and a derivation otherwise. With --into the delta is stored at that layer,
ready to be replayed by "traitc store rebuild".

Exit codes:
  0 - Extracted (warnings may have been reported)
  1 - Extract reported error diagnostics
  2 - Command error (store or component not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Derived, "derived", "", "derived reference (required)")
	cmd.Flags().StringVar(&opts.Base, "base", store.BaseLayer, "base reference")
	cmd.Flags().StringVar(&opts.Into, "into", "", "store the delta at this layer")
	_ = cmd.MarkFlagRequired("derived")

	return cmd
}

func runExtract(opts *ExtractOptions, name string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := opts.formatter(cmd)

	e, err := openEnv(opts.RootOptions, false)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
	}
	defer e.Close()

	derived, _, err := e.fetch(ctx, opts.Derived, name)
	if err != nil {
		return fetchFailure(formatter, err)
	}
	base, _, err := e.fetch(ctx, opts.Base, name)
	if err != nil {
		return fetchFailure(formatter, err)
	}
	formatter.VerboseLog("Extracting %s against %s", opts.Derived, opts.Base)

	errs := trait.NewErrorList(trait.WithLogger(e.logger))
	delta, err := derived.Extract(base, errs)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeResolve, "extract "+name, err)
	}

	return outputOperation(formatter, e, opts.Into, delta, errs, cmd)
}

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/traitc/internal/compiler"
	"github.com/roach88/traitc/internal/trait"
)

// ComponentSummary is one compiled component in a validation report.
type ComponentSummary struct {
	Name      string `json:"name"`
	Mode      string `json:"mode"`
	Behaviors int    `json:"behaviors"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool               `json:"valid"`
	Components []ComponentSummary `json:"components,omitempty"`
	Errors     []DefinitionIssue  `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate component definitions",
		Long: `Compile CUE component definitions without storing them.

path is a CUE file or a directory holding one CUE package. Implemented
interfaces are looked up in the signature layer of the store when the
store exists.

Exit codes:
  0 - All definitions valid
  1 - One or more definitions invalid
  2 - Command error (path not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	c, closeEnv, err := validationCompiler(opts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
	}
	defer closeEnv()

	comps, err := compilePath(cmd.Context(), c, path)
	if err != nil {
		issues, ok := definitionIssues(err)
		if !ok {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "load definitions", err)
		}
		return outputValidationErrors(formatter, issues)
	}

	result := ValidationResult{Valid: true}
	for _, comp := range comps {
		formatter.VerboseLog("Validated component: %s", comp.Name)
		result.Components = append(result.Components, ComponentSummary{
			Name:      comp.Name,
			Mode:      comp.Mode.String(),
			Behaviors: comp.Len(),
		})
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ %d component(s) valid\n", len(result.Components))
	for _, s := range result.Components {
		fmt.Fprintf(formatter.Writer, "  %s (%s): %d behavior(s)\n", s.Name, s.Mode, s.Behaviors)
	}
	return nil
}

// validationCompiler returns a compiler that resolves implemented
// interfaces through the store, or one without a loader when no store
// exists yet.
func validationCompiler(opts *RootOptions) (*compiler.Compiler, func(), error) {
	e, err := openEnv(opts, false)
	if errors.Is(err, errNoStore) {
		opts.Logger.Debug("validating without store", "path", opts.DB)
		c := compiler.New(compiler.WithComponentOptions(trait.WithComponentLogger(opts.Logger)))
		return c, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return e.compiler, func() { e.Close() }, nil
}

// outputValidationErrors outputs definition issues.
func outputValidationErrors(formatter *OutputFormatter, issues []DefinitionIssue) error {
	message := fmt.Sprintf("validation failed with %d error(s)", len(issues))
	if formatter.JSON() {
		err := formatter.Failure(ValidationResult{Valid: false, Errors: issues}, issues[0].Code, issues[0].Message)
		if err != nil {
			return err
		}
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, message)
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		where := issue.Field
		if issue.Component != "" {
			where = issue.Component + " " + issue.Field
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, where, issue.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, message)
}

package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/traitc/internal/compiler"
	"github.com/roach88/traitc/internal/digest"
	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/trait"
)

// BehaviorView is the printable form of one behavior.
type BehaviorView struct {
	Signature string   `json:"signature"`
	Source    string   `json:"source"`
	Flags     string   `json:"flags"`
	Specified string   `json:"specified,omitempty"`
	Throws    []string `json:"throws,omitempty"`
	Scripts   int      `json:"scripts,omitempty"`
}

// ComponentView is the printable form of a component.
type ComponentView struct {
	Name      string         `json:"name"`
	Super     string         `json:"super,omitempty"`
	Mode      string         `json:"mode"`
	Digest    string         `json:"digest"`
	Behaviors []BehaviorView `json:"behaviors"`
}

// DiagnosticView is the printable form of a diagnostic.
type DiagnosticView struct {
	Code     string   `json:"code"`
	Severity string   `json:"severity"`
	Params   []string `json:"params,omitempty"`
}

// RevisionView is the printable form of a stored revision.
type RevisionView struct {
	Seq       int64  `json:"seq"`
	Name      string `json:"name"`
	Layer     string `json:"layer"`
	Mode      string `json:"mode"`
	Digest    string `json:"digest"`
	Behaviors int    `json:"behaviors"`
	Inserted  *bool  `json:"inserted,omitempty"`
}

// DefinitionIssue is one problem found in a component definition.
type DefinitionIssue struct {
	Component string `json:"component,omitempty"`
	Field     string `json:"field"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Line      int    `json:"line,omitempty"`
}

func newComponentView(c *trait.Component) (ComponentView, error) {
	sum, err := digest.Component(c)
	if err != nil {
		return ComponentView{}, err
	}
	v := ComponentView{
		Name:      c.Name,
		Super:     c.Super,
		Mode:      c.Mode.String(),
		Digest:    sum,
		Behaviors: []BehaviorView{},
	}
	for _, b := range c.Behaviors() {
		v.Behaviors = append(v.Behaviors, BehaviorView{
			Signature: b.Signature(),
			Source:    b.String(),
			Flags:     b.Flags.Describe(false),
			Specified: b.Flags.Describe(true),
			Throws:    b.Exceptions.Throwable(),
			Scripts:   len(b.Scripts),
		})
	}
	return v, nil
}

func newRevisionView(rev store.Revision) RevisionView {
	return RevisionView{
		Seq:       rev.Seq,
		Name:      rev.Name,
		Layer:     rev.Layer,
		Mode:      rev.Mode.String(),
		Digest:    rev.Digest,
		Behaviors: rev.Behaviors,
	}
}

func newDiagnosticViews(errs *trait.ErrorList) []DiagnosticView {
	items := errs.Items()
	out := make([]DiagnosticView, len(items))
	for i, d := range items {
		out[i] = DiagnosticView{Code: string(d.Code), Severity: d.Severity.String(), Params: d.Params}
	}
	return out
}

// definitionIssues converts a compile failure into definition issues. It
// returns false when err is not a definition problem (for example a
// missing file).
func definitionIssues(err error) ([]DefinitionIssue, bool) {
	var defErr *compiler.DefinitionError
	if errors.As(err, &defErr) {
		issues := make([]DefinitionIssue, len(defErr.Errors))
		for i, v := range defErr.Errors {
			issues[i] = DefinitionIssue{Component: defErr.Component, Field: v.Field, Code: v.Code, Message: v.Message}
		}
		return issues, true
	}

	var cycleErr *compiler.CycleError
	if errors.As(err, &cycleErr) {
		return []DefinitionIssue{{
			Component: cycleErr.Path[0],
			Field:     "super",
			Code:      cycleErr.Code,
			Message:   cycleErr.Error(),
		}}, true
	}

	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		issue := DefinitionIssue{Field: compileErr.Field, Code: ErrCodeCompile, Message: compileErr.Message}
		if compileErr.Pos.IsValid() {
			issue.Line = compileErr.Pos.Line()
		}
		return []DefinitionIssue{issue}, true
	}

	var cueErr cueerrors.Error
	if errors.As(err, &cueErr) {
		issue := DefinitionIssue{Field: "cue", Code: ErrCodeCompile, Message: cueErr.Error()}
		if pos := cueErr.Position(); pos.IsValid() {
			issue.Line = pos.Line()
		}
		return []DefinitionIssue{issue}, true
	}
	return nil, false
}

func printComponent(w io.Writer, v ComponentView) {
	fmt.Fprintf(w, "%s (%s) %d behavior(s)\n", v.Name, v.Mode, len(v.Behaviors))
	for _, b := range v.Behaviors {
		fmt.Fprintf(w, "  %s\n    %s\n", b.Source, b.Flags)
		if b.Specified != "" {
			fmt.Fprintf(w, "    specified: %s\n", b.Specified)
		}
		if len(b.Throws) > 0 {
			fmt.Fprintf(w, "    throws: %s\n", strings.Join(b.Throws, ", "))
		}
	}
}

func printDiagnostics(w io.Writer, diags []DiagnosticView) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintln(w, "Diagnostics:")
	for _, d := range diags {
		if len(d.Params) == 0 {
			fmt.Fprintf(w, "  %s %s\n", d.Severity, d.Code)
			continue
		}
		fmt.Fprintf(w, "  %s %s: %s\n", d.Severity, d.Code, strings.Join(d.Params, ", "))
	}
}

func printRevision(w io.Writer, r RevisionView) {
	state := ""
	if r.Inserted != nil && !*r.Inserted {
		state = " (unchanged)"
	}
	fmt.Fprintf(w, "%s@%s #%d %s %.12s%s\n", r.Name, r.Layer, r.Seq, r.Mode, r.Digest, state)
}

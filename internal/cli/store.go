package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/traitc/internal/codec"
	"github.com/roach88/traitc/internal/queryir"
	"github.com/roach88/traitc/internal/store"
	"github.com/roach88/traitc/internal/trait"
)

// Encodings accepted by store export and store import.
const (
	EncodingXML    = "xml"
	EncodingBinary = "binary"
)

// NewStoreCommand creates the store command and its subcommands.
func NewStoreCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage the component store",
		Long: `Store, inspect, replay and exchange layered component revisions.

Each layer holds the revision history of the components stored at it: the
base layer holds resolved components, customization layers hold deltas.`,
	}

	cmd.AddCommand(newStorePutCommand(rootOpts))
	cmd.AddCommand(newStoreShowCommand(rootOpts))
	cmd.AddCommand(newStoreHistoryCommand(rootOpts))
	cmd.AddCommand(newStoreListCommand(rootOpts))
	cmd.AddCommand(newStoreRebuildCommand(rootOpts))
	cmd.AddCommand(newStoreExportCommand(rootOpts))
	cmd.AddCommand(newStoreImportCommand(rootOpts))

	return cmd
}

func newStorePutCommand(rootOpts *RootOptions) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "put <path>",
		Short: "Compile definitions and store them at a layer",
		Long: `Compile CUE component definitions and store every component at a layer.

A revision is only appended when the component differs from the latest
revision at that layer. The store is created if it does not exist.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			e, err := openEnv(rootOpts, true)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
			}
			defer e.Close()

			comps, err := compilePath(cmd.Context(), e.compiler, args[0])
			if err != nil {
				if issues, ok := definitionIssues(err); ok {
					return outputValidationErrors(formatter, issues)
				}
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, "load definitions", err)
			}
			return putAll(cmd, formatter, e, layer, comps)
		},
	}

	cmd.Flags().StringVar(&layer, "layer", store.BaseLayer, "layer to store at")
	return cmd
}

// putAll stores comps at layer and reports the revisions.
func putAll(cmd *cobra.Command, formatter *OutputFormatter, e *env, layer string, comps []*trait.Component) error {
	revs := make([]RevisionView, 0, len(comps))
	for _, c := range comps {
		rev, inserted, err := e.put(cmd.Context(), layer, c)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "store "+c.Name, err)
		}
		rv := newRevisionView(rev)
		rv.Inserted = &inserted
		revs = append(revs, rv)
	}

	if formatter.JSON() {
		return formatter.Success(revs)
	}
	fmt.Fprintf(formatter.Writer, "✓ Stored %d component(s) at %s\n", len(revs), layer)
	for _, r := range revs {
		fmt.Fprint(formatter.Writer, "  ")
		printRevision(formatter.Writer, r)
	}
	return nil
}

func newStoreShowCommand(rootOpts *RootOptions) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:           "show <component>",
		Short:         "Show the latest revision of a component",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			e, err := openEnv(rootOpts, false)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
			}
			defer e.Close()

			c, _, err := e.fetch(cmd.Context(), layer, args[0])
			if err != nil {
				return fetchFailure(formatter, err)
			}
			view, err := newComponentView(c)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, "digest component", err)
			}
			if formatter.JSON() {
				return formatter.Success(view)
			}
			printComponent(formatter.Writer, view)
			return nil
		},
	}

	cmd.Flags().StringVar(&layer, "layer", store.BaseLayer, "layer to read")
	return cmd
}

func newStoreHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var layer string

	cmd := &cobra.Command{
		Use:   "history <component>",
		Short: "List the revisions of a component",
		Long: `List the revisions of a component at one layer, oldest first. Without
--layer every layer the component was stored at is listed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			formatter := rootOpts.formatter(cmd)

			e, err := openEnv(rootOpts, false)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
			}
			defer e.Close()

			layers := []string{layer}
			if layer == "" {
				if layers, err = e.store.Layers(ctx, args[0]); err != nil {
					return formatter.Fail(ExitCommandError, ErrCodeStore, "list layers", err)
				}
			}

			revs := []RevisionView{}
			for _, l := range layers {
				history, err := e.store.History(ctx, args[0], l)
				if err != nil {
					return formatter.Fail(ExitCommandError, ErrCodeStore, "read history", err)
				}
				for _, rev := range history {
					revs = append(revs, newRevisionView(rev))
				}
			}
			if len(revs) == 0 {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound,
					fmt.Sprintf("no revisions of %s", args[0]), nil)
			}

			if formatter.JSON() {
				return formatter.Success(revs)
			}
			for _, r := range revs {
				printRevision(formatter.Writer, r)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&layer, "layer", "", "layer to list (default: all)")
	return cmd
}

// RebuildResult is the outcome of store rebuild.
type RebuildResult struct {
	Component   ComponentView    `json:"component"`
	Steps       []store.Step     `json:"steps"`
	Diagnostics []DiagnosticView `json:"diagnostics"`
	Revision    *RevisionView    `json:"revision,omitempty"`
}

func newStoreListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		where []string
		all   bool
		limit int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored revisions matching filters",
		Long: `List stored revisions, oldest first. By default only the current
revision of each component at each layer is listed; --all includes
superseded revisions.

Each --where term is field<op>value over name, layer, mode, digest or
behaviors. Operators are = != ^= (prefix) and, for behaviors, < <= > >=.
Terms are combined with AND.`,
		Example: `  traitc store list --where layer=base
  traitc store list --all --where name^=demo. --where behaviors>=2`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)

			filter, err := queryir.Parse(where)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, "invalid filter", err)
			}
			if limit < 0 {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric,
					fmt.Sprintf("invalid limit %d", limit), nil)
			}

			e, err := openEnv(rootOpts, false)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
			}
			defer e.Close()

			revs, err := e.store.Find(cmd.Context(), queryir.Select{
				Filter:  filter,
				Current: !all,
				Limit:   limit,
			})
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "list revisions", err)
			}

			views := make([]RevisionView, len(revs))
			for i, rev := range revs {
				views[i] = newRevisionView(rev)
			}
			if formatter.JSON() {
				return formatter.Success(views)
			}
			if len(views) == 0 {
				fmt.Fprintln(formatter.Writer, "No revisions found.")
				return nil
			}
			for _, r := range views {
				printRevision(formatter.Writer, r)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&where, "where", nil, "filter term field<op>value (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "include superseded revisions")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum revisions to list (0: no limit)")
	return cmd
}

func newStoreRebuildCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		layers []string
		into   string
	)

	cmd := &cobra.Command{
		Use:   "rebuild <component>",
		Short: "Replay the layer chain of a component",
		Long: `Resolve the deltas of every layer in the chain onto the resolved base,
in order. Resolutions already recorded in the store are reused.

The chain defaults to the layers list of the configuration.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			if len(layers) == 0 {
				layers = rootOpts.Config.Layers
			}

			e, err := openEnv(rootOpts, false)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
			}
			defer e.Close()

			errs := trait.NewErrorList(trait.WithLogger(e.logger))
			c, steps, err := e.store.Rebuild(cmd.Context(), args[0], layers, errs, e.opts...)
			if err != nil {
				if trait.IsComponentError(err) {
					return formatter.Fail(ExitFailure, ErrCodeResolve, "rebuild "+args[0], err)
				}
				return fetchFailure(formatter, err)
			}
			for _, s := range steps {
				formatter.VerboseLog("Applied %s (cached=%t, warnings=%d)", s.Layer, s.Cached, s.Warnings)
			}

			view, err := newComponentView(c)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, "digest result", err)
			}
			result := RebuildResult{Component: view, Steps: steps, Diagnostics: newDiagnosticViews(errs)}
			if into != "" {
				rev, inserted, err := e.put(cmd.Context(), into, c)
				if err != nil {
					return formatter.Fail(ExitCommandError, ErrCodeStore, "store result", err)
				}
				rv := newRevisionView(rev)
				rv.Inserted = &inserted
				result.Revision = &rv
			}

			if formatter.JSON() {
				return formatter.Success(result)
			}
			fmt.Fprintf(formatter.Writer, "Rebuilt from %s\n", strings.Join(layers, " → "))
			printComponent(formatter.Writer, result.Component)
			printDiagnostics(formatter.Writer, result.Diagnostics)
			if result.Revision != nil {
				fmt.Fprint(formatter.Writer, "Stored ")
				printRevision(formatter.Writer, *result.Revision)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&layers, "layers", nil, "layer chain, base first (default: config layers)")
	cmd.Flags().StringVar(&into, "into", "", "store the result at this layer")
	return cmd
}

func newStoreExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		layer    string
		encoding string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "export <component>",
		Short: "Write a stored component as XML or binary",
		Long: `Write the latest revision of a component in the XML or binary exchange
format. Without --output the document is written to stdout.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			if !slices.Contains([]string{EncodingXML, EncodingBinary}, encoding) {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric,
					fmt.Sprintf("invalid encoding %q", encoding), nil)
			}

			e, err := openEnv(rootOpts, false)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
			}
			defer e.Close()

			c, _, err := e.fetch(cmd.Context(), layer, args[0])
			if err != nil {
				return fetchFailure(formatter, err)
			}

			var buf bytes.Buffer
			if encoding == EncodingXML {
				err = codec.WriteComponentXML(&buf, c)
			} else {
				err = codec.EncodeComponent(&buf, c)
			}
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeGeneric, "encode "+args[0], err)
			}

			if output == "" {
				_, err := io.Copy(formatter.Writer, &buf)
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, "write output file", err)
			}
			if formatter.JSON() {
				return formatter.Success(map[string]any{"path": output, "bytes": buf.Len()})
			}
			fmt.Fprintf(formatter.Writer, "Wrote %s (%d bytes)\n", output, buf.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&layer, "layer", store.BaseLayer, "layer to read")
	cmd.Flags().StringVar(&encoding, "encoding", EncodingXML, "xml or binary")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path")
	return cmd
}

func newStoreImportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		layer    string
		encoding string
	)

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Store a component read from an XML or binary document",
		Long: `Read a component written by "traitc store export" and store it at a layer.
The encoding defaults to xml for .xml files and binary otherwise.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := rootOpts.formatter(cmd)
			if encoding == "" {
				encoding = EncodingBinary
				if strings.EqualFold(filepath.Ext(args[0]), ".xml") {
					encoding = EncodingXML
				}
			}

			f, err := os.Open(args[0])
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeNotFound, "open input", err)
			}
			defer f.Close()

			e, err := openEnv(rootOpts, true)
			if err != nil {
				return formatter.Fail(ExitCommandError, ErrCodeStore, "open store", err)
			}
			defer e.Close()

			var c *trait.Component
			switch encoding {
			case EncodingXML:
				c, err = codec.ReadComponentXML(f, e.opts...)
			case EncodingBinary:
				c, err = codec.DecodeComponent(f, e.opts...)
			default:
				return formatter.Fail(ExitCommandError, ErrCodeGeneric,
					fmt.Sprintf("invalid encoding %q", encoding), nil)
			}
			if err != nil {
				return formatter.Fail(ExitFailure, ErrCodeCompile, "decode "+args[0], err)
			}
			return putAll(cmd, formatter, e, layer, []*trait.Component{c})
		},
	}

	cmd.Flags().StringVar(&layer, "layer", store.BaseLayer, "layer to store at")
	cmd.Flags().StringVar(&encoding, "encoding", "", "xml or binary (default: from extension)")
	return cmd
}

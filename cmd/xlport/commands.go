package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/xlport/internal/core"
	"github.com/JonMunkholm/xlport/internal/sheet"
	"github.com/JonMunkholm/xlport/internal/todo"
)

func (c *cli) typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the record types that can be exported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tGROUP\tLABEL\tAPPLY\tCOLUMNS")
			for _, def := range c.app.Registry.All() {
				columns, err := c.app.Converter.Header(def.Type)
				if err != nil {
					return fmt.Errorf("columns of %s: %w", def.Info.Key, err)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n",
					def.Info.Key, def.Info.Group, def.Info.Label, def.CanApply(), strings.Join(columns, ","))
			}
			return tw.Flush()
		},
	}
}

// filterFlags are the export flags passed to a type's List func.
var filterFlags = []struct {
	name, param, usage string
}{
	{"category", todo.ParamCategory, "bulk update: only items of this category"},
	{"subcategory", todo.ParamSubcategory, "bulk update: only items of this subcategory"},
	{"complete", todo.ParamComplete, "bulk update: only complete (true) or open (false) items"},
	{"manager", todo.ParamManager, "bulk update: encoded selection, overrides the other filters"},
}

func (c *cli) exportCmd() *cobra.Command {
	var output, format string
	filters := make([]string, len(filterFlags))

	cmd := &cobra.Command{
		Use:   "export <type>",
		Short: "Export the records of a type",
		Long: `Export writes the records of the type as one sheet with a header row.

Without --output the document is written to stdout. The format defaults to
the output file's extension, then EXPORT_FORMAT. Filter flags narrow the
records of types that support them; other types ignore them.

Example:
  xlport export todo-items -o items.xlsx
  xlport export todo-bulk-update --format csv > bulk.csv
  xlport export todo-bulk-update --category Domestic --complete=false -o open.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			def, err := c.app.Registry.Get(args[0])
			if err != nil {
				return fmt.Errorf("%w (valid: %s)", err, strings.Join(c.app.Registry.Keys(), ", "))
			}

			if format == "" {
				format = formatFromPath(output)
			}
			var opts []core.CallOption
			if format != "" {
				codec, err := sheet.ForFormat(format)
				if err != nil {
					return err
				}
				opts = append(opts, core.UseCodec(codec))
			}

			params := make(core.ListParams)
			for i, f := range filterFlags {
				if filters[i] != "" {
					params[f.param] = filters[i]
				}
			}
			records, err := def.List(ctx, params)
			if err != nil {
				return fmt.Errorf("list %s: %w", def.Info.Key, err)
			}

			var buf bytes.Buffer
			if err := c.app.Converter.Export(ctx, def.Type, records, &buf, opts...); err != nil {
				return err
			}
			if output == "" {
				_, err = buf.WriteTo(c.out)
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %s to %s\n", def.Info.Key, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "document format: xlsx or csv")
	for i, f := range filterFlags {
		cmd.Flags().StringVar(&filters[i], f.name, "", f.usage)
	}
	return cmd
}

// ImportSummary is printed after an import.
type ImportSummary struct {
	Type    string `json:"type"`
	Records int    `json:"records"`
	Applied bool   `json:"applied"`
	Changed int    `json:"changed"`
}

func (c *cli) importCmd() *cobra.Command {
	var (
		format string
		apply  bool
	)

	cmd := &cobra.Command{
		Use:   "import <type> <file>",
		Short: "Import a document into records of a type",
		Long: `Import reads every data row of the document into a record. The whole
document is rejected at the first failing row.

Without --apply nothing is persisted and a summary is printed.

Example:
  xlport import todo-bulk-update bulk.xlsx --apply`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			def, err := c.app.Registry.Get(args[0])
			if err != nil {
				return fmt.Errorf("%w (valid: %s)", err, strings.Join(c.app.Registry.Keys(), ", "))
			}
			if apply && !def.CanApply() {
				return fmt.Errorf("type %s is read only", def.Info.Key)
			}

			if format == "" {
				format = formatFromPath(args[1])
			}
			var opts []core.CallOption
			if format != "" {
				codec, err := sheet.ForFormat(format)
				if err != nil {
					return err
				}
				opts = append(opts, core.UseCodec(codec))
			}

			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := c.app.Converter.Import(ctx, def.Type, f, opts...)
			if err != nil {
				return fmt.Errorf("%s: %w", core.FormatUserError(err), err)
			}

			summary := ImportSummary{Type: def.Info.Key, Records: len(records)}
			if apply {
				if summary.Changed, err = def.Apply(ctx, records); err != nil {
					return err
				}
				summary.Applied = true
			}

			enc := json.NewEncoder(c.out)
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "document format: xlsx or csv (default: from extension or content)")
	cmd.Flags().BoolVar(&apply, "apply", false, "persist the imported records")
	return cmd
}

func (c *cli) seedCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo to-do items",
		Long: `Seed loads the demo to-do items into an empty store. With --reset every
existing item is deleted first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.Seed(cmd.Context(), reset)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "seeded %d items\n", n)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "delete existing items first")
	return cmd
}

// formatFromPath returns the format named by a file extension, or "" when
// the extension is not a known format.
func formatFromPath(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch sheet.Format(ext) {
	case sheet.FormatXLSX, sheet.FormatCSV:
		return ext
	}
	return ""
}

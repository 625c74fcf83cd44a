package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/pdfs"
)

// fieldOptions are the ways to pass field values on the command line.
type fieldOptions struct {
	templates string
	sets      []string
	file      string
}

func (f *fieldOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.templates, "templates", "", "extra template directory")
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "field value as name=value, repeatable")
	cmd.Flags().StringVar(&f.file, "fields", "", "JSON object of field values")
}

func (f *fieldOptions) registry(logger *zap.Logger) (*docs.Registry, error) {
	return docs.NewRegistry(f.templates, logger)
}

// values merges --fields then --set, later values winning.
func (f *fieldOptions) values() (map[string]string, error) {
	values := map[string]string{}
	if f.file != "" {
		raw, err := os.ReadFile(f.file)
		if err != nil {
			return nil, err
		}
		if err = json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("%s: %w", f.file, err)
		}
	}
	for _, kv := range f.sets {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: want name=value", kv)
		}
		values[name] = value
	}
	return values, nil
}

// state resolves docType and fills its state, warning about names the template does not know.
func (f *fieldOptions) state(cmd *cobra.Command, logger *zap.Logger, docType string) (*docs.Definition, *forms.State, error) {
	registry, err := f.registry(logger)
	if err != nil {
		return nil, nil, err
	}
	def, err := registry.Get(docType)
	if err != nil {
		return nil, nil, err
	}
	values, err := f.values()
	if err != nil {
		return nil, nil, err
	}
	state := def.NewState()
	if ignored := state.Merge(values); len(ignored) > 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "ignored unknown fields: %s\n", strings.Join(ignored, ", "))
	}
	return def, state, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var templates string
	cmd := &cobra.Command{
		Use:   "list [type]",
		Short: "List document types, or the fields of one type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := docs.NewRegistry(templates, opts.logger)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			if len(args) == 0 {
				_, _ = fmt.Fprintln(tw, "TYPE\tTITLE\tSTEPS\tNAVIGATION")
				for _, def := range registry.List() {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", def.Type, def.Title, def.StepCount(), def.Navigation)
				}
				return tw.Flush()
			}
			def, err := registry.Get(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(tw, "%s (%s)\n", def.Title, def.Type)
			for i, step := range def.Steps {
				_, _ = fmt.Fprintf(tw, "%d. %s\n", i+1, step.Title)
				for _, f := range step.Fields {
					_, _ = fmt.Fprintf(tw, "\t%s\t%s\t%s\n", f.Name, f.Label, f.Hint)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&templates, "templates", "", "extra template directory")
	return cmd
}

type outputOptions struct {
	out    string
	format string
	paper  string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.out, "out", "o", "", `output file, "-" for stdout (default: the template file name)`)
	cmd.Flags().StringVar(&o.format, "format", "pdf", "pdf, text or markdown")
	cmd.Flags().StringVar(&o.paper, "paper", "letter", "letter, legal or a4")
}

// write renders def and writes it where --out says.
func (o *outputOptions) write(cmd *cobra.Command, logger *zap.Logger, def *docs.Definition, state *forms.State) error {
	paper, ok := pdfs.PaperSizeByName(o.paper)
	if !ok {
		return fmt.Errorf("unknown paper size %q", o.paper)
	}
	g := &docs.Generator{Paper: paper, Creator: "legalgram", Logger: logger}
	base := strings.TrimSuffix(def.Filename, ".pdf")
	var (
		content []byte
		name    string
	)
	switch strings.ToLower(o.format) {
	case "pdf":
		doc, err := g.Generate(def, state)
		if err != nil {
			return err
		}
		content, name = doc.Content, doc.Filename
	case "text":
		text, err := g.Text(def, state)
		if err != nil {
			return err
		}
		content, name = []byte(text), base+".txt"
	case "markdown", "md":
		md, err := docs.Markdown(def, state)
		if err != nil {
			return err
		}
		content, name = []byte(md), base+".md"
	default:
		return fmt.Errorf("unknown format %q", o.format)
	}
	out := o.out
	if out == "" {
		out = name
	}
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, content, 0o644); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(content))
	return nil
}

func newGenerateCmd(opts *rootOptions) *cobra.Command {
	var (
		fields fieldOptions
		output outputOptions
	)
	cmd := &cobra.Command{
		Use:   "generate <type>",
		Short: "Render a document from field values",
		Example: `  legalgram generate bill-of-sale --set sellerName="Ada Lovelace" --set price='$500' -o sale.pdf
  legalgram generate residential-lease --fields lease.json --format text -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, state, err := fields.state(cmd, opts.logger, args[0])
			if err != nil {
				return err
			}
			return output.write(cmd, opts.logger, def, state)
		},
	}
	fields.register(cmd)
	output.register(cmd)
	return cmd
}

func writeFields(path string, state *forms.State) error {
	raw, err := json.MarshalIndent(state.Fields(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0o644)
}

func copyTo(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

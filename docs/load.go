package docs

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"strings"
	"text/template"
	"text/template/parse"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/zeptools/legalgram/forms"
)

//go:embed templates/*.yaml
var builtinFS embed.FS

var ErrInvalidDefinition = errors.New("docs: invalid definition")

var typeSlug = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Builtin returns the document templates compiled into the binary.
func Builtin() fs.FS {
	sub, err := fs.Sub(builtinFS, "templates")
	if err != nil {
		panic(err) // embedded path is fixed
	}
	return sub
}

func isTemplateFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

// Load parses every *.yaml / *.yml file under fsys. Hidden files and directories are skipped.
// Two files declaring the same type is an error.
func Load(fsys fs.FS) ([]*Definition, error) {
	var defs []*Definition
	seen := make(map[string]string)
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && p != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isTemplateFile(name) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		def, err := Parse(p, data)
		if err != nil {
			return err
		}
		if prev, dup := seen[def.Type]; dup {
			return fmt.Errorf("%w: type %q declared in %s and %s", ErrInvalidDefinition, def.Type, prev, p)
		}
		seen[def.Type] = p
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// Parse decodes and validates one YAML document template.
func Parse(source string, data []byte) (*Definition, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidDefinition, source)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	def := &Definition{}
	if err := dec.Decode(def); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, source, err)
	}
	def.Source = source
	if err := def.compile(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDefinition, source, err)
	}
	return def, nil
}

func (d *Definition) compile() error {
	if !typeSlug.MatchString(d.Type) {
		return fmt.Errorf("type %q is not a lowercase slug", d.Type)
	}
	if strings.TrimSpace(d.Title) == "" {
		return errors.New("title is required")
	}
	if d.Filename == "" {
		d.Filename = FilenameFromTitle(d.Title)
	} else if path.Ext(d.Filename) != ".pdf" {
		d.Filename += ".pdf"
	}
	mode, err := forms.ParseMode(string(d.Navigation))
	if err != nil {
		return err
	}
	d.Navigation = mode
	if len(d.Steps) == 0 {
		return errors.New("at least one step is required")
	}
	if len(d.Blocks) == 0 {
		return errors.New("at least one block is required")
	}

	d.fields = make(map[string]Field)
	for si := range d.Steps {
		step := &d.Steps[si]
		if step.Title == "" {
			return fmt.Errorf("step %d has no title", si+1)
		}
		for fi := range step.Fields {
			f := &step.Fields[fi]
			if f.Name == "" {
				return fmt.Errorf("step %d field %d has no name", si+1, fi+1)
			}
			if _, dup := d.fields[f.Name]; dup {
				return fmt.Errorf("field %q declared twice", f.Name)
			}
			if f.Label == "" {
				f.Label = f.Name
			}
			if f.Placeholder == "" {
				f.Placeholder = "[" + f.Label + "]"
			}
			d.fields[f.Name] = *f
		}
	}

	root := template.New(d.Type).Option("missingkey=error").Funcs(parseFuncs)
	for i, block := range d.Blocks {
		for _, cond := range []string{block.If, block.Unless} {
			if cond != "" && !d.hasField(cond) {
				return fmt.Errorf("block %d: condition on unknown field %q", i+1, cond)
			}
		}
		t, err := root.New(blockName(i)).Parse(block.Text)
		if err != nil {
			return fmt.Errorf("block %d: %w", i+1, err)
		}
		if err = checkNode(t.Tree.Root, d.hasField); err != nil {
			return fmt.Errorf("block %d: %w", i+1, err)
		}
	}
	d.tmpl = root
	return nil
}

func (d *Definition) hasField(name string) bool {
	_, ok := d.fields[name]
	return ok
}

// checkNode rejects references to undeclared fields and any use of template data.
func checkNode(node parse.Node, known func(string) bool) error {
	switch n := node.(type) {
	case *parse.ListNode:
		if n == nil {
			return nil
		}
		for _, child := range n.Nodes {
			if err := checkNode(child, known); err != nil {
				return err
			}
		}
	case *parse.ActionNode:
		return checkNode(n.Pipe, known)
	case *parse.IfNode:
		return checkBranch(&n.BranchNode, known)
	case *parse.WithNode:
		return checkBranch(&n.BranchNode, known)
	case *parse.RangeNode:
		return checkBranch(&n.BranchNode, known)
	case *parse.PipeNode:
		if n == nil {
			return nil
		}
		for _, cmd := range n.Cmds {
			if err := checkNode(cmd, known); err != nil {
				return err
			}
		}
	case *parse.CommandNode:
		return checkCommand(n, known)
	case *parse.TemplateNode:
		return fmt.Errorf("line %d: nested templates are not allowed", n.Line)
	case *parse.FieldNode, *parse.DotNode, *parse.ChainNode:
		return fmt.Errorf("%s: templates take no data, use %s \"name\"", n, funcField)
	}
	return nil
}

func checkBranch(b *parse.BranchNode, known func(string) bool) error {
	if err := checkNode(b.Pipe, known); err != nil {
		return err
	}
	if err := checkNode(b.List, known); err != nil {
		return err
	}
	if b.ElseList != nil {
		return checkNode(b.ElseList, known)
	}
	return nil
}

func checkCommand(cmd *parse.CommandNode, known func(string) bool) error {
	if len(cmd.Args) > 0 {
		if ident, ok := cmd.Args[0].(*parse.IdentifierNode); ok {
			switch ident.Ident {
			case funcField, funcValue, funcFilled:
				if len(cmd.Args) != 2 {
					return fmt.Errorf("%s: %s takes exactly one field name", cmd, ident.Ident)
				}
				lit, ok := cmd.Args[1].(*parse.StringNode)
				if !ok {
					return fmt.Errorf("%s: field name must be a string literal", cmd)
				}
				if !known(lit.Text) {
					return fmt.Errorf("%s: unknown field %q", cmd, lit.Text)
				}
				return nil
			}
		}
	}
	for _, arg := range cmd.Args {
		if err := checkNode(arg, known); err != nil {
			return err
		}
	}
	return nil
}

package docs

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/pdfs"
)

// Writer receives the styled blocks of an assembled document, in order.
// *pdfs.Layout is the production implementation.
type Writer interface {
	Write(text string, style pdfs.Style)
}

type Segment struct {
	Text  string
	Style pdfs.Style
}

// Template functions available to block text. Names must match the stubs in parse-time funcs.
const (
	funcField  = "field"  // value, or the bracketed placeholder when empty
	funcValue  = "value"  // raw value, possibly empty
	funcFilled = "filled" // whether the value is non-empty
)

// parseFuncs only have to satisfy the parser; render rebinds them to the form state.
var parseFuncs = template.FuncMap{
	funcField:  func(string) (string, error) { return "", nil },
	funcValue:  func(string) (string, error) { return "", nil },
	funcFilled: func(string) (bool, error) { return false, nil },
	"upper":    strings.ToUpper,
}

func blockName(i int) string {
	return "block" + strconv.Itoa(i)
}

func (d *Definition) boundFuncs(state *forms.State) template.FuncMap {
	lookup := func(name string) (Field, error) {
		f, ok := d.fields[name]
		if !ok {
			return Field{}, fmt.Errorf("%w: %q", forms.ErrUnknownField, name)
		}
		return f, nil
	}
	return template.FuncMap{
		funcField: func(name string) (string, error) {
			f, err := lookup(name)
			if err != nil {
				return "", err
			}
			if v := strings.TrimSpace(state.Get(name)); v != "" {
				return v, nil
			}
			return f.Placeholder, nil
		},
		funcValue: func(name string) (string, error) {
			if _, err := lookup(name); err != nil {
				return "", err
			}
			return strings.TrimSpace(state.Get(name)), nil
		},
		funcFilled: func(name string) (bool, error) {
			if _, err := lookup(name); err != nil {
				return false, err
			}
			return filled(state, name), nil
		},
	}
}

// Render evaluates every applicable block against state.
func (d *Definition) Render(state *forms.State) ([]Segment, error) {
	tmpl, err := d.tmpl.Clone()
	if err != nil {
		return nil, err
	}
	tmpl.Funcs(d.boundFuncs(state))

	segments := make([]Segment, 0, len(d.Blocks))
	var buf strings.Builder
	for i, block := range d.Blocks {
		if !block.applies(state) {
			continue
		}
		buf.Reset()
		if err = tmpl.ExecuteTemplate(&buf, blockName(i), nil); err != nil {
			return nil, fmt.Errorf("%s: block %d: %w", d.Type, i+1, err)
		}
		segments = append(segments, Segment{Text: buf.String(), Style: block.Style()})
	}
	return segments, nil
}

// Assemble renders the document and writes it block by block.
// Nothing is written when rendering fails.
func (d *Definition) Assemble(state *forms.State, w Writer) error {
	segments, err := d.Render(state)
	if err != nil {
		return err
	}
	for _, s := range segments {
		w.Write(s.Text, s.Style)
	}
	return nil
}

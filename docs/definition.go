package docs

import (
	"regexp"
	"strings"
	"text/template"

	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/pdfs"
)

type Field struct {
	Name        string `yaml:"name" json:"name"`
	Label       string `yaml:"label" json:"label"`
	Placeholder string `yaml:"placeholder" json:"placeholder"`
	Hint        string `yaml:"hint,omitempty" json:"hint,omitempty"`
	Multiline   bool   `yaml:"multiline,omitempty" json:"multiline,omitempty"`
}

type Step struct {
	Title  string  `yaml:"title" json:"title"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Block is one styled paragraph of the document body.
// Text is a text/template; If and Unless name a field that must be filled in or left empty.
type Block struct {
	Text     string  `yaml:"text"`
	Size     float64 `yaml:"size,omitempty"`
	Bold     bool    `yaml:"bold,omitempty"`
	Centered bool    `yaml:"centered,omitempty"`
	If       string  `yaml:"if,omitempty"`
	Unless   string  `yaml:"unless,omitempty"`
}

func (b Block) Style() pdfs.Style {
	return pdfs.Style{Size: b.Size, Bold: b.Bold, Centered: b.Centered}
}

func (b Block) applies(state *forms.State) bool {
	if b.If != "" && !filled(state, b.If) {
		return false
	}
	if b.Unless != "" && filled(state, b.Unless) {
		return false
	}
	return true
}

// Definition is a loaded document type.
type Definition struct {
	Type        string     `yaml:"type"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Filename    string     `yaml:"filename"`
	Navigation  forms.Mode `yaml:"navigation"`
	Steps       []Step     `yaml:"steps"`
	Blocks      []Block    `yaml:"blocks"`

	Source string `yaml:"-"` // file the definition was loaded from

	fields map[string]Field
	tmpl   *template.Template
}

// FieldNames returns every field name in step order.
func (d *Definition) FieldNames() []string {
	var names []string
	for _, step := range d.Steps {
		for _, f := range step.Fields {
			names = append(names, f.Name)
		}
	}
	return names
}

func (d *Definition) Field(name string) (Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

func (d *Definition) StepCount() int {
	return len(d.Steps)
}

// NewState returns an empty FormState holding every field of the definition.
func (d *Definition) NewState() *forms.State {
	return forms.NewState(d.FieldNames()...)
}

func (d *Definition) NewSession() *forms.Session {
	return forms.NewSession(d.Type, d.StepCount(), d.Navigation, d.FieldNames()...)
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_\-]+`)

// FilenameFromTitle maps "Bill of Sale" to "Bill_of_Sale.pdf".
func FilenameFromTitle(title string) string {
	name := strings.Join(strings.Fields(title), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	if name == "" {
		name = "Document"
	}
	return name + ".pdf"
}

func filled(state *forms.State, name string) bool {
	return strings.TrimSpace(state.Get(name)) != ""
}

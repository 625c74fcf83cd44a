package docs

import (
	"fmt"
	"strings"

	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/pdfs"
)

// headingSize is the smallest font size rendered as a top-level heading.
const headingSize = 14

// markdownWriter maps layout styles to Markdown: large centered bold text becomes a heading,
// other bold text becomes strong emphasis, empty text separates paragraphs.
type markdownWriter struct {
	b strings.Builder
}

func (m *markdownWriter) Write(text string, style pdfs.Style) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	lines := strings.Split(text, "\n")
	switch {
	case style.Bold && style.Centered && style.Size >= headingSize:
		m.b.WriteString("# " + strings.Join(lines, " "))
	case style.Bold && style.Centered:
		m.b.WriteString("## " + strings.Join(lines, " "))
	case style.Bold:
		for i, line := range lines {
			lines[i] = "**" + strings.TrimSpace(line) + "**"
		}
		m.b.WriteString(strings.Join(lines, "  \n"))
	default:
		m.b.WriteString(strings.Join(lines, "  \n"))
	}
	m.b.WriteString("\n\n")
}

// Markdown renders def filled with state as a Markdown document.
func Markdown(def *Definition, state *forms.State) (string, error) {
	var w markdownWriter
	if err := def.Assemble(state, &w); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return w.b.String(), nil
}

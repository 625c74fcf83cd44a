package pdfs

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

// Approximate Helvetica advance widths as a fraction of the font size.
const (
	recorderRegularAdvance = 0.5
	recorderBoldAdvance    = 0.55
)

type RecordedText struct {
	X    float64
	Y    float64
	Text string
	Size float64
	Bold bool
}

// Recorder is an in-memory Canvas that keeps every placed string per page.
// Widths are fixed per rune, so wrapping is stable and font-independent.
// Its byte form is the plain text stream: one line per placement, pages separated by '\f'.
type Recorder struct {
	paper PaperSize
	pages [][]RecordedText
	size  float64
	bold  bool
}

// Ensure Recorder implements Canvas
var _ Canvas = (*Recorder)(nil)

func NewRecorder(paper PaperSize) *Recorder {
	return &Recorder{paper: paper, size: DefaultFontSize}
}

func (r *Recorder) PaperSize() PaperSize {
	return r.paper
}

func (r *Recorder) AddBlankPage() {
	r.pages = append(r.pages, nil)
}

func (r *Recorder) PageCount() int {
	return len(r.pages)
}

func (r *Recorder) SetFont(_ string, style string, size float64) {
	r.size = size
	r.bold = strings.Contains(style, "B")
}

func (r *Recorder) StringWidth(text string) float64 {
	advance := recorderRegularAdvance
	if r.bold {
		advance = recorderBoldAdvance
	}
	return float64(utf8.RuneCountInString(text)) * advance * r.size
}

func (r *Recorder) Text(x float64, y float64, text string) {
	if len(r.pages) == 0 {
		r.AddBlankPage()
	}
	last := len(r.pages) - 1
	r.pages[last] = append(r.pages[last], RecordedText{X: x, Y: y, Text: text, Size: r.size, Bold: r.bold})
}

// Pages returns the recorded placements, one slice per page.
func (r *Recorder) Pages() [][]RecordedText {
	return r.pages
}

func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for i, page := range r.pages {
		if i > 0 {
			buf.WriteByte('\f')
		}
		for _, t := range page {
			buf.WriteString(t.Text)
			buf.WriteByte('\n')
		}
	}
	return buf.WriteTo(w)
}

func (r *Recorder) ProduceBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := r.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

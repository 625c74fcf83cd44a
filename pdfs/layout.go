package pdfs

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMarginTooLarge = errors.New("pdfs: margins leave no printable area")

// CheckMargin rejects a negative margin and one whose two sides reach across the paper.
func CheckMargin(paper PaperSize, margin float64) error {
	if margin < 0 {
		return fmt.Errorf("pdfs: negative margin %g", margin)
	}
	if 2*margin >= min(paper.Width, paper.Height) {
		return fmt.Errorf("%w: margin %g on %gx%g", ErrMarginTooLarge, margin, paper.Width, paper.Height)
	}
	return nil
}

const (
	DefaultFontSize  = 11.0
	DefaultMargin    = 72.0 // 1"
	LineHeightFactor = 1.3
	FontFamily       = "Helvetica"
)

// Style of one written block. A zero Size means DefaultFontSize.
type Style struct {
	Size     float64
	Bold     bool
	Centered bool
}

// Placement is one wrapped line as it was placed on the canvas.
type Placement struct {
	Page int // 1-basis
	X    float64
	Y    float64
	Text string
	Size float64
	Bold bool
}

// Layout writes styled text blocks top-down onto a Canvas, wrapping each block to the
// printable width and starting a new page once the cursor passes the bottom margin.
// A Layout is single-use and not safe for concurrent use.
type Layout struct {
	canvas Canvas
	margin float64
	cursor float64 // vertical pen position on the current page
	placed []Placement
}

// NewLayout starts the first page of canvas with the cursor at the top margin.
// Callers validate margin with CheckMargin; a negative one is treated as 0.
func NewLayout(canvas Canvas, margin float64) *Layout {
	if margin < 0 {
		margin = 0
	}
	canvas.AddBlankPage()
	return &Layout{
		canvas: canvas,
		margin: margin,
		cursor: margin,
	}
}

func (l *Layout) Canvas() Canvas {
	return l.canvas
}

func (l *Layout) Cursor() float64 {
	return l.cursor
}

func (l *Layout) Margin() float64 {
	return l.margin
}

// Placements returns every placed line in write order.
func (l *Layout) Placements() []Placement {
	return l.placed
}

// Text returns the placed lines joined by newlines.
func (l *Layout) Text() string {
	var b strings.Builder
	for _, p := range l.placed {
		b.WriteString(p.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// Write wraps text and places its lines. Empty or whitespace-only text places
// nothing and advances the cursor by half a line.
func (l *Layout) Write(text string, style Style) {
	size := style.Size
	if size <= 0 {
		size = DefaultFontSize
	}
	fontStyle := ""
	if style.Bold {
		fontStyle = "B"
	}
	l.canvas.SetFont(FontFamily, fontStyle, size)
	lineHeight := size * LineHeightFactor

	if strings.TrimSpace(text) == "" {
		l.cursor += lineHeight / 2
		return
	}

	paper := l.canvas.PaperSize()
	maxWidth := paper.Width - 2*l.margin
	for _, line := range Wrap(text, maxWidth, l.canvas.StringWidth) {
		if l.cursor > paper.Height-l.margin {
			l.breakPage()
		}
		x := l.margin
		if style.Centered {
			x = (paper.Width - l.canvas.StringWidth(line)) / 2
		}
		l.canvas.Text(x, l.cursor, line)
		l.placed = append(l.placed, Placement{
			Page: l.canvas.PageCount(),
			X:    x,
			Y:    l.cursor,
			Text: line,
			Size: size,
			Bold: style.Bold,
		})
		l.cursor += lineHeight
	}
}

func (l *Layout) breakPage() {
	l.canvas.AddBlankPage()
	l.cursor = l.margin
}

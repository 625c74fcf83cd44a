package docs

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/pdfs"
)

var ErrRender = errors.New("docs: failed to generate document")

// Document is a finished rendering.
type Document struct {
	Type     string
	Filename string
	Content  []byte
	Pages    int
}

// Generator renders definitions onto a fresh canvas per call.
// It is safe for concurrent use; the zero value renders Letter pages with the default margin.
type Generator struct {
	Paper   pdfs.PaperSize
	Margin  float64
	Creator string
	Clock   func() time.Time // creation date of the PDF; fixing it makes output reproducible
	Logger  *zap.Logger
}

func (g *Generator) paper() pdfs.PaperSize {
	if g.Paper.Width <= 0 || g.Paper.Height <= 0 {
		return pdfs.LetterSize
	}
	return g.Paper
}

func (g *Generator) margin() float64 {
	if g.Margin <= 0 {
		return pdfs.DefaultMargin
	}
	return g.Margin
}

// Validate reports a margin that leaves no printable area on the paper.
func (g *Generator) Validate() error {
	return pdfs.CheckMargin(g.paper(), g.margin())
}

func (g *Generator) logger() *zap.Logger {
	if g.Logger == nil {
		return zap.NewNop()
	}
	return g.Logger
}

// Generate produces the PDF for def filled with state.
// Any failure, including a panic inside the canvas, is reported as ErrRender and no bytes are returned.
func (g *Generator) Generate(def *Definition, state *forms.State) (*Document, error) {
	created := time.Now()
	if g.Clock != nil {
		created = g.Clock()
	}
	canvas := pdfs.NewPDFCanvas(g.paper(), pdfs.PDFOptions{
		Title:   def.Title,
		Creator: g.Creator,
		Created: created,
	})
	content, err := g.render(def, state, canvas)
	if err != nil {
		return nil, err
	}
	return &Document{Type: def.Type, Filename: def.Filename, Content: content, Pages: canvas.PageCount()}, nil
}

// Text renders def onto an in-memory recorder and returns the plain text stream.
func (g *Generator) Text(def *Definition, state *forms.State) (string, error) {
	content, err := g.render(def, state, pdfs.NewRecorder(g.paper()))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (g *Generator) render(def *Definition, state *forms.State, canvas pdfs.Canvas) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %s: panic: %v", ErrRender, def.Type, r)
			g.logger().Error("document rendering panicked", zap.String("type", def.Type), zap.Any("panic", r))
		}
	}()
	if err = g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	layout := pdfs.NewLayout(canvas, g.margin())
	if err = def.Assemble(state, layout); err != nil {
		g.logger().Error("document assembly failed", zap.String("type", def.Type), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	out, err = canvas.ProduceBytes()
	if err != nil {
		g.logger().Error("document serialization failed", zap.String("type", def.Type), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	if pc, ok := canvas.(*pdfs.PDFCanvas); ok && pc.Substituted() > 0 {
		g.logger().Warn("characters outside cp1252 were replaced with '.'",
			zap.String("type", def.Type), zap.Int("count", pc.Substituted()))
	}
	return out, nil
}

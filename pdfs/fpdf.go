package pdfs

import (
	"bytes"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

type PDFOptions struct {
	Title   string
	Author  string
	Creator string
	// Created is written as both creation and modification date.
	// A fixed value makes the output reproducible byte for byte.
	Created time.Time
}

// PDFCanvas is a Canvas backed by fpdf using the core (non-embedded) fonts.
// Text is encoded as cp1252: a rune outside it is drawn as '.' and counted by Substituted.
type PDFCanvas struct {
	paper PaperSize
	pdf   *fpdf.Fpdf
	tr    func(string) string // UTF-8 -> cp1252 for the core fonts
	lost  int
}

// Ensure PDFCanvas implements Canvas
var _ Canvas = (*PDFCanvas)(nil)

func NewPDFCanvas(paper PaperSize, opts PDFOptions) *PDFCanvas {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: paper.Width, Ht: paper.Height},
	})
	// pagination is driven by Layout, never by fpdf
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCatalogSort(true)
	if !opts.Created.IsZero() {
		pdf.SetCreationDate(opts.Created)
		pdf.SetModificationDate(opts.Created)
	}
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Creator != "" {
		pdf.SetCreator(opts.Creator, true)
	}
	return &PDFCanvas{
		paper: paper,
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (c *PDFCanvas) PaperSize() PaperSize {
	return c.paper
}

func (c *PDFCanvas) AddBlankPage() {
	c.pdf.AddPage()
}

func (c *PDFCanvas) PageCount() int {
	return c.pdf.PageCount()
}

func (c *PDFCanvas) SetFont(family string, style string, size float64) {
	c.pdf.SetFont(family, style, size)
}

func (c *PDFCanvas) StringWidth(text string) float64 {
	return c.pdf.GetStringWidth(c.tr(text))
}

func (c *PDFCanvas) Text(x float64, y float64, text string) {
	enc := c.tr(text)
	c.lost += substituted(text, enc)
	c.pdf.Text(x, y, enc)
}

// Substituted is the number of drawn runes that cp1252 could not represent.
func (c *PDFCanvas) Substituted() int {
	return c.lost
}

// substituted compares text with its one-byte-per-rune translation.
func substituted(text, enc string) int {
	n, i := 0, 0
	for _, r := range text {
		if i < len(enc) && enc[i] == '.' && r != '.' {
			n++
		}
		i++
	}
	return n
}

// WriteTo serializes the document. fpdf latches its first error; it is returned here.
func (c *PDFCanvas) WriteTo(w io.Writer) (int64, error) {
	if err := c.pdf.Error(); err != nil {
		return 0, err
	}
	cw := &countWriter{w: w}
	err := c.pdf.Output(cw)
	return cw.n, err
}

func (c *PDFCanvas) ProduceBytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := c.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type countWriter struct {
	w io.Writer
	n int64
}

func (cw *countWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n) // Write() can be called multiple times by fpdf
	return n, err
}

package pdfs

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderSample(t *testing.T, created time.Time) ([]byte, *PDFCanvas) {
	t.Helper()
	canvas := NewPDFCanvas(LetterSize, PDFOptions{Title: "Sample", Creator: "legalgram", Created: created})
	l := NewLayout(canvas, DefaultMargin)
	l.Write("SAMPLE AGREEMENT", Style{Size: 16, Bold: true, Centered: true})
	l.Write("", Style{})
	l.Write(strings.Repeat(longParagraph+" ", 40), Style{})
	out, err := canvas.ProduceBytes()
	require.NoError(t, err)
	return out, canvas
}

func TestPDFCanvas_ProducesPaginatedPDF(t *testing.T) {
	out, canvas := renderSample(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Greater(t, canvas.PageCount(), 1)
}

func TestPDFCanvas_Reproducible(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	first, _ := renderSample(t, created)
	second, _ := renderSample(t, created)
	assert.True(t, bytes.Equal(first, second))
}

func TestPDFCanvas_WriteToCountsBytes(t *testing.T) {
	canvas := NewPDFCanvas(A4Size, PDFOptions{Created: time.Unix(0, 0).UTC()})
	l := NewLayout(canvas, DefaultMargin)
	l.Write("Curly “quotes” and an em dash — survive translation.", Style{})

	var buf bytes.Buffer
	n, err := canvas.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, 1, canvas.PageCount())
}

func TestPDFCanvas_MeasuresNarrowerThanPrintableWidth(t *testing.T) {
	canvas := NewPDFCanvas(LetterSize, PDFOptions{})
	l := NewLayout(canvas, DefaultMargin)
	l.Write(longParagraph, Style{Size: 12})

	canvas.SetFont(FontFamily, "", 12)
	for _, p := range l.Placements() {
		assert.LessOrEqual(t, canvas.StringWidth(p.Text), LetterSize.Width-2*DefaultMargin)
	}
	assert.Greater(t, len(l.Placements()), 1)
}

func TestPDFCanvas_CountsSubstitutedRunes(t *testing.T) {
	canvas := NewPDFCanvas(LetterSize, PDFOptions{Created: time.Unix(0, 0).UTC()})
	l := NewLayout(canvas, DefaultMargin)
	l.Write("Café Inc. — 5.0", Style{})
	assert.Zero(t, canvas.Substituted(), "cp1252 covers é and the em dash")

	l.Write("Seller: 张三.", Style{})
	assert.Equal(t, 2, canvas.Substituted())
	_, err := canvas.ProduceBytes()
	require.NoError(t, err)
}

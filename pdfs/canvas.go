package pdfs

import "io"

// Canvas — minimal, stream-style, append-only page surface. No page navigation.
// A Layout owns its Canvas for the duration of one document.
type Canvas interface {
	PaperSize() PaperSize

	AddBlankPage()
	PageCount() int

	// SetFont selects the font for subsequent StringWidth and Text calls.
	// style: "" (regular) or "B" (bold)
	SetFont(family string, style string, size float64)
	StringWidth(text string) float64

	// Text places text with its baseline at y, measured from the top edge.
	Text(x float64, y float64, text string)

	WriteTo(w io.Writer) (int64, error)
	ProduceBytes() ([]byte, error)
}

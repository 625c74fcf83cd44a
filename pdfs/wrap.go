package pdfs

import "strings"

// Wrap breaks text into lines no wider than maxWidth using a greedy word wrap.
// Newlines are hard breaks; runs of other whitespace collapse to one space.
// A word wider than maxWidth on its own is split at rune boundaries.
func Wrap(text string, maxWidth float64, measure func(string) float64) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			continue
		}
		line := ""
		for _, word := range words {
			candidate := word
			if line != "" {
				candidate = line + " " + word
			}
			if measure(candidate) <= maxWidth {
				line = candidate
				continue
			}
			// break before the word that would overflow
			if line != "" {
				lines = append(lines, line)
			}
			if measure(word) <= maxWidth {
				line = word
				continue
			}
			chunks := splitWord(word, maxWidth, measure)
			lines = append(lines, chunks[:len(chunks)-1]...)
			line = chunks[len(chunks)-1]
		}
		lines = append(lines, line)
	}
	return lines
}

// splitWord cuts an oversized word into chunks that fit maxWidth.
// Every chunk holds at least one rune, so a glyph wider than maxWidth still makes progress.
func splitWord(word string, maxWidth float64, measure func(string) float64) []string {
	var chunks []string
	var b strings.Builder
	for _, r := range word {
		if b.Len() > 0 && measure(b.String()+string(r)) > maxWidth {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}

package docs

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/pdfs"
)

var fixedClock = func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) }

func builtin(t *testing.T, docType string) *Definition {
	t.Helper()
	reg, err := NewRegistry("", nil)
	require.NoError(t, err)
	def, err := reg.Get(docType)
	require.NoError(t, err)
	return def
}

func normalized(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestBuiltin_AllTypesLoad(t *testing.T) {
	defs, err := Load(Builtin())
	require.NoError(t, err)
	require.Len(t, defs, 8)
	for _, def := range defs {
		assert.NotEmpty(t, def.Title, def.Type)
		assert.True(t, strings.HasSuffix(def.Filename, ".pdf"), def.Type)
		assert.NotContains(t, def.Filename, " ")
		assert.GreaterOrEqual(t, def.StepCount(), 1)
		assert.LessOrEqual(t, def.StepCount(), 13)
	}
}

func TestFilenameFromTitle(t *testing.T) {
	assert.Equal(t, "Confidentiality_Agreement.pdf", FilenameFromTitle("Confidentiality Agreement"))
	assert.Equal(t, "Bill_of_Sale.pdf", FilenameFromTitle("  Bill  of Sale "))
	assert.Equal(t, "Partners_Agreement.pdf", FilenameFromTitle("Partners' Agreement"))
	assert.Equal(t, "Document.pdf", FilenameFromTitle("!!!"))
}

func TestConfidentialityAgreement_EndToEnd(t *testing.T) {
	def := builtin(t, "confidentiality-agreement")
	assert.Equal(t, "Confidentiality_Agreement.pdf", def.Filename)

	state := def.NewState()
	require.NoError(t, state.Set("ownerName", "Acme Corp"))
	require.NoError(t, state.Set("recipientName", "Jane Doe"))
	require.NoError(t, state.Set("termYears", "5"))

	g := &Generator{Clock: fixedClock}
	doc, err := g.Generate(def, state)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF-")))
	assert.Equal(t, "Confidentiality_Agreement.pdf", doc.Filename)
	assert.GreaterOrEqual(t, doc.Pages, 1)

	text, err := g.Text(def, state)
	require.NoError(t, err)
	flat := normalized(text)
	for _, want := range []string{"Acme Corp", "Jane Doe", "5 years", "[insert state]"} {
		assert.Contains(t, flat, want)
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	def := builtin(t, "residential-lease")
	state := def.NewState()
	state.Merge(map[string]string{"landlordName": "Ada Lovelace", "monthlyRent": "USD 1,200"})

	g := &Generator{Clock: fixedClock, Paper: pdfs.A4Size}
	first, err := g.Generate(def, state)
	require.NoError(t, err)
	second, err := g.Generate(def, state.Clone())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first.Content, second.Content))
}

func TestGenerate_RejectsOversizedMargin(t *testing.T) {
	def := builtin(t, "confidentiality-agreement")
	g := &Generator{Paper: pdfs.LetterSize, Margin: 400}
	assert.ErrorIs(t, g.Validate(), pdfs.ErrMarginTooLarge)

	_, err := g.Generate(def, def.NewState())
	assert.ErrorIs(t, err, ErrRender)
	assert.ErrorIs(t, err, pdfs.ErrMarginTooLarge)
	_, err = g.Text(def, def.NewState())
	assert.ErrorIs(t, err, pdfs.ErrMarginTooLarge)

	assert.NoError(t, (&Generator{Paper: pdfs.A4Size, Margin: 36}).Validate())
}

func TestGenerate_WarnsOnSubstitutedRunes(t *testing.T) {
	def := builtin(t, "confidentiality-agreement")
	core, logs := observer.New(zap.WarnLevel)
	g := &Generator{Clock: fixedClock, Logger: zap.New(core)}

	_, err := g.Generate(def, def.NewState())
	require.NoError(t, err)
	assert.Zero(t, logs.Len())

	state := def.NewState()
	require.NoError(t, state.Set("ownerName", "张三"))
	_, err = g.Generate(def, state)
	require.NoError(t, err)
	entries := logs.FilterMessageSnippet("cp1252").All()
	require.Len(t, entries, 1)
	assert.GreaterOrEqual(t, entries[0].ContextMap()["count"], int64(2))
}

func TestPlaceholders_NoUndefinedValues(t *testing.T) {
	reg, err := NewRegistry("", nil)
	require.NoError(t, err)
	g := &Generator{}
	for _, def := range reg.List() {
		text, err := g.Text(def, def.NewState())
		require.NoError(t, err, def.Type)
		for _, bad := range []string{"undefined", "null", "<no value>", "{{", "}}"} {
			assert.NotContains(t, text, bad, def.Type)
		}
	}
}

func TestPlaceholders_EmptyFieldRendersPlaceholderVerbatim(t *testing.T) {
	def := builtin(t, "memorandum-of-understanding")
	text, err := (&Generator{}).Text(def, def.NewState())
	require.NoError(t, err)
	flat := normalized(text)
	assert.Contains(t, flat, "[Effective Date]")
	assert.Contains(t, flat, "[Insert First Party Name]")

	// whitespace-only input counts as empty
	state := def.NewState()
	require.NoError(t, state.Set("partyOneName", "   "))
	text, err = (&Generator{}).Text(def, state)
	require.NoError(t, err)
	assert.Contains(t, normalized(text), "[Insert First Party Name]")
}

func TestConditionalBlocks(t *testing.T) {
	def := builtin(t, "confidentiality-agreement")
	g := &Generator{}

	text, err := g.Text(def, def.NewState())
	require.NoError(t, err)
	assert.Contains(t, normalized(text), "evaluate a possible business relationship")
	assert.NotContains(t, normalized(text), "[Describe the Purpose]")

	state := def.NewState()
	require.NoError(t, state.Set("purpose", "a joint bid"))
	text, err = g.Text(def, state)
	require.NoError(t, err)
	assert.Contains(t, normalized(text), "following purpose: a joint bid.")
	assert.NotContains(t, normalized(text), "evaluate a possible business relationship")
}

func TestMarkdown(t *testing.T) {
	def := builtin(t, "confidentiality-agreement")
	md, err := Markdown(def, def.NewState())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(md, "# CONFIDENTIALITY AGREEMENT\n\n"))
	assert.Contains(t, md, "**1. Purpose**")
	assert.Contains(t, md, "[insert state]")
}

type panickingCanvas struct {
	*pdfs.Recorder
}

func (panickingCanvas) Text(float64, float64, string) {
	panic("font table corrupted")
}

func TestGenerate_PanicBecomesErrRender(t *testing.T) {
	def := builtin(t, "bill-of-sale")
	g := &Generator{}
	out, err := g.render(def, def.NewState(), panickingCanvas{pdfs.NewRecorder(pdfs.LetterSize)})
	assert.ErrorIs(t, err, ErrRender)
	assert.Nil(t, out)
}

const minimalTemplate = `
type: sample
title: Sample Letter
steps:
  - title: Only
    fields:
      - name: who
blocks:
  - text: Hello {{ field "who" }}
`

func TestParse_Defaults(t *testing.T) {
	def, err := Parse("sample.yaml", []byte(minimalTemplate))
	require.NoError(t, err)
	assert.Equal(t, forms.ModeLinear, def.Navigation)
	assert.Equal(t, "Sample_Letter.pdf", def.Filename)
	f, ok := def.Field("who")
	require.True(t, ok)
	assert.Equal(t, "[who]", f.Placeholder)

	segs, err := def.Render(def.NewState())
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "Hello [who]", segs[0].Text)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field in text": strings.Replace(minimalTemplate, `field "who"`, `field "whom"`, 1),
		"data reference":        strings.Replace(minimalTemplate, `{{ field "who" }}`, `{{ .who }}`, 1),
		"non-literal name":      strings.Replace(minimalTemplate, `{{ field "who" }}`, `{{ $x := "who" }}{{ field $x }}`, 1),
		"nested template":       strings.Replace(minimalTemplate, `{{ field "who" }}`, `{{ template "x" }}`, 1),
		"unknown yaml key":      minimalTemplate + "colour: red\n",
		"unknown condition":     minimalTemplate + "    if: nobody\n",
		"bad slug":              strings.Replace(minimalTemplate, "type: sample", "type: Sample Type", 1),
		"bad navigation":        minimalTemplate + "navigation: sideways\n",
		"duplicate field":       strings.Replace(minimalTemplate, "      - name: who\n", "      - name: who\n      - name: who\n", 1),
		"syntax":                strings.Replace(minimalTemplate, `{{ field "who" }}`, `{{ field "who" `, 1),
	}
	for name, src := range cases {
		_, err := Parse(name+".yaml", []byte(src))
		assert.ErrorIs(t, err, ErrInvalidDefinition, name)
	}
}

func TestLoad_DuplicateTypes(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml":         {Data: []byte(minimalTemplate)},
		"nested/b.yml":   {Data: []byte(minimalTemplate)},
		".hidden/c.yaml": {Data: []byte("not: [valid")},
		"notes.txt":      {Data: []byte("ignored")},
	}
	_, err := Load(fsys)
	assert.ErrorIs(t, err, ErrInvalidDefinition)

	delete(fsys, "nested/b.yml")
	defs, err := Load(fsys)
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "sample", defs[0].Type)
}

func TestRegistry_OverlayAndReload(t *testing.T) {
	dir := t.TempDir()
	custom := strings.Replace(minimalTemplate, "type: sample", "type: bill-of-sale", 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bill.yaml"), []byte(custom), 0o600))

	reg, err := NewRegistry(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, reg.Len())
	def, err := reg.Get("bill-of-sale")
	require.NoError(t, err)
	assert.Equal(t, "Sample Letter", def.Title)

	_, err = reg.Get("last-will")
	assert.ErrorIs(t, err, ErrUnknownType)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("type: [oops"), 0o600))
	_, err = reg.Reload()
	require.Error(t, err)
	assert.Equal(t, 8, reg.Len())

	require.NoError(t, os.Remove(filepath.Join(dir, "broken.yaml")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(minimalTemplate), 0o600))
	n, err := reg.Reload()
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	list := reg.List()
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].Type, list[i].Type)
	}
}

func TestStaticRegistry(t *testing.T) {
	def, err := Parse("sample.yaml", []byte(minimalTemplate))
	require.NoError(t, err)
	reg := NewStaticRegistry(def)
	got, err := reg.Get("sample")
	require.NoError(t, err)
	assert.Same(t, def, got)
	assert.Equal(t, 1, reg.Len())
}

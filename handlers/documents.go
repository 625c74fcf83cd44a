package handlers

import (
	"net/http"
	"strings"

	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/requests"
	"github.com/zeptools/legalgram/responses"
)

type documentSummary struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Filename    string     `json:"filename"`
	Navigation  forms.Mode `json:"navigation"`
	StepCount   int        `json:"step_count"`
}

type documentDetail struct {
	documentSummary
	Steps []docs.Step `json:"steps"`
}

func summarize(def *docs.Definition) documentSummary {
	return documentSummary{
		Type:        def.Type,
		Title:       def.Title,
		Description: def.Description,
		Filename:    def.Filename,
		Navigation:  def.Navigation,
		StepCount:   def.StepCount(),
	}
}

func (a *App) listDocuments(w http.ResponseWriter, _ *http.Request) {
	defs := a.Registry.List()
	out := make([]documentSummary, len(defs))
	for i, def := range defs {
		out[i] = summarize(def)
	}
	responses.EncodeWriteJSON(w, http.StatusOK, out)
}

func (a *App) getDocument(w http.ResponseWriter, r *http.Request) {
	def, err := a.Registry.Get(r.PathValue("type"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, documentDetail{documentSummary: summarize(def), Steps: def.Steps})
}

// generateDocument renders a document in one shot from a JSON object of field values.
// Unknown field names are ignored; missing ones render as placeholders.
func (a *App) generateDocument(w http.ResponseWriter, r *http.Request) {
	def, err := a.Registry.Get(r.PathValue("type"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	values := map[string]string{}
	if r.ContentLength != 0 {
		if err = requests.DecodeJSON(w, r, 0, &values); err != nil {
			a.writeError(w, r, err)
			return
		}
	}
	state := def.NewState()
	state.Merge(values)
	a.render(w, r, def, state)
}

// render writes def in the format asked by ?format=pdf|text|markdown.
func (a *App) render(w http.ResponseWriter, r *http.Request, def *docs.Definition, state *forms.State) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	base := strings.TrimSuffix(def.Filename, ".pdf")
	switch format {
	case "", "pdf":
		doc, err := a.Generator.Generate(def, state)
		if err != nil {
			a.Metrics.RenderFailed(def.Type)
			a.writeError(w, r, err)
			return
		}
		a.Metrics.DocumentGenerated(def.Type, "pdf")
		responses.WritePDFBytesWithFilename(w, doc.Filename, doc.Content)
	case "text":
		text, err := a.Generator.Text(def, state)
		if err != nil {
			a.Metrics.RenderFailed(def.Type)
			a.writeError(w, r, err)
			return
		}
		a.Metrics.DocumentGenerated(def.Type, "text")
		responses.WriteAttachment(w, "text/plain; charset=utf-8", base+".txt", []byte(text))
	case "markdown", "md":
		md, err := docs.Markdown(def, state)
		if err != nil {
			a.Metrics.RenderFailed(def.Type)
			a.writeError(w, r, err)
			return
		}
		a.Metrics.DocumentGenerated(def.Type, "markdown")
		responses.WriteAttachment(w, "text/markdown; charset=utf-8", base+".md", []byte(md))
	default:
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "format must be pdf, text or markdown")
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/requests"
	"github.com/zeptools/legalgram/responses"
	"github.com/zeptools/legalgram/web/session"
)

type stepField struct {
	docs.Field
	Value string `json:"value"`
}

type wizardView struct {
	DocType     string            `json:"doc_type"`
	Title       string            `json:"title"`
	Mode        forms.Mode        `json:"mode"`
	Step        int               `json:"step"`
	StepCount   int               `json:"step_count"`
	StepTitle   string            `json:"step_title"`
	Fields      []stepField       `json:"fields"`
	Values      map[string]string `json:"values"`
	Visited     []int             `json:"visited"`
	IsFirst     bool              `json:"is_first"`
	IsLast      bool              `json:"is_last"`
	CanGenerate bool              `json:"can_generate"`
	Ignored     []string          `json:"ignored_fields,omitempty"`
}

func newWizardView(def *docs.Definition, s *forms.Session) wizardView {
	v := wizardView{
		DocType:     s.DocType,
		Title:       def.Title,
		Mode:        s.Seq.Mode(),
		Step:        s.Seq.Current(),
		StepCount:   s.Seq.Count(),
		Fields:      []stepField{},
		Values:      s.State.Fields(),
		Visited:     s.Seq.VisitedSteps(),
		IsFirst:     s.Seq.IsFirst(),
		IsLast:      s.Seq.IsLast(),
		CanGenerate: s.Seq.CanGenerate(),
	}
	if i := s.Seq.Current() - 1; i < len(def.Steps) {
		step := def.Steps[i]
		v.StepTitle = step.Title
		for _, f := range step.Fields {
			v.Fields = append(v.Fields, stepField{Field: f, Value: s.State.Get(f.Name)})
		}
	}
	return v
}

// wizardFunc handles one request against the caller's session. It reports whether the session changed.
type wizardFunc func(w http.ResponseWriter, r *http.Request, def *docs.Definition, s *forms.Session) (bool, error)

// withWizard resolves the session cookie. Mutating handlers hold the session lock; a concurrent mutation gets 409.
func (a *App) withWizard(mutating bool, fn wizardFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := a.Sessions.SessionIDFromRequest(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if mutating {
			release, ok := a.Locks.TryLock(id)
			if !ok {
				responses.WriteErrorJSON(w, http.StatusConflict, responses.CodeSessionBusy, "the wizard session is being updated by another request")
				return
			}
			defer release()
		}
		s, err := a.Sessions.Load(r.Context(), id)
		if err != nil {
			if errors.Is(err, session.ErrSessionNotFound) {
				a.Sessions.RemoveCookie(w)
			}
			a.writeError(w, r, err)
			return
		}
		def, err := a.Registry.Get(s.DocType)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		// the template may have been reloaded since the session was stored
		reshaped := s.Seq.Reshape(def.StepCount(), def.Navigation)
		changed, err := fn(w, r, def, s)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if changed || (reshaped && mutating) {
			if err = a.Sessions.Save(r.Context(), id, s); err != nil {
				a.writeError(w, r, err)
				return
			}
		}
	}
}

func (a *App) startWizard(w http.ResponseWriter, r *http.Request) {
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
	// a new wizard replaces the previous one
	if oldID, err := a.Sessions.SessionIDFromRequest(r); err == nil {
		if err = a.Sessions.Delete(r.Context(), oldID); err != nil {
			a.logger().Warn("previous wizard session not deleted", zap.Error(err))
		}
	}
	s := def.NewSession()
	ignored := s.State.Merge(values)
	id, err := a.Sessions.Start(r.Context(), s)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err = a.Sessions.SetCookie(w, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.Metrics.WizardStarted(def.Type)
	v := newWizardView(def, s)
	v.Ignored = ignored
	responses.EncodeWriteJSON(w, http.StatusCreated, v)
}

func (a *App) getWizard(w http.ResponseWriter, _ *http.Request, def *docs.Definition, s *forms.Session) (bool, error) {
	responses.EncodeWriteJSON(w, http.StatusOK, newWizardView(def, s))
	return false, nil
}

func (a *App) deleteWizard(w http.ResponseWriter, r *http.Request) {
	if id, err := a.Sessions.SessionIDFromRequest(r); err == nil {
		release, ok := a.Locks.TryLock(id)
		if !ok {
			responses.WriteErrorJSON(w, http.StatusConflict, responses.CodeSessionBusy, "the wizard session is being updated by another request")
			return
		}
		defer release()
		if err = a.Sessions.Delete(r.Context(), id); err != nil {
			a.writeError(w, r, err)
			return
		}
	}
	a.Sessions.RemoveCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// patchWizardFields merges a JSON object of field values into the session.
func (a *App) patchWizardFields(w http.ResponseWriter, r *http.Request, def *docs.Definition, s *forms.Session) (bool, error) {
	values := map[string]string{}
	if err := requests.DecodeJSON(w, r, 0, &values); err != nil {
		return false, err
	}
	ignored := s.State.Merge(values)
	v := newWizardView(def, s)
	v.Ignored = ignored
	responses.EncodeWriteJSON(w, http.StatusOK, v)
	return len(ignored) < len(values), nil
}

func (a *App) wizardNext(w http.ResponseWriter, _ *http.Request, def *docs.Definition, s *forms.Session) (bool, error) {
	s.Seq.Next()
	responses.EncodeWriteJSON(w, http.StatusOK, newWizardView(def, s))
	return true, nil
}

func (a *App) wizardBack(w http.ResponseWriter, _ *http.Request, def *docs.Definition, s *forms.Session) (bool, error) {
	s.Seq.Back()
	responses.EncodeWriteJSON(w, http.StatusOK, newWizardView(def, s))
	return true, nil
}

func (a *App) wizardGoto(w http.ResponseWriter, r *http.Request, def *docs.Definition, s *forms.Session) (bool, error) {
	k, err := strconv.Atoi(r.PathValue("step"))
	if err != nil {
		return false, forms.ErrStepOutOfRange
	}
	if err = s.Seq.Goto(k); err != nil {
		return false, err
	}
	responses.EncodeWriteJSON(w, http.StatusOK, newWizardView(def, s))
	return true, nil
}

func (a *App) generateFromWizard(w http.ResponseWriter, r *http.Request, def *docs.Definition, s *forms.Session) (bool, error) {
	if !s.Seq.CanGenerate() {
		msg := "reach the last step to generate the document"
		if s.Seq.Mode() == forms.ModeFree {
			msg = "visit every step to generate the document"
		}
		responses.WriteErrorJSON(w, http.StatusConflict, responses.CodeGenerationLocked, msg)
		return false, nil
	}
	a.render(w, r, def, s.State)
	return false, nil
}

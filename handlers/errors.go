package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/zeptools/legalgram/docs"
	"github.com/zeptools/legalgram/feed"
	"github.com/zeptools/legalgram/forms"
	"github.com/zeptools/legalgram/requests"
	"github.com/zeptools/legalgram/responses"
	"github.com/zeptools/legalgram/web/session"
)

// writeError maps domain errors to HTTP responses. Unexpected errors are logged and hidden.
func (a *App) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, docs.ErrUnknownType):
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "unknown document type")
	case errors.Is(err, session.ErrSessionNotFound):
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "no active wizard session")
	case errors.Is(err, feed.ErrNotFound):
		responses.WriteSimpleErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, forms.ErrLinearNavigation):
		responses.WriteErrorJSON(w, http.StatusConflict, responses.CodeLinearNavigation, "this document only allows next and back")
	case errors.Is(err, forms.ErrStepOutOfRange):
		responses.WriteErrorJSON(w, http.StatusBadRequest, responses.CodeStepOutOfRange, "step out of range")
	case errors.Is(err, requests.ErrMalformedBody):
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "malformed request body")
	case errors.Is(err, feed.ErrEmptyBody), errors.Is(err, feed.ErrBodyTooLong), errors.Is(err, feed.ErrUnknownSort):
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, docs.ErrRender):
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "failed to generate document")
	default:
		a.logger().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		responses.WriteSimpleErrorJSON(w, http.StatusInternalServerError, "internal server error")
	}
}

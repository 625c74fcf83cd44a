package handlers

import (
	"net/http"
	"strings"

	"github.com/zeptools/legalgram/requests"
	"github.com/zeptools/legalgram/responses"
)

type chatMessageRequest struct {
	Message string `json:"message"`
}

// chatInit and chatSend always answer 200; upstream failures come back as a fallback reply.
func (a *App) chatInit(w http.ResponseWriter, r *http.Request) {
	responses.EncodeWriteJSON(w, http.StatusOK, a.Chat.InitSession(r.Context()))
}

func (a *App) chatSend(w http.ResponseWriter, r *http.Request) {
	var req chatMessageRequest
	if err := requests.DecodeJSON(w, r, 0, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		responses.WriteSimpleErrorJSON(w, http.StatusBadRequest, "message is empty")
		return
	}
	responses.EncodeWriteJSON(w, http.StatusOK, a.Chat.SendMessage(r.Context(), r.PathValue("id"), req.Message))
}

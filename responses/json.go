package responses

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// EncodeWriteJSON writes payload with status. The payload is encoded before the
// header is sent, so an unencodable payload becomes a plain 500 instead of a cut body.
func EncodeWriteJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("encoding JSON response", zap.Int("status", status), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(append(body, '\n')); err != nil {
		zap.L().Debug("writing JSON response", zap.Error(err))
	}
}

// WriteSimpleErrorJSON writes an error Message without an application code.
func WriteSimpleErrorJSON(w http.ResponseWriter, status int, msg string) {
	EncodeWriteJSON(w, status, Message{Type: "error", Message: msg})
}

// WriteErrorJSON carries an application-level code along with the message.
func WriteErrorJSON(w http.ResponseWriter, status int, code int, msg string) {
	EncodeWriteJSON(w, status, Message{Type: "error", Message: msg, Code: code})
}

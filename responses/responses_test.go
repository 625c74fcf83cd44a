package responses

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteSimpleErrorJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSimpleErrorJSON(rec, http.StatusInternalServerError, "failed to generate document")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"type":"error","message":"failed to generate document"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	WriteErrorJSON(rec, http.StatusConflict, CodeSessionBusy, "busy")
	assert.JSONEq(t, `{"type":"error","message":"busy","code":1001}`, rec.Body.String())
}

func TestWritePDFBytesWithFilename(t *testing.T) {
	rec := httptest.NewRecorder()
	WritePDFBytesWithFilename(rec, "Bill_Of_Sale.pdf", []byte("%PDF-1.3"))
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="Bill_Of_Sale.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "8", rec.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.3", rec.Body.String())

	rec = httptest.NewRecorder()
	WriteAttachment(rec, "text/markdown; charset=utf-8", "Bill_Of_Sale.md", []byte("# Bill"))
	assert.Equal(t, `attachment; filename="Bill_Of_Sale.md"`, rec.Header().Get("Content-Disposition"))
}

func TestEncodeWriteJSON_Unencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	EncodeWriteJSON(rec, http.StatusOK, map[string]any{"c": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEqual(t, "application/json", rec.Header().Get("Content-Type"))
}

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.DocumentGenerated("bill-of-sale", "pdf")
	m.DocumentGenerated("bill-of-sale", "pdf")
	m.RenderFailed("bill-of-sale")
	m.ChatFallback("send_message")
	m.FeedPostCreated(true)
	m.FeedPostCreated(false)
	m.TemplatesReloaded(8, nil)
	m.TemplatesReloaded(0, errors.New("bad yaml"))
	m.ObserveRequest("GET /api/documents", http.StatusOK, 5*time.Millisecond)
	m.SetWizardSessions(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents.WithLabelValues("bill-of-sale", "pdf")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renderFailures.WithLabelValues("bill-of-sale")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.feedPosts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedMediaFail))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.templateLoads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET /api/documents", "200")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.wizardActive))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "legalgram_documents_generated_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.DocumentGenerated("x", "pdf")
		m.ObserveRequest("r", 200, time.Second)
		m.FeedStreamOpened()
		m.FeedStreamClosed()
		m.Throttled("api")
		m.TemplatesReloaded(1, nil)
		m.SetWizardSessions(3)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

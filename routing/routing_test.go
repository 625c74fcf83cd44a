package routing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func tagWrapper(tag string, trace *[]string) HandlerWrapper {
	return HandlerWrapperFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, tag)
			next.ServeHTTP(w, r)
		})
	})
}

func TestRouteGroup_PrefixAndWrapperOrder(t *testing.T) {
	var trace []string
	router := NewBaseRouter()
	router.Group("/api/", func(api *RouteGroup) {
		api.Group("wizard/", func(wz *RouteGroup) {
			wz.HandleFunc("POST next", func(w http.ResponseWriter, _ *http.Request) {
				trace = append(trace, "handler")
				w.WriteHeader(http.StatusNoContent)
			}, tagWrapper("route", &trace))
		}, tagWrapper("wizard", &trace))
		api.HandleFunc("GET documents", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("list"))
		})
	}, tagWrapper("api", &trace))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/wizard/next", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"api", "wizard", "route", "handler"}, trace)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))
	assert.Equal(t, "list", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wizard/next", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestChain_Order(t *testing.T) {
	var trace []string
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		trace = append(trace, "handler")
	}), tagWrapper("outer", &trace), tagWrapper("inner", &trace))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"outer", "inner", "handler"}, trace)
}

func TestJoinPattern(t *testing.T) {
	assert.Equal(t, "GET /api/documents", joinPattern("/api/documents", "GET "))
	assert.Equal(t, "POST /api/wizard/next", joinPattern("/api/wizard", "POST /next"))
	assert.Equal(t, "/api/feed/stream", joinPattern("/api/feed/", "stream"))
}

func TestRouteGroup_DoubleSlashPanics(t *testing.T) {
	router := NewBaseRouter()
	assert.Panics(t, func() {
		router.Group("/api/", func(api *RouteGroup) {
			api.HandleFunc("GET /documents", func(http.ResponseWriter, *http.Request) {})
		})
	})
}

func TestRecoverWrapper(t *testing.T) {
	h := RecoverWrapper(nil).Wrap(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "internal server error"))
}

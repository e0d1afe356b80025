package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSubmission(t *testing.T) {
	r := New()
	r.ObserveSubmission("committed")
	r.ObserveSubmission("committed")
	r.ObserveSubmission("rejected_duplicate")

	assert.Equal(t, 2.0, testutil.ToFloat64(r.submissions.WithLabelValues("committed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.submissions.WithLabelValues("rejected_duplicate")))
}

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := New()

	mux := chi.NewRouter()
	mux.Use(r.Middleware)
	mux.Get("/vaccines/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.Handle("/metrics", r.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/vaccines/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/vaccines/{id}"`), body)
	assert.True(t, strings.Contains(body, `status="404"`), body)
}

func TestNilRegistryIsSafe(t *testing.T) {
	var r *Registry
	r.ObserveSubmission("committed")

	h := r.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestMiddleware_KeepsFlusherAndImplicitStatus(t *testing.T) {
	r := New()

	mux := chi.NewRouter()
	mux.Use(r.Middleware)
	mux.Get("/stream", func(w http.ResponseWriter, _ *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok, "response writer must still be a Flusher")
		_, _ = w.Write([]byte("chunk"))
		f.Flush()
	})
	mux.Handle("/metrics", r.Handler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rec.Flushed)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `route="/stream"`), body)
	assert.True(t, strings.Contains(body, `status="200"`), body)
}

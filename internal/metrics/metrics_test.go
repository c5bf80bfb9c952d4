package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/audio/{filename}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/audio/"+name, nil))
	}

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/audio/{filename}", "404")
	if expected, actual := 3.0, testutil.ToFloat64(counter); expected != actual {
		t.Errorf("Expected %v requests, got %v", expected, actual)
	}
}

func TestPipelineStage(t *testing.T) {
	PipelineStageTotal("caption", "ok")
	PipelineStageTotal("caption", "ok")
	PipelineStageDuration("caption", "ok", 150*time.Millisecond)

	if expected, actual := 2.0, testutil.ToFloat64(pipelineStageTotal.WithLabelValues("caption", "ok")); expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
	if n := testutil.CollectAndCount(pipelineStageDuration); n != 1 {
		t.Errorf("Expected one duration series, got %d", n)
	}
}

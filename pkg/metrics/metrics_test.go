package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/titles/{title_id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/titles/"+id, nil))
	}

	got := testutil.ToFloat64(m.reqTotal.WithLabelValues(http.MethodGet, "/titles/{title_id}", "404"))
	if got != 3 {
		t.Fatalf("expected 3 requests on the pattern label, got %v", got)
	}
}

func TestAuthEvent(t *testing.T) {
	m := New()
	m.AuthEvent("token", "success")
	m.AuthEvent("token", "invalid_code")
	m.AuthEvent("token", "success")

	if got := testutil.ToFloat64(m.authEvents.WithLabelValues("token", "success")); got != 2 {
		t.Fatalf("success count = %v", got)
	}

	var nilMetrics *Metrics
	nilMetrics.AuthEvent("signup", "success")
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.AuthEvent("signup", "created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `yamdb_auth_events_total{event="signup",outcome="created"} 1`) {
		t.Fatalf("metric missing from output:\n%s", rec.Body.String())
	}
}

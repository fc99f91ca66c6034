package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BalanceComputed("group", 3)
	m.ExpenseCreated("equal")
	m.SplitRejected("validation")

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
}

func TestCounters(t *testing.T) {
	m := New()
	m.BalanceComputed("group", 2)
	m.BalanceComputed("group", 0)
	m.BalanceComputed("user", 1)
	m.ExpenseCreated("percentage")
	m.SplitRejected("validation")

	if got := testutil.ToFloat64(m.balanceRuns.WithLabelValues("group")); got != 2 {
		t.Errorf("group computations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.expensesCreated.WithLabelValues("percentage")); got != 1 {
		t.Errorf("percentage expenses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.splitRejections.WithLabelValues("validation")); got != 1 {
		t.Errorf("validation rejections = %v, want 1", got)
	}
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/groups/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/metrics", m.Handler().ServeHTTP)

	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/groups/42")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `route="/groups/{id}"`) {
		t.Errorf("expected route pattern label in metrics output")
	}
	if strings.Contains(string(body), `route="/groups/42"`) {
		t.Errorf("raw path leaked into route label")
	}
	if !strings.Contains(string(body), `status="204"`) {
		t.Errorf("expected status label 204")
	}
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestMiddleware_counts_requests_and_errors(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/ok", "/missing", "/metrics"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requestsTotal); got != 2 {
		t.Errorf("requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.errorsTotal); got != 1 {
		t.Errorf("errors = %v, want 1", got)
	}
}

func TestRenditionSwitches_by_mode(t *testing.T) {
	m := New()
	m.IncRenditionSwitches(true)
	m.IncRenditionSwitches(false)
	m.IncRenditionSwitches(false)

	if got := testutil.ToFloat64(m.renditionSwitchesTotal.WithLabelValues("manual")); got != 2 {
		t.Errorf("manual = %v", got)
	}
	if got := testutil.ToFloat64(m.renditionSwitchesTotal.WithLabelValues("auto")); got != 1 {
		t.Errorf("auto = %v", got)
	}
}

func TestHandler_refreshes_gauges(t *testing.T) {
	m := New()
	m.IncAttachFailures()
	rec := httptest.NewRecorder()
	m.Handler(func() { m.SetActiveSessions(3) }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "player_active_sessions 3") {
		t.Errorf("expected active sessions gauge in scrape:\n%s", body)
	}
	if !strings.Contains(body, "player_stream_attach_failures_total 1") {
		t.Errorf("expected attach failures in scrape:\n%s", body)
	}
}

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d, want %d", rec.Code, http.StatusOK)
	}

	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	return string(body)
}

func TestMetrics_Handler(t *testing.T) {
	m := New("relay")

	m.IncEvent("enqueued")
	m.IncEvent("enqueued")
	m.ObserveRequest(http.MethodPost, "/api/v1/messages", http.StatusCreated, 10*time.Millisecond)
	m.IncRateLimited()

	body := scrape(t, m.Handler(func() Snapshot {
		return Snapshot{Messages: 7, Pending: 5, Inboxes: 2}
	}))

	for _, want := range []string{
		`relay_events_total{kind="enqueued"} 2`,
		`relay_http_requests_total{method="POST",route="/api/v1/messages",status="201"} 1`,
		`relay_rate_limited_total 1`,
		`relay_messages 7`,
		`relay_pending_messages 5`,
		`relay_inboxes 2`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("scrape output missing %q", want)
		}
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	first := New("relay")
	second := New("relay")

	first.IncEvent("removed")

	if strings.Contains(scrape(t, second.Handler(nil)), `kind="removed"`) {
		t.Error("metrics leaked between instances")
	}
}

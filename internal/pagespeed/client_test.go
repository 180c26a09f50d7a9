package pagespeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const psiFixture = `{
  "lighthouseResult": {
    "audits": {
      "first-contentful-paint": {"score": 0.92, "numericValue": 1200.5, "numericUnit": "millisecond"},
      "speed-index": {"score": 0.85, "numericValue": 2100, "numericUnit": "millisecond"},
      "diagnostics": {"score": 1, "numericValue": 0, "numericUnit": "unitless"}
    },
    "categories": {
      "performance": {
        "score": 0.88,
        "auditRefs": [
          {"id": "first-contentful-paint", "weight": 10},
          {"id": "speed-index", "weight": 10},
          {"id": "diagnostics", "weight": 0}
        ]
      }
    }
  }
}`

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("strategy"); got != "mobile" {
			t.Errorf("unexpected strategy: %q", got)
		}
		if got := r.URL.Query().Get("url"); got != "https://example.com/page" {
			t.Errorf("unexpected url: %q", got)
		}
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("api key missing: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(psiFixture)); err != nil {
			t.Errorf("write fixture: %v", err)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	report, err := client.Fetch(context.Background(), "https://example.com/page", StrategyMobile)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if report.Score != 0.88 {
		t.Fatalf("unexpected score: %v", report.Score)
	}
	if len(report.Audits) != 2 {
		t.Fatalf("only weighted audits must be kept, got %v", report.Audits)
	}
	fcp, ok := report.Audits["first-contentful-paint"]
	if !ok {
		t.Fatalf("missing first-contentful-paint audit")
	}
	if fcp.Value != 1200.5 || fcp.Unit != "millisecond" {
		t.Fatalf("unexpected audit: %+v", fcp)
	}
	if _, ok := report.Audits["diagnostics"]; ok {
		t.Fatalf("zero-weight audits must be dropped")
	}
}

func TestClientFetchErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	if _, err := client.Fetch(context.Background(), "https://example.com", StrategyDesktop); !errors.Is(err, ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
}

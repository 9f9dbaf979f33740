package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riftlabs/tokenpulse/internal/ingest"
	"github.com/riftlabs/tokenpulse/internal/usage"
)

func TestHandleHealthzReturnsOK(t *testing.T) {
	d := NewDriver(10*time.Second, 0, map[usage.Provider]ingest.Source{}, nil)
	s := NewServer(":0", d)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handleHealthz(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

func TestHandleStatusEncodesCurrentSnapshot(t *testing.T) {
	d := NewDriver(10*time.Second, 0, map[usage.Provider]ingest.Source{}, nil)
	s := NewServer(":0", d)

	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var got MultiPlatformState
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("response body is not valid JSON: %v", err)
	}
}

func TestHandleStatusReflectsTickResults(t *testing.T) {
	sources := map[usage.Provider]ingest.Source{
		usage.Claude: newFakeSource(usage.Claude, []usage.Record{recAt(time.Now().UTC().Add(-time.Minute).Format(time.RFC3339), 100, 1.0)}),
	}
	d := NewDriver(10*time.Second, 0, sources, nil)
	d.TickOnce(t.Context())

	s := NewServer(":0", d)
	req := httptest.NewRequest(http.MethodGet, "/v1/status", nil)
	rec := httptest.NewRecorder()
	s.handleStatus(rec, req)

	var got MultiPlatformState
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding status body: %v", err)
	}
	if got.Claude == nil {
		t.Fatal("status response should include the Claude slot after a tick")
	}
	if got.Claude.WindowTotal.TotalTokens != 100 {
		t.Errorf("WindowTotal.TotalTokens = %d, want 100", got.Claude.WindowTotal.TotalTokens)
	}
}

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type staticChecker struct {
	result Result
}

func (c staticChecker) Name() string                     { return "static" }
func (c staticChecker) Check(ctx context.Context) Result { return c.result }

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("LivenessHandler() = %d %q, want 200 OK", rec.Code, rec.Body.String())
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		status   Status
		wantCode int
		wantBody string
	}{
		{StatusHealthy, http.StatusOK, "OK"},
		{StatusDegraded, http.StatusOK, "DEGRADED"},
		{StatusUnhealthy, http.StatusServiceUnavailable, "UNHEALTHY"},
	}

	for _, tt := range tests {
		t.Run(tt.wantBody, func(t *testing.T) {
			handler := ReadinessHandler(staticChecker{Result{Status: tt.status}})
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.wantCode || rec.Body.String() != tt.wantBody {
				t.Errorf("ReadinessHandler() = %d %q, want %d %q",
					rec.Code, rec.Body.String(), tt.wantCode, tt.wantBody)
			}
		})
	}
}

func TestDetailedHandler(t *testing.T) {
	handler := DetailedHandler(staticChecker{Result{
		Status:    StatusDegraded,
		Message:   "some engine hosts have non-closed breakers",
		Details:   map[string]any{"h1:2375": map[string]any{"circuit": "open"}},
		Timestamp: time.Now(),
	}})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("DetailedHandler() = %d, want 200 for degraded", rec.Code)
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", resp.Status)
	}
	if _, ok := resp.Details["h1:2375"]; !ok {
		t.Errorf("Details = %v, want per-host entry", resp.Details)
	}
}

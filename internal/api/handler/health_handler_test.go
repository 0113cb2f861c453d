package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := newEcho()
	h := NewHealthHandler("production", nil)
	h.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	c, rec := newJSONContext(e, http.MethodGet, "/api/health", "", nil)
	if err := h.Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp livenessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "ok" || resp.Environment != "production" || resp.Timestamp != "2026-03-01T08:00:00Z" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]Check
		status int
	}{
		{
			name:   "no dependencies",
			status: http.StatusOK,
		},
		{
			name: "all healthy",
			checks: map[string]Check{
				"mongodb": func(context.Context) error { return nil },
				"redis":   func(context.Context) error { return nil },
			},
			status: http.StatusOK,
		},
		{
			name: "redis down",
			checks: map[string]Check{
				"mongodb": func(context.Context) error { return nil },
				"redis":   func(context.Context) error { return errors.New("connection refused") },
			},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEcho()
			h := NewHealthHandler("development", tt.checks)
			c, rec := newJSONContext(e, http.MethodGet, "/api/health/ready", "", nil)

			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if len(resp.Dependencies) != len(tt.checks) {
				t.Fatalf("unexpected dependencies: %+v", resp.Dependencies)
			}
			if tt.status != http.StatusOK && resp.Dependencies["redis"].Error != "connection refused" {
				t.Fatalf("expected redis error, got %+v", resp.Dependencies["redis"])
			}
		})
	}
}

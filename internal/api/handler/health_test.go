package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestHealthHandler_Info(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler()
	app.Get("/", handler.Info)

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("Failed to test: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result InfoResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result.Service != ServiceName {
		t.Errorf("Service = %s, want %s", result.Service, ServiceName)
	}
	if result.Version == "" {
		t.Error("Version should not be empty")
	}
	if result.Endpoints["enrollment"] != "/enroll" || result.Endpoints["verification"] != "/verify" {
		t.Errorf("Endpoints = %v", result.Endpoints)
	}
}

func TestHealthHandler_Health(t *testing.T) {
	app := fiber.New()
	handler := NewHealthHandler()
	handler.AddProbe("engine", func(context.Context) error {
		return errors.New("liveness must not run probes")
	})
	app.Get("/health", handler.Health)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Failed to test: %v", err)
	}

	if resp.StatusCode != 200 {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result HealthResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if result.Status != "healthy" {
		t.Errorf("Status = %s, want healthy", result.Status)
	}
	if result.Service != ServiceName {
		t.Errorf("Service = %s, want %s", result.Service, ServiceName)
	}
	if _, err := time.Parse(time.RFC3339Nano, result.Timestamp); err != nil {
		t.Errorf("Timestamp %q is not RFC3339: %v", result.Timestamp, err)
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	tests := []struct {
		name       string
		probes     map[string]Probe
		wantStatus int
		wantState  string
		wantChecks map[string]string
	}{
		{
			name:       "no probes",
			probes:     nil,
			wantStatus: 200,
			wantState:  "ready",
			wantChecks: map[string]string{},
		},
		{
			name: "all probes pass",
			probes: map[string]Probe{
				"engine":   func(context.Context) error { return nil },
				"database": func(context.Context) error { return nil },
			},
			wantStatus: 200,
			wantState:  "ready",
			wantChecks: map[string]string{"engine": "ok", "database": "ok"},
		},
		{
			name: "one probe fails",
			probes: map[string]Probe{
				"engine":   func(context.Context) error { return nil },
				"database": func(context.Context) error { return errors.New("database unhealthy: connection refused") },
			},
			wantStatus: 503,
			wantState:  "not_ready",
			wantChecks: map[string]string{"engine": "ok", "database": "database unhealthy: connection refused"},
		},
		{
			name: "probe observes timeout",
			probes: map[string]Probe{
				"engine": func(ctx context.Context) error {
					<-ctx.Done()
					return ctx.Err()
				},
			},
			wantStatus: 503,
			wantState:  "not_ready",
			wantChecks: map[string]string{"engine": context.DeadlineExceeded.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			handler := NewHealthHandler()
			handler.timeout = 50 * time.Millisecond
			for name, probe := range tt.probes {
				handler.AddProbe(name, probe)
			}
			app.Get("/ready", handler.Ready)

			resp, err := app.Test(httptest.NewRequest("GET", "/ready", nil))
			if err != nil {
				t.Fatalf("Failed to test: %v", err)
			}

			if resp.StatusCode != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			body, _ := io.ReadAll(resp.Body)
			var result ReadyResponse
			if err := json.Unmarshal(body, &result); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}

			if result.Status != tt.wantState {
				t.Errorf("Status = %s, want %s", result.Status, tt.wantState)
			}
			if len(result.Checks) != len(tt.wantChecks) {
				t.Fatalf("Checks = %v, want %v", result.Checks, tt.wantChecks)
			}
			for name, want := range tt.wantChecks {
				if result.Checks[name] != want {
					t.Errorf("Checks[%s] = %q, want %q", name, result.Checks[name], want)
				}
			}
		})
	}
}

package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facegate/internal/api/middleware"
)

const (
	ServiceName    = "facegate"
	ServiceVersion = "1.0.0"

	defaultProbeTimeout = 3 * time.Second
)

// Probe reports whether a dependency can serve traffic.
type Probe func(ctx context.Context) error

type HealthHandler struct {
	mu      sync.RWMutex
	probes  map[string]Probe
	timeout time.Duration
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		probes:  make(map[string]Probe),
		timeout: defaultProbeTimeout,
	}
}

// AddProbe registers a readiness check under name.
func (h *HealthHandler) AddProbe(name string, probe Probe) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.probes[name] = probe
}

type InfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Info GET / - service name, version and endpoint map
func (h *HealthHandler) Info(c *fiber.Ctx) error {
	return c.JSON(InfoResponse{
		Service: ServiceName,
		Version: ServiceVersion,
		Endpoints: map[string]string{
			"enrollment":   EndpointEnroll,
			"verification": EndpointVerify,
			"health":       "/health",
			"ready":        "/ready",
			"metrics":      "/metrics",
			"docs":         "/swagger",
		},
	})
}

// Health GET /health - liveness, never touches dependencies
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "healthy",
		Service:   ServiceName,
		Timestamp: middleware.Timestamp(time.Now()),
	})
}

// Ready GET /ready - runs every probe concurrently
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	h.mu.RLock()
	probes := make(map[string]Probe, len(h.probes))
	names := make([]string, 0, len(h.probes))
	for name, probe := range h.probes {
		probes[name] = probe
		names = append(names, name)
	}
	h.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	results := make([]error, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		probe := probes[name]

		wg.Add(1)
		go func(i int, probe Probe) {
			defer wg.Done()
			results[i] = probe(ctx)
		}(i, probe)
	}
	wg.Wait()

	resp := ReadyResponse{
		Status:    "ready",
		Checks:    make(map[string]string, len(names)),
		Timestamp: middleware.Timestamp(time.Now()),
	}
	for i, name := range names {
		if results[i] != nil {
			resp.Status = "not_ready"
			resp.Checks[name] = results[i].Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ready" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

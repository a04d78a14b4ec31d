package http

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/sawpanic/starflux/internal/basis"
	"github.com/sawpanic/starflux/internal/lightcurve"
	"github.com/sawpanic/starflux/internal/solution"
	"github.com/sawpanic/starflux/internal/surface"
)

// HealthHandler provides the service health endpoint.
type HealthHandler struct {
	metrics   *MetricsRegistry
	startTime time.Time
	version   string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(metrics *MetricsRegistry, version string) *HealthHandler {
	return &HealthHandler{
		metrics:   metrics,
		startTime: time.Now(),
		version:   version,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
	Version   string    `json:"version"`

	// System info
	System SystemInfo `json:"system"`

	// Request counter snapshot by status class
	Requests map[string]float64 `json:"requests"`

	// Engine and service checks
	Checks map[string]CheckResult `json:"checks"`
}

// SystemInfo provides system-level information.
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemAlloc      uint64 `json:"mem_alloc_bytes"`
	MemSys        uint64 `json:"mem_sys_bytes"`
	NumGC         uint32 `json:"num_gc"`
}

// CheckResult represents an individual health check result.
type CheckResult struct {
	Status    string        `json:"status"` // "pass", "warn", "fail"
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// ServeHTTP implements the health check endpoint.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	response := h.gatherHealthInfo()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")

	switch response.Status {
	case "healthy", "degraded":
		w.WriteHeader(http.StatusOK)
	case "unhealthy":
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}

	response.Checks["health_endpoint"] = CheckResult{
		Status:    "pass",
		Message:   "Health endpoint responding",
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// gatherHealthInfo collects all health information.
func (h *HealthHandler) gatherHealthInfo() HealthResponse {
	response := HealthResponse{
		Timestamp: time.Now(),
		Uptime:    time.Since(h.startTime).String(),
		Version:   h.version,
		System:    h.getSystemInfo(),
		Requests:  map[string]float64{},
		Checks:    make(map[string]CheckResult),
	}

	if h.metrics != nil {
		response.Requests = h.metrics.RequestStats()
	}

	h.addEngineChecks(&response)
	h.addSystemChecks(&response)

	response.Status = h.calculateOverallStatus(response.Checks)

	return response
}

// getSystemInfo collects system runtime information.
func (h *HealthHandler) getSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemAlloc:      memStats.Alloc,
		MemSys:        memStats.Sys,
		NumGC:         memStats.NumGC,
	}
}

// circleOverlap returns the exact overlap area of the unit disc and a disc
// of radius r whose center lies at distance b.
func circleOverlap(b, r float64) float64 {
	if b >= 1+r {
		return 0
	}
	if b <= r-1 {
		return math.Pi
	}
	if b <= 1-r {
		return math.Pi * r * r
	}
	d1 := (b*b + r*r - 1) / (2 * b * r)
	d2 := (b*b + 1 - r*r) / (2 * b)
	return r*r*math.Acos(d1) + math.Acos(d2) -
		0.5*math.Sqrt((1+r-b)*(b+r-1)*(b-r+1)*(b+r+1))
}

// addEngineChecks exercises the flux engine against closed-form results.
func (h *HealthHandler) addEngineChecks(response *HealthResponse) {
	start := time.Now()
	eval, err := lightcurve.NewEvaluator(surface.Uniform())
	if err != nil {
		response.Checks["engine"] = CheckResult{
			Status:    "fail",
			Message:   fmt.Sprintf("Evaluator construction failed: %v", err),
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
		return
	}

	phase := eval.Flux(nil, 0, solution.DefaultOrder)
	if math.Abs(phase-1) < 1e-9 {
		response.Checks["phase_flux"] = CheckResult{
			Status:    "pass",
			Message:   "Uniform map integrates to unit flux",
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
	} else {
		response.Checks["phase_flux"] = CheckResult{
			Status:    "fail",
			Message:   fmt.Sprintf("Uniform map flux %.12f, expected 1", phase),
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
	}

	start = time.Now()
	occ := &lightcurve.Occultor{Radius: 0.1, X: 0.5, Y: 0, Z: 1}
	got := eval.Flux(occ, 0, solution.DefaultOrder)
	want := 1 - circleOverlap(0.5, 0.1)/math.Pi
	if math.Abs(got-want) < 1e-6 {
		response.Checks["occultation"] = CheckResult{
			Status:    "pass",
			Message:   "Occultation flux matches lens geometry",
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
	} else {
		response.Checks["occultation"] = CheckResult{
			Status:    "fail",
			Message:   fmt.Sprintf("Occultation flux %.9f, expected %.9f", got, want),
			Duration:  time.Since(start),
			Timestamp: time.Now(),
		}
	}

	response.Checks["basis_cache"] = CheckResult{
		Status:    "pass",
		Message:   fmt.Sprintf("%d change-of-basis matrices cached", basis.CacheSize()),
		Duration:  0,
		Timestamp: time.Now(),
	}
}

// addSystemChecks adds system-level health checks.
func (h *HealthHandler) addSystemChecks(response *HealthResponse) {
	memUsagePercent := float64(response.System.MemAlloc) / float64(response.System.MemSys) * 100

	if memUsagePercent > 90 {
		response.Checks["memory"] = CheckResult{
			Status:    "fail",
			Message:   fmt.Sprintf("Memory usage critical: %.1f%%", memUsagePercent),
			Timestamp: time.Now(),
		}
	} else if memUsagePercent > 75 {
		response.Checks["memory"] = CheckResult{
			Status:    "warn",
			Message:   fmt.Sprintf("Memory usage high: %.1f%%", memUsagePercent),
			Timestamp: time.Now(),
		}
	} else {
		response.Checks["memory"] = CheckResult{
			Status:    "pass",
			Message:   fmt.Sprintf("Memory usage normal: %.1f%%", memUsagePercent),
			Timestamp: time.Now(),
		}
	}

	if response.System.NumGoroutines > 1000 {
		response.Checks["goroutines"] = CheckResult{
			Status:    "warn",
			Message:   fmt.Sprintf("High goroutine count: %d", response.System.NumGoroutines),
			Timestamp: time.Now(),
		}
	} else {
		response.Checks["goroutines"] = CheckResult{
			Status:    "pass",
			Message:   fmt.Sprintf("Goroutine count normal: %d", response.System.NumGoroutines),
			Timestamp: time.Now(),
		}
	}
}

// calculateOverallStatus determines overall service health.
func (h *HealthHandler) calculateOverallStatus(checks map[string]CheckResult) string {
	for _, check := range checks {
		if check.Status == "fail" {
			return "unhealthy"
		}
	}
	for _, check := range checks {
		if check.Status == "warn" {
			return "degraded"
		}
	}
	return "healthy"
}

package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
	System    *SystemInfo      `json:"system,omitempty"`
}

// Check represents a single health check result
type Check struct {
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
	Duration string `json:"duration,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_mb"`
}

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// Health returns basic health status (for load balancer)
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(status)
}

// Ready checks that both working directories accept writes and that the
// upstream credentials are present.
func (h *Handlers) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]Check)
	overallStatus := StatusHealthy

	for name, dir := range map[string]string{
		"uploads": h.Config.UploadDir,
		"results": h.Config.ResultsDir,
	} {
		c := checkWritable(dir)
		checks[name] = c
		if c.Status != StatusHealthy {
			overallStatus = StatusUnhealthy
		}
	}

	upstreamCheck := h.checkUpstream()
	checks["upstream"] = upstreamCheck
	if upstreamCheck.Status != StatusHealthy && overallStatus == StatusHealthy {
		overallStatus = StatusDegraded
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	sysInfo := &SystemInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc / 1024 / 1024, // Convert to MB
	}

	status := HealthStatus{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		System:    sysInfo,
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus == StatusUnhealthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	json.NewEncoder(w).Encode(status)
}

// checkWritable creates and removes a scratch file in dir.
func checkWritable(dir string) Check {
	start := time.Now()

	f, err := os.CreateTemp(dir, ".ready-*")
	if err == nil {
		name := f.Name()
		f.Close()
		err = os.Remove(name)
	}
	duration := time.Since(start)

	if err != nil {
		return Check{
			Status:   StatusUnhealthy,
			Message:  err.Error(),
			Duration: duration.String(),
		}
	}

	return Check{
		Status:   StatusHealthy,
		Message:  fmt.Sprintf("%s writable", dir),
		Duration: duration.String(),
	}
}

func (h *Handlers) checkUpstream() Check {
	if h.Upstream == nil || !h.Upstream.Configured() {
		return Check{
			Status:  StatusDegraded,
			Message: "OpenRouter API key not configured",
		}
	}
	return Check{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("model %s", h.Config.OpenRouterModel),
	}
}

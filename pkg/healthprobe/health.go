package healthprobe

import (
	"net/http"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"
)

// HealthChecker provides liveness and readiness probes. Readiness is the
// conjunction of per-component flags: the process is ready only when
// every registered component has reported ready.
type HealthChecker struct {
	startTime time.Time

	mu         sync.RWMutex
	components map[string]bool
}

// New creates a HealthChecker with no components registered. A checker
// with no components reports ready.
func New() *HealthChecker {
	return &HealthChecker{
		startTime:  time.Now(),
		components: make(map[string]bool),
	}
}

// SetReady records the readiness of one named component.
func (h *HealthChecker) SetReady(component string, ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.components[component] = ready
}

// notReady returns the names of components that have not reported ready.
func (h *HealthChecker) notReady() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var pending []string
	for name, ready := range h.components {
		if !ready {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)
	return pending
}

// HealthResponse is the JSON body of both probes.
type HealthResponse struct {
	Status  string   `json:"status"`
	Uptime  string   `json:"uptime"`
	Pending []string `json:"pending,omitempty"`
}

// Health returns the liveness handler. It answers 200 whenever the
// process is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{
			Status: "healthy",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

// Ready returns the readiness handler. It answers 503 naming the pending
// components until all of them have reported ready.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pending := h.notReady(); len(pending) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status:  "not_ready",
				Uptime:  time.Since(h.startTime).String(),
				Pending: pending,
			})
			return
		}

		writeJSON(w, http.StatusOK, HealthResponse{
			Status: "ready",
			Uptime: time.Since(h.startTime).String(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body HealthResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

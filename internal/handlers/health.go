package handlers

import (
	"net/http"
	"runtime"
	"time"

	"meilisync/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Search engine session
	Connected    bool   `json:"connected"`
	SearchStatus string `json:"searchStatus"`
	Index        string `json:"index,omitempty"`

	// Indexing passes
	Indexing           bool              `json:"indexing"`
	LastIndexed        string            `json:"lastIndexed,omitempty"`
	LastError          string            `json:"lastError,omitempty"`
	InitialIndexError  string            `json:"initialIndexError,omitempty"`
	ItemsRead          int64             `json:"itemsRead"`
	DocumentsSubmitted int64             `json:"documentsSubmitted"`
	Pass               map[string]string `json:"pass"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service. It answers 503 until
// the first indexing pass has succeeded.
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	healthStatus := h.indexer.GetHealthStatus()

	response := HealthResponse{
		Ready:              healthStatus.Ready,
		Version:            startup.Version,
		Uptime:             healthStatus.Uptime,
		Connected:          h.manager.Connected(),
		SearchStatus:       h.manager.Status(),
		Index:              h.manager.IndexName(),
		Indexing:           healthStatus.Indexing,
		LastError:          healthStatus.LastError,
		InitialIndexError:  healthStatus.InitialIndexError,
		ItemsRead:          healthStatus.ItemsRead,
		DocumentsSubmitted: healthStatus.DocumentsSubmitted,
		Pass:               h.indexer.Status().Snapshot(),
		GoVersion:          runtime.Version(),
		NumGoroutine:       runtime.NumGoroutine(),
	}

	switch {
	case !healthStatus.Ready && healthStatus.LastError == "":
		response.Status = statusStarting
	case !response.Connected || healthStatus.LastError != "":
		response.Status = statusDegraded
	default:
		response.Status = statusHealthy
	}

	if !healthStatus.LastIndexed.IsZero() {
		response.LastIndexed = healthStatus.LastIndexed.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	if !healthStatus.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 only while a search engine session is
// established.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.manager.Connected() {
		writeJSONStatus(w, "ready", http.StatusOK)
		return
	}
	writeJSONStatus(w, "not_ready", http.StatusServiceUnavailable)
}

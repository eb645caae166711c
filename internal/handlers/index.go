package handlers

import (
	"net/http"

	"meilisync/internal/config"
	"meilisync/internal/indexer"
)

// SearchStatus describes the search engine session.
type SearchStatus struct {
	Status    string        `json:"status"`
	Connected bool          `json:"connected"`
	Index     string        `json:"index,omitempty"`
	Config    config.Search `json:"config"`
}

// StatusResponse is returned by GetStatus.
type StatusResponse struct {
	Search   SearchStatus          `json:"search"`
	Indexer  indexer.HealthStatus  `json:"indexer"`
	Progress indexer.IndexProgress `json:"progress"`
	Pass     map[string]string     `json:"pass"`
}

// TriggerReindex starts an indexing pass in the background.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	if h.indexer.IsIndexing() {
		writeJSONError(w, "indexing already in progress", http.StatusConflict)
		return
	}

	h.indexer.TriggerIndex()
	writeJSONStatus(w, "started", http.StatusAccepted)
}

// GetStatus reports the session status, the last applied configuration and
// the status map of the current or last pass.
func (h *Handlers) GetStatus(w http.ResponseWriter, _ *http.Request) {
	response := StatusResponse{
		Search: SearchStatus{
			Status:    h.manager.Status(),
			Connected: h.manager.Connected(),
			Index:     h.manager.IndexName(),
			Config:    h.manager.LastConfiguration(),
		},
		Indexer:  h.indexer.GetHealthStatus(),
		Progress: h.indexer.GetProgress(),
		Pass:     h.indexer.Status().Snapshot(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, response)
}

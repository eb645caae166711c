package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"meilisync/internal/items"
	"meilisync/internal/logging"
	"meilisync/internal/search"
)

const maxSearchLimit = 1000

// Search queries the index. Parameters: q, limit, offset, sort (comma
// separated field:direction list) and filter.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := params.Get("q")

	opts := search.QueryOptions{
		Filter: params.Get("filter"),
	}
	if limit, err := strconv.ParseInt(params.Get("limit"), 10, 64); err == nil && limit > 0 {
		opts.Limit = min(limit, maxSearchLimit)
	}
	if offset, err := strconv.ParseInt(params.Get("offset"), 10, 64); err == nil && offset > 0 {
		opts.Offset = offset
	}
	if sort := params.Get("sort"); sort != "" {
		for _, expr := range strings.Split(sort, ",") {
			if expr = strings.TrimSpace(expr); expr != "" {
				opts.Sort = append(opts.Sort, expr)
			}
		}
	}

	if query == "" && opts.Filter == "" {
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, search.QueryResult{Hits: []items.Document{}})
		return
	}

	result, err := search.Search(r.Context(), h.manager, query, opts)
	switch {
	case errors.Is(err, search.ErrUnavailable):
		writeJSONError(w, "search engine unavailable", http.StatusServiceUnavailable)
		return
	case errors.Is(err, search.ErrInvalidSort):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		logging.Error("search %q failed: %v", query, err)
		writeJSONError(w, "search failed", http.StatusBadGateway)
		return
	}

	if result.Hits == nil {
		result.Hits = []items.Document{}
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, result)
}

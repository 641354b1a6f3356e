package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// HandleFindAllWithStream handles GET requests to stream documents from collections
// NOTE: This endpoint does NOT apply pagination - it streams ALL matching documents.
// Use /collections/{coll}/find for paginated queries.
func (h *Handler) HandleFindAllWithStream(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	for _, key := range []string{paramLimit, paramOffset, paramAfter} {
		if r.URL.Query().Has(key) {
			h.logger.Warn("pagination parameter ignored in streaming endpoint", "param", key)
		}
	}

	pred, err := predicateFromRequest(r)
	if err != nil {
		h.writeStoreError(w, r, "stream", err)
		return
	}

	items, err := h.store.FindAll(collName, pred)
	if err != nil {
		h.writeStoreError(w, r, "stream", err)
		return
	}

	// Set headers for streaming
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	// Start JSON array
	w.Write([]byte("[\n"))

	docCount := 0
	for _, item := range items {
		docJSON, err := json.Marshal(domain.Flatten(item))
		if err != nil {
			h.logger.Error("failed to marshal document", "collection", collName, "id", item.ID.String(), "err", err)
			continue // Skip this document and continue streaming
		}

		if docCount > 0 {
			w.Write([]byte(",\n"))
		}
		if _, err := w.Write(docJSON); err != nil {
			h.logger.Warn("failed to write to response", "collection", collName, "err", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		docCount++
	}

	// End JSON array
	w.Write([]byte("\n]"))

	h.logger.Info("streamed documents", "collection", collName, "count", docCount)
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// HandleWatch streams change events for a collection as newline-delimited
// JSON until the client goes away.
func (h *Handler) HandleWatch(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]
	ctx := r.Context()

	events, err := h.store.Watch(ctx, collName)
	if err != nil {
		h.writeStoreError(w, r, "watch", err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	h.logger.Info("watch started", "collection", collName)
	enc := json.NewEncoder(w)
	sent := 0
	for ev := range events {
		if err := enc.Encode(ev); err != nil {
			h.logger.Warn("failed to write change event", "collection", collName, "err", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		sent++
	}
	h.logger.Info("watch ended", "collection", collName, "events", sent)
}

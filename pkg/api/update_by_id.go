package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleUpdateById handles PATCH requests that merge fields into a document
func (h *Handler) HandleUpdateById(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	updates, err := decodeDocument(r)
	if err != nil {
		h.logger.Warn("decoding body failed", "collection", collName, "err", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	doc, err := h.store.UpdateById(collName, id, updates)
	if err != nil {
		h.writeStoreError(w, r, "update", err)
		return
	}

	h.logger.Info("updated document", "collection", collName, "id", id.String())
	writeJSON(w, http.StatusOK, doc)
}

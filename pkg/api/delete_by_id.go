package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleDeleteById handles DELETE requests to remove a specific document by ID
func (h *Handler) HandleDeleteById(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.store.DeleteById(collName, id); err != nil {
		h.writeStoreError(w, r, "delete", err)
		return
	}

	h.logger.Info("deleted document", "collection", collName, "id", id.String())
	w.WriteHeader(http.StatusNoContent)
}

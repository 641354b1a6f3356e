package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// HandleReplaceById handles PUT requests that overwrite an existing document
func (h *Handler) HandleReplaceById(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	doc, err := decodeDocument(r)
	if err != nil {
		h.logger.Warn("decoding body failed", "collection", collName, "err", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.store.ReplaceById(collName, id, doc); err != nil {
		h.writeStoreError(w, r, "replace", err)
		return
	}

	h.logger.Info("replaced document", "collection", collName, "id", id.String())
	replaced := domain.StripID(doc)
	replaced[domain.IDField] = id.String()
	writeJSON(w, http.StatusOK, replaced)
}

package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/adfharrison1/go-filedb/pkg/domain"
)

// InsertResponse carries the identifier assigned to a new document.
type InsertResponse struct {
	ID domain.Identifier `json:"_id"`
}

// HandleInsert handles POST requests to insert documents into collections
func (h *Handler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	collName := mux.Vars(r)["coll"]

	doc, err := decodeDocument(r)
	if err != nil {
		h.logger.Warn("decoding body failed", "collection", collName, "err", err)
		WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id, err := h.store.Insert(collName, doc)
	if err != nil {
		h.writeStoreError(w, r, "insert", err)
		return
	}

	h.logger.Info("inserted document", "collection", collName, "id", id.String())
	writeJSON(w, http.StatusCreated, InsertResponse{ID: id})
}
